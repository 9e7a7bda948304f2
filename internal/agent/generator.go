package agent

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/atlaslab/handbook/internal/knowledge"
)

// Generator produces the final answer text for the effective category.
// It never fails outward: a failed model call yields the fixed fallback
// apology instead of an error.
type Generator struct {
	generator TextGenerator
	logger    *slog.Logger
}

// NewGenerator creates a Generator. logger may be nil.
func NewGenerator(generator TextGenerator, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{generator: generator, logger: logger}
}

// Generate returns the answer text for question under effectiveCategory.
// Decline and not-found branches return fixed templates with no model call.
func (g *Generator) Generate(ctx context.Context, question Question, history []Exchange, effectiveCategory Category, relevantDocs []knowledge.Document) string {
	switch effectiveCategory {
	case CategoryOffTopic:
		return offTopicReply
	case CategoryNotFound:
		return notFoundReply
	case CategoryConversational:
		return g.callModel(ctx, question, conversationalPrompt(question, history))
	case CategoryHandbook:
		return g.callModel(ctx, question, generatePrompt(question, history, relevantDocs))
	default:
		// Unreachable for categories built through ParseCategory.
		return offTopicReply
	}
}

func (g *Generator) callModel(ctx context.Context, question Question, prompt string) string {
	text, err := g.generator.GenerateText(ctx, prompt)
	if err != nil {
		g.logger.Warn("generation failed, returning fallback",
			"thread_id", question.ThreadID,
			"error", fmt.Errorf("%w: %w", ErrGeneration, err),
		)
		return fallbackApology
	}
	return text
}
