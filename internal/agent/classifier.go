package agent

import (
	"context"
	"fmt"
	"log/slog"
)

// Classifier assigns one of the four categories to a question. A single
// constrained model call; the label is validated against the closed set.
type Classifier struct {
	generator TextGenerator
	logger    *slog.Logger
}

// NewClassifier creates a Classifier. logger may be nil.
func NewClassifier(generator TextGenerator, logger *slog.Logger) *Classifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Classifier{generator: generator, logger: logger}
}

// Classify returns the category for question given its thread history.
// Failures wrap ErrClassification; callers degrade to off_topic.
func (c *Classifier) Classify(ctx context.Context, question Question, history []Exchange) (Category, error) {
	label, err := c.generator.GenerateText(ctx, classifyPrompt(question, history))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrClassification, err)
	}

	category, err := ParseCategory(label)
	if err != nil {
		c.logger.Warn("classifier returned invalid label", "label", label)
		return "", fmt.Errorf("%w: %w", ErrClassification, err)
	}

	c.logger.Debug("classified question", "thread_id", question.ThreadID, "category", category)
	return category, nil
}
