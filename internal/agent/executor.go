package agent

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/atlaslab/handbook/internal/knowledge"
)

// Retriever is the retrieval capability the executor depends on.
// Satisfied by rag.Retriever.
type Retriever interface {
	Retrieve(ctx context.Context, question string) ([]knowledge.Result, error)
}

// Executor runs the question-answering graph:
//
//	Classify → Route → (Retrieve → Grade)? → Generate → Done
//
// The retrieval sub-path executes only on the handbook branch. An empty
// relevant set, or a persistent retrieval failure, overrides the effective
// category to not_found before generation. Every request yields exactly one
// Answer; history is appended exactly once, after generation.
type Executor struct {
	classifier *Classifier
	retriever  Retriever
	grader     *Grader
	generator  *Generator
	history    *HistoryStore
	timeout    time.Duration
	logger     *slog.Logger
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithTimeout bounds each request end to end. Zero disables the bound.
func WithTimeout(d time.Duration) ExecutorOption {
	return func(e *Executor) {
		e.timeout = d
	}
}

// NewExecutor wires the graph stages together. logger may be nil.
func NewExecutor(
	classifier *Classifier,
	retriever Retriever,
	grader *Grader,
	generator *Generator,
	history *HistoryStore,
	logger *slog.Logger,
	opts ...ExecutorOption,
) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Executor{
		classifier: classifier,
		retriever:  retriever,
		grader:     grader,
		generator:  generator,
		history:    history,
		timeout:    60 * time.Second,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Ask answers one question. It never fails outward: every degraded path
// maps to a well-formed Answer whose Source reflects the path taken.
func (e *Executor) Ask(ctx context.Context, question Question) Answer {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	handle := e.history.Acquire(question.ThreadID)
	defer handle.Release()

	history := handle.History()
	start := time.Now()

	answer := e.run(ctx, question, history)
	if ctx.Err() != nil {
		// Deadline or cancellation: decline gracefully. The deferred
		// Release still runs, so the thread is never left locked.
		e.logger.Warn("request deadline exceeded",
			"thread_id", question.ThreadID,
			"elapsed", time.Since(start),
		)
		answer = Answer{Text: timeoutReply, Source: CategoryOffTopic}
	}

	handle.Append(Exchange{Question: question, Answer: answer})
	e.logger.Info("answered question",
		"thread_id", question.ThreadID,
		"source", answer.Source,
		"elapsed", time.Since(start),
	)
	return answer
}

// run executes Classify through Generate and returns the answer.
func (e *Executor) run(ctx context.Context, question Question, history []Exchange) Answer {
	category, err := e.classifier.Classify(ctx, question, history)
	if err != nil {
		// Degraded: decline rather than propagate.
		e.logger.Warn("classification degraded to off_topic",
			"thread_id", question.ThreadID,
			"error", err,
		)
		category = CategoryOffTopic
	}

	effective := category
	var relevantDocs []knowledge.Document

	if Route(category) == BranchRAG {
		effective, relevantDocs = e.retrieveAndGrade(ctx, question, history)
	}

	text := e.generator.Generate(ctx, question, history, effective, relevantDocs)
	return Answer{Text: text, Source: effective}
}

// retrieveAndGrade runs the RAG sub-path. It returns the effective category
// (handbook, or not_found when nothing survives grading) and the relevant
// documents in rank order.
func (e *Executor) retrieveAndGrade(ctx context.Context, question Question, history []Exchange) (Category, []knowledge.Document) {
	results, err := e.retriever.Retrieve(ctx, question.Text)
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrRetrieval, err)
		e.logger.Warn("retrieval degraded to not_found",
			"thread_id", question.ThreadID,
			"error", err,
		)
		return CategoryNotFound, nil
	}
	if len(results) == 0 {
		return CategoryNotFound, nil
	}

	graded := e.grader.Grade(ctx, question, results, history)
	relevant := relevantDocuments(graded)
	if len(relevant) == 0 {
		return CategoryNotFound, nil
	}
	return CategoryHandbook, relevant
}

// timeoutReply is returned when the end-to-end deadline expires.
const timeoutReply = "I'm sorry, that took too long to answer. Please try again."
