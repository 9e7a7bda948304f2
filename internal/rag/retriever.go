// Package rag retrieves handbook passages for question answering. It wraps
// the knowledge store with retry logic so transient embedding or database
// failures do not surface as user-visible errors.
package rag

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/atlaslab/handbook/internal/knowledge"
)

// Searcher is the slice of knowledge.Store the retriever needs.
type Searcher interface {
	Search(ctx context.Context, query string, opts ...knowledge.SearchOption) ([]knowledge.Result, error)
}

// Retriever performs similarity search over the handbook corpus.
// Safe for concurrent use.
type Retriever struct {
	searcher    Searcher
	topK        int
	retryConfig RetryConfig
	logger      *slog.Logger
}

// Option configures a Retriever.
type Option func(*Retriever)

// WithTopK sets the number of passages returned per query. Default is 5.
func WithTopK(k int) Option {
	return func(r *Retriever) {
		if k > 0 {
			r.topK = k
		}
	}
}

// WithRetryConfig overrides the default retry behavior.
func WithRetryConfig(cfg RetryConfig) Option {
	return func(r *Retriever) {
		r.retryConfig = cfg
	}
}

// New creates a Retriever. logger may be nil.
func New(searcher Searcher, logger *slog.Logger, opts ...Option) *Retriever {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Retriever{
		searcher:    searcher,
		topK:        5,
		retryConfig: DefaultRetryConfig(),
		logger:      logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Retrieve returns the passages most similar to question, ordered by
// descending similarity. No matching passages yields an empty slice, not an
// error. Transient failures are retried with exponential backoff.
func (r *Retriever) Retrieve(ctx context.Context, question string) ([]knowledge.Result, error) {
	var lastErr error
	delay := r.retryConfig.InitialInterval
	start := time.Now()

	for attempt := 0; attempt <= r.retryConfig.MaxRetries; attempt++ {
		results, err := r.searcher.Search(ctx, question, knowledge.WithTopK(r.topK))
		if err == nil {
			r.logger.Debug("retrieved passages",
				"count", len(results),
				"attempts", attempt+1,
				"elapsed", time.Since(start),
			)
			return results, nil
		}

		lastErr = err

		// Non-retryable error - fail immediately
		if !retryableError(err) {
			return nil, fmt.Errorf("search: %w", err)
		}

		// Last attempt - don't sleep
		if attempt == r.retryConfig.MaxRetries {
			break
		}

		r.logger.Debug("retrying search after error",
			"attempt", attempt+1,
			"delay", delay,
			"error", err,
		)

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("context canceled during retry: %w", ctx.Err())
		case <-time.After(delay):
			delay = min(delay*2, r.retryConfig.MaxInterval)
		}
	}

	return nil, fmt.Errorf("search after %d retries (elapsed: %v): %w",
		r.retryConfig.MaxRetries, time.Since(start), lastErr)
}
