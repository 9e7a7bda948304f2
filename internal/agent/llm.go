package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"golang.org/x/time/rate"
)

// TextGenerator is the single capability every judgment and generation call
// goes through: prompt in, text out. Production uses the Genkit-backed
// implementation; tests inject deterministic stubs.
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// RetryConfig configures the retry behavior for model calls.
type RetryConfig struct {
	MaxRetries      int           // Maximum number of retry attempts
	InitialInterval time.Duration // Initial backoff interval
	MaxInterval     time.Duration // Maximum backoff interval
}

// DefaultRetryConfig returns sensible defaults for LLM API calls.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:      3,
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     10 * time.Second,
	}
}

// retryablePatterns groups error substrings by category.
// Matched case-insensitively against err.Error().
//
// NOTE: This uses string matching because Genkit and LLM provider SDKs
// do not expose typed/sentinel errors for transient failures.
// This is a documented exception to the project rule against
// strings.Contains(err.Error(), ...).
var retryablePatterns = [][]string{
	{"rate limit", "quota exceeded", "429"},      // rate limiting
	{"500", "502", "503", "504", "unavailable"},  // transient server errors
	{"connection reset", "timeout", "temporary"}, // network errors
}

// retryableError reports whether err is transient and should trigger a retry.
func retryableError(err error) bool {
	if err == nil {
		return false
	}
	errStr := strings.ToLower(err.Error())
	for _, group := range retryablePatterns {
		for _, pattern := range group {
			if strings.Contains(errStr, pattern) {
				return true
			}
		}
	}
	return false
}

// ModelClient is the Genkit-backed TextGenerator. It rate-limits each
// attempt and retries transient failures with exponential backoff.
// Safe for concurrent use.
type ModelClient struct {
	g           *genkit.Genkit
	modelName   string
	temperature float64
	limiter     *rate.Limiter
	retryConfig RetryConfig
	logger      *slog.Logger
}

// ModelClientOption configures a ModelClient.
type ModelClientOption func(*ModelClient)

// WithTemperature sets the sampling temperature for generation calls.
func WithTemperature(t float64) ModelClientOption {
	return func(c *ModelClient) {
		c.temperature = t
	}
}

// WithRateLimiter sets a proactive limiter applied before each attempt.
func WithRateLimiter(l *rate.Limiter) ModelClientOption {
	return func(c *ModelClient) {
		c.limiter = l
	}
}

// WithRetryConfig overrides the default retry behavior.
func WithRetryConfig(cfg RetryConfig) ModelClientOption {
	return func(c *ModelClient) {
		c.retryConfig = cfg
	}
}

// NewModelClient creates a ModelClient for the named model. logger may be nil.
func NewModelClient(g *genkit.Genkit, modelName string, logger *slog.Logger, opts ...ModelClientOption) *ModelClient {
	if logger == nil {
		logger = slog.Default()
	}
	c := &ModelClient{
		g:           g,
		modelName:   modelName,
		temperature: 0.2,
		retryConfig: DefaultRetryConfig(),
		logger:      logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GenerateText executes one prompt with backoff retry, returning the
// response text.
func (c *ModelClient) GenerateText(ctx context.Context, prompt string) (string, error) {
	var lastErr error
	delay := c.retryConfig.InitialInterval
	start := time.Now()

	for attempt := 0; attempt <= c.retryConfig.MaxRetries; attempt++ {
		// Rate limit EACH attempt, not just the first
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return "", fmt.Errorf("rate limit wait: %w", err)
			}
		}

		resp, err := genkit.Generate(ctx, c.g,
			ai.WithModelName(c.modelName),
			ai.WithPrompt(prompt),
			ai.WithConfig(map[string]any{"temperature": c.temperature}),
		)
		if err == nil {
			c.logger.Debug("model call succeeded",
				"attempts", attempt+1,
				"elapsed", time.Since(start),
			)
			return resp.Text(), nil
		}

		lastErr = err

		// Non-retryable error - fail immediately
		if !retryableError(err) {
			return "", fmt.Errorf("generate: %w", err)
		}

		// Last attempt - don't sleep
		if attempt == c.retryConfig.MaxRetries {
			break
		}

		c.logger.Debug("retrying model call after error",
			"attempt", attempt+1,
			"delay", delay,
			"error", err,
		)

		select {
		case <-ctx.Done():
			return "", fmt.Errorf("context canceled during retry: %w", ctx.Err())
		case <-time.After(delay):
			delay = min(delay*2, c.retryConfig.MaxInterval)
		}
	}

	return "", fmt.Errorf("generate after %d retries (elapsed: %v): %w",
		c.retryConfig.MaxRetries, time.Since(start), lastErr)
}
