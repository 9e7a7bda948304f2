package knowledge

import "time"

// Document is a read-only handbook corpus record. The core never mutates
// documents; they are owned by whatever indexed the corpus.
type Document struct {
	ID        string            // Unique identifier
	Content   string            // Passage text
	SourceURL string            // Where the passage came from
	Metadata  map[string]string // Optional metadata (title, section, ...)
	CreatedAt time.Time
}

// Result is a single vector-search hit.
type Result struct {
	Document   Document
	Similarity float32 // Cosine similarity (0-1), higher is closer
}

// SearchOption configures Search via the functional options pattern.
type SearchOption func(*searchConfig)

type searchConfig struct {
	topK    int
	timeout time.Duration
}

// Default search configuration.
const (
	defaultTopK          = 5
	defaultSearchTimeout = 10 * time.Second
)

// WithTopK sets the maximum number of results. Default is 5.
func WithTopK(k int) SearchOption {
	return func(c *searchConfig) {
		if k > 0 {
			c.topK = k
		}
	}
}

// WithTimeout caps the total search duration, embedding included.
func WithTimeout(d time.Duration) SearchOption {
	return func(c *searchConfig) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func buildSearchConfig(opts []SearchOption) *searchConfig {
	cfg := &searchConfig{
		topK:    defaultTopK,
		timeout: defaultSearchTimeout,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}
