package knowledge

import (
	"context"
	"errors"
	"time"
)

// ErrEmptyDocument indicates ingestion was called with no usable text.
var ErrEmptyDocument = errors.New("document text is empty")

// Embedder turns texts into vectors. Batch in, batch out, index-aligned.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Translator converts text into a target language. Ingestion uses it to
// normalize non-pivot documents before chunking.
type Translator interface {
	Translate(ctx context.Context, text, target string) (string, error)
}

// Result is one retrieved chunk.
type Result struct {
	// ID is the chunk's insertion-ordered identifier; ties in score are
	// broken by ascending ID.
	ID int64 `json:"id"`

	// Source is the owning document name.
	Source string `json:"source"`

	// Content is the chunk text.
	Content string `json:"content"`

	// Score is cosine similarity, 1 - distance, higher is better.
	Score float32 `json:"score"`
}

// DocumentInfo describes one stored document for listing surfaces.
type DocumentInfo struct {
	Name      string    `json:"name"`
	Language  string    `json:"language"`
	Chunks    int       `json:"chunks"`
	CreatedAt time.Time `json:"created_at"`
}

// Search defaults and bounds.
const (
	DefaultTopK = 3
	MaxTopK     = 20

	defaultSearchTimeout = 10 * time.Second
)

// SearchOption configures a single Search call.
type SearchOption func(*searchConfig)

type searchConfig struct {
	topK    int
	source  string
	timeout time.Duration
}

// WithTopK sets the number of results. Values outside [1, MaxTopK] are
// clamped.
func WithTopK(k int) SearchOption {
	return func(c *searchConfig) {
		c.topK = k
	}
}

// WithSource restricts results to chunks of the named document.
func WithSource(name string) SearchOption {
	return func(c *searchConfig) {
		c.source = name
	}
}

func buildSearchConfig(opts []SearchOption) *searchConfig {
	cfg := &searchConfig{
		topK:    DefaultTopK,
		timeout: defaultSearchTimeout,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.topK < 1 {
		cfg.topK = DefaultTopK
	}
	if cfg.topK > MaxTopK {
		cfg.topK = MaxTopK
	}
	return cfg
}
