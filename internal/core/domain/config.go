package domain

import (
	"fmt"
	"time"
)

// Default configuration values.
const (
	DefaultChunkSize     = 1000
	DefaultChunkOverlap  = 200
	DefaultMaxResults    = 10
	DefaultMinSimilarity = 0.2
	DefaultGraphDamping  = 0.9
	DefaultBatchSize     = 64
	DefaultMaxRetries    = 3
	DefaultEmbedTimeout  = 60 * time.Second
)

// Config is the single configuration struct for the ingestion and
// retrieval pipeline. It is validated once at startup and passed by value
// into each component.
type Config struct {
	// EmbeddingProvider selects the embedding adapter: "openai" or
	// "ollama".
	EmbeddingProvider string

	// EmbeddingModel is the embedding model name.
	EmbeddingModel string

	// Dimensions is the embedding vector size. Every stored vector must
	// match it exactly.
	Dimensions int

	// BatchSize is the maximum number of texts per embedding request.
	BatchSize int

	// MaxRetries caps retry attempts for transient embedding failures.
	MaxRetries int

	// EmbedTimeout bounds each embedding request.
	EmbedTimeout time.Duration

	// RequestsPerSecond rate-limits embedding calls. Zero disables.
	RequestsPerSecond float64

	// ChunkSize is the chunk length in bytes.
	ChunkSize int

	// ChunkOverlap is the overlap between adjacent chunks in bytes.
	// Must be >= 0 and < ChunkSize.
	ChunkOverlap int

	// MaxResults is the default result-count cap for retrieval.
	MaxResults int

	// MinSimilarity is the default relevance threshold for retrieval.
	MinSimilarity float64

	// GraphDamping scales fused scores during graph expansion.
	// Must be in (0, 1].
	GraphDamping float64

	// VectorBackend selects the vector store: "memory", "sqlite" or
	// "chromem".
	VectorBackend string

	// DataDir is where persistent stores keep their files.
	// Empty means the adapter default (~/.corpus/data).
	DataDir string
}

// DefaultConfig returns a Config with documented defaults applied.
func DefaultConfig() Config {
	return Config{
		EmbeddingProvider: "openai",
		EmbeddingModel:    "text-embedding-3-small",
		Dimensions:        1536,
		BatchSize:         DefaultBatchSize,
		MaxRetries:        DefaultMaxRetries,
		EmbedTimeout:      DefaultEmbedTimeout,
		ChunkSize:         DefaultChunkSize,
		ChunkOverlap:      DefaultChunkOverlap,
		MaxResults:        DefaultMaxResults,
		MinSimilarity:     DefaultMinSimilarity,
		GraphDamping:      DefaultGraphDamping,
		VectorBackend:     "sqlite",
	}
}

// Validate checks every knob once at startup.
func (c Config) Validate() error {
	if c.ChunkSize <= 0 {
		return fmt.Errorf("%w: chunk size must be positive, got %d", ErrInvalidConfig, c.ChunkSize)
	}
	if c.ChunkOverlap < 0 {
		return fmt.Errorf("%w: chunk overlap must be >= 0, got %d", ErrInvalidConfig, c.ChunkOverlap)
	}
	if c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("%w: chunk overlap %d must be smaller than chunk size %d",
			ErrInvalidConfig, c.ChunkOverlap, c.ChunkSize)
	}
	if c.Dimensions <= 0 {
		return fmt.Errorf("%w: dimensions must be positive, got %d", ErrInvalidConfig, c.Dimensions)
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("%w: batch size must be positive, got %d", ErrInvalidConfig, c.BatchSize)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("%w: max retries must be >= 0, got %d", ErrInvalidConfig, c.MaxRetries)
	}
	if c.MaxResults <= 0 {
		return fmt.Errorf("%w: max results must be positive, got %d", ErrInvalidConfig, c.MaxResults)
	}
	if c.MinSimilarity < -1 || c.MinSimilarity > 1 {
		return fmt.Errorf("%w: min similarity must be in [-1, 1], got %g", ErrInvalidConfig, c.MinSimilarity)
	}
	if c.GraphDamping <= 0 || c.GraphDamping > 1 {
		return fmt.Errorf("%w: graph damping must be in (0, 1], got %g", ErrInvalidConfig, c.GraphDamping)
	}
	switch c.VectorBackend {
	case "memory", "sqlite", "chromem":
	default:
		return fmt.Errorf("%w: unknown vector backend %q", ErrInvalidConfig, c.VectorBackend)
	}
	switch c.EmbeddingProvider {
	case "openai", "ollama":
	default:
		return fmt.Errorf("%w: unknown embedding provider %q", ErrInvalidConfig, c.EmbeddingProvider)
	}
	return nil
}
