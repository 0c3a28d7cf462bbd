// Package chunker provides a fixed-size overlapping text splitter.
package chunker

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/custodia-labs/corpus/internal/core/domain"
)

// DefaultChunkSize is the default number of bytes per chunk.
const DefaultChunkSize = domain.DefaultChunkSize

// DefaultChunkOverlap is the default number of overlapping bytes.
const DefaultChunkOverlap = domain.DefaultChunkOverlap

// SourceType is recorded in every chunk's metadata.
const SourceType = "file"

// Chunker splits document content into fixed-size overlapping chunks.
// Adjacent chunks overlap by exactly the configured overlap, and the
// chunks cover the entire input with no gaps.
type Chunker struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker.
type Option func(*Chunker)

// WithChunkSize sets the chunk size in bytes.
func WithChunkSize(size int) Option {
	return func(c *Chunker) {
		c.chunkSize = size
	}
}

// WithOverlap sets the overlap between chunks in bytes.
func WithOverlap(overlap int) Option {
	return func(c *Chunker) {
		c.overlap = overlap
	}
}

// New creates a chunker. A chunk size <= 0, a negative overlap or an
// overlap >= chunk size fails with domain.ErrInvalidConfig.
func New(opts ...Option) (*Chunker, error) {
	c := &Chunker{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.chunkSize <= 0 {
		return nil, fmt.Errorf("%w: chunk size must be positive, got %d", domain.ErrInvalidConfig, c.chunkSize)
	}
	if c.overlap < 0 {
		return nil, fmt.Errorf("%w: overlap must be >= 0, got %d", domain.ErrInvalidConfig, c.overlap)
	}
	if c.overlap >= c.chunkSize {
		return nil, fmt.Errorf("%w: overlap %d must be smaller than chunk size %d",
			domain.ErrInvalidConfig, c.overlap, c.chunkSize)
	}

	return c, nil
}

// ChunkSize returns the configured chunk size.
func (c *Chunker) ChunkSize() int {
	return c.chunkSize
}

// Overlap returns the configured overlap.
func (c *Chunker) Overlap() int {
	return c.overlap
}

// Split cuts the document content into ordered chunks. Empty content
// produces no chunks and no error.
func (c *Chunker) Split(doc *domain.Document) []domain.Chunk {
	content := doc.Content
	contentLen := len(content)
	if contentLen == 0 {
		return nil
	}

	step := c.chunkSize - c.overlap
	estimated := contentLen/step + 1
	chunks := make([]domain.Chunk, 0, estimated)

	position := 0
	for start := 0; start < contentLen; start += step {
		end := start + c.chunkSize
		if end > contentLen {
			end = contentLen
		}

		chunks = append(chunks, domain.Chunk{
			ID:         uuid.New().String(),
			DocumentID: doc.ID,
			Content:    content[start:end],
			Position:   position,
			Metadata: map[string]any{
				"documentId": doc.ID,
				"position":   position,
				"sourceType": SourceType,
			},
		})
		position++

		// The last chunk reaches the end of the input; a further chunk
		// would fall entirely inside the overlap.
		if end == contentLen {
			break
		}
	}

	return chunks
}
