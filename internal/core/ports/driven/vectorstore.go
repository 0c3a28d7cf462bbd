package driven

import "context"

// VectorRecord is one chunk embedding plus the metadata duplicated for
// filter pushdown.
type VectorRecord struct {
	// ID is the chunk id the vector is keyed by.
	ID string

	// Vector is the embedding. Its dimension must equal the store's
	// configured dimension or Upsert fails with
	// domain.ErrDimensionMismatch.
	Vector []float32

	// Metadata carries at least documentId, position and sourceType.
	Metadata map[string]string
}

// VectorFilter restricts query candidates by metadata equality.
// Zero-value fields are ignored.
type VectorFilter struct {
	// DocumentID matches records belonging to a single document.
	DocumentID string

	// DocumentIDs matches records belonging to any of the documents.
	// Used for collection-scoped retrieval.
	DocumentIDs []string

	// UserID matches records owned by a user.
	UserID string

	// SourceType matches the record's sourceType metadata.
	SourceType string
}

// VectorHit is one similarity search result.
type VectorHit struct {
	// ChunkID is the matched chunk.
	ChunkID string

	// Score is the cosine similarity in [-1, 1].
	Score float64

	// Metadata is the record's stored metadata.
	Metadata map[string]string
}

// VectorStore persists chunk embeddings and serves nearest-neighbour
// queries with metadata filtering. Cosine similarity is the reference
// metric. The store does not apply relevance thresholds; the retriever
// does.
//
// Implementations: in-memory, SQLite (relational), chromem (dedicated
// vector database). Selected at construction time.
type VectorStore interface {
	// Upsert inserts or replaces records by id. Atomic per call from the
	// caller's perspective; may be internally batched.
	Upsert(ctx context.Context, records []VectorRecord) error

	// DeleteByDocument removes every record whose metadata references
	// the document. Succeeds even if zero records match.
	DeleteByDocument(ctx context.Context, documentID string) error

	// Query returns at most k hits ordered by descending similarity.
	Query(ctx context.Context, vector []float32, k int, filter VectorFilter) ([]VectorHit, error)

	// Close releases resources.
	Close() error
}
