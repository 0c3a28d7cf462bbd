package domain

import "time"

// DocumentStatus tracks the ingestion lifecycle of a document.
type DocumentStatus string

const (
	// StatusProcessing indicates ingestion is in flight. A processing
	// document is never visible to retrieval.
	StatusProcessing DocumentStatus = "processing"

	// StatusReady indicates every chunk has been embedded and stored.
	StatusReady DocumentStatus = "ready"

	// StatusError indicates ingestion failed after rollback. ErrorReason
	// carries the human-readable cause.
	StatusError DocumentStatus = "error"
)

// Document represents an uploaded file and its full text content.
// It is the unit of ingestion; chunks and embeddings are derived from it
// and cascade-deleted with it.
type Document struct {
	// ID is the unique identifier for the document.
	ID string

	// UserID is the owning user.
	UserID string

	// Filename is the original upload filename.
	Filename string

	// Content is the full text content before chunking.
	Content string

	// Status is the ingestion lifecycle state.
	Status DocumentStatus

	// ErrorReason holds the failure cause when Status is StatusError.
	ErrorReason string

	// Metadata contains arbitrary key-value pairs.
	Metadata map[string]any

	// CreatedAt is the upload time. Used as the retrieval tie-breaker.
	CreatedAt time.Time

	// UpdatedAt is when the document was last modified.
	UpdatedAt time.Time
}

// Chunk represents a contiguous span of a document's text, the unit of
// embedding and retrieval. Chunks are created only by the ingestion
// pipeline, never by callers.
type Chunk struct {
	// ID is the unique identifier for the chunk.
	ID string

	// DocumentID links to the owning Document.
	DocumentID string

	// Content is the text span.
	Content string

	// Position is the ordinal position within the document.
	Position int

	// Embedding is the vector representation. Populated by the pipeline
	// before the chunk is persisted.
	Embedding []float32

	// Metadata carries at least documentId, position and sourceType,
	// duplicated into the vector store for filter pushdown.
	Metadata map[string]any
}

// Collection groups documents under a user. Membership is many-to-many;
// deleting a collection removes only the association, never the documents.
type Collection struct {
	// ID is the unique identifier for the collection.
	ID string

	// UserID is the owning user.
	UserID string

	// Name is the human-readable collection name.
	Name string

	// CreatedAt is when the collection was created.
	CreatedAt time.Time
}

// Relationship is a directed weighted edge between two chunks, used only
// by graph-augmented retrieval. Edges are optional and never block
// ingestion.
type Relationship struct {
	// ID is the unique identifier for the edge.
	ID string

	// FromChunkID is the source chunk.
	FromChunkID string

	// ToChunkID is the target chunk.
	ToChunkID string

	// Type labels the relationship (e.g. "references", "follows").
	Type string

	// Weight scales the fused score during graph expansion. Clamped to
	// (0, 1] so a graph-reached chunk can never outrank its seed.
	Weight float64
}
