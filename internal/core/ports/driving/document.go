package driving

import (
	"context"
	"time"

	"github.com/custodia-labs/corpus/internal/core/domain"
)

// DocumentService manages the document lifecycle around the pipeline.
type DocumentService interface {
	// Upload creates a document record in processing state and ingests
	// its content. The returned document reflects the final status.
	Upload(ctx context.Context, userID, filename, content string, metadata map[string]any) (*domain.Document, error)

	// Get retrieves a document by ID.
	Get(ctx context.Context, documentID string) (*domain.Document, error)

	// List returns documents for a user.
	List(ctx context.Context, userID string) ([]domain.Document, error)

	// Reingest re-runs the pipeline for an existing document.
	Reingest(ctx context.Context, documentID string) error

	// Replace swaps a document's content and re-runs the pipeline,
	// keeping the document ID. Waits for any in-flight ingestion of the
	// same document first.
	Replace(ctx context.Context, documentID, content string) error

	// Delete removes a document, cascading to its chunks and embeddings.
	// Waits for any in-flight ingestion of the same document first.
	Delete(ctx context.Context, documentID string) error

	// Details returns display metadata for a document.
	Details(ctx context.Context, documentID string) (*DocumentDetails, error)
}

// CollectionService manages document groupings.
type CollectionService interface {
	// Create creates a named collection for a user.
	Create(ctx context.Context, userID, name string) (*domain.Collection, error)

	// AddDocument associates a document with a collection.
	AddDocument(ctx context.Context, collectionID, documentID string) error

	// RemoveDocument removes the association.
	RemoveDocument(ctx context.Context, collectionID, documentID string) error

	// Delete removes the collection and its associations only; member
	// documents are untouched.
	Delete(ctx context.Context, collectionID string) error

	// List returns collections for a user.
	List(ctx context.Context, userID string) ([]domain.Collection, error)
}

// DocumentDetails provides a standardised view of document metadata.
type DocumentDetails struct {
	// ID is the unique document identifier.
	ID string

	// Filename is the original upload filename.
	Filename string

	// Status is the ingestion lifecycle state.
	Status domain.DocumentStatus

	// ErrorReason is set when Status is error.
	ErrorReason string

	// ChunkCount is the number of stored chunks.
	ChunkCount int

	// CreatedAt is the upload time.
	CreatedAt time.Time

	// UpdatedAt is when the document was last updated.
	UpdatedAt time.Time

	// Metadata contains flattened key-value pairs for display.
	Metadata map[string]string
}
