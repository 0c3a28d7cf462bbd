package driven

import (
	"context"

	"github.com/custodia-labs/corpus/internal/core/domain"
)

// DocumentStore persists documents and their chunk text.
// Embeddings live in the VectorStore; chunk rows here carry the text spans
// the retriever hydrates results from.
type DocumentStore interface {
	// SaveDocument stores or updates a document.
	SaveDocument(ctx context.Context, doc *domain.Document) error

	// GetDocument retrieves a document by ID.
	// Returns domain.ErrNotFound when it does not exist.
	GetDocument(ctx context.Context, id string) (*domain.Document, error)

	// ListDocuments returns documents for a user. An empty userID lists
	// all documents.
	ListDocuments(ctx context.Context, userID string) ([]domain.Document, error)

	// DeleteDocument removes a document and its chunks. Deleting an
	// unknown id is not an error.
	DeleteDocument(ctx context.Context, id string) error

	// SaveChunks stores chunks for a document, replacing any previous
	// set. Atomic per call.
	SaveChunks(ctx context.Context, chunks []domain.Chunk) error

	// GetChunks retrieves all chunks for a document ordered by position.
	GetChunks(ctx context.Context, documentID string) ([]domain.Chunk, error)

	// GetChunk retrieves a specific chunk by ID.
	GetChunk(ctx context.Context, id string) (*domain.Chunk, error)

	// DeleteChunks removes all chunks for a document. Deleting for an
	// unknown document is not an error.
	DeleteChunks(ctx context.Context, documentID string) error
}

// CollectionStore persists collections and their document membership.
// Membership is an association only; deleting a collection never deletes
// its documents.
type CollectionStore interface {
	// SaveCollection stores or updates a collection.
	SaveCollection(ctx context.Context, c *domain.Collection) error

	// GetCollection retrieves a collection by ID.
	GetCollection(ctx context.Context, id string) (*domain.Collection, error)

	// ListCollections returns collections for a user.
	ListCollections(ctx context.Context, userID string) ([]domain.Collection, error)

	// DeleteCollection removes a collection and its associations.
	DeleteCollection(ctx context.Context, id string) error

	// AddDocument associates a document with a collection.
	AddDocument(ctx context.Context, collectionID, documentID string) error

	// RemoveDocument removes the association.
	RemoveDocument(ctx context.Context, collectionID, documentID string) error

	// ListDocumentIDs returns the ids of documents in a collection.
	ListDocumentIDs(ctx context.Context, collectionID string) ([]string, error)
}

// RelationshipStore persists graph edges between chunks.
// Optional; when nil, graph-augmented retrieval degrades to plain vector
// retrieval.
type RelationshipStore interface {
	// SaveEdge stores or updates an edge.
	SaveEdge(ctx context.Context, edge *domain.Relationship) error

	// Neighbours returns all edges originating from any of the chunks.
	Neighbours(ctx context.Context, chunkIDs []string) ([]domain.Relationship, error)

	// DeleteByChunks removes edges touching any of the chunks.
	DeleteByChunks(ctx context.Context, chunkIDs []string) error
}
