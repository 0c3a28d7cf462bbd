package driving

import "context"

// Ingestor runs the chunk -> embed -> store pipeline for one document as a
// single atomic logical unit.
type Ingestor interface {
	// Ingest processes the document's content into searchable chunks.
	// On success the document is marked ready; on failure all partial
	// writes are rolled back, the document is marked error, and a
	// domain.ErrProcessingFailed is returned.
	//
	// Ingestions for the same document id are serialised; a second call
	// while one is in flight returns domain.ErrIngestInProgress.
	// Re-ingesting a ready document replaces its previous chunks
	// entirely.
	Ingest(ctx context.Context, documentID string) error

	// InFlight reports whether an ingestion is currently running for the
	// document.
	InFlight(documentID string) bool

	// Wait blocks until any in-flight ingestion for the document has
	// finished or the context is cancelled.
	Wait(ctx context.Context, documentID string) error
}
