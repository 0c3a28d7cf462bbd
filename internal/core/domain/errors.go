package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	// Never retried; surfaced immediately.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidConfig indicates bad chunking, embedding or retrieval
	// configuration. Fatal; detected once at startup or construction.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrProviderUnavailable indicates a transient embedding or store
	// failure (network error, timeout, 429/5xx). Retried with bounded
	// backoff before being surfaced.
	ErrProviderUnavailable = errors.New("provider unavailable")

	// ErrDimensionMismatch indicates a vector's dimension does not match
	// the configured model dimension. Fatal at write time; vectors are
	// never truncated or padded.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrProcessingFailed wraps any ingestion failure after compensating
	// rollback has completed. The document is left in StatusError.
	ErrProcessingFailed = errors.New("document processing failed")

	// ErrIngestInProgress indicates an ingestion for the same document id
	// is already in flight.
	ErrIngestInProgress = errors.New("ingestion already in progress")

	// ErrLLMUnavailable indicates the LLM service is not configured.
	// Chat answers degrade to raw retrieved passages.
	ErrLLMUnavailable = errors.New("LLM service unavailable")
)
