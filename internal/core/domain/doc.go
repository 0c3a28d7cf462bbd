// Package domain defines the core business entities for Corpus.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: An uploaded file and its full text content
//   - Chunk: The unit of embedding and retrieval
//   - Collection: A user-defined grouping of documents
//   - Relationship: A weighted edge between chunks for graph retrieval
//   - RetrievalResult: The ephemeral ranked outcome of one query
//   - Config: The single validated configuration struct
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
