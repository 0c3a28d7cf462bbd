package domain

import "time"

// RetrievalOptions configures a retrieval query.
type RetrievalOptions struct {
	// CollectionID restricts results to documents in a collection.
	CollectionID string

	// DocumentID restricts results to a single document.
	DocumentID string

	// UserID restricts results to a user's documents.
	UserID string

	// K is the maximum number of results. Defaults to Config.MaxResults.
	K int

	// MinSimilarity excludes results scoring below it. Defaults to
	// Config.MinSimilarity. Zero means "use the default"; to disable the
	// threshold pass a negative value.
	MinSimilarity float64

	// UseGraph enables one-hop relationship expansion of the top results.
	UseGraph bool
}

// RetrievedPassage is one ranked retrieval hit with provenance.
type RetrievedPassage struct {
	// ChunkID is the matched chunk.
	ChunkID string

	// DocumentID is the owning document.
	DocumentID string

	// Filename is the owning document's filename.
	Filename string

	// Content is the chunk text span.
	Content string

	// Score is the relevance score. Cosine similarity for direct hits,
	// fused (always lower than the seed's) for graph-reached hits.
	Score float64

	// Method records how the passage was retrieved: "vector" or "graph".
	Method string

	// UploadedAt is the owning document's upload time.
	UploadedAt time.Time
}

// RetrievalResult is the ephemeral, ranked outcome of one query.
// It is never persisted.
type RetrievalResult struct {
	// Query is the original query string.
	Query string

	// Passages are ordered by strictly descending score; ties broken by
	// most recent upload first.
	Passages []RetrievedPassage
}

// Answer is a chat response assembled from retrieved context.
type Answer struct {
	// Text is the generated answer with citation markers appended.
	Text string

	// Passages are the retrieved passages the answer was grounded on.
	Passages []RetrievedPassage
}
