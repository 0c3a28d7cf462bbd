package driving

import (
	"context"

	"github.com/custodia-labs/corpus/internal/core/domain"
)

// Retriever serves similarity queries over the ingested corpus.
type Retriever interface {
	// Retrieve embeds the query, searches the vector store with the
	// given scoping options and returns ranked passages. An empty corpus
	// or zero qualifying results yields an empty result, never an error.
	Retrieve(ctx context.Context, query string, opts domain.RetrievalOptions) (*domain.RetrievalResult, error)
}

// ChatService answers natural-language questions grounded on retrieved
// context, with inline citations.
type ChatService interface {
	// Ask retrieves context for the message, generates an answer and
	// appends citation markers.
	Ask(ctx context.Context, message string, opts domain.RetrievalOptions) (*domain.Answer, error)
}
