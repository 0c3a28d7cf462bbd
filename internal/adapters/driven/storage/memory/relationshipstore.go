package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/corpus/internal/core/domain"
	"github.com/custodia-labs/corpus/internal/core/ports/driven"
)

// Ensure RelationshipStore implements the interface.
var _ driven.RelationshipStore = (*RelationshipStore)(nil)

// RelationshipStore is an in-memory implementation of
// driven.RelationshipStore.
type RelationshipStore struct {
	mu    sync.RWMutex
	edges map[string]domain.Relationship
}

// NewRelationshipStore creates a new in-memory relationship store.
func NewRelationshipStore() *RelationshipStore {
	return &RelationshipStore{
		edges: make(map[string]domain.Relationship),
	}
}

// SaveEdge stores or updates an edge.
func (s *RelationshipStore) SaveEdge(_ context.Context, edge *domain.Relationship) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.edges[edge.ID] = *edge
	return nil
}

// Neighbours returns all edges originating from any of the chunks.
func (s *RelationshipStore) Neighbours(_ context.Context, chunkIDs []string) ([]domain.Relationship, error) {
	from := make(map[string]bool, len(chunkIDs))
	for _, id := range chunkIDs {
		from[id] = true
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []domain.Relationship
	for _, edge := range s.edges {
		if from[edge.FromChunkID] {
			result = append(result, edge)
		}
	}
	return result, nil
}

// DeleteByChunks removes edges touching any of the chunks.
func (s *RelationshipStore) DeleteByChunks(_ context.Context, chunkIDs []string) error {
	touched := make(map[string]bool, len(chunkIDs))
	for _, id := range chunkIDs {
		touched[id] = true
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for id, edge := range s.edges {
		if touched[edge.FromChunkID] || touched[edge.ToChunkID] {
			delete(s.edges, id)
		}
	}
	return nil
}
