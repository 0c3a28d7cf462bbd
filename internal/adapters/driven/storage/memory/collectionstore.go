package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/corpus/internal/core/domain"
	"github.com/custodia-labs/corpus/internal/core/ports/driven"
)

// Ensure CollectionStore implements the interface.
var _ driven.CollectionStore = (*CollectionStore)(nil)

// CollectionStore is an in-memory implementation of driven.CollectionStore.
type CollectionStore struct {
	mu          sync.RWMutex
	collections map[string]domain.Collection
	members     map[string]map[string]bool // collectionID -> documentID set
}

// NewCollectionStore creates a new in-memory collection store.
func NewCollectionStore() *CollectionStore {
	return &CollectionStore{
		collections: make(map[string]domain.Collection),
		members:     make(map[string]map[string]bool),
	}
}

// SaveCollection stores or updates a collection.
func (s *CollectionStore) SaveCollection(_ context.Context, c *domain.Collection) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.collections[c.ID] = *c
	return nil
}

// GetCollection retrieves a collection by ID.
func (s *CollectionStore) GetCollection(_ context.Context, id string) (*domain.Collection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.collections[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &c, nil
}

// ListCollections returns collections for a user.
func (s *CollectionStore) ListCollections(_ context.Context, userID string) ([]domain.Collection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Collection, 0, len(s.collections))
	for _, c := range s.collections {
		if userID == "" || c.UserID == userID {
			result = append(result, c)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

// DeleteCollection removes a collection and its associations.
// Member documents are untouched.
func (s *CollectionStore) DeleteCollection(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.collections, id)
	delete(s.members, id)
	return nil
}

// AddDocument associates a document with a collection.
func (s *CollectionStore) AddDocument(_ context.Context, collectionID, documentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.members[collectionID] == nil {
		s.members[collectionID] = make(map[string]bool)
	}
	s.members[collectionID][documentID] = true
	return nil
}

// RemoveDocument removes the association.
func (s *CollectionStore) RemoveDocument(_ context.Context, collectionID, documentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.members[collectionID], documentID)
	return nil
}

// ListDocumentIDs returns the ids of documents in a collection.
func (s *CollectionStore) ListDocumentIDs(_ context.Context, collectionID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.members[collectionID]))
	for id := range s.members[collectionID] {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
