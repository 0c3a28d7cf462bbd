package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/corpus/internal/core/domain"
	"github.com/custodia-labs/corpus/internal/core/ports/driven"
	"github.com/custodia-labs/corpus/internal/core/ports/driving"
)

// Ensure CollectionService implements the interface.
var _ driving.CollectionService = (*CollectionService)(nil)

// CollectionService manages document groupings. Collections are
// associations only; they never own document or chunk lifecycles.
type CollectionService struct {
	collectionStore driven.CollectionStore
	docStore        driven.DocumentStore
}

// NewCollectionService creates a new collection service.
func NewCollectionService(
	collectionStore driven.CollectionStore,
	docStore driven.DocumentStore,
) *CollectionService {
	return &CollectionService{
		collectionStore: collectionStore,
		docStore:        docStore,
	}
}

// Create creates a named collection for a user.
func (s *CollectionService) Create(ctx context.Context, userID, name string) (*domain.Collection, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: collection name is required", domain.ErrInvalidInput)
	}

	c := &domain.Collection{
		ID:        uuid.New().String(),
		UserID:    userID,
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.collectionStore.SaveCollection(ctx, c); err != nil {
		return nil, fmt.Errorf("save collection: %w", err)
	}
	return c, nil
}

// AddDocument associates a document with a collection. Both sides must
// exist.
func (s *CollectionService) AddDocument(ctx context.Context, collectionID, documentID string) error {
	if _, err := s.collectionStore.GetCollection(ctx, collectionID); err != nil {
		return err
	}
	if _, err := s.docStore.GetDocument(ctx, documentID); err != nil {
		return err
	}
	return s.collectionStore.AddDocument(ctx, collectionID, documentID)
}

// RemoveDocument removes the association.
func (s *CollectionService) RemoveDocument(ctx context.Context, collectionID, documentID string) error {
	return s.collectionStore.RemoveDocument(ctx, collectionID, documentID)
}

// Delete removes the collection and its associations only; member
// documents and their chunks are untouched.
func (s *CollectionService) Delete(ctx context.Context, collectionID string) error {
	if _, err := s.collectionStore.GetCollection(ctx, collectionID); err != nil {
		return err
	}
	return s.collectionStore.DeleteCollection(ctx, collectionID)
}

// List returns collections for a user.
func (s *CollectionService) List(ctx context.Context, userID string) ([]domain.Collection, error) {
	return s.collectionStore.ListCollections(ctx, userID)
}
