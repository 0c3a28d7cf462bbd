package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/corpus/internal/core/domain"
	"github.com/custodia-labs/corpus/internal/core/ports/driven"
	"github.com/custodia-labs/corpus/internal/core/ports/driving"
	"github.com/custodia-labs/corpus/internal/logger"
)

// Ensure DocumentService implements the interface.
var _ driving.DocumentService = (*DocumentService)(nil)

// DocumentService manages the document lifecycle around the pipeline.
type DocumentService struct {
	docStore    driven.DocumentStore
	vectorStore driven.VectorStore
	ingestor    driving.Ingestor
}

// NewDocumentService creates a new document service.
func NewDocumentService(
	docStore driven.DocumentStore,
	vectorStore driven.VectorStore,
	ingestor driving.Ingestor,
) *DocumentService {
	return &DocumentService{
		docStore:    docStore,
		vectorStore: vectorStore,
		ingestor:    ingestor,
	}
}

// Upload creates a document record in processing state and ingests its
// content. The returned document reflects the final status: ready on
// success, error (with reason) on a failed ingestion.
func (s *DocumentService) Upload(
	ctx context.Context, userID, filename, content string, metadata map[string]any,
) (*domain.Document, error) {
	if filename == "" {
		return nil, fmt.Errorf("%w: filename is required", domain.ErrInvalidInput)
	}

	now := time.Now().UTC()
	doc := &domain.Document{
		ID:        uuid.New().String(),
		UserID:    userID,
		Filename:  filename,
		Content:   content,
		Status:    domain.StatusProcessing,
		Metadata:  metadata,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.docStore.SaveDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("save document: %w", err)
	}
	logger.Info("Uploaded %s as %s", filename, doc.ID)

	ingestErr := s.ingestor.Ingest(ctx, doc.ID)

	// Re-read for the final status; the pipeline owns the transitions.
	final, err := s.docStore.GetDocument(ctx, doc.ID)
	if err != nil {
		return nil, fmt.Errorf("get document after ingest: %w", err)
	}
	if ingestErr != nil {
		return final, ingestErr
	}
	return final, nil
}

// Get retrieves a document by ID.
func (s *DocumentService) Get(ctx context.Context, documentID string) (*domain.Document, error) {
	return s.docStore.GetDocument(ctx, documentID)
}

// List returns documents for a user.
func (s *DocumentService) List(ctx context.Context, userID string) ([]domain.Document, error) {
	return s.docStore.ListDocuments(ctx, userID)
}

// Reingest re-runs the pipeline for an existing document. Waits for any
// in-flight ingestion of the same document first, so the two never
// interleave.
func (s *DocumentService) Reingest(ctx context.Context, documentID string) error {
	if _, err := s.docStore.GetDocument(ctx, documentID); err != nil {
		return err
	}
	if err := s.ingestor.Wait(ctx, documentID); err != nil {
		return fmt.Errorf("wait for in-flight ingestion: %w", err)
	}
	return s.ingestor.Ingest(ctx, documentID)
}

// Replace swaps a document's content and re-runs the pipeline. The
// document keeps its ID, so prior chunks and vectors are replaced rather
// than duplicated.
func (s *DocumentService) Replace(ctx context.Context, documentID, content string) error {
	doc, err := s.docStore.GetDocument(ctx, documentID)
	if err != nil {
		return err
	}
	if err := s.ingestor.Wait(ctx, documentID); err != nil {
		return fmt.Errorf("wait for in-flight ingestion: %w", err)
	}

	doc.Content = content
	doc.UpdatedAt = time.Now().UTC()
	if err := s.docStore.SaveDocument(ctx, doc); err != nil {
		return fmt.Errorf("save document: %w", err)
	}
	logger.Info("Replaced content of %s", documentID)

	return s.ingestor.Ingest(ctx, documentID)
}

// Delete removes a document, cascading to its chunks and embeddings.
// Delete never runs concurrently with an ingestion of the same document:
// it waits for any in-flight run to finish first.
func (s *DocumentService) Delete(ctx context.Context, documentID string) error {
	if _, err := s.docStore.GetDocument(ctx, documentID); err != nil {
		return err
	}

	if err := s.ingestor.Wait(ctx, documentID); err != nil {
		return fmt.Errorf("wait for in-flight ingestion: %w", err)
	}

	if err := s.vectorStore.DeleteByDocument(ctx, documentID); err != nil {
		return fmt.Errorf("delete vectors: %w", err)
	}
	if err := s.docStore.DeleteChunks(ctx, documentID); err != nil {
		return fmt.Errorf("delete chunks: %w", err)
	}
	if err := s.docStore.DeleteDocument(ctx, documentID); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}

	logger.Info("Deleted document %s", documentID)
	return nil
}

// Details returns display metadata for a document.
func (s *DocumentService) Details(ctx context.Context, documentID string) (*driving.DocumentDetails, error) {
	doc, err := s.docStore.GetDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}

	chunkCount := 0
	chunks, err := s.docStore.GetChunks(ctx, documentID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("get chunks: %w", err)
	}
	chunkCount = len(chunks)

	metadata := make(map[string]string, len(doc.Metadata))
	for key, value := range doc.Metadata {
		metadata[key] = fmt.Sprintf("%v", value)
	}

	return &driving.DocumentDetails{
		ID:          doc.ID,
		Filename:    doc.Filename,
		Status:      doc.Status,
		ErrorReason: doc.ErrorReason,
		ChunkCount:  chunkCount,
		CreatedAt:   doc.CreatedAt,
		UpdatedAt:   doc.UpdatedAt,
		Metadata:    metadata,
	}, nil
}
