package services

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/custodia-labs/corpus/internal/chunker"
	"github.com/custodia-labs/corpus/internal/core/domain"
	"github.com/custodia-labs/corpus/internal/core/ports/driven"
	"github.com/custodia-labs/corpus/internal/core/ports/driving"
	"github.com/custodia-labs/corpus/internal/logger"
)

// Ensure IngestionService implements the interface.
var _ driving.Ingestor = (*IngestionService)(nil)

// maxConcurrentBatches bounds parallel embedding requests per ingestion.
const maxConcurrentBatches = 4

// IngestionService runs the chunk -> embed -> store pipeline for one
// document as a single atomic logical unit. Ingestions for different
// documents run concurrently; ingestions for the same document id are
// limited to at most one in flight.
type IngestionService struct {
	docStore    driven.DocumentStore
	vectorStore driven.VectorStore
	embedder    driven.EmbeddingService
	splitter    *chunker.Chunker
	cfg         domain.Config

	mu       sync.Mutex
	inFlight map[string]chan struct{}
}

// NewIngestionService creates a new ingestion service. The config must
// already be validated.
func NewIngestionService(
	docStore driven.DocumentStore,
	vectorStore driven.VectorStore,
	embedder driven.EmbeddingService,
	splitter *chunker.Chunker,
	cfg domain.Config,
) *IngestionService {
	return &IngestionService{
		docStore:    docStore,
		vectorStore: vectorStore,
		embedder:    embedder,
		splitter:    splitter,
		cfg:         cfg,
		inFlight:    make(map[string]chan struct{}),
	}
}

// Ingest processes the document's content into searchable chunks.
func (s *IngestionService) Ingest(ctx context.Context, documentID string) error {
	release, err := s.acquire(documentID)
	if err != nil {
		return err
	}
	defer release()

	logger.Section("Ingestion")
	logger.Debug("Document: %s", documentID)

	doc, err := s.docStore.GetDocument(ctx, documentID)
	if err != nil {
		return fmt.Errorf("get document: %w", err)
	}

	// 1. Mark processing. A processing document is invisible to retrieval.
	doc.Status = domain.StatusProcessing
	doc.ErrorReason = ""
	if err := s.docStore.SaveDocument(ctx, doc); err != nil {
		return fmt.Errorf("mark processing: %w", err)
	}

	if err := s.run(ctx, doc); err != nil {
		s.rollback(ctx, doc, err)
		return fmt.Errorf("%w: %w", domain.ErrProcessingFailed, err)
	}

	doc.Status = domain.StatusReady
	if err := s.docStore.SaveDocument(ctx, doc); err != nil {
		s.rollback(ctx, doc, err)
		return fmt.Errorf("%w: %w", domain.ErrProcessingFailed, err)
	}

	logger.Info("Ingestion complete: %s", documentID)
	return nil
}

// run executes steps 2-4 of the pipeline: chunk, embed, store.
// Any previously stored chunks are removed first so re-ingestion replaces
// rather than accumulates.
func (s *IngestionService) run(ctx context.Context, doc *domain.Document) error {
	if err := s.vectorStore.DeleteByDocument(ctx, doc.ID); err != nil {
		return fmt.Errorf("clear stale vectors: %w", err)
	}
	if err := s.docStore.DeleteChunks(ctx, doc.ID); err != nil {
		return fmt.Errorf("clear stale chunks: %w", err)
	}

	chunks := s.splitter.Split(doc)
	logger.Debug("Chunked into %d chunks", len(chunks))
	if len(chunks) == 0 {
		// An empty document is valid; it simply has nothing to search.
		return nil
	}

	if err := s.embedChunks(ctx, chunks); err != nil {
		return err
	}

	records := make([]driven.VectorRecord, len(chunks))
	for i, chunk := range chunks {
		if len(chunk.Embedding) != s.cfg.Dimensions {
			return fmt.Errorf("%w: chunk %d has %d dimensions, want %d",
				domain.ErrDimensionMismatch, chunk.Position, len(chunk.Embedding), s.cfg.Dimensions)
		}
		records[i] = driven.VectorRecord{
			ID:     chunk.ID,
			Vector: chunk.Embedding,
			Metadata: map[string]string{
				"documentId": doc.ID,
				"position":   strconv.Itoa(chunk.Position),
				"sourceType": chunker.SourceType,
				"userId":     doc.UserID,
			},
		}
	}

	if err := s.vectorStore.Upsert(ctx, records); err != nil {
		return fmt.Errorf("upsert vectors: %w", err)
	}
	if err := s.docStore.SaveChunks(ctx, chunks); err != nil {
		return fmt.Errorf("save chunks: %w", err)
	}

	return nil
}

// embedChunks embeds all chunks in provider-sized batches, running up to
// maxConcurrentBatches requests in parallel. The first failure wins; the
// remaining batches are abandoned via context cancellation.
func (s *IngestionService) embedChunks(ctx context.Context, chunks []domain.Chunk) error {
	batchSize := s.cfg.BatchSize

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sem := make(chan struct{}, maxConcurrentBatches)
	var wg sync.WaitGroup
	var once sync.Once
	var firstErr error

	for start := 0; start < len(chunks); start += batchSize {
		end := start + batchSize
		if end > len(chunks) {
			end = len(chunks)
		}

		wg.Add(1)
		go func(batch []domain.Chunk) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				return
			}

			texts := make([]string, len(batch))
			for i := range batch {
				texts[i] = batch[i].Content
			}

			vectors, err := s.embedder.EmbedBatch(ctx, texts)
			if err != nil {
				once.Do(func() {
					firstErr = fmt.Errorf("embed batch at position %d: %w", batch[0].Position, err)
					cancel()
				})
				return
			}
			if len(vectors) != len(batch) {
				once.Do(func() {
					firstErr = fmt.Errorf("embed batch at position %d: got %d vectors for %d texts",
						batch[0].Position, len(vectors), len(batch))
					cancel()
				})
				return
			}
			for i := range batch {
				batch[i].Embedding = vectors[i]
			}
		}(chunks[start:end])
	}

	wg.Wait()
	return firstErr
}

// rollback removes any partial writes for the document and records the
// failure reason. Partial embeddings must never remain reachable.
func (s *IngestionService) rollback(ctx context.Context, doc *domain.Document, cause error) {
	logger.Warn("Ingestion failed for %s, rolling back: %v", doc.ID, cause)

	if err := s.vectorStore.DeleteByDocument(ctx, doc.ID); err != nil {
		logger.Error("Rollback: delete vectors for %s: %v", doc.ID, err)
	}
	if err := s.docStore.DeleteChunks(ctx, doc.ID); err != nil {
		logger.Error("Rollback: delete chunks for %s: %v", doc.ID, err)
	}

	doc.Status = domain.StatusError
	doc.ErrorReason = cause.Error()
	if err := s.docStore.SaveDocument(ctx, doc); err != nil {
		logger.Error("Rollback: mark error for %s: %v", doc.ID, err)
	}
}

// acquire registers an in-flight ingestion for the document id.
// A second acquisition while one is held fails with ErrIngestInProgress.
func (s *IngestionService) acquire(documentID string) (func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.inFlight[documentID]; ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrIngestInProgress, documentID)
	}

	done := make(chan struct{})
	s.inFlight[documentID] = done

	return func() {
		s.mu.Lock()
		delete(s.inFlight, documentID)
		s.mu.Unlock()
		close(done)
	}, nil
}

// InFlight reports whether an ingestion is currently running for the
// document.
func (s *IngestionService) InFlight(documentID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.inFlight[documentID]
	return ok
}

// Wait blocks until any in-flight ingestion for the document has finished
// or the context is cancelled.
func (s *IngestionService) Wait(ctx context.Context, documentID string) error {
	s.mu.Lock()
	done, ok := s.inFlight[documentID]
	s.mu.Unlock()

	if !ok {
		return nil
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
