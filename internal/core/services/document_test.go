package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	memstorage "github.com/custodia-labs/corpus/internal/adapters/driven/storage/memory"
	memvec "github.com/custodia-labs/corpus/internal/adapters/driven/vectorstore/memory"
	"github.com/custodia-labs/corpus/internal/chunker"
	"github.com/custodia-labs/corpus/internal/core/domain"
	"github.com/custodia-labs/corpus/internal/core/ports/driven"
)

// newDocumentFixture wires a document service over a real ingestion
// pipeline with in-memory stores.
func newDocumentFixture(t *testing.T, embedder driven.EmbeddingService) (
	*DocumentService, *memstorage.DocumentStore, *memvec.Store,
) {
	t.Helper()
	cfg := testConfig()

	docStore := memstorage.NewDocumentStore()
	vecStore, err := memvec.NewStore(cfg.Dimensions)
	require.NoError(t, err)

	splitter, err := chunker.New(
		chunker.WithChunkSize(cfg.ChunkSize),
		chunker.WithOverlap(cfg.ChunkOverlap),
	)
	require.NoError(t, err)

	ingestor := NewIngestionService(docStore, vecStore, embedder, splitter, cfg)
	return NewDocumentService(docStore, vecStore, ingestor), docStore, vecStore
}

func TestDocumentService_Upload_Success(t *testing.T) {
	service, docStore, _ := newDocumentFixture(t, newMockEmbedder(3))
	ctx := context.Background()

	doc, err := service.Upload(ctx, "user-1", "notes.txt", "0123456789ABCDEFGHIJKLMNO",
		map[string]any{"origin": "test"})

	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.NotEmpty(t, doc.ID)
	assert.Equal(t, domain.StatusReady, doc.Status)
	assert.Equal(t, "notes.txt", doc.Filename)

	chunks, err := docStore.GetChunks(ctx, doc.ID)
	require.NoError(t, err)
	assert.Len(t, chunks, 4)
}

func TestDocumentService_Upload_MissingFilename(t *testing.T) {
	service, _, _ := newDocumentFixture(t, newMockEmbedder(3))

	_, err := service.Upload(context.Background(), "user-1", "", "content", nil)

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestDocumentService_Upload_IngestFailureKeepsErrorRecord(t *testing.T) {
	embedder := newMockEmbedder(3)
	embedder.embedErr = errors.New("embedding down")
	service, _, _ := newDocumentFixture(t, embedder)
	ctx := context.Background()

	doc, err := service.Upload(ctx, "user-1", "notes.txt", "0123456789", nil)

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrProcessingFailed)

	// The record survives in error state for inspection and retry.
	require.NotNil(t, doc)
	assert.Equal(t, domain.StatusError, doc.Status)
	assert.Contains(t, doc.ErrorReason, "embedding down")
}

func TestDocumentService_Reingest(t *testing.T) {
	embedder := newMockEmbedder(3)
	embedder.embedErr = errors.New("first attempt fails")
	service, docStore, _ := newDocumentFixture(t, embedder)
	ctx := context.Background()

	doc, err := service.Upload(ctx, "user-1", "notes.txt", "0123456789", nil)
	require.Error(t, err)
	require.NotNil(t, doc)

	embedder.embedErr = nil
	require.NoError(t, service.Reingest(ctx, doc.ID))

	final, err := docStore.GetDocument(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusReady, final.Status)
}

func TestDocumentService_Replace(t *testing.T) {
	service, docStore, _ := newDocumentFixture(t, newMockEmbedder(3))
	ctx := context.Background()

	doc, err := service.Upload(ctx, "user-1", "notes.txt", "0123456789ABCDEFGHIJKLMNO", nil)
	require.NoError(t, err)

	chunks, err := docStore.GetChunks(ctx, doc.ID)
	require.NoError(t, err)
	require.Len(t, chunks, 4)

	require.NoError(t, service.Replace(ctx, doc.ID, "0123456789"))

	final, err := docStore.GetDocument(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusReady, final.Status)
	assert.Equal(t, "0123456789", final.Content)

	// The old chunk set is replaced, not accumulated.
	chunks, err = docStore.GetChunks(ctx, doc.ID)
	require.NoError(t, err)
	assert.Len(t, chunks, 1)
}

func TestDocumentService_Replace_UnknownDocument(t *testing.T) {
	service, _, _ := newDocumentFixture(t, newMockEmbedder(3))

	err := service.Replace(context.Background(), "missing", "content")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDocumentService_Reingest_UnknownDocument(t *testing.T) {
	service, _, _ := newDocumentFixture(t, newMockEmbedder(3))

	err := service.Reingest(context.Background(), "missing")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDocumentService_Delete_Cascades(t *testing.T) {
	service, docStore, vecStore := newDocumentFixture(t, newMockEmbedder(3))
	ctx := context.Background()

	doc, err := service.Upload(ctx, "user-1", "notes.txt", "0123456789ABCDEFGHIJKLMNO", nil)
	require.NoError(t, err)

	require.NoError(t, service.Delete(ctx, doc.ID))

	_, err = docStore.GetDocument(ctx, doc.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	chunks, err := docStore.GetChunks(ctx, doc.ID)
	require.NoError(t, err)
	assert.Empty(t, chunks)

	hits, err := vecStore.Query(ctx, queryVec(), 10, driven.VectorFilter{DocumentID: doc.ID})
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestDocumentService_Delete_WaitsForInFlightIngest(t *testing.T) {
	embedder := newMockEmbedder(3)
	embedder.block = make(chan struct{})
	cfg := testConfig()

	docStore := memstorage.NewDocumentStore()
	vecStore, err := memvec.NewStore(cfg.Dimensions)
	require.NoError(t, err)
	splitter, err := chunker.New(
		chunker.WithChunkSize(cfg.ChunkSize),
		chunker.WithOverlap(cfg.ChunkOverlap),
	)
	require.NoError(t, err)
	ingestor := NewIngestionService(docStore, vecStore, embedder, splitter, cfg)
	service := NewDocumentService(docStore, vecStore, ingestor)
	ctx := context.Background()

	saveTestDocument(t, docStore, "doc-race", "0123456789ABCDEFGHIJKLMNO")

	ingestDone := make(chan error, 1)
	go func() { ingestDone <- ingestor.Ingest(ctx, "doc-race") }()

	// Wait until the ingestion holds the slot.
	require.Eventually(t, func() bool {
		return ingestor.InFlight("doc-race")
	}, time.Second, 5*time.Millisecond)

	deleteDone := make(chan error, 1)
	go func() { deleteDone <- service.Delete(ctx, "doc-race") }()

	// Delete must not complete while the ingestion is in flight.
	select {
	case err := <-deleteDone:
		t.Fatalf("delete completed during in-flight ingestion: %v", err)
	case <-time.After(100 * time.Millisecond):
	}

	close(embedder.block)
	require.NoError(t, <-ingestDone)

	select {
	case err := <-deleteDone:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("delete did not complete after ingestion finished")
	}

	_, err = docStore.GetDocument(ctx, "doc-race")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	chunks, err := docStore.GetChunks(ctx, "doc-race")
	require.NoError(t, err)
	assert.Empty(t, chunks)

	hits, err := vecStore.Query(ctx, queryVec(), 10, driven.VectorFilter{DocumentID: "doc-race"})
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestDocumentService_Delete_UnknownDocument(t *testing.T) {
	service, _, _ := newDocumentFixture(t, newMockEmbedder(3))

	err := service.Delete(context.Background(), "missing")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDocumentService_List_ScopedByUser(t *testing.T) {
	service, _, _ := newDocumentFixture(t, newMockEmbedder(3))
	ctx := context.Background()

	_, err := service.Upload(ctx, "user-1", "a.txt", "0123456789", nil)
	require.NoError(t, err)
	_, err = service.Upload(ctx, "user-2", "b.txt", "0123456789", nil)
	require.NoError(t, err)

	docs, err := service.List(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "a.txt", docs[0].Filename)

	all, err := service.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestDocumentService_Details(t *testing.T) {
	service, _, _ := newDocumentFixture(t, newMockEmbedder(3))
	ctx := context.Background()

	doc, err := service.Upload(ctx, "user-1", "notes.txt", "0123456789ABCDEFGHIJKLMNO",
		map[string]any{"pages": 3})
	require.NoError(t, err)

	details, err := service.Details(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, doc.ID, details.ID)
	assert.Equal(t, "notes.txt", details.Filename)
	assert.Equal(t, domain.StatusReady, details.Status)
	assert.Equal(t, 4, details.ChunkCount)
	assert.Equal(t, "3", details.Metadata["pages"])
}
