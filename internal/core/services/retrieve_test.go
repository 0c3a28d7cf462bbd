package services

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	memstorage "github.com/custodia-labs/corpus/internal/adapters/driven/storage/memory"
	memvec "github.com/custodia-labs/corpus/internal/adapters/driven/vectorstore/memory"
	"github.com/custodia-labs/corpus/internal/core/domain"
	"github.com/custodia-labs/corpus/internal/core/ports/driven"
)

// seedChunk describes one chunk placed in the retrieval fixture. The
// similarity is the exact cosine score the chunk will receive against the
// test query.
type seedChunk struct {
	id         string
	content    string
	similarity float64
}

type seedDoc struct {
	id        string
	userID    string
	filename  string
	status    domain.DocumentStatus
	createdAt time.Time
	chunks    []seedChunk
}

// retrievalFixture bundles the stores behind a retrieval service.
type retrievalFixture struct {
	service         *RetrievalService
	docStore        *memstorage.DocumentStore
	collectionStore *memstorage.CollectionStore
	graphStore      *memstorage.RelationshipStore
	embedder        *mockEmbedder
}

// newRetrievalFixture seeds documents and pre-embedded chunks, and maps
// the query "test query" to the axis all similarities are measured on.
func newRetrievalFixture(t *testing.T, docs []seedDoc) *retrievalFixture {
	t.Helper()
	cfg := testConfig()
	ctx := context.Background()

	docStore := memstorage.NewDocumentStore()
	collectionStore := memstorage.NewCollectionStore()
	graphStore := memstorage.NewRelationshipStore()
	vecStore, err := memvec.NewStore(cfg.Dimensions)
	require.NoError(t, err)

	embedder := newMockEmbedder(cfg.Dimensions)
	embedder.vectors["test query"] = queryVec()

	for _, d := range docs {
		doc := &domain.Document{
			ID:        d.id,
			UserID:    d.userID,
			Filename:  d.filename,
			Status:    d.status,
			CreatedAt: d.createdAt,
			UpdatedAt: d.createdAt,
		}
		require.NoError(t, docStore.SaveDocument(ctx, doc))

		chunks := make([]domain.Chunk, len(d.chunks))
		records := make([]driven.VectorRecord, len(d.chunks))
		for i, c := range d.chunks {
			chunks[i] = domain.Chunk{
				ID:         c.id,
				DocumentID: d.id,
				Content:    c.content,
				Position:   i,
			}
			records[i] = driven.VectorRecord{
				ID:     c.id,
				Vector: simVec(c.similarity),
				Metadata: map[string]string{
					"documentId": d.id,
					"position":   strconv.Itoa(i),
					"sourceType": "file",
					"userId":     d.userID,
				},
			}
		}
		if len(chunks) > 0 {
			require.NoError(t, docStore.SaveChunks(ctx, chunks))
			require.NoError(t, vecStore.Upsert(ctx, records))
		}
	}

	service := NewRetrievalService(docStore, collectionStore, vecStore, embedder, graphStore, cfg)
	return &retrievalFixture{
		service:         service,
		docStore:        docStore,
		collectionStore: collectionStore,
		graphStore:      graphStore,
		embedder:        embedder,
	}
}

func readyDoc(id, filename string, createdAt time.Time, chunks ...seedChunk) seedDoc {
	return seedDoc{
		id:        id,
		userID:    "user-1",
		filename:  filename,
		status:    domain.StatusReady,
		createdAt: createdAt,
		chunks:    chunks,
	}
}

func TestRetrievalService_Retrieve_EmptyQuery(t *testing.T) {
	f := newRetrievalFixture(t, nil)

	for _, query := range []string{"", "   \t\n  "} {
		_, err := f.service.Retrieve(context.Background(), query, domain.RetrievalOptions{})
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	}
}

func TestRetrievalService_Retrieve_EmptyCorpus(t *testing.T) {
	f := newRetrievalFixture(t, nil)

	result, err := f.service.Retrieve(context.Background(), "test query", domain.RetrievalOptions{})

	require.NoError(t, err)
	assert.Empty(t, result.Passages)
	assert.Equal(t, "test query", result.Query)
}

func TestRetrievalService_Retrieve_ThresholdAndOrder(t *testing.T) {
	now := time.Now().UTC()
	f := newRetrievalFixture(t, []seedDoc{
		readyDoc("doc-1", "a.txt", now,
			seedChunk{"chunk-high", "high passage", 0.9},
			seedChunk{"chunk-low", "low passage", 0.15},
			seedChunk{"chunk-mid", "mid passage", 0.5},
		),
	})

	result, err := f.service.Retrieve(context.Background(), "test query", domain.RetrievalOptions{})

	require.NoError(t, err)
	require.Len(t, result.Passages, 2)

	// Scores 0.9 and 0.5 pass the 0.2 threshold; 0.15 is excluded.
	assert.Equal(t, "chunk-high", result.Passages[0].ChunkID)
	assert.Equal(t, "chunk-mid", result.Passages[1].ChunkID)
	assert.InDelta(t, 0.9, result.Passages[0].Score, 1e-3)
	assert.InDelta(t, 0.5, result.Passages[1].Score, 1e-3)
	for _, p := range result.Passages {
		assert.Equal(t, "vector", p.Method)
		assert.Equal(t, "a.txt", p.Filename)
		assert.Equal(t, "doc-1", p.DocumentID)
	}
}

func TestRetrievalService_Retrieve_NegativeThresholdDisablesFilter(t *testing.T) {
	now := time.Now().UTC()
	f := newRetrievalFixture(t, []seedDoc{
		readyDoc("doc-1", "a.txt", now,
			seedChunk{"chunk-high", "high passage", 0.9},
			seedChunk{"chunk-low", "low passage", 0.05},
		),
	})

	result, err := f.service.Retrieve(context.Background(), "test query",
		domain.RetrievalOptions{MinSimilarity: -1})

	require.NoError(t, err)
	assert.Len(t, result.Passages, 2)
}

func TestRetrievalService_Retrieve_KTruncation(t *testing.T) {
	now := time.Now().UTC()
	f := newRetrievalFixture(t, []seedDoc{
		readyDoc("doc-1", "a.txt", now,
			seedChunk{"chunk-1", "one", 0.9},
			seedChunk{"chunk-2", "two", 0.8},
			seedChunk{"chunk-3", "three", 0.7},
		),
	})

	result, err := f.service.Retrieve(context.Background(), "test query",
		domain.RetrievalOptions{K: 2})

	require.NoError(t, err)
	require.Len(t, result.Passages, 2)
	assert.Equal(t, "chunk-1", result.Passages[0].ChunkID)
	assert.Equal(t, "chunk-2", result.Passages[1].ChunkID)
}

func TestRetrievalService_Retrieve_TieBrokenByRecency(t *testing.T) {
	old := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	recent := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	f := newRetrievalFixture(t, []seedDoc{
		readyDoc("doc-old", "old.txt", old, seedChunk{"chunk-old", "old text", 0.8}),
		readyDoc("doc-new", "new.txt", recent, seedChunk{"chunk-new", "new text", 0.8}),
	})

	result, err := f.service.Retrieve(context.Background(), "test query", domain.RetrievalOptions{})

	require.NoError(t, err)
	require.Len(t, result.Passages, 2)
	assert.Equal(t, "chunk-new", result.Passages[0].ChunkID)
	assert.Equal(t, "chunk-old", result.Passages[1].ChunkID)
}

func TestRetrievalService_Retrieve_SkipsNonReadyDocuments(t *testing.T) {
	now := time.Now().UTC()
	processing := readyDoc("doc-proc", "proc.txt", now, seedChunk{"chunk-proc", "text", 0.9})
	processing.status = domain.StatusProcessing
	failed := readyDoc("doc-err", "err.txt", now, seedChunk{"chunk-err", "text", 0.9})
	failed.status = domain.StatusError

	f := newRetrievalFixture(t, []seedDoc{
		processing,
		failed,
		readyDoc("doc-ok", "ok.txt", now, seedChunk{"chunk-ok", "text", 0.8}),
	})

	result, err := f.service.Retrieve(context.Background(), "test query", domain.RetrievalOptions{})

	require.NoError(t, err)
	require.Len(t, result.Passages, 1)
	assert.Equal(t, "chunk-ok", result.Passages[0].ChunkID)
}

func TestRetrievalService_Retrieve_DocumentScope(t *testing.T) {
	now := time.Now().UTC()
	f := newRetrievalFixture(t, []seedDoc{
		readyDoc("doc-1", "a.txt", now, seedChunk{"chunk-a", "alpha", 0.9}),
		readyDoc("doc-2", "b.txt", now, seedChunk{"chunk-b", "beta", 0.95}),
	})

	result, err := f.service.Retrieve(context.Background(), "test query",
		domain.RetrievalOptions{DocumentID: "doc-1"})

	require.NoError(t, err)
	require.Len(t, result.Passages, 1)
	assert.Equal(t, "chunk-a", result.Passages[0].ChunkID)
}

func TestRetrievalService_Retrieve_CollectionScope(t *testing.T) {
	now := time.Now().UTC()
	f := newRetrievalFixture(t, []seedDoc{
		readyDoc("doc-1", "a.txt", now, seedChunk{"chunk-a", "alpha", 0.9}),
		readyDoc("doc-2", "b.txt", now, seedChunk{"chunk-b", "beta", 0.95}),
	})
	ctx := context.Background()

	collection := &domain.Collection{ID: "col-1", UserID: "user-1", Name: "subset", CreatedAt: now}
	require.NoError(t, f.collectionStore.SaveCollection(ctx, collection))
	require.NoError(t, f.collectionStore.AddDocument(ctx, "col-1", "doc-1"))

	result, err := f.service.Retrieve(ctx, "test query",
		domain.RetrievalOptions{CollectionID: "col-1"})

	require.NoError(t, err)
	require.Len(t, result.Passages, 1)
	assert.Equal(t, "chunk-a", result.Passages[0].ChunkID)
}

func TestRetrievalService_Retrieve_EmptyCollectionScope(t *testing.T) {
	now := time.Now().UTC()
	f := newRetrievalFixture(t, []seedDoc{
		readyDoc("doc-1", "a.txt", now, seedChunk{"chunk-a", "alpha", 0.9}),
	})
	ctx := context.Background()

	collection := &domain.Collection{ID: "col-empty", UserID: "user-1", Name: "empty", CreatedAt: now}
	require.NoError(t, f.collectionStore.SaveCollection(ctx, collection))

	result, err := f.service.Retrieve(ctx, "test query",
		domain.RetrievalOptions{CollectionID: "col-empty"})

	require.NoError(t, err)
	assert.Empty(t, result.Passages)
}

func TestRetrievalService_Retrieve_GraphExpansion(t *testing.T) {
	now := time.Now().UTC()
	f := newRetrievalFixture(t, []seedDoc{
		readyDoc("doc-1", "a.txt", now,
			seedChunk{"chunk-seed", "seed passage", 0.9},
		),
		// Outside the direct scope; reachable only through the edge.
		readyDoc("doc-2", "b.txt", now,
			seedChunk{"chunk-linked", "linked passage", 0.1},
		),
	})
	ctx := context.Background()

	require.NoError(t, f.graphStore.SaveEdge(ctx, &domain.Relationship{
		ID:          "edge-1",
		FromChunkID: "chunk-seed",
		ToChunkID:   "chunk-linked",
		Type:        "references",
		Weight:      1.0,
	}))

	result, err := f.service.Retrieve(ctx, "test query",
		domain.RetrievalOptions{DocumentID: "doc-1", UseGraph: true})

	require.NoError(t, err)
	require.Len(t, result.Passages, 2)

	seed := result.Passages[0]
	linked := result.Passages[1]
	assert.Equal(t, "chunk-seed", seed.ChunkID)
	assert.Equal(t, "vector", seed.Method)
	assert.Equal(t, "chunk-linked", linked.ChunkID)
	assert.Equal(t, "graph", linked.Method)
	assert.Equal(t, "doc-2", linked.DocumentID)

	// Fused score is seed * weight * damping and never outranks the seed.
	assert.InDelta(t, 0.9*1.0*0.9, linked.Score, 1e-3)
	assert.Greater(t, seed.Score, linked.Score)
}

func TestRetrievalService_Retrieve_GraphKeepsDirectScore(t *testing.T) {
	now := time.Now().UTC()
	f := newRetrievalFixture(t, []seedDoc{
		readyDoc("doc-1", "a.txt", now,
			seedChunk{"chunk-seed", "seed passage", 0.9},
			// Also reachable via graph, but found directly with its own score.
			seedChunk{"chunk-both", "direct passage", 0.5},
		),
	})
	ctx := context.Background()

	require.NoError(t, f.graphStore.SaveEdge(ctx, &domain.Relationship{
		ID:          "edge-1",
		FromChunkID: "chunk-seed",
		ToChunkID:   "chunk-both",
		Weight:      1.0,
	}))

	result, err := f.service.Retrieve(ctx, "test query",
		domain.RetrievalOptions{UseGraph: true})

	require.NoError(t, err)
	require.Len(t, result.Passages, 2)

	// The direct score (0.5) wins over the fused one (0.81 would only apply
	// to chunks not found directly).
	assert.Equal(t, "chunk-both", result.Passages[1].ChunkID)
	assert.Equal(t, "vector", result.Passages[1].Method)
	assert.InDelta(t, 0.5, result.Passages[1].Score, 1e-3)
}

func TestRetrievalService_Retrieve_GraphBelowThresholdDropped(t *testing.T) {
	now := time.Now().UTC()
	f := newRetrievalFixture(t, []seedDoc{
		readyDoc("doc-1", "a.txt", now,
			seedChunk{"chunk-seed", "seed passage", 0.3},
		),
		readyDoc("doc-2", "b.txt", now,
			seedChunk{"chunk-linked", "linked passage", 0.1},
		),
	})
	ctx := context.Background()

	// Fused score 0.3 * 0.5 * 0.9 = 0.135 falls below the 0.2 threshold.
	require.NoError(t, f.graphStore.SaveEdge(ctx, &domain.Relationship{
		ID:          "edge-1",
		FromChunkID: "chunk-seed",
		ToChunkID:   "chunk-linked",
		Weight:      0.5,
	}))

	result, err := f.service.Retrieve(ctx, "test query",
		domain.RetrievalOptions{DocumentID: "doc-1", UseGraph: true})

	require.NoError(t, err)
	require.Len(t, result.Passages, 1)
	assert.Equal(t, "chunk-seed", result.Passages[0].ChunkID)
}

func TestRetrievalService_Retrieve_WithoutGraphStore(t *testing.T) {
	now := time.Now().UTC()
	f := newRetrievalFixture(t, []seedDoc{
		readyDoc("doc-1", "a.txt", now, seedChunk{"chunk-a", "alpha", 0.9}),
	})

	// UseGraph degrades to plain vector retrieval without a graph store.
	cfg := testConfig()
	service := NewRetrievalService(f.docStore, f.collectionStore,
		f.service.vectorStore, f.embedder, nil, cfg)

	result, err := service.Retrieve(context.Background(), "test query",
		domain.RetrievalOptions{UseGraph: true})

	require.NoError(t, err)
	require.Len(t, result.Passages, 1)
	assert.Equal(t, "vector", result.Passages[0].Method)
}
