package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/custodia-labs/corpus/internal/core/domain"
	"github.com/custodia-labs/corpus/internal/core/ports/driven"
	"github.com/custodia-labs/corpus/internal/core/ports/driving"
	"github.com/custodia-labs/corpus/internal/logger"
)

// Ensure RetrievalService implements the interface.
var _ driving.Retriever = (*RetrievalService)(nil)

// scoredHit holds intermediate results before hydration.
type scoredHit struct {
	chunkID string
	score   float64
	method  string // "vector" or "graph"
}

// RetrievalService serves similarity queries over the ingested corpus.
type RetrievalService struct {
	docStore        driven.DocumentStore
	collectionStore driven.CollectionStore
	vectorStore     driven.VectorStore
	embedder        driven.EmbeddingService
	graphStore      driven.RelationshipStore
	cfg             domain.Config
}

// NewRetrievalService creates a new retrieval service.
// The collectionStore and graphStore parameters are optional (can be nil);
// without a graphStore, UseGraph degrades to plain vector retrieval.
func NewRetrievalService(
	docStore driven.DocumentStore,
	collectionStore driven.CollectionStore,
	vectorStore driven.VectorStore,
	embedder driven.EmbeddingService,
	graphStore driven.RelationshipStore,
	cfg domain.Config,
) *RetrievalService {
	return &RetrievalService{
		docStore:        docStore,
		collectionStore: collectionStore,
		vectorStore:     vectorStore,
		embedder:        embedder,
		graphStore:      graphStore,
		cfg:             cfg,
	}
}

// Retrieve embeds the query, searches the vector store and returns ranked
// passages. An empty corpus or zero qualifying results yields an empty
// result, never an error.
func (s *RetrievalService) Retrieve(
	ctx context.Context, query string, opts domain.RetrievalOptions,
) (*domain.RetrievalResult, error) {
	logger.Section("Retrieval")
	logger.Debug("Query: %q", query)

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: empty query", domain.ErrInvalidInput)
	}

	k := opts.K
	if k <= 0 {
		k = s.cfg.MaxResults
	}
	minSimilarity := opts.MinSimilarity
	if minSimilarity == 0 {
		minSimilarity = s.cfg.MinSimilarity
	}
	logger.Debug("k=%d, minSimilarity=%g, useGraph=%t", k, minSimilarity, opts.UseGraph)

	filter, err := s.buildFilter(ctx, opts)
	if err != nil {
		return nil, err
	}
	if filter == nil {
		// Collection scope resolved to zero documents.
		return &domain.RetrievalResult{Query: query}, nil
	}

	vector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	logger.Debug("Query embedding: %d dimensions", len(vector))

	// Request more results internally when graph expansion will re-rank.
	internalK := k
	if opts.UseGraph && s.graphStore != nil {
		internalK = k * 2
	}

	hits, err := s.vectorStore.Query(ctx, vector, internalK, *filter)
	if err != nil {
		return nil, fmt.Errorf("vector query: %w", err)
	}
	logger.Debug("Vector query: %d hits", len(hits))

	scored := make([]scoredHit, len(hits))
	for i, hit := range hits {
		scored[i] = scoredHit{chunkID: hit.ChunkID, score: hit.Score, method: "vector"}
	}

	if opts.UseGraph && s.graphStore != nil {
		scored, err = s.expandGraph(ctx, scored, minSimilarity)
		if err != nil {
			return nil, fmt.Errorf("graph expansion: %w", err)
		}
	}

	passages, err := s.hydrate(ctx, scored, minSimilarity)
	if err != nil {
		return nil, fmt.Errorf("hydrate results: %w", err)
	}

	// Strictly descending score; ties broken by most recent upload first.
	sort.SliceStable(passages, func(i, j int) bool {
		if passages[i].Score != passages[j].Score {
			return passages[i].Score > passages[j].Score
		}
		return passages[i].UploadedAt.After(passages[j].UploadedAt)
	})

	if len(passages) > k {
		passages = passages[:k]
	}
	logger.Info("Final results: %d", len(passages))

	return &domain.RetrievalResult{Query: query, Passages: passages}, nil
}

// buildFilter translates the scoping options into a vector store filter.
// Returns nil (and nil error) when a collection scope matches no documents.
func (s *RetrievalService) buildFilter(
	ctx context.Context, opts domain.RetrievalOptions,
) (*driven.VectorFilter, error) {
	filter := driven.VectorFilter{
		DocumentID: opts.DocumentID,
		UserID:     opts.UserID,
	}

	if opts.CollectionID != "" {
		if s.collectionStore == nil {
			return nil, fmt.Errorf("%w: collection store unavailable", domain.ErrInvalidInput)
		}
		ids, err := s.collectionStore.ListDocumentIDs(ctx, opts.CollectionID)
		if err != nil {
			return nil, fmt.Errorf("resolve collection %s: %w", opts.CollectionID, err)
		}
		if len(ids) == 0 {
			return nil, nil
		}
		filter.DocumentIDs = ids
		logger.Debug("Collection filter: %d documents", len(ids))
	}

	return &filter, nil
}

// expandGraph follows relationship edges one hop from the seed hits and
// appends reached chunks. A graph-reached chunk scores
// seed * edgeWeight * damping, so it can never outrank its seed; chunks
// already found directly keep their direct score.
func (s *RetrievalService) expandGraph(
	ctx context.Context, seeds []scoredHit, minSimilarity float64,
) ([]scoredHit, error) {
	if len(seeds) == 0 {
		return seeds, nil
	}

	seedIDs := make([]string, len(seeds))
	seedScores := make(map[string]float64, len(seeds))
	for i, seed := range seeds {
		seedIDs[i] = seed.chunkID
		seedScores[seed.chunkID] = seed.score
	}

	edges, err := s.graphStore.Neighbours(ctx, seedIDs)
	if err != nil {
		return nil, err
	}
	logger.Debug("Graph expansion: %d edges from %d seeds", len(edges), len(seeds))

	fused := make(map[string]float64)
	for _, edge := range edges {
		if _, isDirect := seedScores[edge.ToChunkID]; isDirect {
			continue
		}
		weight := edge.Weight
		if weight <= 0 || weight > 1 {
			weight = 1
		}
		score := seedScores[edge.FromChunkID] * weight * s.cfg.GraphDamping
		if score < minSimilarity {
			continue
		}
		if score > fused[edge.ToChunkID] {
			fused[edge.ToChunkID] = score
		}
	}

	result := seeds
	for chunkID, score := range fused {
		result = append(result, scoredHit{chunkID: chunkID, score: score, method: "graph"})
	}
	return result, nil
}

// hydrate converts chunk ids to passages with provenance, dropping hits
// below the threshold and hits whose chunk or document has been deleted
// or is not ready.
func (s *RetrievalService) hydrate(
	ctx context.Context, hits []scoredHit, minSimilarity float64,
) ([]domain.RetrievedPassage, error) {
	passages := make([]domain.RetrievedPassage, 0, len(hits))
	docs := make(map[string]*domain.Document)

	for _, hit := range hits {
		if hit.score < minSimilarity {
			continue
		}

		chunk, err := s.docStore.GetChunk(ctx, hit.chunkID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				continue // Chunk was deleted, skip it
			}
			return nil, fmt.Errorf("get chunk %s: %w", hit.chunkID, err)
		}

		doc, ok := docs[chunk.DocumentID]
		if !ok {
			doc, err = s.docStore.GetDocument(ctx, chunk.DocumentID)
			if err != nil {
				if errors.Is(err, domain.ErrNotFound) {
					continue // Document was deleted, skip it
				}
				return nil, fmt.Errorf("get document %s: %w", chunk.DocumentID, err)
			}
			docs[chunk.DocumentID] = doc
		}
		if doc.Status != domain.StatusReady {
			continue
		}

		passages = append(passages, domain.RetrievedPassage{
			ChunkID:    chunk.ID,
			DocumentID: doc.ID,
			Filename:   doc.Filename,
			Content:    chunk.Content,
			Score:      hit.score,
			Method:     hit.method,
			UploadedAt: doc.CreatedAt,
		})
	}

	return passages, nil
}
