// Package chromem provides a vector store backed by chromem-go, a
// persistent embedded vector database. It trades the exact scan of the
// memory backend for durable storage on disk.
package chromem

import (
	"context"
	"fmt"
	"math"

	"github.com/philippgille/chromem-go"

	"github.com/custodia-labs/corpus/internal/core/domain"
	"github.com/custodia-labs/corpus/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.VectorStore = (*Store)(nil)

const collectionName = "corpus_chunks"

// Store persists vector records in a chromem-go collection configured for
// cosine distance.
type Store struct {
	db         *chromem.DB
	collection *chromem.Collection
	dimensions int
}

// NewStore opens (or creates) a persistent chromem database at path.
func NewStore(path string, dimensions int) (*Store, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("%w: dimensions must be positive, got %d", domain.ErrInvalidConfig, dimensions)
	}

	db, err := chromem.NewPersistentDB(path, false)
	if err != nil {
		return nil, fmt.Errorf("opening chromem database: %w", err)
	}

	collection, err := db.GetOrCreateCollection(collectionName, map[string]string{
		"hnsw:space": "cosine",
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("creating collection: %w", err)
	}

	return &Store{
		db:         db,
		collection: collection,
		dimensions: dimensions,
	}, nil
}

// Upsert inserts or replaces records by id. Dimensions are validated for
// the whole batch before any write.
func (s *Store) Upsert(ctx context.Context, records []driven.VectorRecord) error {
	if len(records) == 0 {
		return nil
	}
	for _, r := range records {
		if len(r.Vector) != s.dimensions {
			return fmt.Errorf("%w: record %s has %d dimensions, want %d",
				domain.ErrDimensionMismatch, r.ID, len(r.Vector), s.dimensions)
		}
	}

	ids := make([]string, len(records))
	vectors := make([][]float32, len(records))
	metadatas := make([]map[string]string, len(records))
	contents := make([]string, len(records))
	for i, r := range records {
		ids[i] = r.ID
		vectors[i] = r.Vector
		metadata := make(map[string]string, len(r.Metadata))
		for k, v := range r.Metadata {
			metadata[k] = v
		}
		metadatas[i] = metadata
		// Content is hydrated from the document store at retrieval time;
		// chromem only needs a placeholder so the record is valid.
		contents[i] = r.ID
	}

	if err := s.collection.Add(ctx, ids, vectors, metadatas, contents); err != nil {
		return fmt.Errorf("adding records: %w", err)
	}
	return nil
}

// DeleteByDocument removes every record whose metadata references the
// document. Succeeds even if zero records match.
func (s *Store) DeleteByDocument(ctx context.Context, documentID string) error {
	if s.collection.Count() == 0 {
		return nil
	}
	if err := s.collection.Delete(ctx, map[string]string{"documentId": documentID}, nil); err != nil {
		return fmt.Errorf("deleting records: %w", err)
	}
	return nil
}

// Query returns at most k hits ordered by descending cosine similarity.
// Single-value filters are pushed into chromem; the multi-document filter
// is applied after the query since chromem only supports equality matches.
func (s *Store) Query(
	ctx context.Context, vector []float32, k int, filter driven.VectorFilter,
) ([]driven.VectorHit, error) {
	if len(vector) != s.dimensions {
		return nil, fmt.Errorf("%w: query vector has %d dimensions, want %d",
			domain.ErrDimensionMismatch, len(vector), s.dimensions)
	}
	if k <= 0 {
		return nil, nil
	}

	count := s.collection.Count()
	if count == 0 {
		return nil, nil
	}

	where := make(map[string]string)
	if filter.DocumentID != "" {
		where["documentId"] = filter.DocumentID
	}
	if filter.UserID != "" {
		where["userId"] = filter.UserID
	}
	if filter.SourceType != "" {
		where["sourceType"] = filter.SourceType
	}
	if len(where) == 0 {
		where = nil
	}

	// The multi-document filter cannot be pushed down, so over-fetch and
	// trim afterwards. chromem rejects nResults above the record count.
	n := k
	if len(filter.DocumentIDs) > 0 || n > count {
		n = count
	}

	results, err := s.collection.QueryEmbedding(ctx, vector, n, where, nil)
	if err != nil {
		return nil, fmt.Errorf("querying collection: %w", err)
	}

	docIDs := make(map[string]bool, len(filter.DocumentIDs))
	for _, id := range filter.DocumentIDs {
		docIDs[id] = true
	}

	hits := make([]driven.VectorHit, 0, len(results))
	for _, result := range results {
		if len(docIDs) > 0 && !docIDs[result.Metadata["documentId"]] {
			continue
		}
		metadata := make(map[string]string, len(result.Metadata))
		for key, value := range result.Metadata {
			metadata[key] = value
		}
		hits = append(hits, driven.VectorHit{
			ChunkID:  result.ID,
			Score:    roundScore(float64(result.Similarity)),
			Metadata: metadata,
		})
		if len(hits) == k {
			break
		}
	}
	return hits, nil
}

// Close releases resources. chromem persists writes as they happen, so
// there is nothing to flush.
func (s *Store) Close() error {
	return nil
}

// roundScore trims float32 noise so equal vectors score exactly 1.
func roundScore(score float64) float64 {
	return math.Round(score*1e6) / 1e6
}
