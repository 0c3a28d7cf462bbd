// Package memory provides an in-memory vector store with exact cosine
// search. It is the default backend for tests and small corpora.
package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/custodia-labs/corpus/internal/core/domain"
	"github.com/custodia-labs/corpus/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.VectorStore = (*Store)(nil)

// Store keeps vector records in memory, guarded by a RWMutex so queries
// run with unbounded read concurrency.
type Store struct {
	dimensions int

	mu      sync.RWMutex
	records map[string]driven.VectorRecord
}

// NewStore creates a new in-memory vector store for the given dimension.
func NewStore(dimensions int) (*Store, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("%w: dimensions must be positive, got %d", domain.ErrInvalidConfig, dimensions)
	}
	return &Store{
		dimensions: dimensions,
		records:    make(map[string]driven.VectorRecord),
	}, nil
}

// Upsert inserts or replaces records by id. All-or-nothing: dimensions are
// validated for the whole batch before any write.
func (s *Store) Upsert(_ context.Context, records []driven.VectorRecord) error {
	for _, r := range records {
		if len(r.Vector) != s.dimensions {
			return fmt.Errorf("%w: record %s has %d dimensions, want %d",
				domain.ErrDimensionMismatch, r.ID, len(r.Vector), s.dimensions)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range records {
		vector := make([]float32, len(r.Vector))
		copy(vector, r.Vector)
		metadata := make(map[string]string, len(r.Metadata))
		for k, v := range r.Metadata {
			metadata[k] = v
		}
		s.records[r.ID] = driven.VectorRecord{ID: r.ID, Vector: vector, Metadata: metadata}
	}
	return nil
}

// DeleteByDocument removes every record whose metadata references the
// document. Succeeds even if zero records match.
func (s *Store) DeleteByDocument(_ context.Context, documentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, r := range s.records {
		if r.Metadata["documentId"] == documentID {
			delete(s.records, id)
		}
	}
	return nil
}

// Query returns at most k hits ordered by descending cosine similarity.
func (s *Store) Query(
	_ context.Context, vector []float32, k int, filter driven.VectorFilter,
) ([]driven.VectorHit, error) {
	if len(vector) != s.dimensions {
		return nil, fmt.Errorf("%w: query vector has %d dimensions, want %d",
			domain.ErrDimensionMismatch, len(vector), s.dimensions)
	}
	if k <= 0 {
		return nil, nil
	}

	docIDs := make(map[string]bool, len(filter.DocumentIDs))
	for _, id := range filter.DocumentIDs {
		docIDs[id] = true
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	hits := make([]driven.VectorHit, 0, len(s.records))
	for _, r := range s.records {
		if !matches(r.Metadata, filter, docIDs) {
			continue
		}
		hits = append(hits, driven.VectorHit{
			ChunkID:  r.ID,
			Score:    CosineSimilarity(vector, r.Vector),
			Metadata: r.Metadata,
		})
	}

	sort.Slice(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// Close releases resources.
func (s *Store) Close() error {
	return nil
}

// matches applies the metadata equality filter.
func matches(metadata map[string]string, filter driven.VectorFilter, docIDs map[string]bool) bool {
	if filter.DocumentID != "" && metadata["documentId"] != filter.DocumentID {
		return false
	}
	if len(docIDs) > 0 && !docIDs[metadata["documentId"]] {
		return false
	}
	if filter.UserID != "" && metadata["userId"] != filter.UserID {
		return false
	}
	if filter.SourceType != "" && metadata["sourceType"] != filter.SourceType {
		return false
	}
	return true
}

// CosineSimilarity computes the cosine similarity of two equal-length
// vectors, in [-1, 1]. A zero vector yields 0.
func CosineSimilarity(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
