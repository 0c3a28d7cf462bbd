package services

import (
	"context"
	"math"
	"strings"
	"sync"

	"github.com/custodia-labs/corpus/internal/core/domain"
	"github.com/custodia-labs/corpus/internal/core/ports/driven"
)

// --- Mock implementations ---

// mockEmbedder implements driven.EmbeddingService for testing. Texts with
// an entry in vectors get that vector; everything else gets fallback.
type mockEmbedder struct {
	mu       sync.Mutex
	vectors  map[string][]float32
	fallback []float32
	dims     int

	// failOn triggers embedErr for any batch containing the substring.
	// With failOn empty, embedErr (when set) fails every call.
	failOn   string
	embedErr error

	// block, when non-nil, makes EmbedBatch wait until the channel closes.
	block chan struct{}

	batchCalls int
}

func newMockEmbedder(dims int) *mockEmbedder {
	fallback := make([]float32, dims)
	fallback[0] = 1
	return &mockEmbedder{
		vectors:  make(map[string][]float32),
		fallback: fallback,
		dims:     dims,
	}
}

func (m *mockEmbedder) lookup(text string) []float32 {
	if v, ok := m.vectors[text]; ok {
		out := make([]float32, len(v))
		copy(out, v)
		return out
	}
	out := make([]float32, len(m.fallback))
	copy(out, m.fallback)
	return out
}

func (m *mockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if m.embedErr != nil && (m.failOn == "" || strings.Contains(text, m.failOn)) {
		return nil, m.embedErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lookup(text), nil
}

func (m *mockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if m.block != nil {
		select {
		case <-m.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.batchCalls++

	if m.embedErr != nil {
		if m.failOn == "" {
			return nil, m.embedErr
		}
		for _, text := range texts {
			if strings.Contains(text, m.failOn) {
				return nil, m.embedErr
			}
		}
	}

	result := make([][]float32, len(texts))
	for i, text := range texts {
		result[i] = m.lookup(text)
	}
	return result, nil
}

func (m *mockEmbedder) Dimensions() int {
	return m.dims
}

func (m *mockEmbedder) ModelName() string {
	return "mock-embed"
}

func (m *mockEmbedder) Ping(_ context.Context) error {
	return nil
}

func (m *mockEmbedder) Close() error {
	return nil
}

// mockLLM implements driven.LLMService for testing.
type mockLLM struct {
	reply   string
	chatErr error

	lastMessages []driven.ChatMessage
}

func (m *mockLLM) Generate(_ context.Context, _ string, _ driven.GenerateOptions) (string, error) {
	if m.chatErr != nil {
		return "", m.chatErr
	}
	return m.reply, nil
}

func (m *mockLLM) Chat(_ context.Context, messages []driven.ChatMessage, _ driven.ChatOptions) (string, error) {
	m.lastMessages = messages
	if m.chatErr != nil {
		return "", m.chatErr
	}
	return m.reply, nil
}

func (m *mockLLM) ModelName() string {
	return "mock-llm"
}

func (m *mockLLM) Ping(_ context.Context) error {
	return nil
}

func (m *mockLLM) Close() error {
	return nil
}

// mockRetriever implements driving.Retriever for testing the chat layer.
type mockRetriever struct {
	passages    []domain.RetrievedPassage
	retrieveErr error
}

func (m *mockRetriever) Retrieve(
	_ context.Context, query string, _ domain.RetrievalOptions,
) (*domain.RetrievalResult, error) {
	if m.retrieveErr != nil {
		return nil, m.retrieveErr
	}
	return &domain.RetrievalResult{Query: query, Passages: m.passages}, nil
}

// --- Test helpers ---

// testConfig returns a small, valid pipeline configuration.
func testConfig() domain.Config {
	cfg := domain.DefaultConfig()
	cfg.Dimensions = 3
	cfg.ChunkSize = 10
	cfg.ChunkOverlap = 3
	cfg.BatchSize = 2
	cfg.VectorBackend = "memory"
	return cfg
}

// simVec builds a unit vector whose cosine similarity against the query
// axis [1, 0, 0] is exactly s.
func simVec(s float64) []float32 {
	return []float32{float32(s), float32(math.Sqrt(1 - s*s)), 0}
}

// queryVec is the retrieval query axis matching simVec.
func queryVec() []float32 {
	return []float32{1, 0, 0}
}
