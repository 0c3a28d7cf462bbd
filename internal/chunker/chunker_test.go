package chunker

import (
	"errors"
	"strings"
	"testing"

	"github.com/custodia-labs/corpus/internal/core/domain"
)

func TestNew(t *testing.T) {
	t.Run("default values", func(t *testing.T) {
		c, err := New()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if c.chunkSize != DefaultChunkSize {
			t.Errorf("expected chunkSize %d, got %d", DefaultChunkSize, c.chunkSize)
		}
		if c.overlap != DefaultChunkOverlap {
			t.Errorf("expected overlap %d, got %d", DefaultChunkOverlap, c.overlap)
		}
	})

	t.Run("custom values", func(t *testing.T) {
		c, err := New(WithChunkSize(500), WithOverlap(100))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if c.chunkSize != 500 || c.overlap != 100 {
			t.Errorf("expected 500/100, got %d/%d", c.chunkSize, c.overlap)
		}
	})

	t.Run("zero chunk size rejected", func(t *testing.T) {
		_, err := New(WithChunkSize(0))
		if !errors.Is(err, domain.ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("negative overlap rejected", func(t *testing.T) {
		_, err := New(WithOverlap(-1))
		if !errors.Is(err, domain.ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("overlap >= chunk size rejected", func(t *testing.T) {
		_, err := New(WithChunkSize(100), WithOverlap(100))
		if !errors.Is(err, domain.ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})
}

func TestChunker_Split_EmptyContent(t *testing.T) {
	c, _ := New()
	doc := &domain.Document{ID: "test-doc", Content: ""}

	chunks := c.Split(doc)
	if len(chunks) != 0 {
		t.Errorf("expected 0 chunks for empty content, got %d", len(chunks))
	}
}

func TestChunker_Split_SmallContent(t *testing.T) {
	c, _ := New(WithChunkSize(100), WithOverlap(20))
	doc := &domain.Document{
		ID:      "test-doc",
		Content: "This is a small piece of content.",
	}

	chunks := c.Split(doc)
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk for small content, got %d", len(chunks))
	}
	if chunks[0].Content != doc.Content {
		t.Error("expected content to match document content")
	}
	if chunks[0].Position != 0 {
		t.Errorf("expected position 0, got %d", chunks[0].Position)
	}
	if chunks[0].DocumentID != doc.ID {
		t.Errorf("expected DocumentID %q, got %q", doc.ID, chunks[0].DocumentID)
	}
}

func TestChunker_Split_SpecifiedBoundaries(t *testing.T) {
	c, _ := New(WithChunkSize(10), WithOverlap(3))

	content := "0123456789ABCDEFGHIJKLMNO" // 25 chars
	doc := &domain.Document{ID: "test-doc", Content: content}

	chunks := c.Split(doc)

	// With size 10 and overlap 3 the step is 7:
	// [0:10], [7:17], [14:24], [21:25]
	want := []string{"0123456789", "789ABCDEFG", "EFGHIJKLMN", "LMNO"}
	if len(chunks) != len(want) {
		t.Fatalf("expected %d chunks, got %d", len(want), len(chunks))
	}
	for i, w := range want {
		if chunks[i].Content != w {
			t.Errorf("chunk %d: expected %q, got %q", i, w, chunks[i].Content)
		}
	}
}

func TestChunker_Split_FullCoverageAndOverlap(t *testing.T) {
	c, _ := New(WithChunkSize(10), WithOverlap(3))

	content := "the quick brown fox jumps over the lazy dog again"
	doc := &domain.Document{ID: "test-doc", Content: content}

	chunks := c.Split(doc)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}

	// Every adjacent pair overlaps by exactly the configured overlap.
	for i := 1; i < len(chunks); i++ {
		prev, cur := chunks[i-1].Content, chunks[i].Content
		if !strings.HasPrefix(cur, prev[len(prev)-3:]) {
			t.Errorf("chunk %d does not start with the previous chunk's last 3 bytes", i)
		}
	}

	// Concatenating chunks with overlaps removed reconstructs the input.
	var b strings.Builder
	b.WriteString(chunks[0].Content)
	for i := 1; i < len(chunks); i++ {
		b.WriteString(chunks[i].Content[3:])
	}
	if b.String() != content {
		t.Errorf("reconstruction mismatch:\nwant %q\ngot  %q", content, b.String())
	}
}

func TestChunker_Split_ZeroOverlap(t *testing.T) {
	c, _ := New(WithChunkSize(50), WithOverlap(0))

	content := strings.Repeat("a", 100) // Exactly 2 chunks
	doc := &domain.Document{ID: "test-doc", Content: content}

	chunks := c.Split(doc)
	if len(chunks) != 2 {
		t.Errorf("expected 2 chunks, got %d", len(chunks))
	}
}

func TestChunker_Split_UniqueIDsAndMetadata(t *testing.T) {
	c, _ := New(WithChunkSize(100), WithOverlap(20))

	doc := &domain.Document{
		ID:      "test-doc",
		Content: strings.Repeat("x", 250),
	}

	chunks := c.Split(doc)

	seenIDs := make(map[string]bool)
	for i, chunk := range chunks {
		if seenIDs[chunk.ID] {
			t.Errorf("duplicate chunk ID: %s", chunk.ID)
		}
		seenIDs[chunk.ID] = true

		if chunk.Position != i {
			t.Errorf("expected position %d, got %d", i, chunk.Position)
		}
		if chunk.Metadata["documentId"] != doc.ID {
			t.Errorf("expected documentId metadata %q, got %v", doc.ID, chunk.Metadata["documentId"])
		}
		if chunk.Metadata["sourceType"] != SourceType {
			t.Errorf("expected sourceType metadata %q, got %v", SourceType, chunk.Metadata["sourceType"])
		}
		if chunk.Metadata["position"] != i {
			t.Errorf("expected position metadata %d, got %v", i, chunk.Metadata["position"])
		}
	}
}
