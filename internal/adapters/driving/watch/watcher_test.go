package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/corpus/internal/core/domain"
	"github.com/custodia-labs/corpus/internal/core/ports/driving"
)

// mockDocuments records uploads and replacements; only those two are
// exercised by the watcher.
type mockDocuments struct {
	mu         sync.Mutex
	uploads    []uploadCall
	replaces   []replaceCall
	uploadErr  error
	replaceErr error
}

type uploadCall struct {
	userID   string
	filename string
	content  string
}

type replaceCall struct {
	documentID string
	content    string
}

func (m *mockDocuments) Upload(
	_ context.Context, userID, filename, content string, _ map[string]any,
) (*domain.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.uploadErr != nil {
		return nil, m.uploadErr
	}
	m.uploads = append(m.uploads, uploadCall{userID: userID, filename: filename, content: content})
	return &domain.Document{ID: uuid.NewString(), Filename: filename, Status: domain.StatusReady}, nil
}

func (m *mockDocuments) Replace(_ context.Context, documentID, content string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.replaceErr != nil {
		return m.replaceErr
	}
	m.replaces = append(m.replaces, replaceCall{documentID: documentID, content: content})
	return nil
}

func (m *mockDocuments) Get(context.Context, string) (*domain.Document, error) {
	return nil, domain.ErrNotFound
}

func (m *mockDocuments) List(context.Context, string) ([]domain.Document, error) {
	return nil, nil
}

func (m *mockDocuments) Reingest(context.Context, string) error { return nil }
func (m *mockDocuments) Delete(context.Context, string) error   { return nil }

func (m *mockDocuments) Details(context.Context, string) (*driving.DocumentDetails, error) {
	return nil, domain.ErrNotFound
}

func (m *mockDocuments) calls() []uploadCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]uploadCall, len(m.uploads))
	copy(out, m.uploads)
	return out
}

func (m *mockDocuments) replaceCalls() []replaceCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]replaceCall, len(m.replaces))
	copy(out, m.replaces)
	return out
}

func waitResult(t *testing.T, results <-chan Result) Result {
	t.Helper()
	select {
	case r := <-results:
		return r
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for watcher result")
		return Result{}
	}
}

func TestWatcher_Run_RejectsMissingDir(t *testing.T) {
	w := New(&mockDocuments{}, "user-1")

	_, err := w.Run(context.Background(), filepath.Join(t.TempDir(), "nope"))

	require.Error(t, err)
}

func TestWatcher_Run_RejectsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plain.txt")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0600))

	w := New(&mockDocuments{}, "user-1")
	_, err := w.Run(context.Background(), path)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a directory")
}

func TestWatcher_IngestsNewFile(t *testing.T) {
	dir := t.TempDir()
	docs := &mockDocuments{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	results, err := New(docs, "user-1").Run(ctx, dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("watched content"), 0600))

	result := waitResult(t, results)
	require.NoError(t, result.Err)
	assert.NotEmpty(t, result.DocumentID)
	assert.Equal(t, filepath.Join(dir, "notes.txt"), result.Path)

	calls := docs.calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "user-1", calls[0].userID)
	assert.Equal(t, "notes.txt", calls[0].filename)
	assert.Equal(t, "watched content", calls[0].content)
}

func TestWatcher_RewriteReingestsSameDocument(t *testing.T) {
	dir := t.TempDir()
	docs := &mockDocuments{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	results, err := New(docs, "user-1").Run(ctx, dir)
	require.NoError(t, err)

	path := filepath.Join(dir, "note.txt")
	require.NoError(t, os.WriteFile(path, []byte("first version"), 0600))
	first := waitResult(t, results)
	require.NoError(t, first.Err)

	// Rewriting the same file must not mint a second document.
	require.NoError(t, os.WriteFile(path, []byte("second version"), 0600))
	second := waitResult(t, results)
	require.NoError(t, second.Err)

	assert.Equal(t, first.DocumentID, second.DocumentID)
	require.Len(t, docs.calls(), 1)

	replaces := docs.replaceCalls()
	require.Len(t, replaces, 1)
	assert.Equal(t, first.DocumentID, replaces[0].documentID)
	assert.Equal(t, "second version", replaces[0].content)
}

func TestWatcher_RewriteOfDeletedDocumentUploadsFresh(t *testing.T) {
	dir := t.TempDir()
	docs := &mockDocuments{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	results, err := New(docs, "user-1").Run(ctx, dir)
	require.NoError(t, err)

	path := filepath.Join(dir, "note.txt")
	require.NoError(t, os.WriteFile(path, []byte("first version"), 0600))
	first := waitResult(t, results)
	require.NoError(t, first.Err)

	// The document vanished (deleted through the CLI); the watcher starts
	// over with a fresh upload instead of failing forever.
	docs.mu.Lock()
	docs.replaceErr = domain.ErrNotFound
	docs.mu.Unlock()

	require.NoError(t, os.WriteFile(path, []byte("second version"), 0600))
	second := waitResult(t, results)
	require.NoError(t, second.Err)

	assert.NotEqual(t, first.DocumentID, second.DocumentID)
	calls := docs.calls()
	require.Len(t, calls, 2)
	assert.Equal(t, "second version", calls[1].content)
}

func TestWatcher_SkipsCreatedDirectory(t *testing.T) {
	dir := t.TempDir()
	docs := &mockDocuments{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	results, err := New(docs, "user-1").Run(ctx, dir)
	require.NoError(t, err)

	require.NoError(t, os.Mkdir(filepath.Join(dir, "subdir"), 0700))

	result := waitResult(t, results)
	require.Error(t, result.Err)
	assert.Contains(t, result.Err.Error(), "skipping directory")
	assert.NotContains(t, result.Err.Error(), "%!w")
	assert.Empty(t, docs.calls())
}

func TestWatcher_WriteBurstSettlesToOneUpload(t *testing.T) {
	dir := t.TempDir()
	docs := &mockDocuments{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	results, err := New(docs, "user-1").Run(ctx, dir)
	require.NoError(t, err)

	// Several quick writes to the same file must collapse into a single
	// ingestion of the final content.
	path := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("v1"), 0600))
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("v2"), 0600))
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("final"), 0600))

	result := waitResult(t, results)
	require.NoError(t, result.Err)

	calls := docs.calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "final", calls[0].content)
}

func TestWatcher_IgnoresHiddenAndTempFiles(t *testing.T) {
	dir := t.TempDir()
	docs := &mockDocuments{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	results, err := New(docs, "user-1").Run(ctx, dir)
	require.NoError(t, err)

	for _, name := range []string{".hidden", "draft.txt~", "buffer.swp", "partial.tmp"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("ignored"), 0600))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "real.txt"), []byte("kept"), 0600))

	result := waitResult(t, results)
	require.NoError(t, result.Err)

	calls := docs.calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "real.txt", calls[0].filename)
}

func TestWatcher_ReportsUploadFailure(t *testing.T) {
	dir := t.TempDir()
	docs := &mockDocuments{uploadErr: errors.New("embedding provider down")}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	results, err := New(docs, "user-1").Run(ctx, dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("content"), 0600))

	result := waitResult(t, results)
	require.Error(t, result.Err)
	assert.Contains(t, result.Err.Error(), "embedding provider down")
}

func TestWatcher_CancelClosesResults(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())

	results, err := New(&mockDocuments{}, "user-1").Run(ctx, dir)
	require.NoError(t, err)

	cancel()

	select {
	case _, open := <-results:
		assert.False(t, open)
	case <-time.After(5 * time.Second):
		t.Fatal("results channel did not close after cancel")
	}
}

func TestIgnored(t *testing.T) {
	assert.True(t, ignored("/watch/.hidden"))
	assert.True(t, ignored("/watch/file~"))
	assert.True(t, ignored("/watch/file.swp"))
	assert.True(t, ignored("/watch/file.tmp"))
	assert.False(t, ignored("/watch/file.txt"))
}
