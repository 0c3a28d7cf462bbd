// Package watch ingests files dropped into a directory. It watches for
// create and write events: a new file is uploaded through the document
// service, and a rewrite of a known file re-ingests the same document,
// so a directory can act as an ingestion inbox without accumulating
// duplicates.
package watch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/corpus/internal/core/domain"
	"github.com/custodia-labs/corpus/internal/core/ports/driving"
	"github.com/custodia-labs/corpus/internal/logger"
)

// settleDelay is how long a file must be quiet before it is ingested.
// Editors and copies emit bursts of write events for a single save.
const settleDelay = 500 * time.Millisecond

// Result reports the outcome of one watched-file ingestion.
type Result struct {
	Path       string
	DocumentID string
	Err        error
}

// Watcher uploads files from a directory as they appear or change.
type Watcher struct {
	documents driving.DocumentService
	userID    string

	mu      sync.Mutex
	pending map[string]*time.Timer
	known   map[string]string // path -> document id of a prior upload
}

// New creates a watcher that uploads on behalf of userID.
func New(documents driving.DocumentService, userID string) *Watcher {
	return &Watcher{
		documents: documents,
		userID:    userID,
		pending:   make(map[string]*time.Timer),
		known:     make(map[string]string),
	}
}

// Run watches dir until the context is cancelled. Each ingestion outcome
// is sent on the returned channel, which closes when the watcher stops.
func (w *Watcher) Run(ctx context.Context, dir string) (<-chan Result, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("stat watch dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("watch path %s is not a directory", dir)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}

	results := make(chan Result)
	go w.loop(ctx, fsw, results)
	return results, nil
}

// loop dispatches filesystem events until the context is cancelled.
func (w *Watcher) loop(ctx context.Context, fsw *fsnotify.Watcher, results chan<- Result) {
	defer close(results)
	defer fsw.Close()

	for {
		select {
		case <-ctx.Done():
			w.cancelPending()
			return

		case event, ok := <-fsw.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if ignored(event.Name) {
				continue
			}
			w.schedule(ctx, event.Name, results)

		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			logger.Warn("watcher error: %v", err)
		}
	}
}

// schedule arms (or re-arms) the settle timer for a path. The upload runs
// only after the file has been quiet for settleDelay.
func (w *Watcher) schedule(ctx context.Context, path string, results chan<- Result) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if timer, ok := w.pending[path]; ok {
		timer.Reset(settleDelay)
		return
	}

	w.pending[path] = time.AfterFunc(settleDelay, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()

		result := w.ingest(ctx, path)
		select {
		case results <- result:
		case <-ctx.Done():
		}
	})
}

// ingest reads the settled file and uploads it. A path seen before
// re-ingests its existing document instead of minting a new one, so a
// rewritten file never leaves stale chunks behind.
func (w *Watcher) ingest(ctx context.Context, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		return Result{Path: path, Err: fmt.Errorf("stat %s: %w", path, err)}
	}
	if info.IsDir() {
		return Result{Path: path, Err: fmt.Errorf("skipping directory %s", path)}
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return Result{Path: path, Err: fmt.Errorf("read %s: %w", path, err)}
	}

	w.mu.Lock()
	docID, seen := w.known[path]
	w.mu.Unlock()

	if seen {
		err := w.documents.Replace(ctx, docID, string(content))
		if err == nil {
			return Result{Path: path, DocumentID: docID}
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return Result{Path: path, Err: err}
		}
		// The document was deleted since the first upload; start over.
	}

	doc, err := w.documents.Upload(ctx, w.userID, filepath.Base(path), string(content), nil)
	if err != nil {
		return Result{Path: path, Err: err}
	}

	w.mu.Lock()
	w.known[path] = doc.ID
	w.mu.Unlock()
	return Result{Path: path, DocumentID: doc.ID}
}

// cancelPending stops all armed settle timers.
func (w *Watcher) cancelPending() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, timer := range w.pending {
		timer.Stop()
		delete(w.pending, path)
	}
}

// ignored filters out hidden files and editor temp files.
func ignored(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") {
		return true
	}
	if strings.HasSuffix(base, "~") || strings.HasSuffix(base, ".swp") || strings.HasSuffix(base, ".tmp") {
		return true
	}
	return false
}
