package inbox

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/kirillkom/pdf-qa-service/internal/core/ports"
)

// Watcher feeds PDFs dropped into a directory through the regular
// upload path, so a watch folder behaves exactly like the HTTP
// endpoint. Copying a file fires a burst of Create/Write events; the
// settle timer collapses each burst into a single ingestion.
type Watcher struct {
	ingestor ports.DocumentIngestor
	dir      string
	settle   time.Duration

	mu      sync.Mutex
	pending map[string]*time.Timer
}

func NewWatcher(ingestor ports.DocumentIngestor, dir string) *Watcher {
	return &Watcher{
		ingestor: ingestor,
		dir:      dir,
		settle:   500 * time.Millisecond,
		pending:  make(map[string]*time.Timer),
	}
}

// Run blocks until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create inbox watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(w.dir); err != nil {
		return fmt.Errorf("watch inbox dir %s: %w", w.dir, err)
	}
	slog.Info("inbox watching", "dir", w.dir)

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(ctx, event)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Error("inbox watcher error", "error", err)
		case <-ctx.Done():
			return nil
		}
	}
}

func (w *Watcher) handleEvent(ctx context.Context, event fsnotify.Event) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}
	if !strings.EqualFold(filepath.Ext(event.Name), ".pdf") {
		return
	}

	path := event.Name
	w.mu.Lock()
	defer w.mu.Unlock()
	if timer, ok := w.pending[path]; ok {
		timer.Reset(w.settle)
		return
	}
	w.pending[path] = time.AfterFunc(w.settle, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()
		w.ingest(ctx, path)
	})
}

func (w *Watcher) ingest(ctx context.Context, path string) {
	if ctx.Err() != nil {
		return
	}

	f, err := os.Open(path)
	if err != nil {
		slog.Error("inbox open failed", "path", path, "error", err)
		return
	}
	defer f.Close()

	doc, err := w.ingestor.Upload(ctx, filepath.Base(path), "application/pdf", f)
	if err != nil {
		slog.Error("inbox ingest failed", "path", path, "error", err)
		return
	}
	slog.Info("inbox ingested", "path", path, "document_id", doc.ID)
}
