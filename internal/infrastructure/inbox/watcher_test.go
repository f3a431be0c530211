package inbox

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/kirillkom/pdf-qa-service/internal/core/domain"
)

type ingestorFake struct {
	mu        sync.Mutex
	filenames []string
	bodies    []string
}

func (f *ingestorFake) Upload(_ context.Context, filename, _ string, body io.Reader) (*domain.Document, error) {
	raw, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.filenames = append(f.filenames, filename)
	f.bodies = append(f.bodies, string(raw))
	return &domain.Document{ID: "doc-1", Filename: filename}, nil
}

func (f *ingestorFake) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.filenames)
}

func waitForUploads(t *testing.T, fake *ingestorFake, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if fake.count() >= want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("expected %d uploads, got %d", want, fake.count())
}

func TestHandleEventIngestsDroppedPDF(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "report.pdf")
	if err := os.WriteFile(path, []byte("%PDF-1.7 body"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	fake := &ingestorFake{}
	w := NewWatcher(fake, dir)
	w.settle = 10 * time.Millisecond

	w.handleEvent(context.Background(), fsnotify.Event{Name: path, Op: fsnotify.Create})
	waitForUploads(t, fake, 1)

	if fake.filenames[0] != "report.pdf" {
		t.Fatalf("expected base filename, got %q", fake.filenames[0])
	}
	if fake.bodies[0] != "%PDF-1.7 body" {
		t.Fatalf("expected file content forwarded, got %q", fake.bodies[0])
	}
}

func TestHandleEventCollapsesEventBurst(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "report.pdf")
	if err := os.WriteFile(path, []byte("%PDF-1.7 body"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	fake := &ingestorFake{}
	w := NewWatcher(fake, dir)
	w.settle = 20 * time.Millisecond

	ctx := context.Background()
	w.handleEvent(ctx, fsnotify.Event{Name: path, Op: fsnotify.Create})
	w.handleEvent(ctx, fsnotify.Event{Name: path, Op: fsnotify.Write})
	w.handleEvent(ctx, fsnotify.Event{Name: path, Op: fsnotify.Write})

	waitForUploads(t, fake, 1)
	time.Sleep(60 * time.Millisecond)
	if got := fake.count(); got != 1 {
		t.Fatalf("expected single ingestion for event burst, got %d", got)
	}
}

func TestHandleEventIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(path, []byte("plain text"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	fake := &ingestorFake{}
	w := NewWatcher(fake, dir)
	w.settle = 10 * time.Millisecond

	w.handleEvent(context.Background(), fsnotify.Event{Name: path, Op: fsnotify.Create})
	time.Sleep(50 * time.Millisecond)
	if got := fake.count(); got != 0 {
		t.Fatalf("expected no ingestion for non-pdf, got %d", got)
	}
}
