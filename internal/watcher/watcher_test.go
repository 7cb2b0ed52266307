package watcher

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type importRecorder struct {
	mu    sync.Mutex
	paths []string
	seen  chan string
}

func newImportRecorder() *importRecorder {
	return &importRecorder{seen: make(chan string, 10)}
}

func (r *importRecorder) importFn(_ context.Context, path string) {
	r.mu.Lock()
	r.paths = append(r.paths, path)
	r.mu.Unlock()
	r.seen <- path
}

func (r *importRecorder) waitForImport(t *testing.T) string {
	t.Helper()
	select {
	case path := <-r.seen:
		return path
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for import")
		return ""
	}
}

func startTestWatcher(t *testing.T, dir string, rec *importRecorder) {
	t.Helper()

	w, err := New(dir, slog.New(slog.DiscardHandler), rec.importFn)
	require.NoError(t, err)
	w.SetDebounce(50 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = w.Start(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

func TestWatcherImportsDroppedFile(t *testing.T) {
	dir := t.TempDir()
	rec := newImportRecorder()
	startTestWatcher(t, dir, rec)

	path := filepath.Join(dir, "export.csv")
	require.NoError(t, os.WriteFile(path, []byte("external_id,title\n"), 0o644))

	assert.Equal(t, path, rec.waitForImport(t))
}

func TestWatcherIgnoresOtherExtensions(t *testing.T) {
	dir := t.TempDir()
	rec := newImportRecorder()
	startTestWatcher(t, dir, rec)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hi"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "export.json"), []byte("[]"), 0o644))

	assert.Equal(t, filepath.Join(dir, "export.json"), rec.waitForImport(t))

	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.Len(t, rec.paths, 1)
}

func TestWatcherImportsExistingFilesOnStart(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "stale.json")
	require.NoError(t, os.WriteFile(path, []byte("[]"), 0o644))

	rec := newImportRecorder()
	startTestWatcher(t, dir, rec)

	assert.Equal(t, path, rec.waitForImport(t))
}

func TestWatcherDebouncesWrites(t *testing.T) {
	dir := t.TempDir()
	rec := newImportRecorder()
	startTestWatcher(t, dir, rec)

	path := filepath.Join(dir, "export.csv")
	f, err := os.Create(path)
	require.NoError(t, err)
	for range 5 {
		_, err = f.WriteString("row\n")
		require.NoError(t, err)
		time.Sleep(10 * time.Millisecond)
	}
	require.NoError(t, f.Close())

	rec.waitForImport(t)
	// Settle window: no second import should arrive
	select {
	case extra := <-rec.seen:
		t.Fatalf("unexpected extra import: %s", extra)
	case <-time.After(200 * time.Millisecond):
	}
}
