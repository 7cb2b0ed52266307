// Package watcher monitors the report drop directory and triggers an
// import whenever an export file lands in it.
package watcher

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
)

// defaultDebounce is how long a file must be quiet before it is
// considered fully written. Export files are copied in, not written
// atomically, so reacting to the first event would read partial data.
const defaultDebounce = 2 * time.Second

// ImportFunc is called with the path of a settled export file.
type ImportFunc func(ctx context.Context, path string)

// Watcher watches one drop directory for report export files.
type Watcher struct {
	dir      string
	debounce time.Duration
	logger   *slog.Logger
	importFn ImportFunc

	watcher *fsnotify.Watcher
	pending map[string]*time.Timer
	mu      sync.Mutex
	done    chan struct{}
	once    sync.Once
}

// New creates a watcher for dir. The directory is created if missing.
func New(dir string, logger *slog.Logger, importFn ImportFunc) (*Watcher, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create drop directory: %w", err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}

	return &Watcher{
		dir:      dir,
		debounce: defaultDebounce,
		logger:   logger,
		importFn: importFn,
		watcher:  fsw,
		pending:  make(map[string]*time.Timer),
		done:     make(chan struct{}),
	}, nil
}

// SetDebounce overrides the settle delay. Used by tests.
func (w *Watcher) SetDebounce(d time.Duration) {
	w.debounce = d
}

// Start processes events until the context is cancelled. Files already
// sitting in the drop directory are imported first, so exports dropped
// while the server was down are not lost.
func (w *Watcher) Start(ctx context.Context) error {
	w.scanExisting(ctx)

	for {
		select {
		case <-ctx.Done():
			w.Stop()
			return ctx.Err()
		case <-w.done:
			return nil
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(ctx, event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", "error", err)
		}
	}
}

// Stop cancels pending timers and closes the underlying watcher.
func (w *Watcher) Stop() {
	w.once.Do(func() {
		close(w.done)
		w.watcher.Close()

		w.mu.Lock()
		defer w.mu.Unlock()
		for path, timer := range w.pending {
			timer.Stop()
			delete(w.pending, path)
		}
	})
}

func (w *Watcher) scanExisting(ctx context.Context) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		w.logger.Warn("scan drop directory failed", "error", err)
		return
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(w.dir, entry.Name())
		if isExportFile(path) {
			w.schedule(ctx, path)
		}
	}
}

func (w *Watcher) handleEvent(ctx context.Context, event fsnotify.Event) {
	if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
		return
	}
	if !isExportFile(event.Name) {
		return
	}
	w.schedule(ctx, event.Name)
}

// schedule (re)arms the settle timer for a path. Every write resets
// the timer, so the import fires once the file stops changing.
func (w *Watcher) schedule(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if timer, ok := w.pending[path]; ok {
		timer.Reset(w.debounce)
		return
	}
	w.pending[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()

		select {
		case <-w.done:
			return
		case <-ctx.Done():
			return
		default:
		}

		w.logger.Info("importing dropped export file", "path", path)
		w.importFn(ctx, path)
	})
}

func isExportFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".json":
		return true
	}
	return false
}
