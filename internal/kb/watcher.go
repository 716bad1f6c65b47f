package kb

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

const reloadDebounce = 250 * time.Millisecond

// Watcher reloads a Store whenever its local document changes.
type Watcher struct {
	store *Store
	file  string
}

// NewWatcher watches file (an absolute filesystem path) for store
func NewWatcher(store *Store, file string) *Watcher {
	return &Watcher{store: store, file: filepath.Clean(file)}
}

// Run blocks until ctx is done. The parent directory is watched so editors
// that replace the file by rename are handled.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(filepath.Dir(w.file)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.file, err)
	}

	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != w.file || !ev.Has(fsnotify.Write|fsnotify.Create|fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(reloadDebounce)
			} else {
				timer.Reset(reloadDebounce)
			}
			fire = timer.C
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			slog.WarnContext(ctx, "knowledge base watcher error", "error", err)
		case <-fire:
			fire = nil
			if err := w.store.Load(ctx); err != nil {
				slog.ErrorContext(ctx, "knowledge base reload failed, keeping previous snapshot", "error", err)
			}
		}
	}
}
