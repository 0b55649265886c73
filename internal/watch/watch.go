// Package watch re-runs a callback whenever a page file changes on disk.
package watch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watcher observes a single file through its parent directory, so editors
// that save by rename-and-replace are still seen.
type Watcher struct {
	path    string
	watcher *fsnotify.Watcher
	log     *slog.Logger
}

// New starts watching path's directory. The file itself need not exist yet.
func New(path string, logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}
	return &Watcher{path: abs, watcher: watcher, log: logger}, nil
}

// Path is the absolute path being watched.
func (w *Watcher) Path() string { return w.path }

// Run calls onChange after every write to or creation of the watched file,
// one call at a time, until ctx is done. Errors from onChange are logged and
// do not stop the loop. Run closes the watcher before returning.
func (w *Watcher) Run(ctx context.Context, onChange func(context.Context) error) error {
	defer w.watcher.Close()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			w.log.Debug("page changed", "path", w.path, "op", event.Op.String())
			if err := onChange(ctx); err != nil {
				w.log.Warn("re-check failed", "path", w.path, "err", err)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watcher error", "err", err)
		}
	}
}

// Close stops the watcher without running the loop.
func (w *Watcher) Close() error { return w.watcher.Close() }
