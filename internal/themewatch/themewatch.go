// Package themewatch reloads a theme file whenever it changes on disk.
package themewatch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/recera/quadplot/pkg/render"
)

// DefaultDebounce collapses the burst of events one save produces.
const DefaultDebounce = 100 * time.Millisecond

// Watcher delivers a freshly loaded theme after each change to one file.
type Watcher struct {
	path     string
	debounce time.Duration
	watcher  *fsnotify.Watcher
	onChange func(render.Theme)
	logger   *slog.Logger
}

// New watches path. The directory is watched rather than the file so that
// editors replacing the file by rename keep being noticed. onChange is called
// from the Run goroutine with every theme that loads and validates.
func New(path string, onChange func(render.Theme), logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		w.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}
	return &Watcher{
		path:     abs,
		debounce: DefaultDebounce,
		watcher:  w,
		onChange: onChange,
		logger:   logger.With("component", "themewatch", "path", abs),
	}, nil
}

// Run processes events until ctx is done, then closes the watcher.
func (w *Watcher) Run(ctx context.Context) {
	defer w.watcher.Close()

	debounce := time.NewTimer(0)
	<-debounce.C
	pending := false

	for {
		select {
		case <-ctx.Done():
			debounce.Stop()
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			pending = true
			debounce.Reset(w.debounce)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watcher error", "error", err)

		case <-debounce.C:
			if !pending {
				continue
			}
			pending = false
			w.reload()
		}
	}
}

func (w *Watcher) reload() {
	theme, err := render.LoadTheme(w.path)
	if err != nil {
		w.logger.Warn("keeping previous theme", "error", err)
		return
	}
	w.logger.Info("theme reloaded")
	w.onChange(theme)
}
