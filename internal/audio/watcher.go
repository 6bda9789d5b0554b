package audio

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// cacheInvalidator drops decoded sounds when their files change.
type cacheInvalidator interface {
	InvalidateCache(path string)
}

// Watcher watches sound files and invalidates the player cache when they
// are rewritten.
type Watcher struct {
	mu      sync.Mutex
	logger  *slog.Logger
	player  cacheInvalidator
	watcher *fsnotify.Watcher

	paths map[string]struct{} // Sound files
	dirs  map[string]struct{} // Their parent directories, added to fsnotify

	done    chan struct{}
	running bool
}

// NewWatcher creates a new sound file watcher.
func NewWatcher(player cacheInvalidator, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		logger: logger,
		player: player,
		paths:  make(map[string]struct{}),
		dirs:   make(map[string]struct{}),
	}
}

// Watch adds a path to the watch list. The containing directory is
// watched once the watcher is started.
func (w *Watcher) Watch(path string) error {
	if path == "" {
		return nil
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	w.paths[path] = struct{}{}
	dir := filepath.Dir(path)
	if _, ok := w.dirs[dir]; ok {
		return nil
	}
	w.dirs[dir] = struct{}{}

	if w.watcher != nil {
		return w.watcher.Add(dir)
	}
	return nil
}

// Watching reports whether path is on the watch list.
func (w *Watcher) Watching(path string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, ok := w.paths[path]
	return ok
}

// Start begins watching sound files for changes.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return nil
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	for dir := range w.dirs {
		if err := fsw.Add(dir); err != nil {
			w.logger.Debug("cannot watch sound directory", "dir", dir, "error", err)
		}
	}

	w.watcher = fsw
	w.done = make(chan struct{})
	w.running = true

	go w.watchLoop(ctx, fsw, w.done)

	w.logger.Debug("audio watcher started", "dirs", len(w.dirs))
	return nil
}

// Stop stops watching sound files.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	close(w.done)
	fsw := w.watcher
	w.watcher = nil
	w.mu.Unlock()

	if err := fsw.Close(); err != nil {
		w.logger.Debug("closing audio watcher", "error", err)
	}
	w.logger.Debug("audio watcher stopped")
}

func (w *Watcher) watchLoop(ctx context.Context, fsw *fsnotify.Watcher, done chan struct{}) {
	for {
		select {
		case event, ok := <-fsw.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if w.Watching(event.Name) {
				w.logger.Debug("sound file changed, invalidating cache", "path", event.Name)
				w.player.InvalidateCache(event.Name)
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("audio watcher error", "error", err)

		case <-ctx.Done():
			return
		case <-done:
			return
		}
	}
}
