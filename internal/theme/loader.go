package theme

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// Loader handles loading themes with hot-reload support.
type Loader struct {
	mu          sync.RWMutex
	logger      *slog.Logger
	themesDir   string
	currentName string
	theme       *Theme
	watcher     *Watcher
	onChange    func(*Theme)
}

// NewLoader creates a new theme loader over the user's themes directory.
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}

	themesDir, err := ThemesDir()
	if err != nil {
		logger.Warn("failed to get themes directory", "error", err)
		themesDir = ""
	}

	return NewLoaderIn(themesDir, logger)
}

// NewLoaderIn creates a theme loader that looks for user themes in dir.
func NewLoaderIn(dir string, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		logger:    logger,
		themesDir: dir,
		theme:     NewDefaultTheme(),
	}
}

// LoadTheme loads a theme by name.
// Theme resolution order:
//  1. User themes directory (~/.config/toastd/themes/)
//  2. Embedded/bundled themes
//
// This allows users to override bundled themes by placing a file with the same name
// in their themes directory. Unknown or broken themes fall back to the
// default, so the stack always has colors.
func (l *Loader) LoadTheme(name string) {
	if name == "" {
		name = DefaultThemeName
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.themesDir != "" {
		themePath := filepath.Join(l.themesDir, name+".toml")
		if _, err := os.Stat(themePath); err == nil {
			theme, err := NewTheme(name, themePath)
			if err != nil {
				l.logger.Warn("failed to load user theme, trying bundled", "theme", name, "error", err)
			} else {
				l.set(theme)
				l.logger.Info("loaded user theme", "name", name, "path", themePath)
				return
			}
		}
	}

	if theme, err := NewEmbeddedTheme(name); err == nil {
		l.set(theme)
		l.logger.Info("loaded bundled theme", "name", name)
		return
	}

	l.logger.Warn("theme not found, using default", "theme", name)
	l.set(NewDefaultTheme())
}

// set installs theme and retargets the watcher. Callers hold l.mu.
func (l *Loader) set(theme *Theme) {
	l.theme = theme
	l.currentName = theme.Name
	if l.watcher != nil {
		l.watcher.UpdateTheme(theme)
	}
}

// Theme returns the currently loaded theme. The returned value is never
// mutated; reloads install a new one.
func (l *Loader) Theme() *Theme {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.theme
}

// CurrentName returns the name of the loaded theme.
func (l *Loader) CurrentName() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.currentName
}

// Reload reloads the current theme from disk.
func (l *Loader) Reload() {
	l.mu.RLock()
	name := l.currentName
	l.mu.RUnlock()
	l.LoadTheme(name)
}

// SetChangeCallback sets a function called after a hot reload installs a
// changed theme.
func (l *Loader) SetChangeCallback(callback func(*Theme)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onChange = callback
}

// StartHotReload starts watching the current theme file for changes.
// Embedded themes have no file; the watcher picks up a user theme once
// LoadTheme switches to one.
func (l *Loader) StartHotReload(ctx context.Context) {
	l.StopHotReload()

	l.mu.Lock()
	defer l.mu.Unlock()

	l.watcher = NewWatcher(l.theme, l.logger)
	l.watcher.SetChangeCallback(func(theme *Theme) {
		l.mu.Lock()
		l.theme = theme
		callback := l.onChange
		l.mu.Unlock()
		l.logger.Info("hot-reloaded theme", "name", theme.Name)
		if callback != nil {
			callback(theme)
		}
	})

	if err := l.watcher.Start(ctx); err != nil {
		l.logger.Warn("failed to start theme watcher", "error", err)
	}
}

// StopHotReload stops watching the theme for changes.
func (l *Loader) StopHotReload() {
	l.mu.Lock()
	w := l.watcher
	l.watcher = nil
	l.mu.Unlock()

	if w != nil {
		w.Stop()
	}
}
