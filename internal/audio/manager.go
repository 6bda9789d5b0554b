package audio

import (
	"context"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/jmylchreest/toastd/internal/config"
	"github.com/jmylchreest/toastd/internal/model"
)

// soundPlayer is the subset of Player the manager drives.
type soundPlayer interface {
	Play(path string) error
	Preload(path string) error
	SetVolume(volume float64)
	GetVolume() float64
	InvalidateCache(path string)
	ClearCache()
	Close()
}

// Manager plays the configured sound when a toast of a category arrives.
type Manager struct {
	mu      sync.RWMutex
	logger  *slog.Logger
	player  soundPlayer
	watcher *Watcher
	enabled bool

	// Category to sound path mapping
	sounds map[model.Category]string
}

// NewManager creates a new audio manager.
func NewManager(cfg *config.Config, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return newManager(cfg, NewPlayer(logger), logger)
}

func newManager(cfg *config.Config, player soundPlayer, logger *slog.Logger) *Manager {
	m := &Manager{
		logger:  logger,
		player:  player,
		watcher: NewWatcher(player, logger),
		sounds:  make(map[model.Category]string),
	}
	m.loadSoundConfig(cfg)
	return m
}

// loadSoundConfig replaces the sound table from cfg.
func (m *Manager) loadSoundConfig(cfg *config.Config) {
	if cfg == nil {
		return
	}

	// Config uses 0-100, player uses 0.0-1.0
	m.player.SetVolume(float64(cfg.Audio.Volume) / 100.0)

	sounds := make(map[model.Category]string)
	for _, category := range model.Categories() {
		path := cfg.SoundFor(category)
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); err != nil {
			m.logger.Warn("sound file not found", "category", category, "path", path)
			continue
		}
		sounds[category] = path
		m.logger.Debug("loaded sound", "category", category, "path", path)
	}

	m.mu.Lock()
	m.enabled = cfg.Audio.Enabled
	m.sounds = sounds
	m.mu.Unlock()
}

// Start preloads the configured sounds and starts the file watcher.
func (m *Manager) Start(ctx context.Context) error {
	sounds := m.soundPaths()
	m.preload(sounds)

	if err := m.watcher.Start(ctx); err != nil {
		return err
	}

	m.logger.Info("audio manager started", "sounds", len(sounds))
	return nil
}

// Stop shuts down the audio manager.
func (m *Manager) Stop() {
	m.watcher.Stop()
	m.player.Close()
	m.logger.Debug("audio manager stopped")
}

// PlayFor plays the sound configured for the toast's category.
// Silent toasts and disabled audio play nothing.
func (m *Manager) PlayFor(t model.Toast) error {
	if t.Silent {
		return nil
	}

	m.mu.RLock()
	enabled := m.enabled
	path, ok := m.sounds[t.Category]
	m.mu.RUnlock()

	if !enabled {
		return nil
	}
	if !ok {
		m.logger.Debug("no sound configured for category", "category", t.Category)
		return nil
	}
	return m.player.Play(path)
}

// Enabled reports whether sounds are played.
func (m *Manager) Enabled() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.enabled
}

// Volume returns the current volume (0.0 to 1.0).
func (m *Manager) Volume() float64 {
	return m.player.GetVolume()
}

// UpdateConfig applies a hot-reloaded configuration.
func (m *Manager) UpdateConfig(cfg *config.Config) {
	m.player.ClearCache()
	m.loadSoundConfig(cfg)
	m.preload(m.soundPaths())
	m.logger.Debug("audio manager config updated")
}

func (m *Manager) preload(sounds map[model.Category]string) {
	for _, path := range sounds {
		if err := m.player.Preload(path); err != nil {
			m.logger.Warn("failed to preload sound", "path", path, "error", err)
		}
		if err := m.watcher.Watch(path); err != nil {
			m.logger.Debug("cannot watch sound file", "path", path, "error", err)
		}
	}
}

func (m *Manager) soundPaths() map[model.Category]string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sounds := make(map[model.Category]string, len(m.sounds))
	maps.Copy(sounds, m.sounds)
	return sounds
}

// expandPath expands ~ to home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
