// Package config handles configuration file loading and parsing.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/jmylchreest/toastd/internal/model"
)

// Duration is a time.Duration that can be unmarshaled from human-readable strings.
// Supports formats like "5s", "1m", "1h30m", or integer milliseconds.
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler for TOML parsing.
func (d *Duration) UnmarshalText(text []byte) error {
	s := string(text)

	// Plain integers are milliseconds
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		*d = Duration(time.Duration(ms) * time.Millisecond)
		return nil
	}

	dur, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: must be like '5s', '1m', '1h30m' or milliseconds: %w", s, err)
	}
	*d = Duration(dur)
	return nil
}

// MarshalText implements encoding.TextMarshaler for TOML output.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Duration returns the underlying time.Duration.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// Config is the configuration for toastd.
// Loaded from ~/.config/toastd/config.toml
type Config struct {
	Toast     ToastConfig     `toml:"toast"`
	Durations DurationsConfig `toml:"durations"`
	Display   DisplayConfig   `toml:"display"`
	Audio     AudioConfig     `toml:"audio"`
	DBus      DBusConfig      `toml:"dbus"`
	Clipboard ClipboardConfig `toml:"clipboard"`
}

// ToastConfig contains countdown behaviour.
type ToastConfig struct {
	DefaultDuration Duration `toml:"default_duration"` // Used when a toast has no duration; 0 = built-in 5s
	FrameInterval   Duration `toml:"frame_interval"`   // Progress refresh cadence
	PauseOnHover    bool     `toml:"pause_on_hover"`
	MaxVisible      int      `toml:"max_visible"` // 0 = unlimited
}

// DurationsConfig overrides the default duration per category.
// Unset entries fall back to toast.default_duration; "0" keeps the toast
// until dismissed.
type DurationsConfig struct {
	Info    *Duration `toml:"info,omitempty"`
	Success *Duration `toml:"success,omitempty"`
	Warning *Duration `toml:"warning,omitempty"`
	Error   *Duration `toml:"error,omitempty"`
}

// DisplayConfig contains rendering settings for the terminal UI.
type DisplayConfig struct {
	Position  string `toml:"position"` // "top-right", "top-left", etc.
	Width     int    `toml:"width"`    // Toast width in cells
	ShowIcons bool   `toml:"show_icons"`
	Theme     string `toml:"theme"` // Bundled or user theme name
}

// AudioConfig contains audio settings.
type AudioConfig struct {
	Enabled bool        `toml:"enabled"`
	Volume  int         `toml:"volume"` // 0-100
	Sounds  SoundConfig `toml:"sounds"`
}

// SoundConfig contains per-category sound file paths.
type SoundConfig struct {
	Info    string `toml:"info"`
	Success string `toml:"success"`
	Warning string `toml:"warning"`
	Error   string `toml:"error"`
}

// DBusConfig controls the desktop notification bus listener.
type DBusConfig struct {
	Enabled bool `toml:"enabled"`
	Monitor bool `toml:"monitor"` // Mirror another daemon's traffic instead of owning the name
}

// ClipboardConfig contains clipboard settings for the terminal UI.
type ClipboardConfig struct {
	Command string `toml:"command"` // Empty = auto-detect wl-copy, xclip or xsel
}

// Position represents where the toast stack is anchored.
type Position string

const (
	PositionTopLeft     Position = "top-left"
	PositionTopRight    Position = "top-right"
	PositionBottomLeft  Position = "bottom-left"
	PositionBottomRight Position = "bottom-right"
)

// ValidPositions returns all valid position values.
func ValidPositions() []Position {
	return []Position{
		PositionTopLeft,
		PositionTopRight,
		PositionBottomLeft,
		PositionBottomRight,
	}
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Toast: ToastConfig{
			DefaultDuration: Duration(model.DefaultDuration),
			FrameInterval:   Duration(50 * time.Millisecond),
			PauseOnHover:    true,
			MaxVisible:      5,
		},
		Display: DisplayConfig{
			Position:  string(PositionTopRight),
			Width:     44,
			ShowIcons: true,
			Theme:     "default",
		},
		Audio: AudioConfig{
			Enabled: false,
			Volume:  80,
		},
		DBus: DBusConfig{
			Enabled: false,
		},
	}
}

// ConfigPath returns the path to the config file.
// Uses os.UserConfigDir, which honours XDG_CONFIG_HOME.
func ConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "toastd", "config.toml"), nil
}

// LoadConfig loads configuration from path. An empty path selects the
// default location. A missing file yields the defaults.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		var err error
		path, err = ConfigPath()
		if err != nil {
			return nil, fmt.Errorf("failed to get config path: %w", err)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Start with defaults, then overlay with file contents
	cfg := DefaultConfig()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Save writes the configuration to path, creating parent directories.
// An empty path selects the default location.
func (c *Config) Save(path string) error {
	if path == "" {
		var err error
		path, err = ConfigPath()
		if err != nil {
			return fmt.Errorf("failed to get config path: %w", err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Write atomically via temp file
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return os.Rename(tmpPath, path)
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	validPos := false
	for _, p := range ValidPositions() {
		if c.Display.Position == string(p) {
			validPos = true
			break
		}
	}
	if !validPos {
		return fmt.Errorf("invalid position %q, must be one of: %v", c.Display.Position, ValidPositions())
	}

	if c.Display.Width < 20 || c.Display.Width > 200 {
		return fmt.Errorf("width must be between 20 and 200, got %d", c.Display.Width)
	}
	if c.Toast.MaxVisible < 0 || c.Toast.MaxVisible > 50 {
		return fmt.Errorf("max_visible must be between 0 and 50, got %d", c.Toast.MaxVisible)
	}
	if c.Toast.FrameInterval.Duration() < 10*time.Millisecond {
		return fmt.Errorf("frame_interval must be at least 10ms, got %s", c.Toast.FrameInterval.Duration())
	}
	if c.Audio.Volume < 0 || c.Audio.Volume > 100 {
		return fmt.Errorf("volume must be between 0 and 100, got %d", c.Audio.Volume)
	}

	return nil
}

// DurationFor returns the default countdown for a category.
// Zero or negative means the toast never expires.
func (c *Config) DurationFor(category model.Category) time.Duration {
	var override *Duration
	switch category {
	case model.CategoryInfo:
		override = c.Durations.Info
	case model.CategorySuccess:
		override = c.Durations.Success
	case model.CategoryWarning:
		override = c.Durations.Warning
	case model.CategoryError:
		override = c.Durations.Error
	}
	if override != nil {
		return override.Duration()
	}
	return c.Toast.DefaultDuration.Duration()
}

// CategoryDurations returns the explicitly configured per-category durations.
func (c *Config) CategoryDurations() map[model.Category]time.Duration {
	out := make(map[model.Category]time.Duration)
	for _, category := range model.Categories() {
		if c.hasOverride(category) {
			out[category] = c.DurationFor(category)
		}
	}
	return out
}

func (c *Config) hasOverride(category model.Category) bool {
	switch category {
	case model.CategoryInfo:
		return c.Durations.Info != nil
	case model.CategorySuccess:
		return c.Durations.Success != nil
	case model.CategoryWarning:
		return c.Durations.Warning != nil
	case model.CategoryError:
		return c.Durations.Error != nil
	}
	return false
}

// SoundFor returns the sound file path for a category, with ~ expanded.
func (c *Config) SoundFor(category model.Category) string {
	var path string
	switch category {
	case model.CategorySuccess:
		path = c.Audio.Sounds.Success
	case model.CategoryWarning:
		path = c.Audio.Sounds.Warning
	case model.CategoryError:
		path = c.Audio.Sounds.Error
	default:
		path = c.Audio.Sounds.Info
	}
	return expandPath(path)
}

// expandPath expands ~ to the user's home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
