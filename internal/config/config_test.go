package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/toastd/internal/model"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 5*time.Second, cfg.Toast.DefaultDuration.Duration())
	assert.Equal(t, 50*time.Millisecond, cfg.Toast.FrameInterval.Duration())
	assert.True(t, cfg.Toast.PauseOnHover)
	assert.Equal(t, 5, cfg.Toast.MaxVisible)
	assert.Equal(t, "top-right", cfg.Display.Position)
	assert.False(t, cfg.Audio.Enabled)
	assert.False(t, cfg.DBus.Enabled)
	require.NoError(t, cfg.Validate())
}

func TestLoadConfig_DefaultsWhenNoFile(t *testing.T) {
	cfg, err := LoadConfig("/nonexistent/path/config.toml")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfig_ParsesTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	content := `
[toast]
default_duration = "3s"
frame_interval = "100ms"
max_visible = 3

[durations]
warning = "8s"
error = "0"

[display]
position = "bottom-left"
width = 60

[audio]
enabled = true
volume = 40

[audio.sounds]
error = "/tmp/error.wav"

[dbus]
enabled = true
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 3*time.Second, cfg.Toast.DefaultDuration.Duration())
	assert.Equal(t, 100*time.Millisecond, cfg.Toast.FrameInterval.Duration())
	assert.Equal(t, 3, cfg.Toast.MaxVisible)
	assert.True(t, cfg.Toast.PauseOnHover, "unset keys keep their defaults")
	assert.Equal(t, "bottom-left", cfg.Display.Position)
	assert.Equal(t, 60, cfg.Display.Width)
	assert.True(t, cfg.Audio.Enabled)
	assert.Equal(t, 40, cfg.Audio.Volume)
	assert.True(t, cfg.DBus.Enabled)

	assert.Equal(t, 3*time.Second, cfg.DurationFor(model.CategoryInfo))
	assert.Equal(t, 8*time.Second, cfg.DurationFor(model.CategoryWarning))
	assert.Equal(t, time.Duration(0), cfg.DurationFor(model.CategoryError))
	assert.Equal(t, "/tmp/error.wav", cfg.SoundFor(model.CategoryError))
	assert.Empty(t, cfg.SoundFor(model.CategoryInfo))

	assert.Equal(t, map[model.Category]time.Duration{
		model.CategoryWarning: 8 * time.Second,
		model.CategoryError:   0,
	}, cfg.CategoryDurations())
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad position", "[display]\nposition = \"middle\""},
		{"bad width", "[display]\nwidth = 5"},
		{"bad volume", "[audio]\nvolume = 101"},
		{"bad max visible", "[toast]\nmax_visible = -1"},
		{"frame too fast", "[toast]\nframe_interval = \"1ms\""},
		{"bad duration", "[toast]\ndefault_duration = \"soon\""},
		{"not toml", "[toast"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0644))

			_, err := LoadConfig(path)
			assert.Error(t, err)
		})
	}
}

func TestConfig_SaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	cfg := DefaultConfig()
	cfg.Toast.MaxVisible = 9
	errDur := Duration(0)
	cfg.Durations.Error = &errDur
	require.NoError(t, cfg.Save(path))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 9, loaded.Toast.MaxVisible)
	require.NotNil(t, loaded.Durations.Error)
	assert.Equal(t, time.Duration(0), loaded.DurationFor(model.CategoryError))
	assert.Nil(t, loaded.Durations.Info)
}

func TestDuration_UnmarshalText(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{"5s", 5 * time.Second, false},
		{"1m30s", 90 * time.Second, false},
		{"2500", 2500 * time.Millisecond, false},
		{"0", 0, false},
		{"later", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var d Duration
			err := d.UnmarshalText([]byte(tt.in))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, d.Duration())
		})
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, "sounds/a.wav"), expandPath("~/sounds/a.wav"))
	assert.Equal(t, "/abs/a.wav", expandPath("/abs/a.wav"))
	assert.Equal(t, "", expandPath(""))
}
