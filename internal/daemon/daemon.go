package daemon

import (
	"context"
	"log/slog"
	"sync"

	"github.com/jmylchreest/toastd/internal/audio"
	"github.com/jmylchreest/toastd/internal/clock"
	"github.com/jmylchreest/toastd/internal/config"
	"github.com/jmylchreest/toastd/internal/dbus"
	"github.com/jmylchreest/toastd/internal/theme"
	"github.com/jmylchreest/toastd/internal/toast"
)

// Daemon owns the toast registry and the services that feed it.
type Daemon struct {
	logger     *slog.Logger
	clock      clock.Clock
	configPath string
	themesDir  *string

	mu  sync.RWMutex
	cfg *config.Config

	registry *toast.Registry
	audio    *audio.Manager
	notifier *InternalNotifier
	themes   *theme.Loader
	watcher  *ConfigWatcher
	server   *dbus.NotificationServer
	monitor  *dbus.Monitor

	cancel context.CancelFunc
	events <-chan toast.ChangeEvent
	wg     sync.WaitGroup
}

// Option configures a Daemon.
type Option func(*Daemon)

// WithClock sets the clock used for countdowns and rate limiting.
func WithClock(c clock.Clock) Option {
	return func(d *Daemon) { d.clock = c }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(d *Daemon) { d.logger = l }
}

// WithThemesDir sets the directory searched for user themes.
func WithThemesDir(dir string) Option {
	return func(d *Daemon) { d.themesDir = &dir }
}

// New creates a daemon for cfg. configPath is watched for changes once
// started; an empty path disables hot reload.
func New(cfg *config.Config, configPath string, opts ...Option) *Daemon {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	d := &Daemon{
		logger:     slog.Default(),
		clock:      clock.New(),
		configPath: configPath,
		cfg:        cfg,
	}
	for _, opt := range opts {
		opt(d)
	}

	d.registry = toast.NewRegistry(d.clock, ToastOptions(cfg), d.logger)
	d.audio = audio.NewManager(cfg, d.logger)
	d.notifier = NewInternalNotifier(d.registry, d.clock, d.logger)
	if d.themesDir != nil {
		d.themes = theme.NewLoaderIn(*d.themesDir, d.logger)
	} else {
		d.themes = theme.NewLoader(d.logger)
	}
	d.themes.LoadTheme(cfg.Display.Theme)
	if configPath != "" {
		d.watcher = NewConfigWatcher(configPath, d.logger)
	}
	return d
}

// ToastOptions converts the [toast] and [durations] sections into registry
// options.
func ToastOptions(cfg *config.Config) toast.Options {
	return toast.Options{
		DefaultDuration:   cfg.Toast.DefaultDuration.Duration(),
		CategoryDurations: cfg.CategoryDurations(),
		FrameInterval:     cfg.Toast.FrameInterval.Duration(),
		PauseOnHover:      cfg.Toast.PauseOnHover,
		MaxVisible:        cfg.Toast.MaxVisible,
	}
}

// Registry returns the toast registry.
func (d *Daemon) Registry() *toast.Registry {
	return d.registry
}

// Notifier returns the notifier for toastd's own messages.
func (d *Daemon) Notifier() *InternalNotifier {
	return d.notifier
}

// Theme returns the color theme currently in effect.
func (d *Daemon) Theme() *theme.Theme {
	return d.themes.Theme()
}

// Config returns the configuration currently in effect.
func (d *Daemon) Config() *config.Config {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.cfg
}

// Start starts sound playback, the D-Bus listener, theme hot reload and the
// config watcher. Theme hot reload runs even without a config file.
// Optional services that fail to start are logged and reported as toasts.
func (d *Daemon) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	d.events = d.registry.Subscribe()
	d.wg.Add(1)
	go d.playSounds(ctx, d.events)

	if err := d.audio.Start(ctx); err != nil {
		d.logger.Warn("audio unavailable", "error", err)
		d.notifier.NotifyAudioError(err)
	}

	cfg := d.Config()
	if cfg.DBus.Enabled {
		d.startDBus(cfg.DBus.Monitor)
	}

	d.themes.StartHotReload(ctx)

	if d.watcher != nil {
		d.watcher.SetReloadCallback(func(newConfig *config.Config) {
			d.ApplyConfig(newConfig)
			d.notifier.NotifyConfigReloaded()
		})
		d.watcher.SetErrorCallback(d.notifier.NotifyConfigError)
		if err := d.watcher.Start(ctx, cfg); err != nil {
			d.logger.Warn("config hot reload disabled", "path", d.configPath, "error", err)
		}
	}

	d.logger.Info("toastd started", "dbus", cfg.DBus.Enabled, "audio", cfg.Audio.Enabled)
	return nil
}

func (d *Daemon) startDBus(monitor bool) {
	if monitor {
		m := dbus.NewMonitor(d.registry, d.logger)
		if err := m.Start(); err != nil {
			d.logger.Warn("D-Bus monitor unavailable", "error", err)
			d.notifier.NotifyDBusError(err)
			return
		}
		d.monitor = m
		return
	}

	srv := dbus.NewNotificationServer(d.registry, d.logger)
	if err := srv.Start(); err != nil {
		d.logger.Warn("D-Bus server unavailable", "error", err)
		d.notifier.NotifyDBusError(err)
		return
	}
	d.registry.OnClose(srv.HandleClosed)
	d.server = srv
}

// ApplyConfig pushes a new configuration to the registry and audio.
// Toggling D-Bus takes effect on the next start.
func (d *Daemon) ApplyConfig(cfg *config.Config) {
	d.mu.Lock()
	old := d.cfg
	d.cfg = cfg
	d.mu.Unlock()

	d.registry.UpdateConfig(ToastOptions(cfg))
	d.audio.UpdateConfig(cfg)

	if old.Display.Theme != cfg.Display.Theme {
		d.themes.LoadTheme(cfg.Display.Theme)
	}
	if old.DBus != cfg.DBus {
		d.logger.Warn("dbus settings changed, restart toastd to apply")
	}
}

// Stop shuts every service down and tears down the registry.
func (d *Daemon) Stop() {
	if d.watcher != nil {
		d.watcher.Stop()
	}
	d.themes.StopHotReload()
	if d.server != nil {
		if err := d.server.Stop(); err != nil {
			d.logger.Warn("stopping D-Bus server", "error", err)
		}
	}
	if d.monitor != nil {
		if err := d.monitor.Stop(); err != nil {
			d.logger.Warn("stopping D-Bus monitor", "error", err)
		}
	}
	if d.cancel != nil {
		d.cancel()
	}
	d.registry.Shutdown()
	d.wg.Wait()
	d.audio.Stop()
	d.logger.Info("toastd stopped")
}

// playSounds plays the category sound for every added toast.
func (d *Daemon) playSounds(ctx context.Context, events <-chan toast.ChangeEvent) {
	defer d.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if ev.Type != toast.ChangeTypeAdd {
				continue
			}
			view, ok := d.registry.Get(ev.ToastID)
			if !ok {
				continue
			}
			if err := d.audio.PlayFor(view.Toast); err != nil {
				d.notifier.NotifyAudioError(err)
			}
		}
	}
}
