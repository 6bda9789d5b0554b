package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/toastd/internal/adapter/input"
	"github.com/jmylchreest/toastd/internal/daemon"
	"github.com/jmylchreest/toastd/internal/model"
	"github.com/jmylchreest/toastd/internal/tui"
)

var tuiOpts struct {
	source   string
	stdin    bool
	demo     bool
	dbus     bool
	monitor  bool
	noReload bool
}

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive toast stack",
	Long: `Launch the terminal toast stack.

Toasts can be fed from stdin (plain lines or JSON objects), replayed from
dunst history, or received over D-Bus as the desktop notification daemon.
The config file is watched and reloaded while the TUI runs.

Key bindings:
  j/k, ↑/↓    Move focus (focused toasts stop counting down)
  esc         Release focus
  d, x        Dismiss the focused toast
  D           Dismiss all toasts
  c           Copy the focused message to the clipboard
  n           Add a demo toast
  ?           Show help
  q           Quit

The mouse works too: hovering pauses a toast and clicking dismisses it.`,
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)

	tuiCmd.Flags().StringVar(&tuiOpts.source, "source", "",
		"Toast source to read at startup (stdin, dunst)")
	tuiCmd.Flags().BoolVar(&tuiOpts.stdin, "stdin", false,
		"Read toasts from stdin (same as --source stdin)")
	tuiCmd.Flags().BoolVar(&tuiOpts.demo, "demo", false,
		"Start with a set of sample toasts")
	tuiCmd.Flags().BoolVar(&tuiOpts.dbus, "dbus", false,
		"Serve org.freedesktop.Notifications (overrides [dbus] enabled)")
	tuiCmd.Flags().BoolVar(&tuiOpts.monitor, "monitor", false,
		"Mirror another notification daemon's traffic instead of serving")
	tuiCmd.Flags().BoolVar(&tuiOpts.noReload, "no-reload", false,
		"Do not watch the config file for changes (theme files are still watched)")
}

func runTUI(cmd *cobra.Command, args []string) error {
	source := tuiOpts.source
	if tuiOpts.stdin {
		source = "stdin"
	}

	var src input.Source
	if source != "" {
		var err error
		src, err = input.NewSource(source)
		if err != nil {
			return err
		}
	}

	runCfg := *cfg
	if cmd.Flags().Changed("dbus") {
		runCfg.DBus.Enabled = tuiOpts.dbus
	}
	if tuiOpts.monitor {
		runCfg.DBus.Enabled = true
		runCfg.DBus.Monitor = true
	}

	// The terminal belongs to the UI; only log when a file was given.
	uiLogger := logger
	if globalOpts.logFile == "" {
		uiLogger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	configPath := ""
	if !tuiOpts.noReload {
		configPath = resolvedConfigPath()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)

	d := daemon.New(&runCfg, configPath, daemon.WithLogger(uiLogger))
	if err := d.Start(ctx); err != nil {
		cancel()
		return err
	}

	if src != nil {
		go func() {
			n, err := src.Run(ctx, d.Registry())
			if err != nil && ctx.Err() == nil {
				uiLogger.Warn("toast source failed", "source", src.Name(), "error", err)
				d.Notifier().Notify("source:"+src.Name(), src.Name()+": "+err.Error(), model.CategoryWarning)
				return
			}
			uiLogger.Debug("toast source finished", "source", src.Name(), "count", n)
		}()
	}

	err := tui.Run(ctx, tui.RunOptions{
		Registry:     d.Registry(),
		Config:       d.Config(),
		ConfigSource: d.Config,
		ThemeSource:  d.Theme,
		Demo:         tuiOpts.demo,
		InputTTY:     source == "stdin",
	})

	cancel()
	d.Stop()
	return err
}
