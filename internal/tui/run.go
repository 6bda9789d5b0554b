package tui

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jmylchreest/toastd/internal/config"
	"github.com/jmylchreest/toastd/internal/model"
	"github.com/jmylchreest/toastd/internal/theme"
	"github.com/jmylchreest/toastd/internal/toast"
)

var demoDrafts = []model.Draft{
	{Message: "Build finished in 42s", Category: model.CategorySuccess, Duration: model.Millis(4000)},
	{Message: "Disk /home is 91% full", Category: model.CategoryWarning, Duration: model.Millis(8000)},
	{Message: "Deploy to staging failed: connection refused", Category: model.CategoryError},
	{Message: "Hover or focus a toast to pause it", Category: model.CategoryInfo},
	{Message: "This one stays until dismissed", Category: model.CategoryInfo, Duration: model.Millis(0)},
}

// DemoDraft returns the i-th sample toast, cycling through a fixed set.
func DemoDraft(i int) model.Draft {
	d := demoDrafts[i%len(demoDrafts)]
	d.AppName = "demo"
	d.Source = "demo"
	return d
}

// RunOptions configures the TUI.
type RunOptions struct {
	Registry *toast.Registry
	Config   *config.Config
	// ConfigSource, when set, is consulted on every refresh so reloaded
	// display settings apply without a restart.
	ConfigSource func() *config.Config
	// ThemeSource, when set, supplies the color theme on every refresh.
	ThemeSource func() *theme.Theme
	// Demo seeds the stack with sample toasts.
	Demo bool
	// InputTTY reads keys from the terminal instead of stdin, for when
	// stdin carries toasts.
	InputTTY bool
}

// Run starts the TUI and blocks until it quits or ctx is cancelled.
func Run(ctx context.Context, opts RunOptions) error {
	if opts.Registry == nil {
		return errors.New("tui: no registry")
	}

	m := New(opts.Registry, opts.Config)
	m.configFn = opts.ConfigSource
	m.themeFn = opts.ThemeSource
	if m.themeFn != nil {
		if th := m.themeFn(); th != nil {
			m.theme = th
			m.bars = progressBars(th)
		}
	}
	defer opts.Registry.Unsubscribe(m.events)

	if opts.Demo {
		for range demoDrafts {
			opts.Registry.Add(DemoDraft(m.demo))
			m.demo++
		}
	}

	progOpts := []tea.ProgramOption{
		tea.WithAltScreen(),
		tea.WithMouseAllMotion(),
		tea.WithContext(ctx),
	}
	if opts.InputTTY {
		progOpts = append(progOpts, tea.WithInputTTY())
	}

	_, err := tea.NewProgram(m, progOpts...).Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
