// Package tui provides the BubbleTea-based toast stack.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jmylchreest/toastd/internal/config"
	"github.com/jmylchreest/toastd/internal/model"
	"github.com/jmylchreest/toastd/internal/theme"
	"github.com/jmylchreest/toastd/internal/toast"
)

// Model is the main TUI model.
type Model struct {
	// Configuration
	cfg      *config.Config
	configFn func() *config.Config
	theme    *theme.Theme
	themeFn  func() *theme.Theme
	registry *toast.Registry

	// Components
	help help.Model
	bars map[model.Category]progress.Model

	// State
	views   []toast.View // Draw order, nearest the anchor first for top stacks
	focused string       // Toast whose countdown this UI holds paused
	width   int
	height  int
	ready   bool
	demo    int

	// Key bindings
	keys KeyMap

	// Status message
	statusMsg string
	statusErr bool

	// Registry change subscription
	events <-chan toast.ChangeEvent
}

// New creates a new TUI model over reg.
func New(reg *toast.Registry, cfg *config.Config) Model {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	th := theme.NewDefaultTheme()
	return Model{
		cfg:      cfg,
		theme:    th,
		registry: reg,
		help:     help.New(),
		bars:     progressBars(th),
		keys:     DefaultKeyMap(),
		events:   reg.Subscribe(),
	}
}

// progressBars builds one countdown bar per category in the theme colors.
func progressBars(th *theme.Theme) map[model.Category]progress.Model {
	bars := make(map[model.Category]progress.Model)
	for _, c := range model.Categories() {
		bars[c] = progress.New(
			progress.WithSolidFill(string(th.CategoryColor(c))),
			progress.WithoutPercentage(),
		)
	}
	return bars
}

// Init initializes the TUI.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.loadToasts,
		m.watchForChanges,
	)
}

type loadToastsMsg struct{}

// loadToasts triggers the initial snapshot.
func (m Model) loadToasts() tea.Msg {
	return loadToastsMsg{}
}

type changeMsg struct {
	event toast.ChangeEvent
}

type registryClosedMsg struct{}

// watchForChanges waits for the next registry change.
func (m Model) watchForChanges() tea.Msg {
	if m.events == nil {
		return nil
	}
	ev, ok := <-m.events
	if !ok {
		return registryClosedMsg{}
	}
	return changeMsg{event: ev}
}

type statusMsg struct {
	text  string
	isErr bool
}

type clearStatusMsg struct{}

type copyResultMsg struct {
	err error
}

func status(text string, isErr bool) tea.Cmd {
	return func() tea.Msg {
		return statusMsg{text: text, isErr: isErr}
	}
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.ready = true
		m.refresh()
		return m, nil

	case loadToastsMsg:
		m.refresh()
		return m, nil

	case changeMsg:
		m.refresh()
		return m, m.watchForChanges

	case registryClosedMsg:
		return m, tea.Quit

	case statusMsg:
		m.statusMsg = msg.text
		m.statusErr = msg.isErr
		return m, tea.Tick(3*time.Second, func(t time.Time) tea.Msg {
			return clearStatusMsg{}
		})

	case clearStatusMsg:
		m.statusMsg = ""
		m.statusErr = false
		return m, nil

	case copyResultMsg:
		if msg.err != nil {
			return m, status("Copy failed: "+msg.err.Error(), true)
		}
		return m, status("Copied to clipboard", false)
	}

	return m, nil
}

// handleKey handles key presses.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.setFocus("")
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil

	case key.Matches(msg, m.keys.Up):
		m.moveFocus(-1)
		return m, nil

	case key.Matches(msg, m.keys.Down):
		m.moveFocus(1)
		return m, nil

	case key.Matches(msg, m.keys.Clear):
		m.setFocus("")
		return m, nil

	case key.Matches(msg, m.keys.Dismiss):
		if m.focused == "" {
			return m, nil
		}
		return m, m.dismiss(m.focused)

	case key.Matches(msg, m.keys.DismissAll):
		m.focused = ""
		n := m.registry.DismissAll()
		m.refresh()
		return m, status(fmt.Sprintf("Dismissed %d toasts", n), false)

	case key.Matches(msg, m.keys.Copy):
		v, ok := m.registry.Get(m.focused)
		if !ok {
			return m, nil
		}
		command := m.cfg.Clipboard.Command
		return m, func() tea.Msg {
			return copyResultMsg{err: copyText(v.Message, command)}
		}

	case key.Matches(msg, m.keys.Demo):
		m.registry.Add(DemoDraft(m.demo))
		m.demo++
		m.refresh()
		return m, nil
	}

	return m, nil
}

// handleMouse maps pointer motion onto focus and clicks onto dismissal.
func (m Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	shown := m.shown()
	idx := m.layout().hitTest(len(shown), msg.X, msg.Y)

	switch {
	case msg.Action == tea.MouseActionMotion:
		if idx < 0 {
			m.setFocus("")
		} else {
			m.setFocus(shown[idx].ID)
		}

	case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft:
		if idx >= 0 {
			return m, m.dismiss(shown[idx].ID)
		}
	}

	return m, nil
}

// dismiss removes a toast and reports it in the status line.
func (m *Model) dismiss(id string) tea.Cmd {
	if id == m.focused {
		m.focused = ""
	}
	if !m.registry.Remove(id) {
		return nil
	}
	m.refresh()
	return status("Toast dismissed", false)
}

// setFocus moves focus to id, pausing its countdown and resuming the
// previously focused one. An empty id releases focus.
func (m *Model) setFocus(id string) {
	if id == m.focused {
		return
	}
	if m.focused != "" {
		m.registry.FocusLeave(m.focused)
	}
	if id != "" {
		m.registry.FocusEnter(id)
	}
	m.focused = id
}

// moveFocus steps keyboard focus through the shown toasts.
func (m *Model) moveFocus(delta int) {
	shown := m.shown()
	if len(shown) == 0 {
		return
	}

	idx := indexOf(shown, m.focused)
	switch {
	case idx < 0 && delta > 0:
		idx = 0
	case idx < 0:
		idx = len(shown) - 1
	default:
		idx = max(0, min(len(shown)-1, idx+delta))
	}
	m.setFocus(shown[idx].ID)
}

// refresh reloads the toast snapshot in draw order.
func (m *Model) refresh() {
	if m.configFn != nil {
		if cfg := m.configFn(); cfg != nil {
			m.cfg = cfg
		}
	}
	if m.themeFn != nil {
		if th := m.themeFn(); th != nil && th != m.theme {
			m.theme = th
			m.bars = progressBars(th)
		}
	}

	views := m.registry.Snapshot()
	if !m.layout().isBottom() {
		for i, j := 0, len(views)-1; i < j; i, j = i+1, j-1 {
			views[i], views[j] = views[j], views[i]
		}
	}
	m.views = views

	if m.focused == "" {
		return
	}
	if indexOf(m.shown(), m.focused) >= 0 {
		return
	}
	// Focused toast left the screen: gone, or pushed out by newer ones.
	if _, ok := m.registry.Get(m.focused); ok {
		m.registry.FocusLeave(m.focused)
	}
	m.focused = ""
}

// shown returns the toasts that fit on screen, nearest the anchor.
func (m Model) shown() []toast.View {
	capacity := m.layout().capacity()
	if len(m.views) <= capacity {
		return m.views
	}
	if m.layout().isBottom() {
		return m.views[len(m.views)-capacity:]
	}
	return m.views[:capacity]
}

// layout returns the stack layout for the area above the footer.
func (m Model) layout() stackLayout {
	area := max(0, m.height-lipgloss.Height(m.footer()))
	return newStackLayout(m.cfg.Display, m.width, area)
}

func indexOf(views []toast.View, id string) int {
	if id == "" {
		return -1
	}
	for i, v := range views {
		if v.ID == id {
			return i
		}
	}
	return -1
}

// View renders the TUI.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	l := m.layout()
	shown := m.shown()

	var body string
	if len(shown) == 0 {
		body = l.place(lipgloss.NewStyle().
			Foreground(m.theme.Muted()).
			Render("No toasts. Press n for a demo."))
	} else {
		blocks := make([]string, 0, 2*len(shown))
		for i, v := range shown {
			if i > 0 {
				blocks = append(blocks, strings.Repeat("\n", cardGap-1))
			}
			blocks = append(blocks, m.renderCard(v, v.ID == m.focused))
		}
		body = l.place(lipgloss.JoinVertical(lipgloss.Left, blocks...))
	}

	return body + "\n" + m.footer()
}

// footer renders the status line or the key help.
func (m Model) footer() string {
	if m.statusMsg != "" {
		statusStyle := lipgloss.NewStyle().Foreground(m.theme.Text())
		if m.statusErr {
			statusStyle = statusStyle.Foreground(m.theme.CategoryColor(model.CategoryError))
		}
		return statusStyle.Render(m.statusMsg)
	}
	return m.help.View(m.keys)
}

// renderCard renders a single bordered toast.
func (m Model) renderCard(v toast.View, focused bool) string {
	color := m.theme.CategoryColor(v.Category)
	inner := max(1, m.cfg.Display.Width-4)

	cardStyle := lipgloss.NewStyle().
		Border(m.theme.Border(focused)).
		BorderForeground(color).
		Padding(0, 1).
		Width(m.cfg.Display.Width - 2)

	line := lipgloss.NewStyle().MaxWidth(inner)

	title := v.AppName
	if title == "" {
		title = string(v.Category)
	}
	if m.cfg.Display.ShowIcons {
		title = v.Category.Icon() + " " + title
	}
	left := lipgloss.NewStyle().Bold(true).Foreground(color).Render(title)
	right := ""
	if v.State == toast.StatePaused {
		right = lipgloss.NewStyle().Foreground(m.theme.Muted()).Render("paused")
	}
	fill := max(1, inner-lipgloss.Width(left)-lipgloss.Width(right))
	header := line.Render(left + strings.Repeat(" ", fill) + right)

	message := line.Render(strings.Join(strings.Fields(v.Message), " "))

	return cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		header,
		message,
		line.Render(m.renderProgress(v, inner)),
	))
}

// renderProgress renders the countdown bar and remaining time.
func (m Model) renderProgress(v toast.View, width int) string {
	if v.Persistent() {
		return lipgloss.NewStyle().Foreground(m.theme.Muted()).Render("until dismissed")
	}

	suffix := fmt.Sprintf(" %5.1fs", v.Remaining.Seconds())
	bar := m.bars[v.Category]
	bar.Width = max(1, width-len(suffix))
	return bar.ViewAs(v.Progress/100) + suffix
}
