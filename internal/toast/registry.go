// Package toast implements the toast registry and per-toast countdowns.
package toast

import (
	"log/slog"
	"sync"
	"time"

	"github.com/jmylchreest/toastd/internal/clock"
	"github.com/jmylchreest/toastd/internal/model"
)

// ChangeType indicates the type of registry change.
type ChangeType int

const (
	// ChangeTypeAdd indicates a toast was added.
	ChangeTypeAdd ChangeType = iota
	// ChangeTypeRemove indicates a toast left the registry.
	ChangeTypeRemove
	// ChangeTypePause indicates a countdown was paused.
	ChangeTypePause
	// ChangeTypeResume indicates a countdown was resumed.
	ChangeTypeResume
	// ChangeTypeTick indicates progress was recomputed.
	ChangeTypeTick
)

// String returns the string representation of the change type.
func (t ChangeType) String() string {
	switch t {
	case ChangeTypeAdd:
		return "add"
	case ChangeTypeRemove:
		return "remove"
	case ChangeTypePause:
		return "pause"
	case ChangeTypeResume:
		return "resume"
	case ChangeTypeTick:
		return "tick"
	default:
		return "unknown"
	}
}

// ChangeEvent signals registry content changes.
type ChangeEvent struct {
	Type    ChangeType
	ToastID string
	Reason  model.CloseReason // Set for ChangeTypeRemove
}

// CloseListener is called when a toast leaves the registry.
type CloseListener func(t model.Toast, reason model.CloseReason)

// Options configures registry defaults. Changes apply to toasts added
// after the update.
type Options struct {
	DefaultDuration   time.Duration
	CategoryDurations map[model.Category]time.Duration // Zero or negative means persistent
	FrameInterval     time.Duration
	PauseOnHover      bool
	MaxVisible        int // 0 = unlimited
}

// DefaultOptions returns the built-in registry defaults.
func DefaultOptions() Options {
	return Options{
		DefaultDuration: model.DefaultDuration,
		FrameInterval:   DefaultFrameInterval,
		PauseOnHover:    true,
	}
}

// durationFor returns the fallback countdown for a category.
func (o Options) durationFor(c model.Category) time.Duration {
	if d, ok := o.CategoryDurations[c]; ok {
		return d
	}
	if o.DefaultDuration == 0 {
		return model.DefaultDuration
	}
	return o.DefaultDuration
}

// View is a display-facing snapshot of a single toast.
type View struct {
	model.Toast
	Status
}

type entry struct {
	toast     model.Toast
	countdown *Countdown
}

// Registry is the ordered collection of active toasts.
type Registry struct {
	mu      sync.RWMutex
	clock   clock.Clock
	logger  *slog.Logger
	ids     *model.IDGenerator
	opts    Options
	entries []*entry          // Insertion order
	index   map[string]*entry // Keyed by toast ID

	closeListeners []CloseListener
	subscribers    []chan ChangeEvent
	closed         bool
}

// NewRegistry creates an empty registry.
func NewRegistry(c clock.Clock, opts Options, logger *slog.Logger) *Registry {
	if c == nil {
		c = clock.New()
	}
	if logger == nil {
		logger = slog.Default()
	}
	if opts.FrameInterval <= 0 {
		opts.FrameInterval = DefaultFrameInterval
	}

	return &Registry{
		clock:  c,
		logger: logger,
		ids:    model.NewIDGenerator(),
		opts:   opts,
		index:  make(map[string]*entry),
	}
}

// OnClose registers a listener for toasts leaving the registry.
func (r *Registry) OnClose(l CloseListener) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closeListeners = append(r.closeListeners, l)
}

// Add inserts a toast built from d, starts its countdown and returns the
// assigned ID. After Shutdown it does nothing and returns "".
func (r *Registry) Add(d model.Draft) string {
	now := r.clock.Now()

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		r.logger.Warn("toast added after shutdown", "message", d.Message)
		return ""
	}

	category := d.Category
	if !category.Valid() {
		category = model.ParseCategory(string(category))
	}

	t := model.Toast{
		ID:        r.ids.Next(now),
		Message:   d.Message,
		Category:  category,
		Duration:  model.ResolveDuration(d.Duration, r.opts.durationFor(category)),
		CreatedAt: now,
		AppName:   d.AppName,
		Source:    d.Source,
		Silent:    d.Silent,
	}

	id := t.ID
	e := &entry{toast: t}
	e.countdown = NewCountdown(r.clock, CountdownOptions{
		Duration:      t.Duration,
		FrameInterval: r.opts.FrameInterval,
		OnExpire:      func() { r.expire(id) },
		OnFrame:       func() { r.notifyTick(id) },
	})
	r.entries = append(r.entries, e)
	r.index[id] = e

	var evicted []*entry
	if r.opts.MaxVisible > 0 {
		for len(r.entries) > r.opts.MaxVisible {
			oldest := r.entries[0]
			r.removeLocked(oldest.toast.ID, model.CloseReasonDismissed)
			evicted = append(evicted, oldest)
		}
	}

	e.countdown.Start()
	r.notifyChangeLocked(ChangeEvent{Type: ChangeTypeAdd, ToastID: id})
	listeners := r.closeListeners
	r.mu.Unlock()

	r.logger.Debug("toast added",
		"toast_id", id,
		"category", t.Category,
		"duration_ms", t.Duration.Milliseconds(),
	)

	for _, old := range evicted {
		r.finish(old, model.CloseReasonDismissed, listeners)
	}

	return id
}

// Remove dismisses a toast. Unknown IDs are ignored.
func (r *Registry) Remove(id string) bool {
	return r.Close(id, model.CloseReasonDismissed)
}

// Close removes a toast with the given reason. Unknown IDs are ignored.
func (r *Registry) Close(id string, reason model.CloseReason) bool {
	r.mu.Lock()
	e := r.removeLocked(id, reason)
	listeners := r.closeListeners
	r.mu.Unlock()

	if e == nil {
		return false
	}
	r.finish(e, reason, listeners)
	return true
}

// DismissAll removes every toast with reason dismissed.
func (r *Registry) DismissAll() int {
	r.mu.Lock()
	entries := r.entries
	for _, e := range entries {
		r.notifyChangeLocked(ChangeEvent{Type: ChangeTypeRemove, ToastID: e.toast.ID, Reason: model.CloseReasonDismissed})
	}
	r.entries = nil
	r.index = make(map[string]*entry)
	listeners := r.closeListeners
	r.mu.Unlock()

	for _, e := range entries {
		e.countdown.Stop()
		for _, l := range listeners {
			l(e.toast, model.CloseReasonDismissed)
		}
	}
	return len(entries)
}

// FocusEnter pauses the countdown of a toast when pause-on-hover is enabled.
func (r *Registry) FocusEnter(id string) {
	r.mu.RLock()
	e, ok := r.index[id]
	enabled := r.opts.PauseOnHover
	r.mu.RUnlock()

	if !ok || !enabled {
		return
	}
	if e.countdown.FocusEnter() {
		r.logger.Debug("toast paused", "toast_id", id, "remaining_ms", e.countdown.Status().Remaining.Milliseconds())
		r.notifyChange(ChangeEvent{Type: ChangeTypePause, ToastID: id})
	}
}

// FocusLeave resumes the countdown of a paused toast.
func (r *Registry) FocusLeave(id string) {
	r.mu.RLock()
	e, ok := r.index[id]
	r.mu.RUnlock()

	if !ok {
		return
	}
	// A leave with no budget left expires the toast, which emits its own
	// remove event.
	if e.countdown.FocusLeave() && e.countdown.Status().State == StateRunning {
		r.notifyChange(ChangeEvent{Type: ChangeTypeResume, ToastID: id})
	}
}

// Toasts returns the active toasts in insertion order.
func (r *Registry) Toasts() []model.Toast {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]model.Toast, len(r.entries))
	for i, e := range r.entries {
		out[i] = e.toast
	}
	return out
}

// Snapshot returns the active toasts with their countdown status, in
// insertion order.
func (r *Registry) Snapshot() []View {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]View, len(r.entries))
	for i, e := range r.entries {
		out[i] = View{Toast: e.toast, Status: e.countdown.Status()}
	}
	return out
}

// Get returns the view of a single toast.
func (r *Registry) Get(id string) (View, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.index[id]
	if !ok {
		return View{}, false
	}
	return View{Toast: e.toast, Status: e.countdown.Status()}, true
}

// Len returns the number of active toasts.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Options returns the current registry options.
func (r *Registry) Options() Options {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.opts
}

// UpdateConfig replaces the registry defaults. Active toasts keep their
// countdowns; a lower MaxVisible only applies to later additions.
func (r *Registry) UpdateConfig(opts Options) {
	if opts.FrameInterval <= 0 {
		opts.FrameInterval = DefaultFrameInterval
	}

	r.mu.Lock()
	old := r.opts
	r.opts = opts
	r.mu.Unlock()

	r.logger.Debug("registry config updated",
		"old_default_ms", old.DefaultDuration.Milliseconds(),
		"new_default_ms", opts.DefaultDuration.Milliseconds(),
		"max_visible", opts.MaxVisible,
		"pause_on_hover", opts.PauseOnHover,
	)
}

// Subscribe returns a channel that receives change events.
// Delivery is non-blocking; events are dropped when the channel is full.
func (r *Registry) Subscribe() <-chan ChangeEvent {
	r.mu.Lock()
	defer r.mu.Unlock()

	ch := make(chan ChangeEvent, 64)
	if r.closed {
		close(ch)
		return ch
	}
	r.subscribers = append(r.subscribers, ch)
	return ch
}

// Unsubscribe removes and closes a subscription channel.
func (r *Registry) Unsubscribe(ch <-chan ChangeEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, sub := range r.subscribers {
		if sub == ch {
			r.subscribers = append(r.subscribers[:i], r.subscribers[i+1:]...)
			close(sub)
			return
		}
	}
}

// Shutdown tears down every countdown without notifying close listeners
// and closes all subscriptions. The registry accepts no new toasts after.
func (r *Registry) Shutdown() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return
	}
	r.closed = true

	for _, e := range r.entries {
		e.countdown.Stop()
	}
	r.entries = nil
	r.index = make(map[string]*entry)

	for _, ch := range r.subscribers {
		close(ch)
	}
	r.subscribers = nil
}

// expire handles a countdown running out.
func (r *Registry) expire(id string) {
	r.mu.Lock()
	e := r.removeLocked(id, model.CloseReasonExpired)
	listeners := r.closeListeners
	r.mu.Unlock()

	if e == nil {
		return
	}
	r.finish(e, model.CloseReasonExpired, listeners)
}

// finish tears down a removed entry and notifies listeners.
// Must be called without the lock held.
func (r *Registry) finish(e *entry, reason model.CloseReason, listeners []CloseListener) {
	e.countdown.Stop()

	r.logger.Debug("toast closed",
		"toast_id", e.toast.ID,
		"reason", reason.String(),
	)

	for _, l := range listeners {
		l(e.toast, reason)
	}
}

// removeLocked unlinks an entry and emits a remove event.
// Returns nil if the ID is unknown. Caller must hold the lock.
func (r *Registry) removeLocked(id string, reason model.CloseReason) *entry {
	e, ok := r.index[id]
	if !ok {
		return nil
	}
	delete(r.index, id)
	for i, other := range r.entries {
		if other == e {
			r.entries = append(r.entries[:i], r.entries[i+1:]...)
			break
		}
	}
	r.notifyChangeLocked(ChangeEvent{Type: ChangeTypeRemove, ToastID: id, Reason: reason})
	return e
}

func (r *Registry) notifyTick(id string) {
	r.notifyChange(ChangeEvent{Type: ChangeTypeTick, ToastID: id})
}

func (r *Registry) notifyChange(event ChangeEvent) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	r.notifyChangeLocked(event)
}

// notifyChangeLocked sends an event to all subscribers (non-blocking).
// Caller must hold the lock (read or write).
func (r *Registry) notifyChangeLocked(event ChangeEvent) {
	for _, ch := range r.subscribers {
		select {
		case ch <- event:
		default:
			// Channel full, skip
		}
	}
}
