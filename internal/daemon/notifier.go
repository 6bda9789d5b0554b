package daemon

import (
	"log/slog"
	"sync"
	"time"

	"github.com/jmylchreest/toastd/internal/clock"
	"github.com/jmylchreest/toastd/internal/model"
)

// Sink receives toasts.
type Sink interface {
	Add(d model.Draft) string
}

// internalToastDuration is how long toastd's own messages stay up.
const internalToastDuration = 5000

// InternalNotifier posts toasts about toastd's own events.
// The same key is not repeated within minInterval.
type InternalNotifier struct {
	mu     sync.Mutex
	logger *slog.Logger
	clock  clock.Clock
	sink   Sink

	// Rate limiting
	lastNotifyTime map[string]time.Time // key -> last notification time
	minInterval    time.Duration        // minimum time between same notifications

	enabled bool
}

// NewInternalNotifier creates a new InternalNotifier posting to sink.
func NewInternalNotifier(sink Sink, c clock.Clock, logger *slog.Logger) *InternalNotifier {
	if c == nil {
		c = clock.New()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &InternalNotifier{
		logger:         logger,
		clock:          c,
		sink:           sink,
		lastNotifyTime: make(map[string]time.Time),
		minInterval:    5 * time.Second,
		enabled:        true,
	}
}

// SetEnabled enables or disables internal notifications.
func (n *InternalNotifier) SetEnabled(enabled bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.enabled = enabled
}

// SetMinInterval sets the minimum interval between duplicate notifications.
func (n *InternalNotifier) SetMinInterval(interval time.Duration) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.minInterval = interval
}

// Notify posts a toast unless the key was used within minInterval.
// It returns the toast ID, or "" when suppressed.
func (n *InternalNotifier) Notify(key, message string, category model.Category) string {
	n.mu.Lock()
	if !n.enabled || n.sink == nil {
		n.mu.Unlock()
		return ""
	}

	now := n.clock.Now()
	if lastTime, ok := n.lastNotifyTime[key]; ok && now.Sub(lastTime) < n.minInterval {
		n.mu.Unlock()
		n.logger.Debug("internal notification rate-limited", "key", key)
		return ""
	}
	n.lastNotifyTime[key] = now
	n.mu.Unlock()

	n.logger.Debug("sending internal notification", "key", key, "category", category)
	return n.sink.Add(model.Draft{
		Message:  message,
		Category: category,
		Duration: model.Millis(internalToastDuration),
		AppName:  "toastd",
		Source:   "internal",
		Silent:   true,
	})
}

// NotifyConfigReloaded posts a toast about the config being reloaded.
func (n *InternalNotifier) NotifyConfigReloaded() {
	n.Notify("config-reload", "Configuration reloaded", model.CategorySuccess)
}

// NotifyConfigError posts a toast about a rejected config file.
func (n *InternalNotifier) NotifyConfigError(err error) {
	n.Notify("config-error", "Configuration error: "+err.Error(), model.CategoryWarning)
}

// NotifyAudioError posts a toast about a sound that failed to play.
func (n *InternalNotifier) NotifyAudioError(err error) {
	n.Notify("audio-error", "Failed to play sound: "+err.Error(), model.CategoryWarning)
}

// NotifyDBusError posts a toast about the bus listener failing to start.
func (n *InternalNotifier) NotifyDBusError(err error) {
	n.Notify("dbus-error", "D-Bus listener unavailable: "+err.Error(), model.CategoryError)
}
