// Package model defines the core data structures for toastd.
package model

import (
	"crypto/rand"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// DefaultDuration is the countdown used when a draft does not specify one.
const DefaultDuration = 5000 * time.Millisecond

// Category classifies a toast for styling, sounds and per-category timeouts.
type Category string

const (
	CategoryInfo    Category = "info"
	CategorySuccess Category = "success"
	CategoryWarning Category = "warning"
	CategoryError   Category = "error"
)

// Categories returns all known categories in display order.
func Categories() []Category {
	return []Category{CategoryInfo, CategorySuccess, CategoryWarning, CategoryError}
}

// ParseCategory converts a string to a Category.
// Matching is case-insensitive; unknown values map to CategoryInfo.
func ParseCategory(s string) Category {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "success", "ok":
		return CategorySuccess
	case "warning", "warn":
		return CategoryWarning
	case "error", "err", "critical":
		return CategoryError
	default:
		return CategoryInfo
	}
}

// Icon returns a single-cell glyph for the category.
func (c Category) Icon() string {
	switch c {
	case CategorySuccess:
		return "✓"
	case CategoryWarning:
		return "!"
	case CategoryError:
		return "✗"
	default:
		return "i"
	}
}

// Freedesktop urgency levels.
const (
	UrgencyLow      = 0
	UrgencyNormal   = 1
	UrgencyCritical = 2
)

// CategoryForHints maps a freedesktop category hint and urgency level onto
// a toast category. Error and completion hints win over urgency.
func CategoryForHints(hint string, urgency int) Category {
	switch {
	case strings.HasSuffix(hint, ".error") || strings.HasSuffix(hint, ".offline"):
		return CategoryError
	case strings.HasSuffix(hint, ".complete") || strings.HasSuffix(hint, ".online"):
		return CategorySuccess
	case strings.HasSuffix(hint, ".warning"):
		return CategoryWarning
	}

	if urgency >= UrgencyCritical {
		return CategoryError
	}
	return CategoryInfo
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	for _, known := range Categories() {
		if c == known {
			return true
		}
	}
	return false
}

// CloseReason describes why a toast left the registry.
// Values match the freedesktop notification specification.
type CloseReason uint32

const (
	// CloseReasonExpired indicates the countdown ran out.
	CloseReasonExpired CloseReason = 1
	// CloseReasonDismissed indicates the user dismissed the toast.
	CloseReasonDismissed CloseReason = 2
	// CloseReasonClosed indicates an external request closed the toast.
	CloseReasonClosed CloseReason = 3
)

// String returns the string representation of the close reason.
func (r CloseReason) String() string {
	switch r {
	case CloseReasonExpired:
		return "expired"
	case CloseReasonDismissed:
		return "dismissed"
	case CloseReasonClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Draft is the partial toast a caller submits.
// The registry assigns the ID and resolves the duration.
type Draft struct {
	Message  string   `json:"message" yaml:"message"`
	Category Category `json:"category,omitempty" yaml:"category,omitempty"`
	// Duration in milliseconds. Nil selects the default; zero or negative
	// disables auto-dismiss.
	Duration *int   `json:"duration,omitempty" yaml:"duration,omitempty"`
	AppName  string `json:"app_name,omitempty" yaml:"app_name,omitempty"`
	Silent   bool   `json:"silent,omitempty" yaml:"silent,omitempty"` // No sound on arrival
	Source   string `json:"-" yaml:"-"`
}

// Millis returns a pointer to ms, for filling Draft.Duration.
func Millis(ms int) *int {
	return &ms
}

// Toast is a notification held by the registry.
type Toast struct {
	ID        string        `json:"id" yaml:"id"`
	Message   string        `json:"message" yaml:"message"`
	Category  Category      `json:"category" yaml:"category"`
	Duration  time.Duration `json:"-" yaml:"-"`
	CreatedAt time.Time     `json:"created_at" yaml:"created_at"`
	AppName   string        `json:"app_name,omitempty" yaml:"app_name,omitempty"`
	Source    string        `json:"source,omitempty" yaml:"source,omitempty"`
	Silent    bool          `json:"-" yaml:"-"`
}

// Persistent reports whether the toast never expires on its own.
func (t Toast) Persistent() bool {
	return t.Duration <= 0
}

// IDGenerator produces unique, time-ordered toast identifiers.
// IDs generated within the same millisecond remain distinct and sort in
// generation order.
type IDGenerator struct {
	mu      sync.Mutex
	entropy io.Reader
}

// NewIDGenerator creates a generator backed by monotonic ULID entropy.
func NewIDGenerator() *IDGenerator {
	return &IDGenerator{
		entropy: ulid.Monotonic(rand.Reader, 0),
	}
}

// Next returns a new identifier derived from now.
func (g *IDGenerator) Next(now time.Time) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(now), g.entropy).String()
}

// ResolveDuration turns a draft duration into the toast countdown.
// A nil value yields fallback. Zero or negative results mean persistent.
func ResolveDuration(ms *int, fallback time.Duration) time.Duration {
	if ms == nil {
		if fallback < 0 {
			return 0
		}
		return fallback
	}
	if *ms <= 0 {
		return 0
	}
	return time.Duration(*ms) * time.Millisecond
}
