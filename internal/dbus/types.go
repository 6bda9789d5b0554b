package dbus

import (
	"strings"

	"github.com/godbus/dbus/v5"

	"github.com/jmylchreest/toastd/internal/model"
)

// Urgency levels matching the freedesktop spec.
const (
	UrgencyLow      = model.UrgencyLow
	UrgencyNormal   = model.UrgencyNormal
	UrgencyCritical = model.UrgencyCritical
)

// DBusNotification represents an incoming D-Bus Notify call.
// It contains the raw parameters from the org.freedesktop.Notifications.Notify method.
type DBusNotification struct {
	AppName       string
	ReplacesID    uint32
	AppIcon       string
	Summary       string
	Body          string
	Actions       []string // Alternating key, label pairs
	Hints         map[string]dbus.Variant
	ExpireTimeout int32 // -1 = server default, 0 = never expire
}

// Urgency extracts the urgency hint from the notification.
// Returns UrgencyNormal if not specified.
func (n *DBusNotification) Urgency() int {
	if v, ok := n.Hints["urgency"]; ok {
		if b, ok := v.Value().(byte); ok {
			return int(b)
		}
	}
	return UrgencyNormal
}

// Category extracts the category hint from the notification.
// Returns empty string if not specified.
func (n *DBusNotification) Category() string {
	if v, ok := n.Hints["category"]; ok {
		if s, ok := v.Value().(string); ok {
			return s
		}
	}
	return ""
}

// SuppressSound returns true if the suppress-sound hint is set.
func (n *DBusNotification) SuppressSound() bool {
	if v, ok := n.Hints["suppress-sound"]; ok {
		if b, ok := v.Value().(bool); ok {
			return b
		}
	}
	return false
}

// ToastCategory maps the category and urgency hints onto a toast category.
func (n *DBusNotification) ToastCategory() model.Category {
	return model.CategoryForHints(n.Category(), n.Urgency())
}

// Message joins summary and body into a single toast line.
func (n *DBusNotification) Message() string {
	summary := strings.TrimSpace(n.Summary)
	body := strings.Join(strings.Fields(n.Body), " ")
	switch {
	case summary == "":
		return body
	case body == "":
		return summary
	default:
		return summary + ": " + body
	}
}

// Draft converts the notification into a toast draft.
// An expire timeout of -1 selects the configured default and 0 keeps the
// toast until it is dismissed.
func (n *DBusNotification) Draft() model.Draft {
	d := model.Draft{
		Message:  n.Message(),
		Category: n.ToastCategory(),
		AppName:  n.AppName,
		Source:   "dbus",
		Silent:   n.SuppressSound(),
	}
	if n.ExpireTimeout >= 0 {
		d.Duration = model.Millis(int(n.ExpireTimeout))
	}
	return d
}

// ServerInfo contains the values returned by GetServerInformation.
type ServerInfo struct {
	Name        string
	Vendor      string
	Version     string
	SpecVersion string
}

// DefaultServerInfo returns the server information for toastd.
func DefaultServerInfo() ServerInfo {
	return ServerInfo{
		Name:        "toastd",
		Vendor:      "jmylchreest",
		Version:     "dev",
		SpecVersion: "1.2",
	}
}

// ServerCapabilities lists the capabilities reported by GetCapabilities.
var ServerCapabilities = []string{
	"body",
	"persistence",
	"sound",
}
