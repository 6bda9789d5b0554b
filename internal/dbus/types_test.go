package dbus

import (
	"testing"

	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/toastd/internal/model"
)

func TestUrgency(t *testing.T) {
	tests := []struct {
		name     string
		hints    map[string]dbus.Variant
		expected int
	}{
		{
			name:     "no hint",
			hints:    nil,
			expected: UrgencyNormal,
		},
		{
			name:     "low urgency",
			hints:    map[string]dbus.Variant{"urgency": dbus.MakeVariant(byte(0))},
			expected: UrgencyLow,
		},
		{
			name:     "critical urgency",
			hints:    map[string]dbus.Variant{"urgency": dbus.MakeVariant(byte(2))},
			expected: UrgencyCritical,
		},
		{
			name:     "wrong type returns normal",
			hints:    map[string]dbus.Variant{"urgency": dbus.MakeVariant("high")},
			expected: UrgencyNormal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := &DBusNotification{Hints: tt.hints}
			assert.Equal(t, tt.expected, n.Urgency())
		})
	}
}

func TestCategory(t *testing.T) {
	tests := []struct {
		name     string
		hints    map[string]dbus.Variant
		expected string
	}{
		{
			name:     "no hint",
			hints:    nil,
			expected: "",
		},
		{
			name:     "email category",
			hints:    map[string]dbus.Variant{"category": dbus.MakeVariant("email.arrived")},
			expected: "email.arrived",
		},
		{
			name:     "wrong type",
			hints:    map[string]dbus.Variant{"category": dbus.MakeVariant(123)},
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := &DBusNotification{Hints: tt.hints}
			assert.Equal(t, tt.expected, n.Category())
		})
	}
}

func TestSuppressSound(t *testing.T) {
	n := &DBusNotification{}
	assert.False(t, n.SuppressSound())

	n.Hints = map[string]dbus.Variant{"suppress-sound": dbus.MakeVariant(true)}
	assert.True(t, n.SuppressSound())

	n.Hints = map[string]dbus.Variant{"suppress-sound": dbus.MakeVariant("yes")}
	assert.False(t, n.SuppressSound())
}

func TestToastCategory(t *testing.T) {
	tests := []struct {
		name     string
		hints    map[string]dbus.Variant
		expected model.Category
	}{
		{"default", nil, model.CategoryInfo},
		{"low urgency", map[string]dbus.Variant{"urgency": dbus.MakeVariant(byte(0))}, model.CategoryInfo},
		{"critical urgency", map[string]dbus.Variant{"urgency": dbus.MakeVariant(byte(2))}, model.CategoryError},
		{"transfer complete", map[string]dbus.Variant{"category": dbus.MakeVariant("transfer.complete")}, model.CategorySuccess},
		{"network online", map[string]dbus.Variant{"category": dbus.MakeVariant("network.connected.online")}, model.CategorySuccess},
		{"device error", map[string]dbus.Variant{"category": dbus.MakeVariant("device.error")}, model.CategoryError},
		{"battery warning", map[string]dbus.Variant{"category": dbus.MakeVariant("x-battery.warning")}, model.CategoryWarning},
		{
			"category wins over urgency",
			map[string]dbus.Variant{
				"category": dbus.MakeVariant("transfer.complete"),
				"urgency":  dbus.MakeVariant(byte(2)),
			},
			model.CategorySuccess,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := &DBusNotification{Hints: tt.hints}
			assert.Equal(t, tt.expected, n.ToastCategory())
		})
	}
}

func TestMessage(t *testing.T) {
	tests := []struct {
		summary, body, expected string
	}{
		{"Saved", "", "Saved"},
		{"", "body only", "body only"},
		{"Build", "finished\nin  3s", "Build: finished in 3s"},
		{"  Padded  ", "", "Padded"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			n := &DBusNotification{Summary: tt.summary, Body: tt.body}
			assert.Equal(t, tt.expected, n.Message())
		})
	}
}

func TestDraft_ExpireTimeout(t *testing.T) {
	tests := []struct {
		name     string
		timeout  int32
		expected *int
	}{
		{"server default", -1, nil},
		{"never expire", 0, model.Millis(0)},
		{"explicit", 2500, model.Millis(2500)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := &DBusNotification{AppName: "app", Summary: "hi", ExpireTimeout: tt.timeout}
			d := n.Draft()
			assert.Equal(t, tt.expected, d.Duration)
			assert.Equal(t, "hi", d.Message)
			assert.Equal(t, "app", d.AppName)
			assert.Equal(t, "dbus", d.Source)
		})
	}
}

func TestParseNotifyBody(t *testing.T) {
	body := []interface{}{
		"app", uint32(4), "icon", "Summary", "Body",
		[]string{"default", "Open"},
		map[string]dbus.Variant{"urgency": dbus.MakeVariant(byte(2))},
		int32(1500),
	}

	n, err := ParseNotifyBody(body)
	require.NoError(t, err)
	assert.Equal(t, "app", n.AppName)
	assert.Equal(t, uint32(4), n.ReplacesID)
	assert.Equal(t, "Summary", n.Summary)
	assert.Equal(t, []string{"default", "Open"}, n.Actions)
	assert.Equal(t, UrgencyCritical, n.Urgency())
	assert.Equal(t, int32(1500), n.ExpireTimeout)

	_, err = ParseNotifyBody(body[:7])
	assert.Error(t, err)

	bad := append([]interface{}{}, body...)
	bad[3] = 42
	_, err = ParseNotifyBody(bad)
	assert.Error(t, err)
}

func TestDefaultServerInfo(t *testing.T) {
	info := DefaultServerInfo()
	assert.Equal(t, "toastd", info.Name)
	assert.Equal(t, "1.2", info.SpecVersion)
	assert.NotEmpty(t, info.Version)
}

func TestServerCapabilities(t *testing.T) {
	assert.Contains(t, ServerCapabilities, "body")
	assert.Contains(t, ServerCapabilities, "persistence")
	assert.NotContains(t, ServerCapabilities, "actions")
}
