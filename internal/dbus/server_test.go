package dbus

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/toastd/internal/clock"
	"github.com/jmylchreest/toastd/internal/model"
	"github.com/jmylchreest/toastd/internal/toast"
)

func newTestServer(t *testing.T) (*NotificationServer, *toast.Registry, *clock.Fake) {
	t.Helper()
	clk := clock.NewFake(time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC))
	reg := toast.NewRegistry(clk, toast.DefaultOptions(), nil)
	srv := NewNotificationServer(reg, nil)
	reg.OnClose(srv.HandleClosed)
	t.Cleanup(reg.Shutdown)
	return srv, reg, clk
}

func TestServer_NotifyAddsToast(t *testing.T) {
	srv, reg, _ := newTestServer(t)

	id, dbusErr := srv.Notify("mail", 0, "", "New mail", "from bob", nil, nil, -1)
	require.Nil(t, dbusErr)
	assert.NotZero(t, id)

	toastID, ok := srv.ToastID(id)
	require.True(t, ok)

	view, ok := reg.Get(toastID)
	require.True(t, ok)
	assert.Equal(t, "New mail: from bob", view.Message)
	assert.Equal(t, model.DefaultDuration, view.Duration)
	assert.Equal(t, "mail", view.AppName)
}

func TestServer_IDsIncrease(t *testing.T) {
	srv, _, _ := newTestServer(t)

	first := srv.Deliver(&DBusNotification{Summary: "a", ExpireTimeout: -1})
	second := srv.Deliver(&DBusNotification{Summary: "b", ExpireTimeout: -1})
	assert.Greater(t, second, first)
	assert.Equal(t, 2, srv.ActiveCount())
}

func TestServer_ExpiryForgetsMapping(t *testing.T) {
	srv, reg, clk := newTestServer(t)

	id := srv.Deliver(&DBusNotification{Summary: "short", ExpireTimeout: 1000})
	clk.Advance(1000 * time.Millisecond)

	assert.Zero(t, reg.Len())
	_, ok := srv.ToastID(id)
	assert.False(t, ok)
	assert.Zero(t, srv.ActiveCount())
}

// closingSink closes every toast before Add returns, like a timer or an
// eviction racing with delivery.
type closingSink struct {
	reg    *toast.Registry
	reason model.CloseReason
}

func (s closingSink) Add(d model.Draft) string {
	id := s.reg.Add(d)
	s.reg.Close(id, s.reason)
	return id
}

func (s closingSink) Close(id string, reason model.CloseReason) bool {
	return s.reg.Close(id, reason)
}

func TestServer_ToastClosedDuringDelivery(t *testing.T) {
	clk := clock.NewFake(time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC))
	reg := toast.NewRegistry(clk, toast.DefaultOptions(), nil)
	t.Cleanup(reg.Shutdown)

	srv := NewNotificationServer(closingSink{reg: reg, reason: model.CloseReasonExpired}, nil)
	reg.OnClose(srv.HandleClosed)

	id := srv.Deliver(&DBusNotification{Summary: "gone", ExpireTimeout: 1})

	assert.NotZero(t, id)
	assert.Zero(t, reg.Len())
	assert.Zero(t, srv.ActiveCount())
	_, ok := srv.ToastID(id)
	assert.False(t, ok)
	assert.Empty(t, srv.closedEarly, "early closes are forgotten once delivery settles")

	// A later replace of the dead id gets a fresh id instead of reviving it.
	next := srv.Deliver(&DBusNotification{Summary: "again", ReplacesID: id, ExpireTimeout: -1})
	assert.NotEqual(t, id, next)
}

func TestServer_ForeignCloseOutsideDeliveryNotRemembered(t *testing.T) {
	srv, reg, _ := newTestServer(t)

	local := reg.Add(model.Draft{Message: "from stdin"})
	reg.Remove(local)

	assert.Empty(t, srv.closedEarly)
}

func TestServer_PersistentTimeout(t *testing.T) {
	srv, reg, clk := newTestServer(t)

	id := srv.Deliver(&DBusNotification{Summary: "stays", ExpireTimeout: 0})
	clk.Advance(time.Hour)

	assert.Equal(t, 1, reg.Len())
	_, ok := srv.ToastID(id)
	assert.True(t, ok)
}

func TestServer_CloseNotification(t *testing.T) {
	srv, reg, _ := newTestServer(t)

	var reasons []model.CloseReason
	reg.OnClose(func(_ model.Toast, reason model.CloseReason) {
		reasons = append(reasons, reason)
	})

	id := srv.Deliver(&DBusNotification{Summary: "bye", ExpireTimeout: -1})
	require.Nil(t, srv.CloseNotification(id))

	assert.Zero(t, reg.Len())
	assert.Equal(t, []model.CloseReason{model.CloseReasonClosed}, reasons)
	assert.Zero(t, srv.ActiveCount())

	// Unknown IDs are ignored
	assert.Nil(t, srv.CloseNotification(999))
}

func TestServer_ReplacesID(t *testing.T) {
	srv, reg, _ := newTestServer(t)

	id := srv.Deliver(&DBusNotification{Summary: "Downloading 10%", ExpireTimeout: -1})
	replaced := srv.Deliver(&DBusNotification{Summary: "Downloading 50%", ReplacesID: id, ExpireTimeout: -1})

	assert.Equal(t, id, replaced)
	require.Equal(t, 1, reg.Len())
	assert.Equal(t, "Downloading 50%", reg.Toasts()[0].Message)

	toastID, ok := srv.ToastID(id)
	require.True(t, ok)
	assert.Equal(t, reg.Toasts()[0].ID, toastID)
}

func TestServer_UnknownReplacesIDGetsFreshID(t *testing.T) {
	srv, reg, _ := newTestServer(t)

	id := srv.Deliver(&DBusNotification{Summary: "x", ReplacesID: 77, ExpireTimeout: -1})
	assert.NotEqual(t, uint32(77), id)
	assert.Equal(t, 1, reg.Len())
}

func TestServer_IgnoresForeignToasts(t *testing.T) {
	srv, reg, _ := newTestServer(t)

	id := reg.Add(model.Draft{Message: "from stdin"})
	require.True(t, reg.Remove(id))
	assert.Zero(t, srv.ActiveCount())
}

func TestServer_NotifyHook(t *testing.T) {
	srv, _, _ := newTestServer(t)

	var got []string
	srv.SetNotifyHook(func(n *DBusNotification, toastID string) {
		got = append(got, n.Summary+"="+toastID)
	})

	srv.Deliver(&DBusNotification{Summary: "hooked", ExpireTimeout: -1})
	require.Len(t, got, 1)
	assert.Contains(t, got[0], "hooked=")
}

func TestServer_EmitWithoutConnection(t *testing.T) {
	srv, _, _ := newTestServer(t)
	err := srv.EmitNotificationClosed(1, model.CloseReasonExpired)
	var serverErr *ServerError
	assert.ErrorAs(t, err, &serverErr)
}

func TestServer_GetInformation(t *testing.T) {
	srv, _, _ := newTestServer(t)
	srv.SetServerInfo(ServerInfo{Name: "n", Vendor: "v", Version: "1", SpecVersion: "1.2"})

	name, vendor, version, spec, dbusErr := srv.GetServerInformation()
	require.Nil(t, dbusErr)
	assert.Equal(t, []string{"n", "v", "1", "1.2"}, []string{name, vendor, version, spec})

	caps, dbusErr := srv.GetCapabilities()
	require.Nil(t, dbusErr)
	assert.Equal(t, ServerCapabilities, caps)
}
