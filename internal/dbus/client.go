package dbus

import (
	"context"
	"fmt"

	"github.com/godbus/dbus/v5"

	"github.com/jmylchreest/toastd/internal/model"
)

// Client sends notifications to whichever daemon owns the notification
// bus name.
type Client struct {
	conn *dbus.Conn
	obj  dbus.BusObject
}

// NewClient connects to the session bus.
func NewClient() (*Client, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, &ServerError{Message: "failed to connect to session bus", Cause: err}
	}
	return &Client{
		conn: conn,
		obj:  conn.Object(DBusBusName, DBusPath),
	}, nil
}

// Close closes the client connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// Hints converts a draft into Notify hints. Categories travel as a
// freedesktop category hint that CategoryForHints maps back.
func Hints(d model.Draft) map[string]dbus.Variant {
	hints := make(map[string]dbus.Variant)
	switch d.Category {
	case model.CategoryError:
		hints["category"] = dbus.MakeVariant("toastd.error")
		hints["urgency"] = dbus.MakeVariant(byte(UrgencyCritical))
	case model.CategorySuccess:
		hints["category"] = dbus.MakeVariant("toastd.complete")
	case model.CategoryWarning:
		hints["category"] = dbus.MakeVariant("toastd.warning")
	}
	if d.Silent {
		hints["suppress-sound"] = dbus.MakeVariant(true)
	}
	return hints
}

// ExpireTimeout converts a draft duration into the Notify expire_timeout
// argument: -1 for the server default, 0 for never.
func ExpireTimeout(d model.Draft) int32 {
	if d.Duration == nil {
		return -1
	}
	if *d.Duration <= 0 {
		return 0
	}
	return int32(*d.Duration)
}

// Notify sends d as a notification and returns the ID assigned by the
// daemon. A non-zero replacesID replaces an earlier notification.
func (c *Client) Notify(ctx context.Context, d model.Draft, replacesID uint32) (uint32, error) {
	appName := d.AppName
	if appName == "" {
		appName = "toastd"
	}

	var id uint32
	err := c.obj.CallWithContext(ctx, DBusInterface+".Notify", 0,
		appName,
		replacesID,
		"",
		d.Message,
		"",
		[]string{},
		Hints(d),
		ExpireTimeout(d),
	).Store(&id)
	if err != nil {
		return 0, fmt.Errorf("notify: %w", err)
	}
	return id, nil
}

// CloseNotification asks the daemon to close a notification.
func (c *Client) CloseNotification(ctx context.Context, id uint32) error {
	if err := c.obj.CallWithContext(ctx, DBusInterface+".CloseNotification", 0, id).Err; err != nil {
		return fmt.Errorf("close notification %d: %w", id, err)
	}
	return nil
}

// ServerInformation queries the running daemon's identity.
func (c *Client) ServerInformation(ctx context.Context) (ServerInfo, error) {
	var info ServerInfo
	err := c.obj.CallWithContext(ctx, DBusInterface+".GetServerInformation", 0).
		Store(&info.Name, &info.Vendor, &info.Version, &info.SpecVersion)
	if err != nil {
		return ServerInfo{}, fmt.Errorf("get server information: %w", err)
	}
	return info, nil
}
