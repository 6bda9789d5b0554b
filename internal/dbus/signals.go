package dbus

import (
	"fmt"

	"github.com/jmylchreest/toastd/internal/model"
)

// EmitNotificationClosed emits the NotificationClosed signal.
// This signal is emitted when a toast leaves the stack, either by timeout,
// user dismissal, or explicit close request.
func (s *NotificationServer) EmitNotificationClosed(id uint32, reason model.CloseReason) error {
	if s.conn == nil {
		return &ServerError{Message: "not connected to D-Bus"}
	}

	err := s.conn.Emit(DBusPath, DBusInterface+".NotificationClosed", id, uint32(reason))
	if err != nil {
		return fmt.Errorf("failed to emit NotificationClosed signal: %w", err)
	}

	s.logger.Debug("emitted NotificationClosed signal", "dbus_id", id, "reason", reason.String())
	return nil
}
