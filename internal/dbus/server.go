package dbus

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"

	"github.com/jmylchreest/toastd/internal/model"
)

const (
	// DBusInterface is the notification interface name.
	DBusInterface = "org.freedesktop.Notifications"
	// DBusPath is the notification object path.
	DBusPath = "/org/freedesktop/Notifications"
	// DBusBusName is the bus name to claim.
	DBusBusName = "org.freedesktop.Notifications"
)

// Sink receives toasts created from bus traffic.
type Sink interface {
	Add(d model.Draft) string
	Close(id string, reason model.CloseReason) bool
}

// NotifyHook is called after a notification has been turned into a toast.
type NotifyHook func(notification *DBusNotification, toastID string)

// NotificationServer implements the org.freedesktop.Notifications D-Bus interface
// on top of a toast sink.
type NotificationServer struct {
	conn   *dbus.Conn
	logger *slog.Logger
	sink   Sink

	// ID generation
	nextID atomic.Uint32

	onNotify NotifyHook

	// D-Bus ID <-> toast ID
	mu          sync.RWMutex
	toastIDs    map[uint32]string
	busIDs      map[string]uint32
	delivering  int                          // Deliver calls waiting on sink.Add
	closedEarly map[string]model.CloseReason // Unmapped toasts closed while delivering
	serverInfo  ServerInfo
	running     bool
}

// NewNotificationServer creates a new NotificationServer feeding sink.
func NewNotificationServer(sink Sink, logger *slog.Logger) *NotificationServer {
	if logger == nil {
		logger = slog.Default()
	}
	return &NotificationServer{
		logger:      logger,
		sink:        sink,
		toastIDs:    make(map[uint32]string),
		busIDs:      make(map[string]uint32),
		closedEarly: make(map[string]model.CloseReason),
		serverInfo:  DefaultServerInfo(),
	}
}

// SetServerInfo sets the server information returned by GetServerInformation.
func (s *NotificationServer) SetServerInfo(info ServerInfo) {
	s.serverInfo = info
}

// SetNotifyHook sets a hook called for every accepted notification.
func (s *NotificationServer) SetNotifyHook(hook NotifyHook) {
	s.onNotify = hook
}

// Start connects to the session bus and exports the notification service.
func (s *NotificationServer) Start() error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return &ServerError{Message: "server already running"}
	}
	s.mu.Unlock()

	conn, err := dbus.SessionBus()
	if err != nil {
		return &ServerError{Message: "failed to connect to session bus", Cause: err}
	}

	if err := conn.Export(s, DBusPath, DBusInterface); err != nil {
		return &ServerError{Message: "failed to export object", Cause: err}
	}

	node := &introspect.Node{
		Name: DBusPath,
		Interfaces: []introspect.Interface{
			introspect.IntrospectData,
			{
				Name:    DBusInterface,
				Methods: notificationMethods(),
				Signals: notificationSignals(),
			},
		},
	}
	if err := conn.Export(introspect.NewIntrospectable(node), DBusPath,
		"org.freedesktop.DBus.Introspectable"); err != nil {
		return &ServerError{Message: "failed to export introspectable", Cause: err}
	}

	reply, err := conn.RequestName(DBusBusName, dbus.NameFlagDoNotQueue|dbus.NameFlagReplaceExisting)
	if err != nil {
		return &ServerError{Message: "failed to request bus name", Cause: err}
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		return &ServerError{Message: fmt.Sprintf("bus name %s already taken", DBusBusName)}
	}

	s.mu.Lock()
	s.conn = conn
	s.running = true
	s.mu.Unlock()

	s.logger.Info("D-Bus notification server started", "interface", DBusInterface, "path", DBusPath)
	return nil
}

// Stop releases the bus name. The shared session connection stays open.
func (s *NotificationServer) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}
	s.running = false

	if s.conn != nil {
		if _, err := s.conn.ReleaseName(DBusBusName); err != nil {
			s.logger.Warn("failed to release bus name", "error", err)
		}
	}

	s.logger.Info("D-Bus notification server stopped")
	return nil
}

// GetCapabilities returns the list of capabilities supported by this server.
// D-Bus method: GetCapabilities() -> as
func (s *NotificationServer) GetCapabilities() ([]string, *dbus.Error) {
	s.logger.Debug("GetCapabilities called")
	return ServerCapabilities, nil
}

// GetServerInformation returns information about the notification server.
// D-Bus method: GetServerInformation() -> (ssss)
func (s *NotificationServer) GetServerInformation() (string, string, string, string, *dbus.Error) {
	s.logger.Debug("GetServerInformation called")
	return s.serverInfo.Name, s.serverInfo.Vendor, s.serverInfo.Version, s.serverInfo.SpecVersion, nil
}

// Notify turns an incoming notification into a toast.
// D-Bus method: Notify(susssasa{sv}i) -> u
func (s *NotificationServer) Notify(
	appName string,
	replacesID uint32,
	appIcon string,
	summary string,
	body string,
	actions []string,
	hints map[string]dbus.Variant,
	expireTimeout int32,
) (uint32, *dbus.Error) {
	notification := &DBusNotification{
		AppName:       appName,
		ReplacesID:    replacesID,
		AppIcon:       appIcon,
		Summary:       summary,
		Body:          body,
		Actions:       actions,
		Hints:         hints,
		ExpireTimeout: expireTimeout,
	}
	return s.Deliver(notification), nil
}

// Deliver handles a notification without going through the bus and
// returns its D-Bus ID.
func (s *NotificationServer) Deliver(notification *DBusNotification) uint32 {
	id := notification.ReplacesID

	s.mu.Lock()
	oldToastID, replacing := s.toastIDs[id]
	if replacing {
		// Unlink first so the replaced toast does not emit NotificationClosed
		delete(s.toastIDs, id)
		delete(s.busIDs, oldToastID)
	} else {
		id = s.nextID.Add(1)
	}
	s.delivering++
	s.mu.Unlock()

	if replacing {
		s.sink.Close(oldToastID, model.CloseReasonClosed)
	}

	toastID := s.sink.Add(notification.Draft())

	s.mu.Lock()
	// The toast may have expired or been evicted before Add returned.
	reason, gone := s.closedEarly[toastID]
	if toastID != "" && !gone {
		s.toastIDs[id] = toastID
		s.busIDs[toastID] = id
	}
	s.delivering--
	if s.delivering == 0 {
		clear(s.closedEarly)
	}
	s.mu.Unlock()

	if toastID == "" {
		return id
	}
	if gone {
		s.logger.Debug("notification closed before delivery finished",
			"dbus_id", id, "toast_id", toastID, "reason", reason.String())
		s.emitClosed(id, reason)
		return id
	}

	s.logger.Debug("notification received",
		"dbus_id", id,
		"toast_id", toastID,
		"app_name", notification.AppName,
		"replaces_id", notification.ReplacesID,
	)

	if s.onNotify != nil {
		s.onNotify(notification, toastID)
	}

	return id
}

// CloseNotification closes a notification by ID.
// D-Bus method: CloseNotification(u) -> nothing
func (s *NotificationServer) CloseNotification(id uint32) *dbus.Error {
	s.logger.Debug("CloseNotification called", "dbus_id", id)

	s.mu.RLock()
	toastID, ok := s.toastIDs[id]
	s.mu.RUnlock()

	if ok {
		// The sink reports back through HandleClosed, which emits the signal.
		s.sink.Close(toastID, model.CloseReasonClosed)
	}
	return nil
}

// HandleClosed forgets a toast that left the registry and emits
// NotificationClosed for it. Toasts that did not come from the bus are
// ignored.
func (s *NotificationServer) HandleClosed(t model.Toast, reason model.CloseReason) {
	s.mu.Lock()
	id, ok := s.busIDs[t.ID]
	if ok {
		delete(s.busIDs, t.ID)
		delete(s.toastIDs, id)
	} else if s.delivering > 0 {
		s.closedEarly[t.ID] = reason
	}
	s.mu.Unlock()

	if ok {
		s.emitClosed(id, reason)
	}
}

// emitClosed emits NotificationClosed when connected to the bus.
func (s *NotificationServer) emitClosed(id uint32, reason model.CloseReason) {
	s.mu.RLock()
	connected := s.conn != nil
	s.mu.RUnlock()
	if !connected {
		return
	}
	if err := s.EmitNotificationClosed(id, reason); err != nil {
		s.logger.Warn("failed to emit NotificationClosed signal", "dbus_id", id, "error", err)
	}
}

// ToastID returns the toast ID for an active D-Bus ID.
func (s *NotificationServer) ToastID(id uint32) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	toastID, ok := s.toastIDs[id]
	return toastID, ok
}

// ActiveCount returns the number of bus notifications currently shown.
func (s *NotificationServer) ActiveCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.toastIDs)
}

// notificationMethods returns the D-Bus method introspection data.
func notificationMethods() []introspect.Method {
	return []introspect.Method{
		{
			Name: "GetCapabilities",
			Args: []introspect.Arg{
				{Name: "capabilities", Type: "as", Direction: "out"},
			},
		},
		{
			Name: "GetServerInformation",
			Args: []introspect.Arg{
				{Name: "name", Type: "s", Direction: "out"},
				{Name: "vendor", Type: "s", Direction: "out"},
				{Name: "version", Type: "s", Direction: "out"},
				{Name: "spec_version", Type: "s", Direction: "out"},
			},
		},
		{
			Name: "Notify",
			Args: []introspect.Arg{
				{Name: "app_name", Type: "s", Direction: "in"},
				{Name: "replaces_id", Type: "u", Direction: "in"},
				{Name: "app_icon", Type: "s", Direction: "in"},
				{Name: "summary", Type: "s", Direction: "in"},
				{Name: "body", Type: "s", Direction: "in"},
				{Name: "actions", Type: "as", Direction: "in"},
				{Name: "hints", Type: "a{sv}", Direction: "in"},
				{Name: "expire_timeout", Type: "i", Direction: "in"},
				{Name: "id", Type: "u", Direction: "out"},
			},
		},
		{
			Name: "CloseNotification",
			Args: []introspect.Arg{
				{Name: "id", Type: "u", Direction: "in"},
			},
		},
	}
}

// notificationSignals returns the D-Bus signal introspection data.
func notificationSignals() []introspect.Signal {
	return []introspect.Signal{
		{
			Name: "NotificationClosed",
			Args: []introspect.Arg{
				{Name: "id", Type: "u"},
				{Name: "reason", Type: "u"},
			},
		},
	}
}

// ServerError represents a D-Bus server error.
type ServerError struct {
	Message string
	Cause   error
}

func (e *ServerError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *ServerError) Unwrap() error {
	return e.Cause
}
