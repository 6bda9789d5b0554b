// Package dbus connects toastd to the org.freedesktop.Notifications bus.
//
// NotificationServer owns the bus name and turns Notify calls into toasts,
// mapping D-Bus uint32 IDs onto toast IDs so that CloseNotification and
// NotificationClosed work in both directions. Monitor observes Notify calls
// handled by another daemon and mirrors them as toasts without claiming the
// name.
package dbus
