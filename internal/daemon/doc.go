// Package daemon wires toastd together: it owns the toast registry and
// connects it to the D-Bus listener, audio playback, and configuration
// hot-reload.
package daemon
