// Package theme handles color theme loading and hot-reload for the toast
// stack. It supports loading themes from ~/.config/toastd/themes/ and
// provides embedded themes for use when no custom theme is configured.
package theme
