// Package audio plays a per-category sound when a toast arrives.
// It uses the beep library to decode WAV, OGG, and MP3 files and
// watches the configured files so edits take effect without a restart.
package audio
