// Package input provides adapters that feed toasts into a sink.
package input

import (
	"context"

	"github.com/jmylchreest/toastd/internal/model"
)

// Sink receives toast drafts. *toast.Registry satisfies it.
type Sink interface {
	Add(d model.Draft) string
}

// Source produces toasts.
type Source interface {
	// Name returns the adapter identifier (e.g., "stdin", "dunst").
	Name() string

	// Run feeds drafts into sink until the source is exhausted or ctx is
	// cancelled. It returns the number of toasts added.
	Run(ctx context.Context, sink Sink) (int, error)
}

// NewSource creates a Source by name.
func NewSource(name string) (Source, error) {
	switch name {
	case "stdin", "":
		return NewStdinAdapter(), nil
	case "dunst":
		return NewDunstAdapter(), nil
	default:
		return nil, &AdapterError{
			Source:  name,
			Message: "unknown or unavailable adapter",
		}
	}
}

// AdapterError represents an adapter-related error.
type AdapterError struct {
	Source  string
	Message string
	Err     error
}

func (e *AdapterError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AdapterError) Unwrap() error {
	return e.Err
}
