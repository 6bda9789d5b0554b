package toast

import (
	"context"
	"errors"

	"github.com/jmylchreest/toastd/internal/model"
)

// ErrNoRegistry is the panic value of FromContext when no registry was
// attached to the context.
var ErrNoRegistry = errors.New("toast: no registry in context, wrap it with toast.WithRegistry")

type registryKey struct{}

// WithRegistry returns a copy of ctx carrying r.
func WithRegistry(ctx context.Context, r *Registry) context.Context {
	return context.WithValue(ctx, registryKey{}, r)
}

// FromContext returns the registry attached to ctx.
// It panics with ErrNoRegistry when there is none: that is a wiring bug,
// not a runtime condition.
func FromContext(ctx context.Context) *Registry {
	r, ok := ctx.Value(registryKey{}).(*Registry)
	if !ok || r == nil {
		panic(ErrNoRegistry)
	}
	return r
}

// Notify adds a toast through the registry attached to ctx.
func Notify(ctx context.Context, d model.Draft) string {
	return FromContext(ctx).Add(d)
}
