// Package factory is the client-facing entry point of a plugin family. It
// initialises its registry on first use and hands out plugin instances by
// code.
package factory

import (
	"context"

	"github.com/BaSui01/pluginfamily/plugin"
	"github.com/BaSui01/pluginfamily/registry"
)

// Factory wraps a Registry. It holds no state of its own.
type Factory[T plugin.Plugin] struct {
	registry *registry.Registry[T]
}

// New creates a Factory backed by r.
func New[T plugin.Plugin](r *registry.Registry[T]) *Factory[T] {
	return &Factory[T]{registry: r}
}

// Registry returns the backing registry.
func (f *Factory[T]) Registry() *registry.Registry[T] {
	return f.registry
}

// List returns the codes of every available plugin in registration order.
func (f *Factory[T]) List(ctx context.Context) ([]string, error) {
	if err := f.registry.Initialise(ctx); err != nil {
		return nil, err
	}
	return f.registry.Codes(), nil
}

// Get builds the plugin registered under code with args. ok is false when no
// plugin has that code.
func (f *Factory[T]) Get(ctx context.Context, code string, args ...any) (p T, ok bool, err error) {
	if err := f.registry.Initialise(ctx); err != nil {
		return p, false, err
	}
	return f.registry.Instantiate(ctx, code, args...)
}
