package registry

import (
	"context"
	"fmt"
	"sync"
)

// Handler is one registered runner implementation.
type Handler struct {
	// NewInput returns a pointer to a fresh, hcl-tagged input struct for the
	// runner, or nil when the runner takes no arguments.
	NewInput func() any
	// Fn executes the runner. input is the pointer NewInput returned, with
	// the job's argument block decoded into it.
	Fn func(ctx context.Context, input any) (any, error)
}

// Module is anything that can contribute handlers to a registry. The
// built-in runners under modules/ implement it.
type Module interface {
	Register(r *Registry)
}

// ModuleFunc adapts a plain function to the Module interface.
type ModuleFunc func(r *Registry)

// Register implements Module.
func (f ModuleFunc) Register(r *Registry) { f(r) }

// Registry maps runner names to their Go handlers.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]*Handler
}

// New returns an empty registry and registers the given modules into it.
func New(modules ...Module) *Registry {
	r := &Registry{handlers: make(map[string]*Handler)}
	for _, m := range modules {
		m.Register(r)
	}
	return r
}

// Register adds a handler under the given runner name. Registering the same
// name twice panics: duplicate runner names are a programmer error caught at
// startup.
func (r *Registry) Register(name string, h *Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.handlers[name]; dup {
		panic(fmt.Sprintf("registry: runner %q registered twice", name))
	}
	r.handlers[name] = h
}

// Lookup returns the handler registered under name.
func (r *Registry) Lookup(name string) (*Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[name]
	return h, ok
}
