// Package registry maps engine names to factories. The timing engine
// is linked in by the embedder, not loaded dynamically; main registers
// every engine it ships and the CLI selects one by name.
package registry

import (
	"context"
	"fmt"
	"sort"

	"github.com/vk/gatesizer/internal/sta"
)

// Factory constructs a ready-to-query engine.
type Factory func(ctx context.Context) (sta.Engine, error)

// Registry holds the named engine factories for one application
// instance. It is populated once at startup and read-only afterwards.
type Registry struct {
	factories map[string]Factory
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a factory under the given name. Registering the same
// name twice is a programmer error and panics.
func (r *Registry) Register(name string, f Factory) {
	if _, ok := r.factories[name]; ok {
		panic(fmt.Sprintf("registry: engine %q registered twice", name))
	}
	r.factories[name] = f
}

// Resolve returns the factory registered under name.
func (r *Registry) Resolve(name string) (Factory, bool) {
	f, ok := r.factories[name]
	return f, ok
}

// Names lists the registered engine names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
