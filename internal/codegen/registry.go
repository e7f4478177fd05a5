package codegen

import (
	"fmt"
	"strings"

	"github.com/okra-platform/gisgen/internal/codegen/target"
)

// Registry maps dialects to generator factories
type Registry struct {
	generators map[target.Dialect]Factory
}

// NewRegistry creates a new generator registry
func NewRegistry() *Registry {
	return &Registry{
		generators: make(map[target.Dialect]Factory),
	}
}

// Register adds a generator factory to the registry
func (r *Registry) Register(d target.Dialect, factory Factory) {
	r.generators[d] = factory
}

// Get returns a generator for the named dialect
func (r *Registry) Get(name string, opts target.Options) (Generator, error) {
	d := target.Dialect(strings.ToLower(strings.TrimSpace(name)))
	factory, exists := r.generators[d]
	if !exists {
		return nil, fmt.Errorf("%w: %s (valid: %s)", ErrUnknownDialect, name, strings.Join(r.names(), ", "))
	}

	return factory(opts), nil
}

// Dialects returns the registered dialects in the canonical order
func (r *Registry) Dialects() []target.Dialect {
	var out []target.Dialect
	for _, d := range target.All() {
		if _, ok := r.generators[d]; ok {
			out = append(out, d)
		}
	}
	return out
}

func (r *Registry) names() []string {
	dialects := r.Dialects()
	out := make([]string, len(dialects))
	for i, d := range dialects {
		out[i] = string(d)
	}
	return out
}
