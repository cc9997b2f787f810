package transform

import (
	"slices"
)

// Handler applies one operation. The tree it receives is a private copy and
// may be modified in place; the returned tree becomes the input of the next
// step.
type Handler func(tree map[string]any, opts Options, env *Env) (map[string]any, error)

// Registry maps operations to their handlers.
type Registry struct {
	handlers map[Kind]Handler
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[Kind]Handler)}
}

// Builtins returns a registry holding every builtin operation.
func Builtins() *Registry {
	r := NewRegistry()
	r.Add(Canonicalize, canonicalize)
	r.Add(Mount, mount)
	r.Add(Merge, merge)
	r.Add(Pick, pick)
	r.Add(Rename, rename)
	r.Add(Coerce, coerce)
	r.Add(Defaults, defaults)
	r.Add(ValidateSchema, validateSchema)
	r.Add(RefResolve, refResolve)
	r.Add(SortStable, sortStable)
	r.Add(Dedupe, dedupe)

	return r
}

// Add registers h for k, replacing any previous handler.
func (r *Registry) Add(k Kind, h Handler) {
	r.handlers[k] = h
}

// Get returns the handler for k, or nil.
func (r *Registry) Get(k Kind) Handler {
	return r.handlers[k]
}

// Has reports whether k has a handler.
func (r *Registry) Has(k Kind) bool {
	_, exists := r.handlers[k]
	return exists
}

// Kinds returns the registered operations in declaration order.
func (r *Registry) Kinds() []Kind {
	out := make([]Kind, 0, len(r.handlers))
	for k := range r.handlers {
		out = append(out, k)
	}

	slices.Sort(out)

	return out
}
