package source

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"time"

	"opactx/internal/match"
	"opactx/internal/value"
)

// Builtin source types.
const (
	TypeFile = "file"
	TypeHTTP = "http"
	TypeExec = "exec"
)

// Source fetches one payload.
type Source interface {
	Fetch(ctx context.Context) (any, error)
}

// Factory builds a Source from its "with" settings. projectDir anchors
// relative paths.
type Factory func(projectDir string, with map[string]any) (Source, error)

// Registry maps source types to factories.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Builtins returns a registry holding the file, http and exec types.
func Builtins() *Registry {
	r := NewRegistry()
	r.Add(TypeFile, NewFile)
	r.Add(TypeHTTP, NewHTTP)
	r.Add(TypeExec, NewExec)

	return r
}

// Add registers f for typ, replacing any previous factory.
func (r *Registry) Add(typ string, f Factory) {
	r.factories[typ] = f
}

// Get returns the factory for typ, or nil.
func (r *Registry) Get(typ string) Factory {
	return r.factories[typ]
}

// Has reports whether typ is registered.
func (r *Registry) Has(typ string) bool {
	_, exists := r.factories[typ]
	return exists
}

// Types returns the registered type names, sorted.
func (r *Registry) Types() []string {
	out := make([]string, 0, len(r.factories))
	for typ := range r.factories {
		out = append(out, typ)
	}

	slices.Sort(out)

	return out
}

// Open resolves typ and builds the source.
func (r *Registry) Open(typ, projectDir string, with map[string]any) (Source, error) {
	f := r.Get(typ)
	if f == nil {
		return nil, fmt.Errorf("Unknown source type: %s%s", typ, match.Hint(typ, r.Types()))
	}

	return f(projectDir, with)
}

// Fetch opens and fetches a source, then normalizes the payload to JSON
// types. It also returns the payload's compact JSON size in bytes.
func (r *Registry) Fetch(ctx context.Context, typ, projectDir string, with map[string]any) (any, int, error) {
	src, err := r.Open(typ, projectDir, with)
	if err != nil {
		return nil, 0, err
	}

	payload, err := src.Fetch(ctx)
	if err != nil {
		return nil, 0, err
	}

	raw, err := value.StableJSON(payload)
	if err != nil {
		return nil, 0, fmt.Errorf("source returned non-JSON-serializable data: %w", err)
	}

	normalized, err := value.DecodeJSON(raw)
	if err != nil {
		return nil, 0, err
	}

	return normalized, len(raw), nil
}

func requiredString(with map[string]any, key, typ string) (string, error) {
	s, ok := with[key].(string)
	if !ok || s == "" {
		return "", fmt.Errorf("%s source requires '%s' as a non-empty string", typ, key)
	}

	return s, nil
}

// timeout reads timeout_s. Zero means no explicit timeout.
func timeout(with map[string]any, typ string) (time.Duration, error) {
	raw, exists := with["timeout_s"]
	if !exists || raw == nil {
		return 0, nil
	}

	secs, ok := value.AsFloat(raw)
	if !ok {
		if s, isString := raw.(string); isString {
			parsed, err := strconv.ParseFloat(s, 64)
			secs, ok = parsed, err == nil
		}
	}

	if !ok || secs < 0 {
		return 0, fmt.Errorf("%s source requires 'timeout_s' as a non-negative number", typ)
	}

	return time.Duration(secs * float64(time.Second)), nil
}
