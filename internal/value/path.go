package value

import (
	"fmt"
	"strings"
)

// ContextRoot is the name of the root segment of a context path.
const ContextRoot = "context"

// Path is a parsed sequence of mapping keys.
// An empty Path addresses the value it is applied to.
type Path []string

// ParseContextPath parses "context" or "context.a.b" into a Path relative to
// the context root.
func ParseContextPath(raw string) (Path, error) {
	if raw == ContextRoot {
		return Path{}, nil
	}

	rest, ok := strings.CutPrefix(raw, ContextRoot+".")
	if !ok {
		return nil, fmt.Errorf("path must be %q or start with %q: %q", ContextRoot, ContextRoot+".", raw)
	}

	return splitSegments(raw, rest)
}

// ParseRelativePath parses a dotted path relative to a single value.
// The empty string yields the empty Path.
func ParseRelativePath(raw string) (Path, error) {
	if raw == "" {
		return Path{}, nil
	}

	return splitSegments(raw, raw)
}

func splitSegments(raw, rest string) (Path, error) {
	parts := strings.Split(rest, ".")
	for _, part := range parts {
		if part == "" {
			return nil, fmt.Errorf("invalid path %q: empty segment", raw)
		}
	}

	return Path(parts), nil
}

// IsRoot reports whether the path addresses the value itself.
func (p Path) IsRoot() bool {
	return len(p) == 0
}

// String renders the path in context form.
func (p Path) String() string {
	if len(p) == 0 {
		return ContextRoot
	}

	return ContextRoot + "." + strings.Join(p, ".")
}

// Get walks mapping keys from root and returns the value found at p.
// Any dead end (missing key or non-mapping intermediate) yields Missing.
func Get(root any, p Path) Lookup {
	cur := root
	for _, seg := range p {
		m, ok := cur.(map[string]any)
		if !ok {
			return Missing()
		}

		next, ok := m[seg]
		if !ok {
			return Missing()
		}

		cur = next
	}

	return Found(cur)
}

// Set stores v at p inside root, creating intermediate mappings as needed.
// Non-mapping intermediates are overwritten.
//
// Setting the root path requires v to be a mapping: root is cleared and
// repopulated so that its identity is preserved.
func Set(root map[string]any, p Path, v any) error {
	if root == nil {
		return fmt.Errorf("cannot set %s on a nil tree", p)
	}

	if p.IsRoot() {
		m, ok := v.(map[string]any)
		if !ok {
			return fmt.Errorf("value set at %s must be a mapping, got %s", p, TypeName(v))
		}

		clear(root)

		for k, item := range m {
			root[k] = item
		}

		return nil
	}

	cur := root
	for _, seg := range p[:len(p)-1] {
		next, ok := cur[seg].(map[string]any)
		if !ok {
			next = map[string]any{}
			cur[seg] = next
		}

		cur = next
	}

	cur[p[len(p)-1]] = v

	return nil
}

// Delete removes the value at p and returns it.
// It returns Missing when any segment is absent or p is the root path.
func Delete(root map[string]any, p Path) Lookup {
	if p.IsRoot() {
		return Missing()
	}

	parent := Get(root, p[:len(p)-1])

	m, ok := parent.Value().(map[string]any)
	if !parent.IsFound() || !ok {
		return Missing()
	}

	last := p[len(p)-1]

	v, ok := m[last]
	if !ok {
		return Missing()
	}

	delete(m, last)

	return Found(v)
}
