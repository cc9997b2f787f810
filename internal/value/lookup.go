package value

// Lookup is the result of resolving a path: a found value (which may itself be
// nil) or missing.
type Lookup struct {
	v     any
	found bool
}

// Found wraps a resolved value.
func Found(v any) Lookup {
	return Lookup{v: v, found: true}
}

// Missing reports that nothing exists at the requested path.
func Missing() Lookup {
	return Lookup{}
}

// IsFound reports whether a value was resolved.
func (l Lookup) IsFound() bool {
	return l.found
}

// IsMissing reports whether nothing was resolved.
func (l Lookup) IsMissing() bool {
	return !l.found
}

// Value returns the resolved value, or nil when missing.
func (l Lookup) Value() any {
	return l.v
}

// Get returns the value and whether it was found.
func (l Lookup) Get() (any, bool) {
	return l.v, l.found
}

// IsAbsent reports whether the lookup is missing or resolved to null.
func (l Lookup) IsAbsent() bool {
	return !l.found || l.v == nil
}
