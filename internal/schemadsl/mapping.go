package schemadsl

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"gopkg.in/yaml.v3"
)

// Mapping is a DSL mapping that keeps keys in authored order.
type Mapping struct {
	keys   []string
	values map[string]any
}

// NewMapping returns an empty Mapping.
func NewMapping() *Mapping {
	return &Mapping{values: map[string]any{}}
}

// Set stores v under k, appending k when it is new.
func (m *Mapping) Set(k string, v any) {
	if _, ok := m.values[k]; !ok {
		m.keys = append(m.keys, k)
	}

	m.values[k] = v
}

// Get returns the value stored under k.
func (m *Mapping) Get(k string) (any, bool) {
	v, ok := m.values[k]
	return v, ok
}

// Has reports whether k is present.
func (m *Mapping) Has(k string) bool {
	_, ok := m.values[k]
	return ok
}

// Keys returns the keys in order.
func (m *Mapping) Keys() []string {
	return slices.Clone(m.keys)
}

// Len returns the number of keys.
func (m *Mapping) Len() int {
	return len(m.keys)
}

// asMapping views v as an ordered mapping. Plain maps are ordered by key.
func asMapping(v any) (*Mapping, bool) {
	switch t := v.(type) {
	case *Mapping:
		return t, t != nil
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}

		slices.Sort(keys)

		return &Mapping{keys: keys, values: t}, true
	default:
		return nil, false
	}
}

// Plain converts ordered mappings inside v into map[string]any.
func Plain(v any) any {
	switch t := v.(type) {
	case *Mapping:
		if t == nil {
			return nil
		}

		out := make(map[string]any, len(t.keys))
		for _, k := range t.keys {
			out[k] = Plain(t.values[k])
		}

		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, item := range t {
			out[k] = Plain(item)
		}

		return out
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = Plain(item)
		}

		return out
	default:
		return v
	}
}

// DuplicateKeyError reports a key that appears twice in one YAML mapping.
type DuplicateKeyError struct {
	Key       string
	FirstLine int
	FirstCol  int
	Line      int
	Col       int
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("duplicate YAML key %q at %d:%d (first at %d:%d)", e.Key, e.Line, e.Col, e.FirstLine, e.FirstCol)
}

// DecodeYAML decodes a single YAML document into JSON-like values, using
// *Mapping for mappings. Duplicate keys are rejected.
func DecodeYAML(data []byte) (any, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, err
	}

	if len(root.Content) == 0 {
		return nil, nil
	}

	return decodeNode(root.Content[0])
}

func decodeNode(n *yaml.Node) (any, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}

		return decodeNode(n.Content[0])
	case yaml.AliasNode:
		if n.Alias == nil {
			return nil, errors.New("dangling YAML alias")
		}

		return decodeNode(n.Alias)
	case yaml.MappingNode:
		m := NewMapping()
		first := make(map[string][2]int, len(n.Content)/2)

		for i := 0; i+1 < len(n.Content); i += 2 {
			k, v := n.Content[i], n.Content[i+1]

			if pos, dup := first[k.Value]; dup {
				return nil, &DuplicateKeyError{Key: k.Value, FirstLine: pos[0], FirstCol: pos[1], Line: k.Line, Col: k.Column}
			}

			first[k.Value] = [2]int{k.Line, k.Column}

			val, err := decodeNode(v)
			if err != nil {
				return nil, err
			}

			m.Set(k.Value, val)
		}

		return m, nil
	case yaml.SequenceNode:
		out := make([]any, 0, len(n.Content))
		for _, c := range n.Content {
			v, err := decodeNode(c)
			if err != nil {
				return nil, err
			}

			out = append(out, v)
		}

		return out, nil
	case yaml.ScalarNode:
		return decodeScalar(n), nil
	default:
		return nil, nil
	}
}

func decodeScalar(n *yaml.Node) any {
	switch n.ShortTag() {
	case "!!null":
		return nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err == nil {
			return b
		}
	case "!!int":
		var i int64
		if err := n.Decode(&i); err == nil {
			if i >= math.MinInt && i <= math.MaxInt {
				return int(i)
			}

			return i
		}
	case "!!float":
		var f float64
		if err := n.Decode(&f); err == nil {
			return f
		}
	}

	// strings, timestamps and anything unrecognised stay textual
	return n.Value
}
