package value

import "fmt"

// Clone returns a deep copy of a JSON-compatible tree.
// Scalars are returned as is. Mappings with non-string keys, as produced by
// YAML decoding, come back as map[string]any keyed by their printed form.
func Clone(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return CloneMap(t)
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = Clone(item)
		}

		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, item := range t {
			out[fmt.Sprint(k)] = Clone(item)
		}

		return out
	case map[string]string:
		out := make(map[string]any, len(t))
		for k, item := range t {
			out[k] = item
		}

		return out
	case []string:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = item
		}

		return out
	default:
		return v
	}
}

// CloneMap returns a deep copy of m. A nil map clones to an empty map.
func CloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, item := range m {
		out[k] = Clone(item)
	}

	return out
}
