package schemadsl

import (
	"fmt"

	"opactx/internal/value"
)

// assertType checks a literal (default, examples entry, enum member) against
// the node's declared type. Null is accepted only for nullable or null nodes.
func assertType(v any, t NodeType, nullable bool, path string) error {
	if v == nil {
		if nullable || t == TypeNull {
			return nil
		}

		return nodeErrorf(path, "must not be null.")
	}

	var ok bool

	switch t {
	case TypeObject:
		_, ok = asMapping(v)
	case TypeArray:
		_, ok = v.([]any)
	case TypeString:
		_, ok = v.(string)
	case TypeNumber:
		ok = value.IsNumber(v)
	case TypeInteger:
		ok = value.IsInteger(v)
	case TypeBoolean:
		_, ok = v.(bool)
	case TypeNull:
		return nodeErrorf(path, "must be null.")
	}

	if ok {
		return nil
	}

	return nodeErrorf(path, "must be %s.", article(t))
}

func article(t NodeType) string {
	switch t {
	case TypeObject, TypeArray, TypeInteger:
		return "an " + t.String()
	default:
		return "a " + t.String()
	}
}

// nonNegativeInt reads an integer bound such as min_items or max_len.
func nonNegativeInt(m *Mapping, key, path string) (int64, bool, error) {
	raw, ok := m.Get(key)
	if !ok {
		return 0, false, nil
	}

	n, isInt := value.AsInt(raw)
	if !isInt || n < 0 {
		return 0, false, nodeErrorf(path+"."+key, "must be a non-negative integer.")
	}

	return n, true, nil
}

// literal renders a scalar for messages, quoting strings.
func literal(v any) string {
	if s, ok := v.(string); ok {
		return fmt.Sprintf("%q", s)
	}

	if v == nil {
		return "null"
	}

	return fmt.Sprintf("%v", v)
}
