package schemadsl

//go:generate go tool stringer -type=NodeType -linecomment -output=nodetype_string.go

// NodeType is the declared type of a typed DSL node.
type NodeType int

const (
	_ NodeType = iota // skip zero value, it marks an unknown type

	TypeObject  // object
	TypeArray   // array
	TypeString  // string
	TypeNumber  // number
	TypeInteger // integer
	TypeBoolean // boolean
	TypeNull    // null
)

// ParseNodeType resolves a DSL type literal.
func ParseNodeType(s string) (NodeType, bool) {
	for t := TypeObject; t <= TypeNull; t++ {
		if t.String() == s {
			return t, true
		}
	}

	return 0, false
}

// specificKeys returns the keys legal only for nodes of this type.
func (t NodeType) specificKeys() []string {
	switch t {
	case TypeObject:
		return []string{"fields", "strict", "allow_empty_object"}
	case TypeArray:
		return []string{"items", "min_items", "max_items", "unique_by"}
	case TypeString:
		return []string{"min_len", "max_len", "pattern", "enum", "format"}
	case TypeNumber, TypeInteger:
		return []string{"min", "max", "enum"}
	case TypeBoolean, TypeNull:
		return []string{"enum"}
	default:
		return nil
	}
}
