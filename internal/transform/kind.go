package transform

import (
	"fmt"

	"opactx/internal/match"
)

//go:generate go tool stringer -type=Kind -linecomment -output=kind_string.go

// Kind identifies a builtin transform operation.
type Kind int

const (
	_ Kind = iota // skip zero value, it marks an unknown operation

	Canonicalize   // canonicalize
	Mount          // mount
	Merge          // merge
	Pick           // pick
	Rename         // rename
	Coerce         // coerce
	Defaults       // defaults
	ValidateSchema // validate_schema
	RefResolve     // ref_resolve
	SortStable     // sort_stable
	Dedupe         // dedupe

	// kindTotal is the number of Kind values including the zero value.
	kindTotal = int(iota)
)

// Kinds returns every builtin operation in declaration order.
func Kinds() []Kind {
	out := make([]Kind, 0, kindTotal-1)
	for k := Canonicalize; int(k) < kindTotal; k++ {
		out = append(out, k)
	}

	return out
}

// Names returns the names of every builtin operation.
func Names() []string {
	kinds := Kinds()

	out := make([]string, len(kinds))
	for i, k := range kinds {
		out[i] = k.String()
	}

	return out
}

// ParseKind resolves an operation name.
func ParseKind(name string) (Kind, error) {
	for _, k := range Kinds() {
		if k.String() == name {
			return k, nil
		}
	}

	return 0, fmt.Errorf("Unknown builtin transform: %s%s", name, match.Hint(name, Names()))
}

// IsBuiltin reports whether name is a builtin operation.
func IsBuiltin(name string) bool {
	_, err := ParseKind(name)
	return err == nil
}
