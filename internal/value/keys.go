package value

import (
	"cmp"
	"strconv"
)

// CanonicalKey normalizes v into a string that is equal for equal values.
// Numbers compare by numeric value; booleans, strings and null are kept apart
// from numbers; containers compare by their stable JSON form.
func CanonicalKey(v any) string {
	switch t := v.(type) {
	case nil:
		return "z:"
	case bool:
		return "b:" + strconv.FormatBool(t)
	case string:
		return "s:" + t
	}

	if f, ok := AsFloat(v); ok {
		return "n:" + strconv.FormatFloat(f, 'g', -1, 64)
	}

	b, err := StableJSON(v)
	if err != nil {
		return "x:" + TypeName(v)
	}

	return "j:" + string(b)
}

// SortToken is a totally ordered key derived from an arbitrary value.
// Ranks order the JSON types: null < boolean < number < string < other.
type SortToken struct {
	Rank int
	Num  float64
	Str  string
}

// NewSortToken builds the token for v.
func NewSortToken(v any) SortToken {
	switch t := v.(type) {
	case nil:
		return SortToken{Rank: 0}
	case bool:
		if t {
			return SortToken{Rank: 1, Num: 1}
		}

		return SortToken{Rank: 1, Num: 0}
	case string:
		return SortToken{Rank: 3, Str: t}
	}

	if f, ok := AsFloat(v); ok {
		return SortToken{Rank: 2, Num: f}
	}

	b, err := StableJSON(v)
	if err != nil {
		return SortToken{Rank: 4, Str: TypeName(v)}
	}

	return SortToken{Rank: 4, Str: string(b)}
}

// Compare orders two tokens.
func (t SortToken) Compare(o SortToken) int {
	if c := cmp.Compare(t.Rank, o.Rank); c != 0 {
		return c
	}

	if c := cmp.Compare(t.Num, o.Num); c != 0 {
		return c
	}

	return cmp.Compare(t.Str, o.Str)
}
