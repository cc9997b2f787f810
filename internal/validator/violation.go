package validator

import (
	"cmp"
	"slices"
	"strconv"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// maxSummary bounds how many violations Violations.Error lists.
const maxSummary = 5

// Violation is a single schema validation failure.
type Violation struct {
	// Path holds the instance location segments (object keys or array indexes).
	Path []string
	// Keyword is the keyword location inside the schema.
	Keyword string
	Message string
}

// Pointer renders Path as a JSON pointer; the root is "/".
func (v Violation) Pointer() string {
	if len(v.Path) == 0 {
		return "/"
	}

	return "/" + strings.Join(v.Path, "/")
}

// Dotted renders Path joined by dots with the given root prefix.
func (v Violation) Dotted(root string) string {
	if len(v.Path) == 0 {
		return root
	}

	return root + "." + strings.Join(v.Path, ".")
}

func (v Violation) String() string {
	return v.Pointer() + ": " + v.Message
}

// Violations is an ordered list of violations that implements error.
type Violations []Violation

// Error lists up to the first five violations joined by "; ".
func (vs Violations) Error() string {
	n := min(len(vs), maxSummary)

	parts := make([]string, 0, n)
	for _, v := range vs[:n] {
		parts = append(parts, v.String())
	}

	return strings.Join(parts, "; ")
}

// Messages renders every violation as "pointer: message".
func (vs Violations) Messages() []string {
	out := make([]string, 0, len(vs))
	for _, v := range vs {
		out = append(out, v.String())
	}

	return out
}

// Flatten collects the leaf errors of a validation error tree, ordered by
// instance path. Ties keep tree order.
func Flatten(root *jsonschema.ValidationError) Violations {
	var out Violations

	var walk func(e *jsonschema.ValidationError)

	walk = func(e *jsonschema.ValidationError) {
		if len(e.Causes) == 0 || isAlternation(e.KeywordLocation) {
			out = append(out, Violation{
				Path:    splitPointer(e.InstanceLocation),
				Keyword: e.KeywordLocation,
				Message: e.Message,
			})

			return
		}

		for _, c := range e.Causes {
			walk(c)
		}
	}

	walk(root)

	slices.SortStableFunc(out, func(a, b Violation) int {
		return comparePaths(a.Path, b.Path)
	})

	return out
}

func isAlternation(keywordLocation string) bool {
	return strings.HasSuffix(keywordLocation, "/oneOf") || strings.HasSuffix(keywordLocation, "/anyOf")
}

func splitPointer(ptr string) []string {
	ptr = strings.TrimPrefix(ptr, "/")
	if ptr == "" {
		return nil
	}

	parts := strings.Split(ptr, "/")
	for i, p := range parts {
		parts[i] = strings.ReplaceAll(strings.ReplaceAll(p, "~1", "/"), "~0", "~")
	}

	return parts
}

// comparePaths orders paths segment by segment; numeric segments compare as
// numbers and a prefix sorts before its extensions.
func comparePaths(a, b []string) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if c := compareSegment(a[i], b[i]); c != 0 {
			return c
		}
	}

	return cmp.Compare(len(a), len(b))
}

func compareSegment(a, b string) int {
	ai, errA := strconv.Atoi(a)
	bi, errB := strconv.Atoi(b)

	if errA == nil && errB == nil {
		return cmp.Compare(ai, bi)
	}

	return cmp.Compare(a, b)
}
