package match

import (
	"cmp"
	"slices"
)

// MinSimilarity is the lowest score reported as a suggestion.
const MinSimilarity = 0.6

// Suggestion is a known name scored against an unknown one.
type Suggestion struct {
	Name  string
	Score float64
}

// Rank scores every candidate against name and returns those at or above
// MinSimilarity, best first. Equal scores keep candidate order.
func Rank(name string, candidates []string) []Suggestion {
	norm := Normalize(name)

	var out []Suggestion

	for _, c := range candidates {
		score := Similarity(norm, Normalize(c))
		if score < MinSimilarity {
			continue
		}

		out = append(out, Suggestion{Name: c, Score: score})
	}

	slices.SortStableFunc(out, func(a, b Suggestion) int {
		return cmp.Compare(b.Score, a.Score)
	})

	return out
}

// Closest returns the best suggestion for name, if any candidate is close.
func Closest(name string, candidates []string) (string, bool) {
	ranked := Rank(name, candidates)
	if len(ranked) == 0 {
		return "", false
	}

	return ranked[0].Name, true
}

// Hint renders a " (did you mean ...?)" suffix, or "" when nothing is close.
func Hint(name string, candidates []string) string {
	best, ok := Closest(name, candidates)
	if !ok || best == name {
		return ""
	}

	return " (did you mean \"" + best + "\"?)"
}
