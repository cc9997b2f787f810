package match

import "strings"

var separators = strings.NewReplacer("_", "", "-", "", ".", "", " ", "")

// Normalize folds a key name for fuzzy comparison: lower case, without
// separators. "min_items", "minItems" and "MIN-ITEMS" all normalize alike.
func Normalize(s string) string {
	return separators.Replace(strings.ToLower(s))
}
