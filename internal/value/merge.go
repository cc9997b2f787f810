package value

// Merge deep-merges incoming onto base and returns a new tree.
//
// When both sides are mappings, overlapping keys recurse and keys unique to
// either side are cloned into the result. When either side is not a mapping
// the incoming value wins outright. Neither input is mutated.
func Merge(base, incoming any) any {
	baseMap, okBase := base.(map[string]any)
	inMap, okIn := incoming.(map[string]any)

	if !okBase || !okIn {
		return Clone(incoming)
	}

	out := CloneMap(baseMap)
	for k, item := range inMap {
		if existing, ok := out[k]; ok {
			out[k] = Merge(existing, item)
			continue
		}

		out[k] = Clone(item)
	}

	return out
}
