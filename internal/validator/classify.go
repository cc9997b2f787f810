package validator

// SourcesKey is the top-level context key that holds fetched source payloads.
const SourcesKey = "sources"

// SplitBySource separates violations located under the top-level "sources"
// key, which may resolve once sources are fetched, from all others.
func SplitBySource(vs Violations) (sourceDependent, hard Violations) {
	for _, v := range vs {
		if len(v.Path) > 0 && v.Path[0] == SourcesKey {
			sourceDependent = append(sourceDependent, v)
			continue
		}

		hard = append(hard, v)
	}

	return sourceDependent, hard
}
