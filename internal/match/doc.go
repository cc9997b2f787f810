// Package match provides fuzzy name matching used to suggest the intended
// key when a configuration or DSL document names something unknown.
//
// Names are normalized (case-folded, separators stripped) and compared with a
// normalized Levenshtein similarity. Suggestions below MinSimilarity are
// dropped so that unrelated names never produce a "did you mean" hint.
package match
