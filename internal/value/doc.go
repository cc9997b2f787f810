// Package value provides the tree utilities shared by the schema compiler and
// the transform engine.
//
// Trees are JSON-compatible Go values: map[string]any, []any, string, bool,
// nil and numbers (Go integer and float kinds, or json.Number).
//
// # Paths
//
// Two path flavours address into a tree:
//
//   - Context paths: "context" for the root, or "context.a.b" for nested keys.
//   - Relative paths: "a.b" relative to a single value; "" denotes the value itself.
//
// Path segments address mapping keys only; sequences are not indexable.
//
// # Ownership
//
// Clone and Merge never alias their inputs: every value placed into a result
// is an independent copy. Callers rely on this to hand trees from one
// transform step to the next without observable mutation of earlier states.
package value
