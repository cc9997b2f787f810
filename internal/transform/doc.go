// Package transform executes the builtin transform pipeline over a context
// tree.
//
// A pipeline is an ordered list of steps, each naming one of a closed set of
// operations (see Kind) plus its options. The Engine folds the steps left to
// right: every step receives a private deep copy of the current tree and
// returns the tree handed to the next step. A failing step aborts the run with
// an *Error that names the step; the tree passed into it is never observably
// modified.
//
// Paths in options use the context form ("context" or "context.a.b").
// Keys inside array items (ref_key, target_key, by) are relative paths
// without the prefix.
package transform
