// Package validator runs standards JSON Schema (Draft 2020-12) validation and
// turns the validator's error tree into an ordered list of violations.
//
// Violations are leaf errors of the tree sorted by instance path; oneOf and
// anyOf failures are reported once at the instance they apply to rather than
// once per rejected alternative.
package validator
