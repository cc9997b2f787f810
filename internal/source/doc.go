// Package source fetches named external payloads for the context tree.
//
// A source is declared in opactx.yaml with a type and a "with" block. The
// builtin types are:
//
//   - file: a JSON or YAML file under the project directory, or a glob
//     ("data/**/*.json") whose matches are merged into {relpath: payload}
//   - http: a JSON document fetched with GET
//   - exec: the JSON standard output of a command run in the project directory
//
// Every payload is returned as a JSON-compatible tree.
package source
