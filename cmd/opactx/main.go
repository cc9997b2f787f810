// Package main is the opactx command line tool.
//
// opactx compiles a schema DSL to JSON Schema, folds standards, exceptions
// and fetched sources into a canonical context, validates it and writes an
// OPA data bundle.
package main

import (
	"os"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}
