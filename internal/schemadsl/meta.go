package schemadsl

import (
	_ "embed"
	"errors"
	"sync"

	"github.com/goccy/go-json"

	"opactx/internal/validator"
)

// MetaSchemaID is the $id of the embedded DSL meta-grammar.
const MetaSchemaID = "https://opactx.dev/schema/context.schema.dsl/v1"

//go:embed meta_schema.json
var metaSchemaJSON []byte

// metaSchema compiles the meta-grammar once; it is immutable afterwards.
var metaSchema = sync.OnceValues(func() (*validator.Schema, error) {
	var doc map[string]any
	if err := json.Unmarshal(metaSchemaJSON, &doc); err != nil {
		return nil, err
	}

	return validator.Compile(doc, MetaSchemaID)
})

// MetaSchema returns a copy of the DSL meta-grammar document.
func MetaSchema() map[string]any {
	var doc map[string]any
	if err := json.Unmarshal(metaSchemaJSON, &doc); err != nil {
		panic("schemadsl: embedded meta-schema is not valid JSON: " + err.Error())
	}

	return doc
}

// ValidateDocument checks the shape of a DSL document against the meta-grammar.
// The first violation, ordered by location, is reported as a SchemaDslError
// located at "root.<path>" (or "root" for the document itself).
func ValidateDocument(document any) error {
	if _, ok := asMapping(document); !ok {
		return dslErrorf("", "Schema DSL must be a mapping at the top level.")
	}

	schema, err := metaSchema()
	if err != nil {
		var ce *validator.CompileError
		if errors.As(err, &ce) {
			return dslErrorf("", "Internal DSL meta-schema is invalid: %s", ce.Message())
		}

		return dslErrorf("", "Internal DSL meta-schema is invalid: %v", err)
	}

	violations, err := schema.Validate(Plain(document))
	if err != nil {
		return dslErrorf("root", "document is not JSON-compatible: %v", err)
	}

	if len(violations) == 0 {
		return nil
	}

	first := violations[0]
	at := first.Dotted("root")

	return dslErrorf(at, "Schema DSL meta-schema validation failed at %s: %s", at, first.Message)
}
