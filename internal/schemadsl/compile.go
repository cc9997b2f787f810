package schemadsl

import "maps"

const (
	// DraftURI is the $schema of every compiled document.
	DraftURI = "https://json-schema.org/draft/2020-12/schema"

	// Version is the only supported value of the top-level "dsl" key.
	Version = "opactx.schema/v1"
)

var (
	topLevelKeys     = []string{"dsl", "id", "title", "description", "root", "strict", "schema", "definitions"}
	topLevelRequired = []string{"dsl", "id", "title", "description", "root", "schema"}
)

// Compile turns a DSL document into a Draft 2020-12 JSON Schema.
//
// Callers should run ValidateDocument first; Compile re-checks key sets but
// relies on the meta-grammar for full node shape. The first problem found
// aborts compilation with a *SchemaDslError.
func Compile(document any) (map[string]any, error) {
	doc, ok := asMapping(document)
	if !ok {
		return nil, dslErrorf("", "Schema DSL must be a mapping at the top level.")
	}

	if err := rejectUnknownKeys(doc, topLevelKeys, "root"); err != nil {
		return nil, err
	}

	if err := requireKeys(doc, topLevelRequired, "root"); err != nil {
		return nil, err
	}

	if v, _ := doc.Get("dsl"); v != Version {
		return nil, dslErrorf("root.dsl", "Unsupported schema DSL version: %s. Expected %q.", literal(v), Version)
	}

	header := make(map[string]string, 4)

	for _, key := range []string{"id", "title", "description", "root"} {
		s, err := requireNonEmptyString(doc, key, "root")
		if err != nil {
			return nil, err
		}

		header[key] = s
	}

	strict, err := boolOption(doc, "strict", true, "root.strict", "must be a boolean when provided.")
	if err != nil {
		return nil, err
	}

	rawSchema, _ := doc.Get("schema")

	schema, ok := asMapping(rawSchema)
	if !ok {
		return nil, nodeErrorf("root.schema", "must be a mapping.")
	}

	if t, _ := schema.Get("type"); t != TypeObject.String() {
		return nil, nodeErrorf("root.schema.type", "must be 'object'.")
	}

	definitions, err := definitionsOf(doc)
	if err != nil {
		return nil, err
	}

	if err := validateReferences(schema, definitions); err != nil {
		return nil, err
	}

	compiled := map[string]any{
		"$schema":       DraftURI,
		"title":         header["title"],
		"description":   header["description"],
		"x-opactx-id":   header["id"],
		"x-opactx-root": header["root"],
	}

	root, err := compileNode(schema, "schema", strict, false)
	if err != nil {
		return nil, err
	}

	maps.Copy(compiled, root)

	if definitions.Len() > 0 {
		defs := make(map[string]any, definitions.Len())

		for _, name := range definitions.Keys() {
			body, _ := definitions.Get(name)

			node, err := compileNode(body, "definitions."+name, strict, false)
			if err != nil {
				return nil, err
			}

			defs[name] = node
		}

		compiled["$defs"] = defs
	}

	return compiled, nil
}

func definitionsOf(doc *Mapping) (*Mapping, error) {
	raw, ok := doc.Get("definitions")
	if !ok {
		return NewMapping(), nil
	}

	definitions, ok := asMapping(raw)
	if !ok {
		return nil, nodeErrorf("root.definitions", "must be a mapping when provided.")
	}

	for _, name := range definitions.Keys() {
		if name == "" {
			return nil, dslErrorf("root.definitions", "Definition names must be non-empty strings.")
		}

		body, _ := definitions.Get(name)
		if _, ok := asMapping(body); !ok {
			return nil, dslErrorf("definitions."+name, "Definition '%s' must be a mapping.", name)
		}
	}

	return definitions, nil
}
