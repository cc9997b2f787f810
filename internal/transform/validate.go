package transform

import (
	"errors"
	"fmt"

	"opactx/internal/schemadsl"
	"opactx/internal/validator"
)

// validateSchema asserts the current tree against a schema and returns it
// unchanged. "schema" defaults to the configured context schema.
func validateSchema(tree map[string]any, opts Options, env *Env) (map[string]any, error) {
	path, err := opts.OptionalString("schema", env.SchemaPath)
	if err != nil {
		return nil, err
	}

	if path == "" {
		return nil, errors.New("validate_schema requires 'schema' or a configured schema path")
	}

	compiled, err := schemadsl.LoadCompiledSchema(env.ProjectDir, path, false)
	if err != nil {
		return nil, err
	}

	schema, err := validator.Compile(compiled, "")
	if err != nil {
		return nil, err
	}

	violations, err := schema.Validate(tree)
	if err != nil {
		return nil, err
	}

	if len(violations) > 0 {
		return nil, fmt.Errorf("Schema validation failed: %w", violations)
	}

	return tree, nil
}
