package validator

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"opactx/internal/value"
)

// DefaultResourceURL names schemas that are compiled from memory.
const DefaultResourceURL = "https://opactx.dev/schema/context.schema.json"

// Schema is a compiled JSON Schema ready to validate instances.
type Schema struct {
	url      string
	compiled *jsonschema.Schema
}

// Compile checks doc against the Draft 2020-12 meta-schema and compiles it.
// url identifies the resource; DefaultResourceURL is used when empty.
func Compile(doc map[string]any, url string) (*Schema, error) {
	if url == "" {
		url = DefaultResourceURL
	}

	raw, err := value.StableJSON(doc)
	if err != nil {
		return nil, err
	}

	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020

	if err := c.AddResource(url, bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("adding schema resource: %w", err)
	}

	compiled, err := c.Compile(url)
	if err != nil {
		return nil, &CompileError{Err: err}
	}

	return &Schema{url: url, compiled: compiled}, nil
}

// Validate checks instance and returns the ordered violations, or nil.
// The instance is normalized to JSON types first.
func (s *Schema) Validate(instance any) (Violations, error) {
	normalized, err := value.Normalize(instance)
	if err != nil {
		return nil, err
	}

	err = s.compiled.Validate(normalized)
	if err == nil {
		return nil, nil
	}

	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return nil, fmt.Errorf("validating instance: %w", err)
	}

	return Flatten(ve), nil
}

// CompileError reports that a schema failed the meta-schema self-check or
// could not be compiled.
type CompileError struct {
	Err error
}

func (e *CompileError) Error() string {
	return e.Message()
}

func (e *CompileError) Unwrap() error {
	return e.Err
}

// Message returns the most specific explanation available.
func (e *CompileError) Message() string {
	var ve *jsonschema.ValidationError
	if errors.As(e.Err, &ve) {
		if vs := Flatten(ve); len(vs) > 0 {
			return vs[0].String()
		}
	}

	var se *jsonschema.SchemaError
	if errors.As(e.Err, &se) && se.Err != nil {
		return strings.TrimSpace(se.Err.Error())
	}

	return e.Err.Error()
}
