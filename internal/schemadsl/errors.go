package schemadsl

import "fmt"

// SchemaLoadError reports that a schema could not be loaded: missing file,
// syntax error, wrong top-level shape or a failed meta-schema self-check.
type SchemaLoadError struct {
	Message string
	Err     error
}

func (e *SchemaLoadError) Error() string {
	return e.Message
}

func (e *SchemaLoadError) Unwrap() error {
	return e.Err
}

// SchemaDslError is a SchemaLoadError raised while validating or compiling a
// DSL document. Path is the dotted location of the violation, when known;
// Message is the complete text and already names the location.
type SchemaDslError struct {
	Path    string
	Message string
}

func (e *SchemaDslError) Error() string {
	return e.Message
}

// As lets errors.As treat a SchemaDslError as a *SchemaLoadError.
func (e *SchemaDslError) As(target any) bool {
	t, ok := target.(**SchemaLoadError)
	if !ok {
		return false
	}

	*t = &SchemaLoadError{Message: e.Error(), Err: e}

	return true
}

func dslErrorf(path, format string, args ...any) error {
	return &SchemaDslError{Path: path, Message: fmt.Sprintf(format, args...)}
}

// nodeErrorf reports a problem with the node at path: "<path> <message>".
func nodeErrorf(path, format string, args ...any) error {
	return &SchemaDslError{Path: path, Message: path + " " + fmt.Sprintf(format, args...)}
}

func loadErrorf(err error, format string, args ...any) error {
	return &SchemaLoadError{Message: fmt.Sprintf(format, args...), Err: err}
}
