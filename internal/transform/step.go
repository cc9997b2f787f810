package transform

// BuiltinType is the only step type the engine executes.
const BuiltinType = "builtin"

// Step is one configured pipeline entry.
type Step struct {
	Name string         `yaml:"name" json:"name"`
	Type string         `yaml:"type" json:"type"`
	With map[string]any `yaml:"with,omitempty" json:"with,omitempty"`
}

// Env is the ambient input shared by every step of a run.
type Env struct {
	// Intent holds the operator-authored "standards" and "exceptions".
	Intent map[string]any
	// Sources maps source names to fetched payloads.
	Sources map[string]any
	// ProjectDir anchors relative file paths.
	ProjectDir string
	// SchemaPath is the configured context schema, used by validate_schema
	// when the step does not name one.
	SchemaPath string
}
