package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"opactx/internal/value"
)

// Error is a configuration or intent loading failure.
type Error struct {
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func errorf(cause error, format string, args ...any) *Error {
	return &Error{Message: fmt.Sprintf(format, args...), Err: cause}
}

// Load reads the project configuration. An empty configPath means
// opactx.yaml; relative paths are anchored at projectDir.
func Load(projectDir, configPath string) (*Config, error) {
	if configPath == "" {
		configPath = DefaultFileName
	}

	path := resolve(projectDir, configPath)

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, errorf(err, "Missing config: %s", path)
		}

		return nil, errorf(err, "Failed to read config: %s", path)
	}

	return Parse(data, path)
}

// Parse decodes configuration data. name is only used in messages.
func Parse(data []byte, name string) (*Config, error) {
	data = []byte(os.ExpandEnv(string(data)))

	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, errorf(err, "Failed to parse YAML: %s", name)
	}

	if !isMapping(&root) {
		return nil, &Error{Message: "Config must be a YAML mapping at the top level."}
	}

	var cfg Config

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	if err := dec.Decode(&cfg); err != nil {
		return nil, errorf(err, "Invalid config %s: %s", name, yamlMessage(err))
	}

	normalizeWith(&cfg)
	applyEnvOverrides(&cfg)
	applyDefaults(&cfg)

	if err := Validate(&cfg).Error(); err != nil {
		return nil, errorf(err, "%s", err.Error())
	}

	return &cfg, nil
}

// applyDefaults fills in default values for optional fields.
func applyDefaults(cfg *Config) {
	if cfg.Version == "" {
		cfg.Version = DefaultVersion
	}

	if cfg.SchemaPath == "" {
		cfg.SchemaPath = DefaultSchemaPath
	}

	if cfg.ContextDir == "" {
		cfg.ContextDir = DefaultContextDir
	}

	if cfg.Output.Dir == "" {
		cfg.Output.Dir = DefaultOutputDir
	}
}

// applyEnvOverrides lets the environment redirect project paths without
// editing opactx.yaml.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("OPACTX_SCHEMA"); v != "" {
		cfg.SchemaPath = v
	}

	if v := os.Getenv("OPACTX_CONTEXT_DIR"); v != "" {
		cfg.ContextDir = v
	}

	if v := os.Getenv("OPACTX_OUTPUT_DIR"); v != "" {
		cfg.Output.Dir = v
	}
}

// normalizeWith makes every "with" block a JSON-compatible tree.
func normalizeWith(cfg *Config) {
	for i := range cfg.Sources {
		cfg.Sources[i].With = stringKeys(cfg.Sources[i].With)
	}

	for i := range cfg.Transforms {
		cfg.Transforms[i].With = stringKeys(cfg.Transforms[i].With)
	}
}

func stringKeys(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}

	return value.CloneMap(m)
}

func isMapping(doc *yaml.Node) bool {
	return doc.Kind == yaml.DocumentNode && len(doc.Content) == 1 && doc.Content[0].Kind == yaml.MappingNode
}

func yamlMessage(err error) string {
	var te *yaml.TypeError
	if errors.As(err, &te) && len(te.Errors) > 0 {
		return te.Errors[0]
	}

	return err.Error()
}

func resolve(base, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}

	return filepath.Join(base, path)
}
