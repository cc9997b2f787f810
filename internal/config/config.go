package config

import (
	"opactx/internal/transform"
)

// Defaults for optional project settings.
const (
	DefaultFileName   = "opactx.yaml"
	DefaultVersion    = "v1"
	DefaultSchemaPath = "schema/context.schema.json"
	DefaultContextDir = "context"
	DefaultOutputDir  = "dist/bundle"
)

// Config is the decoded opactx.yaml file.
type Config struct {
	Version    string           `yaml:"version"`
	SchemaPath string           `yaml:"schema"`
	ContextDir string           `yaml:"context_dir"`
	Sources    []Source         `yaml:"sources"`
	Transforms []transform.Step `yaml:"transforms"`
	Output     Output           `yaml:"output"`
}

// Source declares one named external payload.
type Source struct {
	Name string         `yaml:"name"`
	Type string         `yaml:"type"`
	With map[string]any `yaml:"with"`
}

// Output controls where and how the bundle is written.
type Output struct {
	Dir           string `yaml:"dir"`
	IncludePolicy bool   `yaml:"include_policy"`
	Tarball       bool   `yaml:"tarball"`
}

// ResolveSchemaPath returns the schema path anchored at projectDir.
func (c *Config) ResolveSchemaPath(projectDir string) string {
	return resolve(projectDir, c.SchemaPath)
}

// ResolveContextDir returns the context directory anchored at projectDir.
func (c *Config) ResolveContextDir(projectDir string) string {
	return resolve(projectDir, c.ContextDir)
}

// ResolveOutputDir returns the bundle directory anchored at projectDir.
// A non-empty override replaces the configured directory.
func (c *Config) ResolveOutputDir(projectDir, override string) string {
	if override != "" {
		return resolve(projectDir, override)
	}

	return resolve(projectDir, c.Output.Dir)
}

// SourceNames lists the configured source names in declaration order.
func (c *Config) SourceNames() []string {
	names := make([]string, 0, len(c.Sources))
	for _, s := range c.Sources {
		names = append(names, s.Name)
	}

	return names
}
