package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, DefaultFileName), "version: v1\n")

	cfg, err := Load(dir, "")
	require.NoError(t, err)

	assert.Equal(t, "v1", cfg.Version)
	assert.Equal(t, DefaultSchemaPath, cfg.SchemaPath)
	assert.Equal(t, DefaultContextDir, cfg.ContextDir)
	assert.Equal(t, DefaultOutputDir, cfg.Output.Dir)
	assert.False(t, cfg.Output.Tarball)
	assert.Empty(t, cfg.Sources)
	assert.Empty(t, cfg.Transforms)

	assert.Equal(t, filepath.Join(dir, "schema", "context.schema.json"), cfg.ResolveSchemaPath(dir))
	assert.Equal(t, filepath.Join(dir, "context"), cfg.ResolveContextDir(dir))
	assert.Equal(t, filepath.Join(dir, "dist", "bundle"), cfg.ResolveOutputDir(dir, ""))
	assert.Equal(t, "/tmp/out", cfg.ResolveOutputDir(dir, "/tmp/out"))
}

func TestParse_Full(t *testing.T) {
	data := `
version: v1
schema: schema/context.yaml
context_dir: intent
sources:
  - name: teams
    type: file
    with:
      path: data/teams.json
  - name: inventory
    type: http
    with:
      url: https://inventory.local/api
      headers:
        Accept: application/json
transforms:
  - name: canonicalize
    type: builtin
  - name: mount
    type: builtin
    with:
      source: teams
      path: context.teams
output:
  dir: out
  tarball: true
`

	cfg, err := Parse([]byte(data), "opactx.yaml")
	require.NoError(t, err)

	assert.Equal(t, "schema/context.yaml", cfg.SchemaPath)
	assert.Equal(t, "intent", cfg.ContextDir)
	assert.Equal(t, []string{"teams", "inventory"}, cfg.SourceNames())
	assert.Equal(t, "data/teams.json", cfg.Sources[0].With["path"])
	assert.Equal(t, map[string]any{"Accept": "application/json"}, cfg.Sources[1].With["headers"])

	require.Len(t, cfg.Transforms, 2)
	assert.Equal(t, "canonicalize", cfg.Transforms[0].Name)
	assert.Empty(t, cfg.Transforms[0].With)
	assert.Equal(t, "teams", cfg.Transforms[1].With["source"])

	assert.Equal(t, "out", cfg.Output.Dir)
	assert.True(t, cfg.Output.Tarball)
}

func TestParse_ExpandsEnvironment(t *testing.T) {
	t.Setenv("INVENTORY_URL", "https://inv.example")

	data := `
sources:
  - name: inventory
    type: http
    with:
      url: ${INVENTORY_URL}/v1
`

	cfg, err := Parse([]byte(data), "opactx.yaml")
	require.NoError(t, err)
	assert.Equal(t, "https://inv.example/v1", cfg.Sources[0].With["url"])
}

func TestParse_EnvOverrides(t *testing.T) {
	t.Setenv("OPACTX_OUTPUT_DIR", "build/out")
	t.Setenv("OPACTX_SCHEMA", "alt.schema.json")

	cfg, err := Parse([]byte("output:\n  dir: ignored\n"), "opactx.yaml")
	require.NoError(t, err)
	assert.Equal(t, "build/out", cfg.Output.Dir)
	assert.Equal(t, "alt.schema.json", cfg.SchemaPath)
}

func TestParse_NonStringKeysInWith(t *testing.T) {
	data := `
transforms:
  - name: defaults
    type: builtin
    with:
      path: context.codes
      value:
        1: one
        2: two
`

	cfg, err := Parse([]byte(data), "opactx.yaml")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"1": "one", "2": "two"}, cfg.Transforms[0].With["value"])
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr string
	}{
		{
			name:    "empty document",
			data:    "",
			wantErr: "Config must be a YAML mapping at the top level.",
		},
		{
			name:    "list at top level",
			data:    "- a\n- b\n",
			wantErr: "Config must be a YAML mapping at the top level.",
		},
		{
			name:    "broken yaml",
			data:    "version: [v1\n",
			wantErr: "Failed to parse YAML: opactx.yaml",
		},
		{
			name:    "unsupported version",
			data:    "version: v2\n",
			wantErr: "Only version v1 is supported.",
		},
		{
			name:    "duplicate sources",
			data:    "sources:\n  - {name: b, type: file}\n  - {name: a, type: file}\n  - {name: b, type: file}\n  - {name: a, type: exec}\n",
			wantErr: "Duplicate source names: a, b",
		},
		{
			name:    "missing source type",
			data:    "sources:\n  - {name: a}\n",
			wantErr: "sources[0].type is required.",
		},
		{
			name:    "missing transform name",
			data:    "transforms:\n  - {type: builtin}\n",
			wantErr: "transforms[0].name is required.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data), "opactx.yaml")
			require.Error(t, err)

			var cfgErr *Error
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tt.wantErr, cfgErr.Message)
		})
	}
}

func TestParse_UnknownKeys(t *testing.T) {
	tests := []struct {
		name  string
		data  string
		field string
	}{
		{name: "top level", data: "version: v1\nplugins: []\n", field: "plugins"},
		{name: "output", data: "output:\n  compress: true\n", field: "compress"},
		{name: "source", data: "sources:\n  - {name: a, type: file, options: {}}\n", field: "options"},
		{name: "transform", data: "transforms:\n  - {name: a, type: builtin, args: {}}\n", field: "args"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data), "opactx.yaml")
			require.Error(t, err)
			assert.Contains(t, err.Error(), "Invalid config opactx.yaml")
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestLoad_Missing(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(dir, "")
	require.Error(t, err)
	assert.Equal(t, "Missing config: "+filepath.Join(dir, DefaultFileName), err.Error())
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoad_ExplicitPath(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "conf", "alt.yaml"), "context_dir: ctx\n")

	cfg, err := Load(dir, "conf/alt.yaml")
	require.NoError(t, err)
	assert.Equal(t, "ctx", cfg.ContextDir)
}
