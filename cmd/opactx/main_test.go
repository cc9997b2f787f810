package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfig = `version: v1
schema: schema/context.yaml
sources:
  - name: teams
    type: file
    with:
      path: data/teams.yaml
transforms:
  - name: canonicalize
    type: builtin
  - name: mount
    type: builtin
    with:
      source_id: teams
      target: context.teams
`

const testSchema = `dsl: opactx.schema/v1
id: cli.context
title: CLI context
description: Context used by command tests
root: context
strict: false
schema:
  type: object
  fields:
    standards:
      type: object
      required: true
      fields:
        env:
          type: string
          enum: [dev, prod]
          required: true
`

func writeProject(t *testing.T, env string) string {
	t.Helper()

	dir := t.TempDir()

	files := map[string]string{
		"opactx.yaml":            testConfig,
		"schema/context.yaml":    testSchema,
		"context/standards.yaml": "env: " + env + "\n",
		"data/teams.yaml":        "- id: core\n  owner: alice\n",
	}

	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}

	return dir
}

func execute(args ...string) (code int, stdout, stderr string) {
	var out, errOut bytes.Buffer

	code = run(args, &out, &errOut)

	return code, out.String(), errOut.String()
}

func TestVersion(t *testing.T) {
	code, out, _ := execute("version")

	assert.Equal(t, exitOK, code)
	assert.Contains(t, out, "opactx dev")
}

func TestListPlugins(t *testing.T) {
	code, out, _ := execute("list-plugins")

	require.Equal(t, exitOK, code)

	for _, name := range []string{"exec", "file", "http", "canonicalize", "mount", "validate_schema", "dedupe"} {
		assert.Contains(t, out, "  "+name+"\n")
	}
}

func TestBuild(t *testing.T) {
	dir := writeProject(t, "prod")
	metricsFile := filepath.Join(t.TempDir(), "opactx.prom")

	code, out, errOut := execute("build", "--project", dir, "--metrics-file", metricsFile)

	require.Equal(t, exitOK, code, errOut)
	assert.Contains(t, out, "ok   Load config")
	assert.Contains(t, out, "source teams: data/teams.yaml")
	assert.Contains(t, out, "step mount")
	assert.Contains(t, out, "Bundle written to "+filepath.Join(dir, "dist", "bundle"))
	assert.FileExists(t, filepath.Join(dir, "dist", "bundle", "data.json"))

	prom, err := os.ReadFile(metricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(prom), `opactx_builds_total{status="success"} 1`)
}

func TestBuild_DryRun(t *testing.T) {
	dir := writeProject(t, "dev")

	code, out, _ := execute("build", "-p", dir, "--dry-run")

	require.Equal(t, exitOK, code)
	assert.Contains(t, out, "skip")
	assert.Contains(t, out, "Dry run: context is valid")
	assert.NoDirExists(t, filepath.Join(dir, "dist"))
}

func TestBuild_Failure(t *testing.T) {
	dir := writeProject(t, "qa")

	code, out, _ := execute("build", "-p", dir)

	assert.Equal(t, exitFailure, code)
	assert.Contains(t, out, "[schema_validation]")
	assert.Contains(t, out, "/standards/env")
	assert.NotContains(t, out, "Bundle written")
}

func TestValidate(t *testing.T) {
	code, out, _ := execute("validate", "-p", writeProject(t, "prod"))

	require.Equal(t, exitOK, code)
	assert.Contains(t, out, "ok      config\n")
	assert.Contains(t, out, "ok      schema_check\n")
	assert.Contains(t, out, "Project is valid.")

	code, out, _ = execute("validate", "-p", writeProject(t, "qa"))

	assert.Equal(t, exitFailure, code)
	assert.Contains(t, out, "failed  schema_check\n")
	assert.Contains(t, out, "error: Schema validation failed:")
}

func TestCompile(t *testing.T) {
	dir := writeProject(t, "prod")

	code, out, _ := execute("compile", "-p", dir)

	require.Equal(t, exitOK, code)
	assert.Contains(t, out, "Compiled schema/context.yaml")
	assert.FileExists(t, filepath.Join(dir, "build", "schema", "context.json"))

	code, _, _ = execute("compile", "-p", dir, "schema/missing.yaml")
	assert.Equal(t, exitFailure, code)
}

func TestInspect(t *testing.T) {
	dir := writeProject(t, "prod")

	code, _, _ := execute("build", "-p", dir)
	require.Equal(t, exitOK, code)

	bundle := filepath.Join(dir, "dist", "bundle")

	code, out, _ := execute("inspect", bundle, "context.standards")

	require.Equal(t, exitOK, code)
	assert.Contains(t, out, "Revision: ")
	assert.Contains(t, out, "  teams (1)\n")
	assert.Contains(t, out, "context.standards (object):")
	assert.Contains(t, out, `"env": "prod"`)

	code, out, _ = execute("inspect", filepath.Join(dir, "nope"))
	assert.Equal(t, exitFailure, code)
	assert.Contains(t, out, "Bundle not found")
}

func TestUsageErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "unknown command", args: []string{"deploy"}, want: "unknown command"},
		{name: "bad log level", args: []string{"--log-level", "loud", "version"}, want: `invalid log level "loud"`},
		{name: "bad log format", args: []string{"--log-format", "xml", "version"}, want: `invalid log format "xml"`},
		{name: "extra args", args: []string{"build", "extra"}, want: "unknown command"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, errOut := execute(tt.args...)

			assert.Equal(t, exitUsage, code)
			assert.Contains(t, errOut, tt.want)
		})
	}
}

func TestLogging(t *testing.T) {
	dir := writeProject(t, "prod")

	code, _, errOut := execute("--log-level", "debug", "build", "-p", dir, "--dry-run")

	require.Equal(t, exitOK, code)
	assert.Contains(t, errOut, `"run_id":`)
	assert.Contains(t, errOut, `"stage":"load_config"`)
}
