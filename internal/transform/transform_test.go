package transform

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseEnv(t *testing.T) Env {
	t.Helper()

	return Env{
		Intent: map[string]any{
			"standards":  map[string]any{"team": "platform"},
			"exceptions": map[string]any{},
		},
		Sources: map[string]any{
			"inventory": map[string]any{
				"limits": map[string]any{"cpu": 4},
				"labels": []any{"blue"},
			},
		},
		ProjectDir: t.TempDir(),
	}
}

func ctxTree(extra map[string]any) map[string]any {
	tree := map[string]any{
		"standards":  map[string]any{},
		"exceptions": map[string]any{},
		"sources":    map[string]any{},
	}

	for k, v := range extra {
		tree[k] = v
	}

	return tree
}

func apply(t *testing.T, env Env, name string, tree map[string]any, with map[string]any) (map[string]any, error) {
	t.Helper()

	return NewEngine().Apply(Step{Name: name, Type: BuiltinType, With: with}, tree, env)
}

func mustApply(t *testing.T, env Env, name string, tree map[string]any, with map[string]any) map[string]any {
	t.Helper()

	out, err := apply(t, env, name, tree, with)
	require.NoError(t, err, spew.Sdump(tree))

	return out
}

func TestKindNames(t *testing.T) {
	assert.Equal(t, []string{
		"canonicalize", "mount", "merge", "pick", "rename", "coerce",
		"defaults", "validate_schema", "ref_resolve", "sort_stable", "dedupe",
	}, Names())

	for _, name := range Names() {
		assert.True(t, IsBuiltin(name), name)
	}

	assert.Len(t, Builtins().Kinds(), len(Names()))
}

func TestParseKind_Unknown(t *testing.T) {
	_, err := ParseKind("unknown_transform")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Unknown builtin transform: unknown_transform")

	_, err = ParseKind("sort_stabel")
	assert.EqualError(t, err, `Unknown builtin transform: sort_stabel (did you mean "sort_stable"?)`)
}

func TestCanonicalize(t *testing.T) {
	env := baseEnv(t)

	out := mustApply(t, env, "canonicalize", map[string]any{"ignored": true}, nil)
	assert.Equal(t, map[string]any{"team": "platform"}, out["standards"])
	assert.Equal(t, map[string]any{}, out["exceptions"])
	assert.Contains(t, out["sources"], "inventory")
	assert.NotContains(t, out, "ignored")
}

func TestRun_NoStepsIsCanonicalize(t *testing.T) {
	env := baseEnv(t)
	env.Intent = map[string]any{"standards": map[string]any{"a": 1}}

	out, err := NewEngine().Run(context.Background(), nil, env)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": 1}, out["standards"])
	assert.Equal(t, map[string]any{}, out["exceptions"])
}

func TestRun_FoldsLeftToRight(t *testing.T) {
	env := baseEnv(t)

	var seen []string

	engine := NewEngine(WithStepHook(func(ev StepEvent) {
		seen = append(seen, ev.Kind.String())
	}))

	out, err := engine.Run(context.Background(), []Step{
		{Name: "canonicalize", Type: "builtin"},
		{Name: "mount", Type: "builtin", With: map[string]any{"source_id": "inventory", "target": "context.config"}},
		{Name: "rename", Type: "builtin", With: map[string]any{"from": "context.config.limits", "to": "context.limits"}},
	}, env)
	require.NoError(t, err)

	assert.Equal(t, []string{"canonicalize", "mount", "rename"}, seen)
	assert.Equal(t, map[string]any{"cpu": 4}, out["limits"])
	assert.Equal(t, map[string]any{"labels": []any{"blue"}}, out["config"])
}

func TestRun_StartsFromIntentAndSources(t *testing.T) {
	env := baseEnv(t)

	out, err := NewEngine().Run(context.Background(), []Step{
		{Name: "pick", Type: "builtin", With: map[string]any{"path": "context.intent", "keys": []any{"standards"}}},
	}, env)
	require.NoError(t, err)

	assert.Equal(t, map[string]any{"standards": map[string]any{"team": "platform"}}, out["intent"])
	assert.Contains(t, out, "sources")
}

func TestRun_ErrorNamesStep(t *testing.T) {
	env := baseEnv(t)

	_, err := NewEngine().Run(context.Background(), []Step{
		{Name: "canonicalize", Type: "builtin"},
		{Name: "mount", Type: "builtin", With: map[string]any{"source_id": "missing", "target": "context.x"}},
	}, env)

	var terr *Error
	require.True(t, errors.As(err, &terr))
	assert.Equal(t, 1, terr.Index)
	assert.Equal(t, "mount", terr.Name)
	assert.EqualError(t, terr.Err, "mount source not found: missing")
}

func TestRun_RejectsNonBuiltinType(t *testing.T) {
	_, err := NewEngine().Run(context.Background(), []Step{{Name: "canonicalize", Type: "python"}}, baseEnv(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unsupported transform type "python"`)
}

func TestRun_HonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewEngine().Run(ctx, []Step{{Name: "canonicalize"}}, baseEnv(t))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestApply_DoesNotMutateInput(t *testing.T) {
	env := baseEnv(t)
	tree := ctxTree(map[string]any{"repo": map[string]any{"team_id": "t1"}})

	_ = mustApply(t, env, "rename", tree, map[string]any{"from": "context.repo.team_id", "to": "context.repo.team"})
	assert.Equal(t, map[string]any{"team_id": "t1"}, tree["repo"])

	_, err := apply(t, env, "rename", tree, map[string]any{
		"moves": []any{
			map[string]any{"from": "context.repo.team_id", "to": "context.owner"},
			map[string]any{"from": "context.nope", "to": "context.x", "ignore_missing": false},
		},
	})
	require.Error(t, err)
	assert.Equal(t, map[string]any{"team_id": "t1"}, tree["repo"], "failed step leaves input untouched")
	assert.NotContains(t, tree, "owner")
}

func TestMount(t *testing.T) {
	env := baseEnv(t)

	t.Run("merge into existing", func(t *testing.T) {
		tree := ctxTree(map[string]any{"config": map[string]any{"limits": map[string]any{"mem": 1}}})

		out := mustApply(t, env, "mount", tree, map[string]any{"source_id": "inventory", "target": "context.config"})
		assert.Equal(t, map[string]any{"mem": 1, "cpu": 4}, out["config"].(map[string]any)["limits"])
		assert.Equal(t, []any{"blue"}, out["config"].(map[string]any)["labels"])
	})

	t.Run("replace", func(t *testing.T) {
		tree := ctxTree(map[string]any{"config": map[string]any{"limits": map[string]any{"mem": 1}}})

		out := mustApply(t, env, "mount", tree, map[string]any{"source_id": "inventory", "target": "context.config", "strategy": "replace"})
		assert.Equal(t, map[string]any{"cpu": 4}, out["config"].(map[string]any)["limits"])
	})

	t.Run("falls back to context sources", func(t *testing.T) {
		tree := ctxTree(map[string]any{"sources": map[string]any{"local": map[string]any{"k": "v"}}})

		out := mustApply(t, env, "mount", tree, map[string]any{"source_id": "local", "target": "context.mounted"})
		assert.Equal(t, map[string]any{"k": "v"}, out["mounted"])
	})

	t.Run("mounted value is a copy", func(t *testing.T) {
		out := mustApply(t, env, "mount", ctxTree(nil), map[string]any{"source_id": "inventory", "target": "context.inv"})
		out["inv"].(map[string]any)["labels"].([]any)[0] = "red"

		assert.Equal(t, []any{"blue"}, env.Sources["inventory"].(map[string]any)["labels"])
	})

	t.Run("errors", func(t *testing.T) {
		_, err := apply(t, env, "mount", ctxTree(nil), map[string]any{"source_id": "inventory", "target": "config"})
		assert.ErrorContains(t, err, `path must be "context" or start with "context."`)

		_, err = apply(t, env, "mount", ctxTree(nil), map[string]any{"source_id": "inventory", "target": "context.x", "strategy": "overlay"})
		assert.ErrorContains(t, err, `unknown mount strategy "overlay"`)

		_, err = apply(t, env, "mount", ctxTree(nil), map[string]any{"target": "context.x"})
		assert.ErrorContains(t, err, "'source_id' is required")
	})
}

func TestMerge(t *testing.T) {
	env := baseEnv(t)
	tree := ctxTree(map[string]any{
		"defaults":  map[string]any{"region": "global", "limits": map[string]any{"cpu": 2, "mem": 1}},
		"overrides": map[string]any{"limits": map[string]any{"cpu": 6}},
		"request":   map[string]any{"keep": true},
	})

	t.Run("later wins", func(t *testing.T) {
		out := mustApply(t, env, "merge", tree, map[string]any{
			"target": "context.request",
			"from":   []any{"context.defaults", "context.overrides"},
		})
		assert.Equal(t, map[string]any{"region": "global", "limits": map[string]any{"cpu": 6, "mem": 1}}, out["request"])
	})

	t.Run("include existing and mixed inputs", func(t *testing.T) {
		out := mustApply(t, env, "merge", tree, map[string]any{
			"target":           "context.request",
			"include_existing": true,
			"inputs": []any{
				map[string]any{"path": "sources.inventory.limits"},
				"intent.standards",
				map[string]any{"literal": 1},
			},
		})
		assert.Equal(t, map[string]any{"keep": true, "cpu": 4, "team": "platform", "literal": 1}, out["request"])
	})

	t.Run("missing reference", func(t *testing.T) {
		_, err := apply(t, env, "merge", tree, map[string]any{"target": "context.x", "objects": []any{"context.nope"}})
		assert.ErrorContains(t, err, "path not found: context.nope")
	})

	t.Run("empty input list", func(t *testing.T) {
		_, err := apply(t, env, "merge", tree, map[string]any{"target": "context.x", "from": []any{}})
		assert.ErrorContains(t, err, "non-empty list")
	})
}

func TestPick(t *testing.T) {
	env := baseEnv(t)
	tree := ctxTree(map[string]any{
		"repo": map[string]any{"team_id": "t1", "name": "svc", "owners": []any{"a"}, "noise": "x"},
	})

	out := mustApply(t, env, "pick", tree, map[string]any{"path": "context.repo", "keys": []any{"team_id", "owners", "absent"}})
	assert.Equal(t, map[string]any{"team_id": "t1", "owners": []any{"a"}}, out["repo"])

	out = mustApply(t, env, "pick", tree, map[string]any{"path": "context.repo", "keys": []any{"name"}, "target": "context.summary"})
	assert.Equal(t, map[string]any{"name": "svc"}, out["summary"])
	assert.Len(t, out["repo"], 4)

	_, err := apply(t, env, "pick", tree, map[string]any{"path": "context.repo", "keys": []any{"absent"}, "strict": true})
	assert.ErrorContains(t, err, "pick key not found")
}

func TestRename(t *testing.T) {
	env := baseEnv(t)
	tree := ctxTree(map[string]any{"repo": map[string]any{"team_id": "t1"}})

	out := mustApply(t, env, "rename", tree, map[string]any{"from": "context.repo.team_id", "to": "context.repo.team"})
	assert.Equal(t, map[string]any{"team": "t1"}, out["repo"])

	out = mustApply(t, env, "rename", tree, map[string]any{"from": "context.repo.nope", "to": "context.repo.x"})
	assert.Equal(t, map[string]any{"team_id": "t1"}, out["repo"], "missing source is skipped by default")

	_, err := apply(t, env, "rename", tree, map[string]any{"from": "context.repo.nope", "to": "context.x", "ignore_missing": false})
	assert.ErrorContains(t, err, "rename source not found: context.repo.nope")
}

func TestCoerce(t *testing.T) {
	env := baseEnv(t)
	tree := ctxTree(map[string]any{
		"flags":  map[string]any{"enabled": "true", "off": "Off"},
		"limits": map[string]any{"count": "42", "ratio": "3.5"},
		"meta":   map[string]any{"at": "2026-01-01"},
	})

	out := mustApply(t, env, "coerce", tree, map[string]any{
		"rules": []any{
			map[string]any{"path": "context.flags.enabled", "type": "bool"},
			map[string]any{"path": "context.flags.off", "type": "boolean"},
			map[string]any{"path": "context.limits.count", "type": "int"},
			map[string]any{"path": "context.limits.ratio", "type": "float"},
			map[string]any{"path": "context.meta.at", "type": "timestamp"},
			map[string]any{"path": "context.limits.count", "type": "string"},
			map[string]any{"path": "context.limits.absent", "type": "int"},
		},
	})

	assert.Equal(t, true, out["flags"].(map[string]any)["enabled"])
	assert.Equal(t, false, out["flags"].(map[string]any)["off"])
	assert.Equal(t, "42", out["limits"].(map[string]any)["count"])
	assert.Equal(t, 3.5, out["limits"].(map[string]any)["ratio"])
	assert.Equal(t, "2026-01-01T00:00:00Z", out["meta"].(map[string]any)["at"])

	_, err := apply(t, env, "coerce", tree, map[string]any{"path": "context.limits.absent", "type": "int", "ignore_missing": false})
	assert.ErrorContains(t, err, "coerce path not found")

	_, err = apply(t, env, "coerce", tree, map[string]any{"path": "context.meta.at", "type": "bool"})
	assert.ErrorContains(t, err, `cannot coerce "2026-01-01" to bool`)
}

func TestCoerceValue(t *testing.T) {
	tests := []struct {
		in   any
		typ  string
		want any
	}{
		{1, "bool", true},
		{0.0, "boolean", false},
		{" YES ", "bool", true},
		{"n", "bool", false},
		{7.0, "int", int64(7)},
		{" -3 ", "integer", int64(-3)},
		{int64(9), "int", int64(9)},
		{2, "float", 2.0},
		{"1e3", "number", 1000.0},
		{true, "string", "true"},
		{2.5, "string", "2.5"},
		{nil, "string", "null"},
		{[]any{1, "a"}, "string", `[1,"a"]`},
		{"2026-03-04T05:06:07Z", "timestamp", "2026-03-04T05:06:07Z"},
		{"2026-03-04T05:06:07+02:00", "timestamp", "2026-03-04T03:06:07Z"},
		{"2026-03-04T05:06:07", "timestamp", "2026-03-04T05:06:07Z"},
		{"2026-03-04T05:06:07.5Z", "timestamp", "2026-03-04T05:06:07.500000Z"},
	}

	for _, tt := range tests {
		t.Run(tt.typ, func(t *testing.T) {
			got, err := CoerceValue(tt.in, tt.typ)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	for _, bad := range []struct {
		in  any
		typ string
	}{
		{2, "bool"},
		{"maybe", "bool"},
		{1.5, "int"},
		{"x", "int"},
		{true, "int"},
		{"x", "float"},
		{"yesterday", "timestamp"},
		{5, "timestamp"},
		{1, "date"},
	} {
		_, err := CoerceValue(bad.in, bad.typ)
		assert.Error(t, err, "%v as %s", bad.in, bad.typ)
	}
}

func TestDefaults(t *testing.T) {
	env := baseEnv(t)
	tree := ctxTree(map[string]any{"env": "prod", "request": map[string]any{}, "nothing": nil})

	out := mustApply(t, env, "defaults", tree, map[string]any{
		"values": map[string]any{
			"context.env":            "dev",
			"context.request.region": "global",
			"context.nothing":        "filled",
		},
	})
	assert.Equal(t, "prod", out["env"])
	assert.Equal(t, "global", out["request"].(map[string]any)["region"])
	assert.Nil(t, out["nothing"], "an explicit null is not missing")

	out = mustApply(t, env, "defaults", tree, map[string]any{
		"rules": []any{map[string]any{"path": "context.a.b", "value": []any{1}}},
	})
	assert.Equal(t, map[string]any{"b": []any{1}}, out["a"])

	out = mustApply(t, env, "defaults", tree, map[string]any{"path": "context.tier", "value": "gold"})
	assert.Equal(t, "gold", out["tier"])

	_, err := apply(t, env, "defaults", tree, map[string]any{})
	assert.ErrorContains(t, err, "defaults requires")
}

func writeSchema(t *testing.T, dir string) string {
	t.Helper()

	path := filepath.Join(dir, "schema.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["standards", "exceptions", "sources", "env"],
  "properties": {
    "standards": {"type": "object"},
    "exceptions": {"type": "object"},
    "sources": {"type": "object"},
    "env": {"type": "string"}
  },
  "additionalProperties": true
}`), 0o644))

	return path
}

func TestValidateSchema(t *testing.T) {
	env := baseEnv(t)
	env.SchemaPath = writeSchema(t, env.ProjectDir)

	out := mustApply(t, env, "validate_schema", ctxTree(map[string]any{"env": "dev"}), nil)
	assert.Equal(t, "dev", out["env"])

	_, err := apply(t, env, "validate_schema", ctxTree(map[string]any{"env": 3}), map[string]any{"schema": "schema.json"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Schema validation failed: /env: ")

	env.SchemaPath = ""
	_, err = apply(t, env, "validate_schema", ctxTree(nil), nil)
	assert.ErrorContains(t, err, "validate_schema requires")
}

func TestRefResolve(t *testing.T) {
	env := baseEnv(t)
	tree := ctxTree(map[string]any{
		"repos": []any{
			map[string]any{"id": "r1", "team_id": "t1"},
			map[string]any{"id": "r2", "team_id": "t2"},
			map[string]any{"id": "r3"},
		},
		"teams_by_id": map[string]any{
			"t1": map[string]any{"id": "t1", "name": "one"},
			"t2": map[string]any{"id": "t2", "name": "two"},
		},
	})

	rule := map[string]any{
		"items":      "context.repos",
		"lookup":     "context.teams_by_id",
		"ref_key":    "team_id",
		"target_key": "team",
	}

	out := mustApply(t, env, "ref_resolve", tree, map[string]any{"rules": []any{rule}})
	repos := out["repos"].([]any)
	assert.Equal(t, "one", repos[0].(map[string]any)["team"].(map[string]any)["name"])
	assert.Equal(t, "two", repos[1].(map[string]any)["team"].(map[string]any)["name"])
	assert.NotContains(t, repos[2], "team")

	rule["required"] = true
	_, err := apply(t, env, "ref_resolve", tree, map[string]any{"rules": []any{rule}})
	assert.ErrorContains(t, err, `ref_resolve item 2 has no "team_id"`)
}

func TestSortStable(t *testing.T) {
	env := baseEnv(t)
	tree := ctxTree(map[string]any{
		"repos": []any{
			map[string]any{"id": "b", "name": "alpha"},
			map[string]any{"id": "x"},
			map[string]any{"id": "a", "name": "alpha"},
			map[string]any{"id": "c", "name": "zeta"},
			map[string]any{"id": "y"},
		},
		"mixed": []any{"b", 2, nil, true, "a", 1.5},
	})

	ids := func(out map[string]any) []string {
		var got []string
		for _, r := range out["repos"].([]any) {
			got = append(got, r.(map[string]any)["id"].(string))
		}

		return got
	}

	out := mustApply(t, env, "sort_stable", tree, map[string]any{"path": "context.repos", "by": "name"})
	assert.Equal(t, []string{"b", "a", "c", "x", "y"}, ids(out))

	out = mustApply(t, env, "sort_stable", tree, map[string]any{"path": "context.repos", "by": "name", "order": "desc"})
	assert.Equal(t, []string{"c", "b", "a", "x", "y"}, ids(out), "missing keys stay last and ties keep input order")

	out = mustApply(t, env, "sort_stable", tree, map[string]any{"rules": []any{map[string]any{"path": "context.mixed"}}})
	assert.Equal(t, []any{nil, true, 1.5, 2, "a", "b"}, out["mixed"])

	_, err := apply(t, env, "sort_stable", tree, map[string]any{"path": "context.repos", "order": "up"})
	assert.ErrorContains(t, err, "order must be asc or desc")
}

func TestDedupe(t *testing.T) {
	env := baseEnv(t)
	tree := ctxTree(map[string]any{
		"repos": []any{
			map[string]any{"id": "a", "name": "one"},
			map[string]any{"name": "anon"},
			map[string]any{"id": "a", "name": "one-dup"},
			map[string]any{"name": "anon"},
			map[string]any{"id": "b", "name": "two"},
		},
		"values": []any{1, 1.0, "1", true, 1, nil, nil},
	})

	names := func(out map[string]any) []string {
		var got []string
		for _, r := range out["repos"].([]any) {
			got = append(got, r.(map[string]any)["name"].(string))
		}

		return got
	}

	out := mustApply(t, env, "dedupe", tree, map[string]any{"path": "context.repos", "by": "id"})
	assert.Equal(t, []string{"one", "anon", "anon", "two"}, names(out))

	out = mustApply(t, env, "dedupe", tree, map[string]any{"path": "context.repos", "by": "id", "keep": "last"})
	assert.Equal(t, []string{"anon", "one-dup", "anon", "two"}, names(out))

	out = mustApply(t, env, "dedupe", tree, map[string]any{"path": "context.values"})
	assert.Equal(t, []any{1, "1", true, nil}, out["values"])
}
