package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func fetch(t *testing.T, typ, dir string, with map[string]any) (any, error) {
	t.Helper()

	payload, _, err := Builtins().Fetch(context.Background(), typ, dir, with)

	return payload, err
}

func TestRegistry_Types(t *testing.T) {
	r := Builtins()

	assert.Equal(t, []string{"exec", "file", "http"}, r.Types())
	assert.True(t, r.Has(TypeFile))
	assert.False(t, r.Has("s3"))
	assert.Nil(t, r.Get("s3"))
}

func TestRegistry_UnknownType(t *testing.T) {
	_, err := Builtins().Open("fil", t.TempDir(), nil)
	require.Error(t, err)
	assert.Equal(t, `Unknown source type: fil (did you mean "file"?)`, err.Error())

	_, err = Builtins().Open("s3", t.TempDir(), nil)
	assert.EqualError(t, err, "Unknown source type: s3")
}

func TestRegistry_CustomFactory(t *testing.T) {
	r := NewRegistry()
	r.Add("static", func(_ string, with map[string]any) (Source, error) {
		return staticSource{payload: with["value"]}, nil
	})

	payload, size, err := r.Fetch(context.Background(), "static", "", map[string]any{
		"value": map[string]any{"n": 3, "ok": true},
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"n": json.Number("3"), "ok": true}, payload)
	assert.Equal(t, len(`{"n":3,"ok":true}`), size)
}

type staticSource struct {
	payload any
}

func (s staticSource) Fetch(context.Context) (any, error) {
	return s.payload, nil
}

func TestFile_JSONAndYAML(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "data", "teams.json"), `{"teams":[{"id":"core","size":4}]}`)
	writeFile(t, filepath.Join(dir, "data", "owners.yaml"), "owners:\n  - alice\n  - bob\n")

	got, err := fetch(t, TypeFile, dir, map[string]any{"path": "data/teams.json"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"teams": []any{map[string]any{"id": "core", "size": json.Number("4")}},
	}, got)

	got, err = fetch(t, TypeFile, dir, map[string]any{"path": filepath.Join(dir, "data", "owners.yaml")})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"owners": []any{"alice", "bob"}}, got)
}

func TestFile_Glob(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "data", "a.json"), `{"name":"a"}`)
	writeFile(t, filepath.Join(dir, "data", "nested", "b.json"), `{"name":"b"}`)
	writeFile(t, filepath.Join(dir, "data", "nested", "skip.txt"), `not json`)

	got, err := fetch(t, TypeFile, dir, map[string]any{"path": "data/**/*.json"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"data/a.json":        map[string]any{"name": "a"},
		"data/nested/b.json": map[string]any{"name": "b"},
	}, got)
}

func TestFile_Errors(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "broken.json"), `{"a":`)

	tests := []struct {
		name    string
		with    map[string]any
		wantErr string
	}{
		{name: "missing path", with: map[string]any{}, wantErr: "file source requires 'path' as a non-empty string"},
		{name: "missing file", with: map[string]any{"path": "absent.json"}, wantErr: "failed to read"},
		{name: "broken json", with: map[string]any{"path": "broken.json"}, wantErr: "failed to parse"},
		{name: "no glob matches", with: map[string]any{"path": "data/*.json"}, wantErr: "no files match pattern: data/*.json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := fetch(t, TypeFile, dir, tt.with)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestHTTP_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"services":[{"name":"api","replicas":2}]}`))
	}))
	defer srv.Close()

	got, err := fetch(t, TypeHTTP, "", map[string]any{
		"url":       srv.URL + "/inventory",
		"headers":   map[string]any{"Authorization": "Bearer token"},
		"timeout_s": 5,
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"services": []any{map[string]any{"name": "api", "replicas": json.Number("2")}},
	}, got)

	_, err = fetch(t, TypeHTTP, "", map[string]any{"url": srv.URL})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 401")
}

func TestHTTP_InvalidBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<html>"))
	}))
	defer srv.Close()

	_, err := fetch(t, TypeHTTP, "", map[string]any{"url": srv.URL})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is not valid JSON")
}

func TestHTTP_Settings(t *testing.T) {
	_, err := NewHTTP("", map[string]any{})
	assert.EqualError(t, err, "http source requires 'url' as a non-empty string")

	_, err = NewHTTP("", map[string]any{"url": "http://x", "timeout_s": "soon"})
	assert.EqualError(t, err, "http source requires 'timeout_s' as a non-negative number")

	_, err = NewHTTP("", map[string]any{"url": "http://x", "headers": []any{"a"}})
	assert.EqualError(t, err, "http source requires 'headers' as a mapping")

	src, err := NewHTTP("", map[string]any{"url": "http://x", "timeout_s": "1.5"})
	require.NoError(t, err)
	assert.Equal(t, 1500*time.Millisecond, src.(*HTTP).client.Timeout)
}

func TestExec_Fetch(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "payload.json"), `{"from":"file"}`)

	got, err := fetch(t, TypeExec, dir, map[string]any{"cmd": []any{"cat", "payload.json"}})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"from": "file"}, got)
}

func TestExec_Errors(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		with    map[string]any
		wantErr string
	}{
		{name: "no cmd", with: map[string]any{}, wantErr: "exec source requires cmd as a list of strings"},
		{name: "cmd string", with: map[string]any{"cmd": "echo hi"}, wantErr: "exec source requires cmd as a list of strings"},
		{name: "non-string item", with: map[string]any{"cmd": []any{"echo", 1}}, wantErr: "exec source requires cmd as a list of strings"},
		{
			name:    "non-zero exit",
			with:    map[string]any{"cmd": []any{"sh", "-c", "echo broken >&2; exit 3"}},
			wantErr: "command failed with exit code 3: broken",
		},
		{
			name:    "not json",
			with:    map[string]any{"cmd": []any{"echo", "hello"}},
			wantErr: "command output is not valid JSON",
		},
		{
			name:    "timeout",
			with:    map[string]any{"cmd": []any{"sleep", "5"}, "timeout_s": 0.05},
			wantErr: "deadline exceeded",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := fetch(t, TypeExec, dir, tt.with)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNote(t *testing.T) {
	tests := []struct {
		typ  string
		with map[string]any
		want string
	}{
		{typ: TypeFile, with: map[string]any{"path": "data/teams.json"}, want: "data/teams.json"},
		{typ: TypeHTTP, with: map[string]any{"url": "https://inv.local:8443/api/v1?x=1"}, want: "inv.local:8443/api/v1"},
		{typ: TypeExec, with: map[string]any{"cmd": []any{"python", "/opt/scripts/dump.py"}}, want: "python dump.py"},
		{typ: TypeExec, with: map[string]any{"cmd": []any{"inventory"}}, want: "inventory"},
		{typ: TypeExec, with: map[string]any{}, want: ""},
		{typ: "s3", with: map[string]any{"path": "x"}, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.typ+"/"+tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, Note(tt.typ, tt.with))
		})
	}
}
