package source

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	"opactx/internal/value"
)

// File reads a JSON or YAML document, or every document matched by a glob.
type File struct {
	projectDir string
	pattern    string
}

// NewFile builds a file source. "path" is required and is relative to the
// project directory unless absolute.
func NewFile(projectDir string, with map[string]any) (Source, error) {
	path, err := requiredString(with, "path", TypeFile)
	if err != nil {
		return nil, err
	}

	return &File{projectDir: projectDir, pattern: path}, nil
}

// Fetch implements Source.
func (f *File) Fetch(ctx context.Context) (any, error) {
	if !containsGlob(f.pattern) {
		return readDocument(f.resolve(f.pattern))
	}

	base := f.projectDir
	if filepath.IsAbs(f.pattern) {
		base = "/"
	}

	pattern := filepath.ToSlash(strings.TrimPrefix(f.pattern, "/"))

	matches, err := doublestar.Glob(os.DirFS(base), pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("glob error: %w", err)
	}

	if len(matches) == 0 {
		return nil, fmt.Errorf("no files match pattern: %s", f.pattern)
	}

	out := make(map[string]any, len(matches))

	for _, rel := range matches {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		doc, err := readDocument(filepath.Join(base, filepath.FromSlash(rel)))
		if err != nil {
			return nil, err
		}

		out[rel] = doc
	}

	return out, nil
}

func (f *File) resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}

	return filepath.Join(f.projectDir, path)
}

// readDocument decodes YAML for .yaml/.yml files and JSON otherwise.
func readDocument(path string) (any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var doc any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}

		return value.Clone(doc), nil
	default:
		doc, err := value.DecodeJSON(data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}

		return doc, nil
	}
}

func containsGlob(pattern string) bool {
	return strings.ContainsAny(pattern, "*?[{")
}
