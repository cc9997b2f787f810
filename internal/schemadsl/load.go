package schemadsl

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"opactx/internal/validator"
	"opactx/internal/value"
)

// ArtifactDir is where compiled DSL artifacts are written, relative to the
// project directory.
const ArtifactDir = "build/schema"

// LoadCompiledSchema loads the context schema named by schemaPath (relative
// paths resolve against projectDir).
//
// .yaml and .yml files are DSL documents: they are shape-checked, compiled
// and, when emitArtifact is set, written to ArtifactPath. Any other file is
// read as a JSON Schema object. In both cases the result must pass the
// Draft 2020-12 meta-schema.
func LoadCompiledSchema(projectDir, schemaPath string, emitArtifact bool) (map[string]any, error) {
	resolved := schemaPath
	if !filepath.IsAbs(resolved) {
		resolved = filepath.Join(projectDir, resolved)
	}

	data, err := os.ReadFile(resolved)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, loadErrorf(err, "Schema not found: %s", resolved)
		}

		return nil, loadErrorf(err, "Failed to read schema: %s", resolved)
	}

	var compiled map[string]any

	if IsDSLPath(resolved) {
		compiled, err = compileFile(data, resolved)
		if err != nil {
			return nil, err
		}

		if emitArtifact {
			if err := WriteArtifact(ArtifactPath(projectDir, resolved), compiled); err != nil {
				return nil, err
			}
		}
	} else {
		compiled, err = decodeJSONSchema(data, resolved)
		if err != nil {
			return nil, err
		}
	}

	if _, err := validator.Compile(compiled, ""); err != nil {
		var ce *validator.CompileError
		if errors.As(err, &ce) {
			return nil, loadErrorf(err, "Schema is not valid: %s", ce.Message())
		}

		return nil, loadErrorf(err, "Schema is not valid: %v", err)
	}

	return compiled, nil
}

// IsDSLPath reports whether path names a DSL document rather than JSON.
func IsDSLPath(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	default:
		return false
	}
}

// ArtifactPath is <projectDir>/build/schema/<stem>.json for a DSL file.
func ArtifactPath(projectDir, dslPath string) string {
	base := filepath.Base(dslPath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))

	return filepath.Join(projectDir, filepath.FromSlash(ArtifactDir), stem+".json")
}

// WriteArtifact writes a compiled schema with sorted keys and two-space
// indentation, creating parent directories as needed.
func WriteArtifact(path string, compiled map[string]any) error {
	data, err := value.StableJSONIndent(compiled)
	if err != nil {
		return loadErrorf(err, "Failed to encode compiled schema: %v", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating artifact directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing compiled schema: %w", err)
	}

	return nil
}

// CompileYAML decodes, shape-checks and compiles DSL source.
func CompileYAML(data []byte) (map[string]any, error) {
	return compileFile(data, "<input>")
}

func compileFile(data []byte, name string) (map[string]any, error) {
	document, err := DecodeYAML(data)
	if err != nil {
		return nil, loadErrorf(err, "Failed to parse schema DSL YAML: %s", name)
	}

	if _, ok := document.(*Mapping); !ok {
		return nil, loadErrorf(nil, "Schema DSL must be a mapping at the top level.")
	}

	if err := ValidateDocument(document); err != nil {
		return nil, err
	}

	return Compile(document)
}

func decodeJSONSchema(data []byte, name string) (map[string]any, error) {
	parsed, err := value.DecodeJSON(data)
	if err != nil {
		return nil, loadErrorf(err, "Invalid JSON schema: %s", name)
	}

	doc, ok := parsed.(map[string]any)
	if !ok {
		return nil, loadErrorf(nil, "Schema must be a JSON object.")
	}

	return doc, nil
}
