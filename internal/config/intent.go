package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"opactx/internal/value"
)

// Intent file names inside the context directory.
const (
	StandardsFile  = "standards.yaml"
	ExceptionsFile = "exceptions.yaml"
)

// LoadIntent reads standards.yaml (required) and exceptions.yaml (optional)
// from contextDir and returns {"standards": ..., "exceptions": ...}.
func LoadIntent(contextDir string) (map[string]any, error) {
	standards, err := LoadYAMLMapping(filepath.Join(contextDir, StandardsFile), true)
	if err != nil {
		return nil, err
	}

	exceptions, err := LoadYAMLMapping(filepath.Join(contextDir, ExceptionsFile), false)
	if err != nil {
		return nil, err
	}

	intent := map[string]any{"standards": standards, "exceptions": exceptions}

	if _, err := value.StableJSON(intent); err != nil {
		return nil, errorf(err, "Context is not JSON-serializable.")
	}

	return intent, nil
}

// LoadYAMLMapping reads a YAML file whose top level must be a mapping.
// A missing optional file and an empty document both yield an empty map.
func LoadYAMLMapping(path string, required bool) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if required {
				return nil, errorf(err, "Missing required file: %s", path)
			}

			return map[string]any{}, nil
		}

		return nil, errorf(err, "Failed to read YAML: %s", path)
	}

	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errorf(err, "Failed to parse YAML: %s", path)
	}

	if doc == nil {
		return map[string]any{}, nil
	}

	m, ok := value.Clone(doc).(map[string]any)
	if !ok {
		return nil, errorf(nil, "%s must be a YAML mapping at the top level.", path)
	}

	return m, nil
}
