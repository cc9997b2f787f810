package config

import (
	"fmt"
	"slices"
	"strings"

	"opactx/internal/diagnostic"
)

// CheckConfig is the check name attached to configuration diagnostics.
const CheckConfig = "config"

// Validate checks semantic rules that decoding alone cannot express.
func Validate(cfg *Config) *diagnostic.Diagnostics {
	res := &diagnostic.Diagnostics{}

	if cfg.Version != DefaultVersion {
		res.AddError("unsupported_version", "Only version v1 is supported.", CheckConfig, "version")
	}

	seen := make(map[string]bool, len(cfg.Sources))

	var duplicates []string

	for i, s := range cfg.Sources {
		path := fmt.Sprintf("sources[%d]", i)

		if s.Name == "" {
			res.AddError("missing_name", fmt.Sprintf("%s.name is required.", path), CheckConfig, path)
		}

		if s.Type == "" {
			res.AddError("missing_type", fmt.Sprintf("%s.type is required.", path), CheckConfig, path)
		}

		if s.Name != "" && seen[s.Name] && !slices.Contains(duplicates, s.Name) {
			duplicates = append(duplicates, s.Name)
		}

		seen[s.Name] = true
	}

	if len(duplicates) > 0 {
		slices.Sort(duplicates)
		res.AddError("duplicate_source",
			"Duplicate source names: "+strings.Join(duplicates, ", "), CheckConfig, "sources")
	}

	for i, t := range cfg.Transforms {
		path := fmt.Sprintf("transforms[%d]", i)

		if t.Name == "" {
			res.AddError("missing_name", fmt.Sprintf("%s.name is required.", path), CheckConfig, path)
		}

		if t.Type == "" {
			res.AddError("missing_type", fmt.Sprintf("%s.type is required.", path), CheckConfig, path)
		}
	}

	return res
}
