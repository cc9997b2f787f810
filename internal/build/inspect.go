package build

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"opactx/internal/value"
)

// previewLimit caps Inspection.Preview.
const previewLimit = 400

// InspectOptions configures Inspect.
type InspectOptions struct {
	BundleDir string
	// Path selects a value to extract: a JSON pointer into data.json
	// ("/context/standards") or a context path ("context.standards").
	Path string
}

// Inspection summarizes a bundle.
type Inspection struct {
	BundleDir string
	Manifest  Manifest
	DataBytes int
	// Keys are the top-level context keys, sorted.
	Keys []string
	// Counts holds the entry count of each top-level mapping or array.
	Counts map[string]int

	Path      string
	Extracted bool
	Value     any
	ValueType string
	Preview   string
}

// Inspect reads a bundle directory written by Build.
func (r *Runner) Inspect(_ context.Context, opts InspectOptions) (*Inspection, error) {
	log := r.logger.With().Str("command", CommandInspect).Logger()

	dir, err := filepath.Abs(opts.BundleDir)
	if err != nil {
		return nil, stageError(StageOpenBundle, "", err)
	}

	res := &Inspection{BundleDir: dir, Path: opts.Path, Counts: map[string]int{}}

	var data any

	steps := []struct {
		stage string
		fn    func() (Status, error)
	}{
		{StageOpenBundle, func() (Status, error) { return StatusSuccess, openBundle(dir) }},
		{StageReadManifest, func() (Status, error) {
			raw, err := readJSON(filepath.Join(dir, ManifestFile))
			if err != nil {
				return StatusFailed, err
			}

			res.Manifest = manifestOf(raw)

			return StatusSuccess, nil
		}},
		{StageReadData, func() (Status, error) {
			path := filepath.Join(dir, DataFile)

			raw, err := readJSON(path)
			if err != nil {
				return StatusFailed, err
			}

			info, err := os.Stat(path)
			if err != nil {
				return StatusFailed, err
			}

			data = raw
			res.DataBytes = int(info.Size())

			return StatusSuccess, nil
		}},
		{StageSummarize, func() (Status, error) {
			summarize(res, data)
			return StatusSuccess, nil
		}},
		{StageExtractPath, func() (Status, error) {
			if opts.Path == "" {
				return StatusSkipped, nil
			}

			v, err := extract(data, opts.Path)
			if err != nil {
				return StatusFailed, err
			}

			res.Extracted = true
			res.Value = v
			res.ValueType = value.TypeName(v)
			res.Preview = preview(v)

			return StatusSuccess, nil
		}},
	}

	for _, step := range steps {
		if err := r.stage(log, CommandInspect, step.stage, step.fn); err != nil {
			return res, err
		}
	}

	return res, nil
}

func openBundle(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return stageError(StageOpenBundle, CodeBundleMissing, fmt.Errorf("Bundle not found: %s", dir))
		}

		return err
	}

	if !info.IsDir() {
		return stageError(StageOpenBundle, CodeBundleType, errors.New("Bundle path must be a directory in v1."))
	}

	return nil
}

func readJSON(path string) (any, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("Missing file: %s", path)
		}

		return nil, err
	}

	doc, err := value.DecodeJSON(raw)
	if err != nil {
		return nil, fmt.Errorf("Invalid JSON: %s", path)
	}

	return doc, nil
}

func manifestOf(raw any) Manifest {
	var m Manifest

	doc, ok := raw.(map[string]any)
	if !ok {
		return m
	}

	if rev, ok := doc["revision"]; ok {
		m.Revision = fmt.Sprint(rev)
	}

	if roots, ok := doc["roots"].([]any); ok {
		for _, root := range roots {
			m.Roots = append(m.Roots, fmt.Sprint(root))
		}
	}

	if meta, ok := doc["metadata"].(map[string]any); ok {
		m.Metadata = meta
	}

	return m
}

func summarize(res *Inspection, data any) {
	doc, _ := data.(map[string]any)

	ctx, ok := doc["context"].(map[string]any)
	if !ok {
		return
	}

	for key, v := range ctx {
		res.Keys = append(res.Keys, key)

		switch t := v.(type) {
		case map[string]any:
			res.Counts[key] = len(t)
		case []any:
			res.Counts[key] = len(t)
		default:
			res.Counts[key] = 0
		}
	}

	slices.Sort(res.Keys)
}

// extract resolves a JSON pointer or a context path against data.
func extract(data any, path string) (any, error) {
	if path == value.ContextRoot || strings.HasPrefix(path, value.ContextRoot+".") {
		p, err := value.ParseContextPath(path)
		if err != nil {
			return nil, err
		}

		doc, _ := data.(map[string]any)

		v, found := value.Get(doc["context"], p).Get()
		if !found {
			return nil, fmt.Errorf("Key not found: %s", path)
		}

		return v, nil
	}

	return extractPointer(data, path)
}

func extractPointer(data any, pointer string) (any, error) {
	if pointer == "" || pointer == "/" {
		return data, nil
	}

	if !strings.HasPrefix(pointer, "/") {
		return nil, errors.New("Pointer must start with '/'.")
	}

	cur := data

	for _, part := range strings.Split(pointer[1:], "/") {
		part = strings.ReplaceAll(strings.ReplaceAll(part, "~1", "/"), "~0", "~")

		switch t := cur.(type) {
		case []any:
			index, err := strconv.Atoi(part)
			if err != nil || index < 0 {
				return nil, fmt.Errorf("Expected list index at '%s'.", part)
			}

			if index >= len(t) {
				return nil, fmt.Errorf("Index out of range at '%s'.", part)
			}

			cur = t[index]
		case map[string]any:
			next, ok := t[part]
			if !ok {
				return nil, fmt.Errorf("Key not found: %s", part)
			}

			cur = next
		default:
			return nil, fmt.Errorf("Cannot traverse into %s at '%s'.", value.TypeName(cur), part)
		}
	}

	return cur, nil
}

func preview(v any) string {
	raw, err := value.StableJSONIndent(v)
	if err != nil {
		return fmt.Sprint(v)
	}

	rendered := strings.TrimSuffix(string(raw), "\n")
	if len(rendered) > previewLimit {
		return rendered[:previewLimit] + "..."
	}

	return rendered
}
