package transform

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"opactx/internal/value"
)

// canonicalize rebuilds the tree from intent and sources, ignoring its input.
func canonicalize(_ map[string]any, _ Options, env *Env) (map[string]any, error) {
	section := func(key string) map[string]any {
		if m, ok := env.Intent[key].(map[string]any); ok {
			return value.CloneMap(m)
		}

		return map[string]any{}
	}

	return map[string]any{
		"standards":  section("standards"),
		"exceptions": section("exceptions"),
		"sources":    value.CloneMap(env.Sources),
	}, nil
}

const (
	strategyMerge   = "merge"
	strategyDeep    = "deep"
	strategyReplace = "replace"
)

func mount(tree map[string]any, opts Options, env *Env) (map[string]any, error) {
	sourceID, err := opts.RequiredString("source_id")
	if err != nil {
		return nil, err
	}

	target, err := opts.ContextPath("target")
	if err != nil {
		return nil, err
	}

	strategy, err := opts.OptionalString("strategy", strategyMerge)
	if err != nil {
		return nil, err
	}

	payload, ok := env.Sources[sourceID]
	if !ok {
		found := value.Get(tree, value.Path{"sources", sourceID})
		if found.IsMissing() {
			return nil, fmt.Errorf("mount source not found: %s", sourceID)
		}

		payload = found.Value()
	}

	var mounted any

	switch strategy {
	case strategyMerge, strategyDeep:
		if existing, ok := value.Get(tree, target).Get(); ok {
			mounted = value.Merge(existing, payload)
		} else {
			mounted = value.Clone(payload)
		}
	case strategyReplace:
		mounted = value.Clone(payload)
	default:
		return nil, fmt.Errorf("unknown mount strategy %q (expected merge, deep or replace)", strategy)
	}

	if err := value.Set(tree, target, mounted); err != nil {
		return nil, err
	}

	return tree, nil
}

// mergeInputKeys are the accepted names of the merge input list, by priority.
var mergeInputKeys = []string{"from", "inputs", "objects"}

func merge(tree map[string]any, opts Options, env *Env) (map[string]any, error) {
	target, err := opts.ContextPath("target")
	if err != nil {
		return nil, err
	}

	var inputs []any

	for _, key := range mergeInputKeys {
		if raw, ok := opts[key]; ok {
			inputs, _ = raw.([]any)
			break
		}
	}

	if len(inputs) == 0 {
		return nil, errors.New("merge requires a non-empty list under 'from' (or 'inputs'/'objects')")
	}

	includeExisting, err := opts.Bool("include_existing", false)
	if err != nil {
		return nil, err
	}

	var acc any = map[string]any{}

	if includeExisting {
		if existing, ok := value.Get(tree, target).Get(); ok {
			acc = value.Clone(existing)
		}
	}

	for i, entry := range inputs {
		resolved, err := resolveInput(entry, tree, env)
		if err != nil {
			return nil, fmt.Errorf("merge input %d: %w", i, err)
		}

		acc = value.Merge(acc, resolved)
	}

	if err := value.Set(tree, target, acc); err != nil {
		return nil, err
	}

	return tree, nil
}

// resolveInput turns a merge entry into a value. Strings and {path: ...}
// entries that name context, sources or intent are looked up; everything
// else is a literal.
func resolveInput(entry any, tree map[string]any, env *Env) (any, error) {
	ref, isRef := entry.(string)

	if m, ok := entry.(map[string]any); ok {
		if p, ok := m["path"].(string); ok {
			ref, isRef = p, true
		}
	}

	if !isRef {
		return value.Clone(entry), nil
	}

	var (
		root any
		rest string
	)

	switch head, tail, _ := strings.Cut(ref, "."); head {
	case value.ContextRoot:
		root, rest = tree, tail
	case "sources":
		root, rest = env.Sources, tail
	case "intent":
		root, rest = env.Intent, tail
	default:
		return value.Clone(entry), nil
	}

	if strings.HasSuffix(ref, ".") {
		return nil, fmt.Errorf("invalid path %q: empty segment", ref)
	}

	p, err := value.ParseRelativePath(rest)
	if err != nil {
		return nil, err
	}

	found, ok := value.Get(root, p).Get()
	if !ok {
		return nil, fmt.Errorf("path not found: %s", ref)
	}

	return value.Clone(found), nil
}

func pick(tree map[string]any, opts Options, _ *Env) (map[string]any, error) {
	path, err := opts.ContextPath("path")
	if err != nil {
		return nil, err
	}

	keys, err := opts.StringList("keys")
	if err != nil {
		return nil, err
	}

	target := path
	if opts.Has("target") {
		if target, err = opts.ContextPath("target"); err != nil {
			return nil, err
		}
	}

	strict, err := opts.Bool("strict", false)
	if err != nil {
		return nil, err
	}

	src, ok := value.Get(tree, path).Value().(map[string]any)
	if !ok {
		return nil, fmt.Errorf("pick path is not an object: %s", path)
	}

	out := make(map[string]any, len(keys))

	for _, k := range keys {
		v, ok := src[k]
		if !ok {
			if strict {
				return nil, fmt.Errorf("pick key not found: %s.%s", path, k)
			}

			continue
		}

		out[k] = value.Clone(v)
	}

	if err := value.Set(tree, target, out); err != nil {
		return nil, err
	}

	return tree, nil
}

func rename(tree map[string]any, opts Options, _ *Env) (map[string]any, error) {
	moves, err := opts.Rules("moves", "from")
	if err != nil {
		return nil, err
	}

	ignoreDefault, err := opts.Bool("ignore_missing", true)
	if err != nil {
		return nil, err
	}

	for i, move := range moves {
		from, err := move.ContextPath("from")
		if err != nil {
			return nil, fmt.Errorf("move %d: %w", i, err)
		}

		to, err := move.ContextPath("to")
		if err != nil {
			return nil, fmt.Errorf("move %d: %w", i, err)
		}

		ignore, err := move.Bool("ignore_missing", ignoreDefault)
		if err != nil {
			return nil, fmt.Errorf("move %d: %w", i, err)
		}

		moved, ok := value.Delete(tree, from).Get()
		if !ok {
			if ignore {
				continue
			}

			return nil, fmt.Errorf("rename source not found: %s", from)
		}

		if err := value.Set(tree, to, moved); err != nil {
			return nil, err
		}
	}

	return tree, nil
}

type defaultRule struct {
	path  value.Path
	value any
}

func defaults(tree map[string]any, opts Options, _ *Env) (map[string]any, error) {
	var rules []defaultRule

	switch {
	case opts.Has("values"):
		values, ok := opts["values"].(map[string]any)
		if !ok {
			return nil, errors.New("'values' must be a mapping of path to value")
		}

		paths := make([]string, 0, len(values))
		for k := range values {
			paths = append(paths, k)
		}

		slices.Sort(paths)

		for _, raw := range paths {
			p, err := value.ParseContextPath(raw)
			if err != nil {
				return nil, err
			}

			rules = append(rules, defaultRule{path: p, value: values[raw]})
		}
	case !opts.Has("rules") && !opts.Has("path"):
		return nil, errors.New("defaults requires 'values', 'rules' or an inline 'path' and 'value'")
	default:
		list, err := opts.Rules("rules", "path")
		if err != nil {
			return nil, err
		}

		for i, rule := range list {
			p, err := rule.ContextPath("path")
			if err != nil {
				return nil, fmt.Errorf("rule %d: %w", i, err)
			}

			if !rule.Has("value") {
				return nil, fmt.Errorf("rule %d: 'value' is required", i)
			}

			rules = append(rules, defaultRule{path: p, value: rule["value"]})
		}
	}

	for _, r := range rules {
		if value.Get(tree, r.path).IsFound() {
			continue
		}

		if err := value.Set(tree, r.path, value.Clone(r.value)); err != nil {
			return nil, err
		}
	}

	return tree, nil
}
