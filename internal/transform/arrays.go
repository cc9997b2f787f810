package transform

import (
	"fmt"
	"slices"
	"strconv"

	"opactx/internal/value"
)

func arrayAt(tree map[string]any, p value.Path, op string) ([]any, error) {
	found := value.Get(tree, p)
	if found.IsMissing() {
		return nil, fmt.Errorf("%s path not found: %s", op, p)
	}

	arr, ok := found.Value().([]any)
	if !ok {
		return nil, fmt.Errorf("%s path is not an array: %s", op, p)
	}

	return arr, nil
}

func refResolve(tree map[string]any, opts Options, _ *Env) (map[string]any, error) {
	rules, err := opts.Rules("rules", "items")
	if err != nil {
		return nil, err
	}

	for i, rule := range rules {
		if err := applyRefRule(tree, rule); err != nil {
			return nil, fmt.Errorf("rule %d: %w", i, err)
		}
	}

	return tree, nil
}

func applyRefRule(tree map[string]any, rule Options) error {
	itemsPath, err := rule.ContextPath("items")
	if err != nil {
		return err
	}

	lookupPath, err := rule.ContextPath("lookup")
	if err != nil {
		return err
	}

	refKey, err := relativeKey(rule, "ref_key")
	if err != nil {
		return err
	}

	targetKey, err := relativeKey(rule, "target_key")
	if err != nil {
		return err
	}

	required, err := rule.Bool("required", false)
	if err != nil {
		return err
	}

	copyValue, err := rule.Bool("copy", true)
	if err != nil {
		return err
	}

	items, err := arrayAt(tree, itemsPath, "ref_resolve items")
	if err != nil {
		return err
	}

	lookup, ok := value.Get(tree, lookupPath).Value().(map[string]any)
	if !ok {
		return fmt.Errorf("ref_resolve lookup is not an object: %s", lookupPath)
	}

	for idx, raw := range items {
		item, ok := raw.(map[string]any)
		if !ok {
			return fmt.Errorf("ref_resolve item %d is not an object", idx)
		}

		ref := value.Get(item, refKey)
		if ref.IsAbsent() {
			if required {
				return fmt.Errorf("ref_resolve item %d has no %q", idx, rule["ref_key"])
			}

			continue
		}

		key, ok := lookupKey(ref.Value())

		resolved, found := lookup[key]
		if !ok || !found {
			if required {
				return fmt.Errorf("ref_resolve could not resolve %v (item %d)", ref.Value(), idx)
			}

			continue
		}

		if copyValue {
			resolved = value.Clone(resolved)
		}

		if err := value.Set(item, targetKey, resolved); err != nil {
			return err
		}
	}

	return nil
}

// relativeKey reads a required non-empty relative path option.
func relativeKey(rule Options, key string) (value.Path, error) {
	if _, err := rule.RequiredString(key); err != nil {
		return nil, err
	}

	p, _, err := rule.RelativePath(key)

	return p, err
}

// lookupKey converts a reference to an object key. Strings are used as is
// and integers by their decimal form; other values never match.
func lookupKey(v any) (string, bool) {
	if s, ok := v.(string); ok {
		return s, true
	}

	if _, isBool := v.(bool); isBool {
		return "", false
	}

	if i, ok := value.AsInt(v); ok {
		return strconv.FormatInt(i, 10), true
	}

	return "", false
}

func sortStable(tree map[string]any, opts Options, _ *Env) (map[string]any, error) {
	rules, err := opts.Rules("rules", "path")
	if err != nil {
		return nil, err
	}

	for i, rule := range rules {
		if err := applySortRule(tree, rule); err != nil {
			return nil, fmt.Errorf("rule %d: %w", i, err)
		}
	}

	return tree, nil
}

type sortEntry struct {
	item  any
	token value.SortToken
}

func applySortRule(tree map[string]any, rule Options) error {
	path, err := rule.ContextPath("path")
	if err != nil {
		return err
	}

	order, err := rule.OptionalString("order", "asc")
	if err != nil {
		return err
	}

	if order != "asc" && order != "desc" {
		return fmt.Errorf("sort_stable order must be asc or desc, got %q", order)
	}

	by, hasBy, err := rule.RelativePath("by")
	if err != nil {
		return err
	}

	items, err := arrayAt(tree, path, "sort_stable")
	if err != nil {
		return err
	}

	present := make([]sortEntry, 0, len(items))

	var absent []any

	for _, item := range items {
		key := value.Found(item)
		if hasBy {
			key = value.Get(item, by)
		}

		if key.IsMissing() {
			absent = append(absent, item)
			continue
		}

		present = append(present, sortEntry{item: item, token: value.NewSortToken(key.Value())})
	}

	slices.SortStableFunc(present, func(a, b sortEntry) int {
		if order == "desc" {
			return b.token.Compare(a.token)
		}

		return a.token.Compare(b.token)
	})

	sorted := make([]any, 0, len(items))
	for _, e := range present {
		sorted = append(sorted, e.item)
	}

	sorted = append(sorted, absent...)

	return value.Set(tree, path, sorted)
}

func dedupe(tree map[string]any, opts Options, _ *Env) (map[string]any, error) {
	rules, err := opts.Rules("rules", "path")
	if err != nil {
		return nil, err
	}

	for i, rule := range rules {
		if err := applyDedupeRule(tree, rule); err != nil {
			return nil, fmt.Errorf("rule %d: %w", i, err)
		}
	}

	return tree, nil
}

func applyDedupeRule(tree map[string]any, rule Options) error {
	path, err := rule.ContextPath("path")
	if err != nil {
		return err
	}

	keep, err := rule.OptionalString("keep", "first")
	if err != nil {
		return err
	}

	if keep != "first" && keep != "last" {
		return fmt.Errorf("dedupe keep must be first or last, got %q", keep)
	}

	by, hasBy, err := rule.RelativePath("by")
	if err != nil {
		return err
	}

	items, err := arrayAt(tree, path, "dedupe")
	if err != nil {
		return err
	}

	work := slices.Clone(items)
	if keep == "last" {
		slices.Reverse(work)
	}

	seen := make(map[string]struct{}, len(work))
	out := make([]any, 0, len(work))

	for _, item := range work {
		key := value.Found(item)
		if hasBy {
			key = value.Get(item, by)
		}

		if key.IsMissing() {
			out = append(out, item)
			continue
		}

		k := value.CanonicalKey(key.Value())
		if _, dup := seen[k]; dup {
			continue
		}

		seen[k] = struct{}{}
		out = append(out, item)
	}

	if keep == "last" {
		slices.Reverse(out)
	}

	return value.Set(tree, path, out)
}
