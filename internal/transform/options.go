package transform

import (
	"fmt"
	"strings"

	"opactx/internal/value"
)

// Options is the "with" mapping of a step.
type Options map[string]any

// Has reports whether key is set.
func (o Options) Has(key string) bool {
	_, ok := o[key]
	return ok
}

// RequiredString returns a required non-empty string option.
func (o Options) RequiredString(key string) (string, error) {
	raw, ok := o[key]
	if !ok {
		return "", fmt.Errorf("'%s' is required", key)
	}

	s, ok := raw.(string)
	if !ok || strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("'%s' must be a non-empty string", key)
	}

	return s, nil
}

// OptionalString returns a string option or def when it is absent.
func (o Options) OptionalString(key, def string) (string, error) {
	raw, ok := o[key]
	if !ok || raw == nil {
		return def, nil
	}

	s, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("'%s' must be a string", key)
	}

	return s, nil
}

// Bool returns a boolean option or def when it is absent.
func (o Options) Bool(key string, def bool) (bool, error) {
	raw, ok := o[key]
	if !ok || raw == nil {
		return def, nil
	}

	b, ok := raw.(bool)
	if !ok {
		return false, fmt.Errorf("'%s' must be a boolean", key)
	}

	return b, nil
}

// ContextPath parses a required context path option.
func (o Options) ContextPath(key string) (value.Path, error) {
	s, err := o.RequiredString(key)
	if err != nil {
		return nil, err
	}

	p, err := value.ParseContextPath(s)
	if err != nil {
		return nil, fmt.Errorf("'%s': %w", key, err)
	}

	return p, nil
}

// RelativePath parses a relative path option. Absent or empty means the
// value itself; found reports whether the option was given.
func (o Options) RelativePath(key string) (p value.Path, found bool, err error) {
	raw, ok := o[key]
	if !ok || raw == nil {
		return nil, false, nil
	}

	s, ok := raw.(string)
	if !ok {
		return nil, false, fmt.Errorf("'%s' must be a string", key)
	}

	p, err = value.ParseRelativePath(s)
	if err != nil {
		return nil, false, fmt.Errorf("'%s': %w", key, err)
	}

	return p, true, nil
}

// StringList returns a list option whose entries are all strings.
func (o Options) StringList(key string) ([]string, error) {
	raw, ok := o[key].([]any)
	if !ok {
		if ss, isStrings := o[key].([]string); isStrings {
			return ss, nil
		}

		return nil, fmt.Errorf("'%s' must be a list of strings", key)
	}

	out := make([]string, 0, len(raw))

	for _, item := range raw {
		s, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("'%s' must be a list of strings", key)
		}

		out = append(out, s)
	}

	return out, nil
}

// Rules returns the rule list stored under key, or the step options
// themselves as a single inline rule when key is absent and anchor is set.
func (o Options) Rules(key, anchor string) ([]Options, error) {
	raw, ok := o[key]
	if !ok {
		if o.Has(anchor) {
			return []Options{o}, nil
		}

		return nil, fmt.Errorf("'%s' must be a non-empty list (or give '%s' inline)", key, anchor)
	}

	list, ok := raw.([]any)
	if !ok || len(list) == 0 {
		return nil, fmt.Errorf("'%s' must be a non-empty list", key)
	}

	out := make([]Options, 0, len(list))

	for i, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("'%s[%d]' must be a mapping", key, i)
		}

		out = append(out, Options(m))
	}

	return out, nil
}
