package transform

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"opactx/internal/value"
)

var (
	truthy = []string{"true", "1", "yes", "y", "on"}
	falsy  = []string{"false", "0", "no", "n", "off"}
)

// timestampLayouts are tried in order after the bare date form.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
}

func coerce(tree map[string]any, opts Options, _ *Env) (map[string]any, error) {
	rules, err := opts.Rules("rules", "path")
	if err != nil {
		return nil, err
	}

	for i, rule := range rules {
		path, err := rule.ContextPath("path")
		if err != nil {
			return nil, fmt.Errorf("rule %d: %w", i, err)
		}

		typ, err := rule.RequiredString("type")
		if err != nil {
			return nil, fmt.Errorf("rule %d: %w", i, err)
		}

		ignore, err := rule.Bool("ignore_missing", true)
		if err != nil {
			return nil, fmt.Errorf("rule %d: %w", i, err)
		}

		current, ok := value.Get(tree, path).Get()
		if !ok {
			if ignore {
				continue
			}

			return nil, fmt.Errorf("coerce path not found: %s", path)
		}

		converted, err := CoerceValue(current, typ)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}

		if err := value.Set(tree, path, converted); err != nil {
			return nil, err
		}
	}

	return tree, nil
}

// CoerceValue converts v to the named type: bool/boolean, int/integer,
// float/number, string or timestamp.
func CoerceValue(v any, typ string) (any, error) {
	switch strings.ToLower(typ) {
	case "bool", "boolean":
		return toBool(v)
	case "int", "integer":
		return toInt(v)
	case "float", "number":
		return toFloat(v)
	case "string":
		return toString(v), nil
	case "timestamp":
		return toTimestamp(v)
	default:
		return nil, fmt.Errorf("unsupported coerce type %q", typ)
	}
}

func toBool(v any) (bool, error) {
	switch t := v.(type) {
	case bool:
		return t, nil
	case string:
		token := strings.ToLower(strings.TrimSpace(t))

		for _, s := range truthy {
			if token == s {
				return true, nil
			}
		}

		for _, s := range falsy {
			if token == s {
				return false, nil
			}
		}
	default:
		if f, ok := value.AsFloat(v); ok && (f == 0 || f == 1) {
			return f == 1, nil
		}
	}

	return false, fmt.Errorf("cannot coerce %s to bool", describe(v))
}

func toInt(v any) (int64, error) {
	if _, isBool := v.(bool); isBool {
		return 0, fmt.Errorf("cannot coerce %s to int", describe(v))
	}

	if i, ok := value.AsInt(v); ok {
		return i, nil
	}

	if f, ok := value.AsFloat(v); ok {
		if f == math.Trunc(f) && !math.IsInf(f, 0) && math.Abs(f) < 1<<63 {
			return int64(f), nil
		}

		return 0, fmt.Errorf("cannot coerce %s to int", describe(v))
	}

	if s, ok := v.(string); ok {
		if i, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64); err == nil {
			return i, nil
		}
	}

	return 0, fmt.Errorf("cannot coerce %s to int", describe(v))
}

func toFloat(v any) (float64, error) {
	if _, isBool := v.(bool); isBool {
		return 0, fmt.Errorf("cannot coerce %s to float", describe(v))
	}

	if f, ok := value.AsFloat(v); ok {
		return f, nil
	}

	if s, ok := v.(string); ok {
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return f, nil
		}
	}

	return 0, fmt.Errorf("cannot coerce %s to float", describe(v))
}

// toString renders scalars in their JSON spelling and containers as stable
// JSON; null becomes "null".
func toString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case nil:
		return "null"
	case bool:
		return strconv.FormatBool(t)
	}

	if i, ok := value.AsInt(v); ok {
		return strconv.FormatInt(i, 10)
	}

	if f, ok := value.AsFloat(v); ok {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}

	if b, err := value.StableJSON(v); err == nil {
		return string(b)
	}

	return fmt.Sprint(v)
}

// toTimestamp normalizes a date or date-time to "YYYY-MM-DDTHH:MM:SS[.ffffff]Z".
// Bare dates are midnight UTC and values without an offset are taken as UTC.
func toTimestamp(v any) (string, error) {
	var t time.Time

	switch raw := v.(type) {
	case time.Time:
		t = raw
	case string:
		parsed, err := parseTimestamp(strings.TrimSpace(raw))
		if err != nil {
			return "", err
		}

		t = parsed
	default:
		return "", fmt.Errorf("cannot coerce %s to timestamp", describe(v))
	}

	t = t.UTC()

	if t.Nanosecond() != 0 {
		return t.Format("2006-01-02T15:04:05.000000Z"), nil
	}

	return t.Format("2006-01-02T15:04:05Z"), nil
}

func parseTimestamp(s string) (time.Time, error) {
	if len(s) == len(time.DateOnly) {
		if t, err := time.ParseInLocation(time.DateOnly, s, time.UTC); err == nil {
			return t, nil
		}
	}

	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("cannot coerce %q to timestamp", s)
}

func describe(v any) string {
	if s, ok := v.(string); ok {
		return strconv.Quote(s)
	}

	return value.TypeName(v) + " " + toString(v)
}
