package schemadsl

import (
	"regexp"
	"slices"
	"strconv"
	"strings"

	"opactx/internal/match"
	"opactx/internal/value"
)

var (
	commonKeys    = []string{"type", "description", "nullable", "default", "examples", "deprecated", "tags"}
	refKeys       = []string{"$ref", "description", "deprecated"}
	stringFormats = []string{"date-time", "email", "uri", "uuid"}
)

// compileNode is the single recursive entry point of the node compiler. It
// dispatches on $ref versus type. Field nodes (direct children of an object's
// fields) additionally accept "required".
func compileNode(raw any, path string, strict, field bool) (map[string]any, error) {
	node, ok := asMapping(raw)
	if !ok {
		return nil, nodeErrorf(path, "must be a mapping.")
	}

	if node.Has("$ref") {
		return compileRef(node, path, field)
	}

	rawType, ok := node.Get("type")
	if !ok {
		return nil, nodeErrorf(path, "must define either 'type' or '$ref'.")
	}

	name, _ := rawType.(string)

	t, ok := ParseNodeType(name)
	if !ok {
		return nil, nodeErrorf(path+".type", "is not supported: %s", literal(rawType))
	}

	allowed := slices.Clone(commonKeys)
	if field {
		allowed = append(allowed, "required")
	}

	allowed = append(allowed, t.specificKeys()...)

	if err := rejectUnknownKeys(node, allowed, path); err != nil {
		return nil, err
	}

	out := map[string]any{"type": t.String()}

	nullable, err := applyCommon(out, node, t, path)
	if err != nil {
		return nil, err
	}

	switch t {
	case TypeObject:
		err = compileObject(out, node, path, strict)
	case TypeArray:
		err = compileArray(out, node, path, strict)
	case TypeString:
		err = compileString(out, node, path, nullable)
	case TypeNumber, TypeInteger:
		err = compileNumber(out, node, t, path, nullable)
	case TypeBoolean, TypeNull:
		err = compileEnum(out, node, t, path, nullable)
	}

	if err != nil {
		return nil, err
	}

	if nullable && t != TypeNull {
		out["type"] = []any{t.String(), TypeNull.String()}
	}

	return out, nil
}

func compileRef(node *Mapping, path string, field bool) (map[string]any, error) {
	allowed := slices.Clone(refKeys)
	if field {
		allowed = append(allowed, "required")
	}

	if err := rejectUnknownKeys(node, allowed, path); err != nil {
		return nil, err
	}

	raw, _ := node.Get("$ref")

	name, err := refName(raw, path)
	if err != nil {
		return nil, err
	}

	out := map[string]any{"$ref": defsPrefix + name}

	if err := copyString(out, "description", node, "description", path); err != nil {
		return nil, err
	}

	if err := copyBool(out, "deprecated", node, "deprecated", path); err != nil {
		return nil, err
	}

	return out, nil
}

// applyCommon compiles the keywords shared by every typed node and returns
// the node's nullable flag.
func applyCommon(out map[string]any, node *Mapping, t NodeType, path string) (bool, error) {
	if err := copyString(out, "description", node, "description", path); err != nil {
		return false, err
	}

	if err := copyBool(out, "deprecated", node, "deprecated", path); err != nil {
		return false, err
	}

	if raw, ok := node.Get("tags"); ok {
		tags, ok := raw.([]any)
		if !ok || !allStrings(tags) {
			return false, nodeErrorf(path+".tags", "must be a list of strings.")
		}

		out["x-opactx-tags"] = slices.Clone(tags)
	}

	nullable := false

	if raw, ok := node.Get("nullable"); ok {
		b, ok := raw.(bool)
		if !ok {
			return false, nodeErrorf(path+".nullable", "must be a boolean.")
		}

		nullable = b
	}

	if v, ok := node.Get("default"); ok {
		if err := assertType(v, t, nullable, path+".default"); err != nil {
			return false, err
		}

		out["default"] = Plain(v)
	}

	if raw, ok := node.Get("examples"); ok {
		examples, ok := raw.([]any)
		if !ok {
			return false, nodeErrorf(path+".examples", "must be a list.")
		}

		if err := checkEach(examples, t, nullable, path+".examples"); err != nil {
			return false, err
		}

		out["examples"] = Plain(examples)
	}

	return nullable, nil
}

func compileObject(out map[string]any, node *Mapping, path string, inherited bool) error {
	allowEmpty, err := boolOption(node, "allow_empty_object", false, path+".allow_empty_object", "must be a boolean.")
	if err != nil {
		return err
	}

	strict, err := boolOption(node, "strict", inherited, path+".strict", "must be a boolean when provided.")
	if err != nil {
		return err
	}

	fields := NewMapping()

	raw, _ := node.Get("fields")
	if raw == nil {
		if !allowEmpty {
			return nodeErrorf(path+".fields", "is required unless allow_empty_object is true.")
		}
	} else {
		m, ok := asMapping(raw)
		if !ok {
			return nodeErrorf(path+".fields", "must be a mapping.")
		}

		fields = m
	}

	if fields.Len() == 0 && !allowEmpty {
		return nodeErrorf(path+".fields", "must not be empty unless allow_empty_object is true.")
	}

	properties := make(map[string]any, fields.Len())

	var required []string

	for _, name := range fields.Keys() {
		fieldPath := path + ".fields." + name

		if name == "" {
			return nodeErrorf(path+".fields", "contains an invalid field name.")
		}

		rawField, _ := fields.Get(name)

		field, ok := asMapping(rawField)
		if !ok {
			return nodeErrorf(fieldPath, "must be a mapping.")
		}

		isRequired, err := boolOption(field, "required", false, fieldPath+".required", "must be a boolean.")
		if err != nil {
			return err
		}

		compiled, err := compileNode(field, fieldPath, strict, true)
		if err != nil {
			return err
		}

		properties[name] = compiled

		if isRequired {
			required = append(required, name)
		}
	}

	out["properties"] = properties
	if len(required) > 0 {
		out["required"] = required
	}

	out["additionalProperties"] = !strict

	return nil
}

func compileArray(out map[string]any, node *Mapping, path string, strict bool) error {
	items, ok := node.Get("items")
	if !ok || items == nil {
		return nodeErrorf(path+".items", "is required for arrays.")
	}

	if _, ok := asMapping(items); !ok {
		return nodeErrorf(path+".items", "must be a mapping.")
	}

	compiled, err := compileNode(items, path+".items", strict, false)
	if err != nil {
		return err
	}

	out["items"] = compiled

	if err := compileBounds(out, node, path, "min_items", "max_items", "minItems", "maxItems"); err != nil {
		return err
	}

	if raw, ok := node.Get("unique_by"); ok && raw != nil {
		s, ok := raw.(string)
		if !ok || strings.TrimSpace(s) == "" {
			return nodeErrorf(path+".unique_by", "must be a non-empty string.")
		}

		out["x-opactx-uniqueBy"] = strings.TrimSpace(s)
	}

	return nil
}

func compileString(out map[string]any, node *Mapping, path string, nullable bool) error {
	if err := compileBounds(out, node, path, "min_len", "max_len", "minLength", "maxLength"); err != nil {
		return err
	}

	if raw, ok := node.Get("pattern"); ok {
		pattern, ok := raw.(string)
		if !ok {
			return nodeErrorf(path+".pattern", "must be a string.")
		}

		if _, err := regexp.Compile(pattern); err != nil {
			return nodeErrorf(path+".pattern", "is not a valid regular expression: %v", err)
		}

		out["pattern"] = pattern
	}

	if raw, ok := node.Get("format"); ok {
		format, _ := raw.(string)
		if !slices.Contains(stringFormats, format) {
			return nodeErrorf(path+".format", "must be one of: %s.", strings.Join(stringFormats, ", "))
		}

		out["format"] = format
	}

	return compileEnum(out, node, TypeString, path, nullable)
}

func compileNumber(out map[string]any, node *Mapping, t NodeType, path string, nullable bool) error {
	minimum, hasMin := node.Get("min")
	if hasMin {
		if !value.IsNumber(minimum) {
			return nodeErrorf(path+".min", "must be numeric.")
		}

		out["minimum"] = minimum
	}

	maximum, hasMax := node.Get("max")
	if hasMax {
		if !value.IsNumber(maximum) {
			return nodeErrorf(path+".max", "must be numeric.")
		}

		out["maximum"] = maximum
	}

	if hasMin && hasMax {
		lo, _ := value.AsFloat(minimum)
		hi, _ := value.AsFloat(maximum)

		if lo > hi {
			return nodeErrorf(path+".min", "must be less than or equal to max.")
		}
	}

	return compileEnum(out, node, t, path, nullable)
}

// compileEnum type-checks and copies an optional enum list.
func compileEnum(out map[string]any, node *Mapping, t NodeType, path string, nullable bool) error {
	raw, ok := node.Get("enum")
	if !ok {
		return nil
	}

	values, ok := raw.([]any)
	if !ok {
		return nodeErrorf(path+".enum", "must be a list.")
	}

	if err := checkEach(values, t, nullable, path+".enum"); err != nil {
		return err
	}

	out["enum"] = Plain(values)

	return nil
}

// compileBounds handles a min/max pair of non-negative integer keywords.
func compileBounds(out map[string]any, node *Mapping, path, minKey, maxKey, minOut, maxOut string) error {
	lo, hasMin, err := nonNegativeInt(node, minKey, path)
	if err != nil {
		return err
	}

	hi, hasMax, err := nonNegativeInt(node, maxKey, path)
	if err != nil {
		return err
	}

	if hasMin {
		out[minOut] = lo
	}

	if hasMax {
		out[maxOut] = hi
	}

	if hasMin && hasMax && lo > hi {
		return nodeErrorf(path+"."+minKey, "must be less than or equal to %s.", maxKey)
	}

	return nil
}

func checkEach(values []any, t NodeType, nullable bool, path string) error {
	for i, v := range values {
		if err := assertType(v, t, nullable, path+"["+strconv.Itoa(i)+"]"); err != nil {
			return err
		}
	}

	return nil
}

func rejectUnknownKeys(node *Mapping, allowed []string, path string) error {
	var unknown []string

	for _, k := range node.Keys() {
		if !slices.Contains(allowed, k) {
			unknown = append(unknown, k)
		}
	}

	if len(unknown) == 0 {
		return nil
	}

	slices.Sort(unknown)

	hint := ""
	if len(unknown) == 1 {
		hint = match.Hint(unknown[0], allowed)
	}

	return nodeErrorf(path, "has unknown keys: %s%s", strings.Join(unknown, ", "), hint)
}

func requireKeys(node *Mapping, required []string, path string) error {
	var missing []string

	for _, k := range required {
		if !node.Has(k) {
			missing = append(missing, k)
		}
	}

	if len(missing) == 0 {
		return nil
	}

	slices.Sort(missing)

	return nodeErrorf(path, "is missing required keys: %s", strings.Join(missing, ", "))
}

func requireNonEmptyString(node *Mapping, key, path string) (string, error) {
	raw, _ := node.Get(key)

	s, ok := raw.(string)
	if !ok || strings.TrimSpace(s) == "" {
		return "", nodeErrorf(path+"."+key, "must be a non-empty string.")
	}

	return strings.TrimSpace(s), nil
}

func boolOption(node *Mapping, key string, def bool, path, msg string) (bool, error) {
	raw, ok := node.Get(key)
	if !ok {
		return def, nil
	}

	b, ok := raw.(bool)
	if !ok {
		return false, nodeErrorf(path, "%s", msg)
	}

	return b, nil
}

func copyString(out map[string]any, outKey string, node *Mapping, key, path string) error {
	raw, ok := node.Get(key)
	if !ok {
		return nil
	}

	s, ok := raw.(string)
	if !ok {
		return nodeErrorf(path+"."+key, "must be a string.")
	}

	out[outKey] = s

	return nil
}

func copyBool(out map[string]any, outKey string, node *Mapping, key, path string) error {
	raw, ok := node.Get(key)
	if !ok {
		return nil
	}

	b, ok := raw.(bool)
	if !ok {
		return nodeErrorf(path+"."+key, "must be a boolean.")
	}

	out[outKey] = b

	return nil
}

func allStrings(vs []any) bool {
	for _, v := range vs {
		if _, ok := v.(string); !ok {
			return false
		}
	}

	return true
}
