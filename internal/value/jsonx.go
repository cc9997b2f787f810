package value

import (
	"bytes"
	"fmt"

	"github.com/goccy/go-json"
)

// StableJSON serializes v compactly with sorted mapping keys and without HTML
// escaping. Equal trees always produce identical bytes.
func StableJSON(v any) ([]byte, error) {
	b, err := json.MarshalWithOption(v, json.DisableHTMLEscape())
	if err != nil {
		return nil, fmt.Errorf("encoding stable json: %w", err)
	}

	return b, nil
}

// StableJSONIndent serializes v with sorted keys, two-space indentation and a
// trailing newline.
func StableJSONIndent(v any) ([]byte, error) {
	b, err := json.MarshalIndentWithOption(v, "", "  ", json.DisableHTMLEscape())
	if err != nil {
		return nil, fmt.Errorf("encoding stable json: %w", err)
	}

	return append(b, '\n'), nil
}

// Normalize round-trips v through JSON so that the result contains only
// map[string]any, []any, string, bool, nil and json.Number values.
func Normalize(v any) (any, error) {
	b, err := StableJSON(v)
	if err != nil {
		return nil, err
	}

	return DecodeJSON(b)
}

// DecodeJSON decodes a single JSON document, keeping numbers as json.Number.
func DecodeJSON(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("decoding json: %w", err)
	}

	return out, nil
}
