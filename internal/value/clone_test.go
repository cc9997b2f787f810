package value

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClone_DoesNotAlias(t *testing.T) {
	src := map[string]any{
		"limits": map[string]any{"cpu": 2},
		"tags":   []any{"a", map[string]any{"k": "v"}},
	}

	out := CloneMap(src)
	out["limits"].(map[string]any)["cpu"] = 8
	out["tags"].([]any)[1].(map[string]any)["k"] = "changed"

	assert.Equal(t, 2, src["limits"].(map[string]any)["cpu"])
	assert.Equal(t, "v", src["tags"].([]any)[1].(map[string]any)["k"])
}

func TestClone_StringifiesYAMLKeys(t *testing.T) {
	in := map[any]any{1: "one", true: []any{map[any]any{"x": 2}}}

	assert.Equal(t, map[string]any{
		"1":    "one",
		"true": []any{map[string]any{"x": 2}},
	}, Clone(in))
}

func TestCloneMap_Nil(t *testing.T) {
	out := CloneMap(nil)
	assert.NotNil(t, out)
	assert.Empty(t, out)
}
