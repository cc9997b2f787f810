package value

import (
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalKey(t *testing.T) {
	assert.Equal(t, CanonicalKey(1), CanonicalKey(1.0))
	assert.Equal(t, CanonicalKey(int64(3)), CanonicalKey(json.Number("3")))
	assert.NotEqual(t, CanonicalKey(true), CanonicalKey(1))
	assert.NotEqual(t, CanonicalKey("1"), CanonicalKey(1))
	assert.NotEqual(t, CanonicalKey(nil), CanonicalKey(""))
	assert.Equal(t,
		CanonicalKey(map[string]any{"a": 1, "b": []any{"x"}}),
		CanonicalKey(map[string]any{"b": []any{"x"}, "a": 1}),
	)
}

func TestSortTokenOrdersAcrossTypes(t *testing.T) {
	ordered := []any{nil, false, true, -1, 2.5, 3, "a", "b", []any{1}}

	for i := 1; i < len(ordered); i++ {
		prev := NewSortToken(ordered[i-1])
		cur := NewSortToken(ordered[i])
		assert.Negative(t, prev.Compare(cur), "%v should sort before %v", ordered[i-1], ordered[i])
	}
}

func TestStableJSON(t *testing.T) {
	b, err := StableJSON(map[string]any{"b": 1, "a": "<x>"})
	require.NoError(t, err)
	assert.Equal(t, `{"a":"<x>","b":1}`, string(b))

	b, err = StableJSONIndent(map[string]any{"a": []any{1}})
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"a\": [\n    1\n  ]\n}\n", string(b))
}

func TestNormalize(t *testing.T) {
	got, err := Normalize(map[string]any{"n": 3, "s": []string{"x"}})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"n": json.Number("3"), "s": []any{"x"}}, got)
}
