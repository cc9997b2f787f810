package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"minItems", "minitems"},
		{"min_items", "minitems"},
		{"MIN-ITEMS", "minitems"},
		{"x.opactx.id", "xopactxid"},
		{"allow empty object", "allowemptyobject"},

		// Edge cases
		{"", ""},
		{"a", "a"},
		{"A", "a"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, Normalize(tt.input))
		})
	}
}
