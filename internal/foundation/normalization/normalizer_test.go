package normalization

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type shade string

const (
	shadeLight shade = "light"
	shadeDark  shade = "dark"
)

func TestNormalizer(t *testing.T) {
	n := NewNormalizer(map[string]shade{
		"light": shadeLight,
		"dark":  shadeDark,
		"DIM":   shadeDark,
	})

	tests := []struct {
		input string
		want  shade
		ok    bool
	}{
		{"light", shadeLight, true},
		{"  LIGHT ", shadeLight, true},
		{"dim", shadeDark, true},
		{"neon", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := n.Normalize(tt.input)
		assert.Equal(t, tt.ok, ok, tt.input)
		assert.Equal(t, tt.want, got, tt.input)
	}
	assert.Equal(t, []string{"dark", "dim", "light"}, n.ValidKeys())
}
