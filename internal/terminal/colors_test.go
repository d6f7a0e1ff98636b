package terminal

import (
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
)

// withColors forces color output for the rest of the test.
func withColors(t *testing.T) {
	t.Helper()
	prev := color.NoColor
	color.NoColor = false
	t.Cleanup(func() { color.NoColor = prev })
}

func TestWithColorsDisabledRestoresState(t *testing.T) {
	withColors(t)

	WithColorsDisabled(func() {
		assert.True(t, color.NoColor)
		assert.Equal(t, "plain", Bold("plain"))
		assert.Equal(t, "plain", Faint("plain"))
	})
	assert.False(t, color.NoColor)
}

func TestStylesWithColors(t *testing.T) {
	withColors(t)

	tests := []struct {
		name  string
		style func(string) string
		code  string
	}{
		{"bold", Bold, "\x1b[1m"},
		{"faint", Faint, "\x1b[2m"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Contains(t, tt.style("x"), tt.code)
		})
	}
}

func TestIsTTYInvalidFD(t *testing.T) {
	assert.False(t, IsTTY(-1))
}
