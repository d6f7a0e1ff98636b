// Package terminal provides styled stderr output and TTY detection for the
// management CLI.
package terminal

import (
	"os"

	"github.com/fatih/color"
	"golang.org/x/term"
)

// DisableColors turns off color output globally.
func DisableColors() {
	color.NoColor = true
}

// WithColorsDisabled runs fn with colors disabled, then restores the previous state.
func WithColorsDisabled(fn func()) {
	prev := color.NoColor
	color.NoColor = true
	defer func() { color.NoColor = prev }()
	fn()
}

// Bold renders s in bold when colors are enabled.
func Bold(s string) string {
	return color.New(color.Bold).Sprint(s)
}

// Faint renders s dimmed when colors are enabled.
func Faint(s string) string {
	return color.New(color.Faint).Sprint(s)
}

// IsTTY returns true if the given file descriptor is a TTY.
func IsTTY(fd int) bool {
	return term.IsTerminal(fd)
}

// IsStderrTTY returns true if stderr is a TTY.
func IsStderrTTY() bool {
	return IsTTY(int(os.Stderr.Fd()))
}
