package terminal

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
)

// Style represents a log message style.
type Style string

const (
	StyleInfo    Style = "info"
	StyleSuccess Style = "success"
	StyleWarning Style = "warning"
	StyleError   Style = "error"
	StyleDim     Style = "dim"
)

var styleColors = map[Style]*color.Color{
	StyleInfo:    color.New(color.FgCyan),
	StyleSuccess: color.New(color.FgGreen),
	StyleWarning: color.New(color.FgYellow),
	StyleError:   color.New(color.FgRed),
	StyleDim:     color.New(color.Faint),
}

var styleSymbols = map[Style]string{
	StyleInfo:    "i",
	StyleSuccess: "✓",
	StyleWarning: "!",
	StyleError:   "✗",
	StyleDim:     "·",
}

// Logger provides styled logging.
type Logger struct {
	out io.Writer
}

// NewLogger creates a logger writing to stderr.
func NewLogger() *Logger {
	return &Logger{out: os.Stderr}
}

// NewLoggerTo creates a logger writing to w.
func NewLoggerTo(w io.Writer) *Logger {
	return &Logger{out: w}
}

// Log prints a styled log message.
func (l *Logger) Log(msg string, style Style) {
	c, ok := styleColors[style]
	if !ok {
		c = styleColors[StyleInfo]
	}
	symbol := styleSymbols[style]
	if symbol == "" {
		symbol = styleSymbols[StyleInfo]
	}
	tag := Faint("[interpeer]")
	fmt.Fprintf(l.out, "%s %s %s\n", tag, c.Sprint(symbol), msg)
}

// Logf prints a formatted styled log message.
func (l *Logger) Logf(style Style, format string, args ...any) {
	l.Log(fmt.Sprintf(format, args...), style)
}
