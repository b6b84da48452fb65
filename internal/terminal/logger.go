package terminal

import (
	"fmt"
	"os"
	"strings"
)

// Style selects the tag color and symbol of a log line.
type Style string

const (
	StyleInfo    Style = "info"
	StyleSuccess Style = "success"
	StyleWarning Style = "warning"
	StyleError   Style = "error"
	StyleDim     Style = "dim"
	StylePhase   Style = "phase"
)

// styleGlyph maps a style to its tag color and line symbol.
func styleGlyph(style Style) (color, symbol string) {
	switch style {
	case StyleSuccess:
		return Green, "✓"
	case StyleWarning:
		return Yellow, "⚠"
	case StyleError:
		return Red, "✗"
	case StyleDim:
		return Dim, "·"
	case StylePhase:
		return Magenta + Bold, "▸"
	default:
		return Cyan, "ℹ"
	}
}

// prefix renders the "[microreview]" tag with the tool name in the
// given color. Spinners and the logger share it so every stderr line
// carries the same marker.
func prefix(color string) string {
	return fmt.Sprintf("%s[%s%smicroreview%s%s]%s",
		Color(Dim), Color(Reset), Color(color), Color(Reset), Color(Dim), Color(Reset))
}

// Logger writes tagged, styled log lines to stderr.
type Logger struct {
	isTTY bool
}

// NewLogger creates a logger that clears spinner leftovers when stderr
// is a terminal.
func NewLogger() *Logger {
	return &Logger{isTTY: IsStderrTTY()}
}

// Log prints a styled line to stderr.
func (l *Logger) Log(msg string, style Style) {
	color, symbol := styleGlyph(style)

	// A spinner may own the current line; wipe it before printing.
	if l.isTTY {
		fmt.Fprint(os.Stderr, "\r"+strings.Repeat(" ", 100)+"\r")
	}

	fmt.Fprintf(os.Stderr, "%s %s %s\n", prefix(color), symbol, msg)
}

// Logf prints a formatted styled line to stderr.
func (l *Logger) Logf(style Style, format string, args ...any) {
	l.Log(fmt.Sprintf(format, args...), style)
}

// Log prints a styled line to stderr without constructing a Logger.
func Log(msg string, style Style) {
	NewLogger().Log(msg, style)
}

// Logf prints a formatted styled line to stderr without constructing a Logger.
func Logf(style Style, format string, args ...any) {
	Log(fmt.Sprintf(format, args...), style)
}
