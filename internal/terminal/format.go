package terminal

import (
	"fmt"
	"strings"
	"time"
)

// MaxReportWidth caps report rendering on very wide terminals.
const MaxReportWidth = 90

// ReportWidth returns the terminal width clamped to MaxReportWidth.
func ReportWidth() int {
	if w := GetTerminalWidth(); w < MaxReportWidth {
		return w
	}
	return MaxReportWidth
}

// FormatDuration renders a duration as "4.2s" or "1m 5.0s".
func FormatDuration(d time.Duration) string {
	secs := d.Seconds()
	if secs < 60 {
		return fmt.Sprintf("%.1fs", secs)
	}
	mins := int(secs / 60)
	return fmt.Sprintf("%dm %.1fs", mins, secs-float64(mins*60))
}

// Ruler returns a dim horizontal rule of the given width.
func Ruler(width int, char string) string {
	return Color(Dim) + strings.Repeat(char, width) + Color(Reset)
}

// WrapText greedily wraps text to width, prefixing every line with
// indent. A word longer than the width gets a line to itself rather
// than being split.
func WrapText(text string, width int, indent string) string {
	if width <= len(indent) {
		return indent + text
	}

	words := strings.Fields(text)
	if len(words) == 0 {
		return ""
	}

	var b strings.Builder
	lineLen := 0
	for i, word := range words {
		switch {
		case i == 0:
			b.WriteString(indent)
			b.WriteString(word)
			lineLen = len(indent) + len(word)
		case lineLen+1+len(word) > width:
			b.WriteString("\n")
			b.WriteString(indent)
			b.WriteString(word)
			lineLen = len(indent) + len(word)
		default:
			b.WriteString(" ")
			b.WriteString(word)
			lineLen += 1 + len(word)
		}
	}
	return b.String()
}
