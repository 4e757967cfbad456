package ui

import (
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/fatih/color"
)

// Formatter applies semantic formatting to text.
type Formatter struct {
	color  *color.Color
	prefix string
	suffix string
}

// Sprint formats the arguments and returns the resulting string.
func (f Formatter) Sprint(a ...any) string {
	return f.render(fmt.Sprint(a...))
}

// Sprintf formats according to a format specifier and returns the resulting string.
func (f Formatter) Sprintf(format string, a ...any) string {
	return f.render(fmt.Sprintf(format, a...))
}

func (f Formatter) render(text string) string {
	if noColor() {
		return f.prefix + text + f.suffix
	}
	return f.color.Sprint(text)
}

// EnsureNewline ensures the string ends with a newline character.
func EnsureNewline(s string) string {
	if len(s) == 0 || s[len(s)-1] != '\n' {
		return s + "\n"
	}
	return s
}

// noColor returns true if color output should be disabled.
func noColor() bool {
	// https://no-color.org/
	if _, exists := os.LookupEnv("NO_COLOR"); exists {
		return true
	}
	return color.NoColor
}

// Semantic formatters for CLI output.
var (
	// Code formats runnable commands. Yellow, or `backticks` without color.
	Code = Formatter{color.New(color.FgYellow), "`", "`"}

	// Path formats file paths.
	Path = Formatter{color.New(color.FgYellow), "", ""}

	// Flag formats CLI flags like --clear.
	Flag = Formatter{color.New(color.FgYellow), "", ""}

	Success = Formatter{color.New(color.FgGreen), "", ""}
	Error   = Formatter{color.New(color.FgRed), "", ""}
	Warning = Formatter{color.New(color.FgYellow), "", ""}
	Info    = Formatter{color.New(color.FgCyan), "", ""}

	// Highlight formats user values such as user IDs. Cyan, or 'quotes' without color.
	Highlight = Formatter{color.New(color.FgCyan), "'", "'"}

	// Key formats public keys and ciphertext. Magenta, or <angle brackets> without color.
	Key = Formatter{color.New(color.FgMagenta), "<", ">"}

	// Muted formats secondary text. Gray, or (parentheses) without color.
	Muted = Formatter{color.New(color.FgHiBlack), "(", ")"}
)

// ShortKey abbreviates a Base64 key for display, keeping its first eight and
// last four characters.
func ShortKey(b64 string) string {
	if utf8.RuneCountInString(b64) <= 16 {
		return b64
	}
	return b64[:8] + "…" + b64[len(b64)-4:]
}

// Fields renders label/value pairs with the values aligned.
func Fields(pairs ...[2]string) string {
	width := 0
	for _, p := range pairs {
		if n := utf8.RuneCountInString(p[0]); n > width {
			width = n
		}
	}

	var b strings.Builder
	for _, p := range pairs {
		pad := width - utf8.RuneCountInString(p[0])
		b.WriteString("  ")
		b.WriteString(p[0])
		b.WriteString(":")
		b.WriteString(strings.Repeat(" ", pad+1))
		b.WriteString(p[1])
		b.WriteString("\n")
	}
	return b.String()
}
