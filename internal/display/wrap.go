package display

import (
	"github.com/muesli/reflow/truncate"
	"github.com/muesli/reflow/wordwrap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const DefaultWidth = 80

// Wrap word-wraps text to width, preserving ANSI escape sequences. A width
// below 1 means DefaultWidth.
func Wrap(text string, width int) string {
	if width < 1 {
		width = DefaultWidth
	}
	return wordwrap.String(text, width)
}

// Clip cuts a single line to width, marking the cut with "~".
func Clip(line string, width int) string {
	return truncate.StringWithTail(line, uint(width), "~")
}

var title = cases.Title(language.English)

// Title returns s with each word capitalised.
func Title(s string) string {
	return title.String(s)
}
