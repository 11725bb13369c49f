// Package render turns chat replies into terminal output.
package render

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

// Markdown renders text for a terminal of the given width. A non-positive
// width disables wrapping. The text is returned unchanged if rendering fails.
func Markdown(text string, width int) string {
	if width < 0 {
		width = 0
	}
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return text
	}
	out, err := renderer.Render(text)
	if err != nil {
		return text
	}
	return strings.TrimRight(out, "\n") + "\n"
}
