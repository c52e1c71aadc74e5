package tui

import (
	"github.com/charmbracelet/glamour"
)

// NewRenderer returns a function that renders dialog lines as Markdown using glamour,
// so scripts may use *emphasis* and `code` in their text.
func NewRenderer() func(string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(0),
	)
	if err != nil {
		return func(s string) (string, error) { return s, nil }
	}

	return func(markdown string) (string, error) {
		return r.Render(markdown)
	}
}
