package tui

import (
	"github.com/charmbracelet/glamour"
)

// NewRenderer returns a function that renders markdown prompts and drafts
// using glamour. Rendering failures fall back to the raw markdown so a
// broken terminal never hides a prompt.
func NewRenderer() func(string) string {
	r, _ := glamour.NewTermRenderer(
		glamour.WithAutoStyle(), // Automatically detect light/dark background
	)

	return func(markdown string) string {
		if r == nil {
			return markdown
		}
		out, err := r.Render(markdown)
		if err != nil {
			return markdown
		}
		return out
	}
}
