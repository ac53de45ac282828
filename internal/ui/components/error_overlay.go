package components

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/rebeliceyang/lazychart/internal/ui/theme"
)

// ErrorOverlay is a centered box for errors that are not tied to a tab
type ErrorOverlay struct {
	Title   string
	Message string
	Width   int
	Theme   theme.Theme
}

// NewErrorOverlay creates an empty overlay
func NewErrorOverlay(th theme.Theme) *ErrorOverlay {
	return &ErrorOverlay{Theme: th, Width: 60}
}

// View renders the overlay
func (e *ErrorOverlay) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(e.Theme.Error)

	hintStyle := lipgloss.NewStyle().
		Foreground(e.Theme.Muted).
		Italic(true)

	content := titleStyle.Render(e.Title) + "\n\n" +
		lipgloss.NewStyle().Width(e.Width-4).Render(e.Message) + "\n\n" +
		hintStyle.Render("Esc/Enter: dismiss")

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(e.Theme.Error).
		Padding(1, 2).
		Width(e.Width).
		Render(content)
}
