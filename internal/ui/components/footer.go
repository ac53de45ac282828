package components

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
	"github.com/rebeliceyang/lazychart/internal/ui/theme"
)

// Footer renders one line of key hints for the bottom bar
type Footer struct {
	help help.Model
}

// NewFooter creates a footer styled with th
func NewFooter(th theme.Theme) Footer {
	h := help.New()
	h.ShortSeparator = "  "
	h.Styles.ShortKey = lipgloss.NewStyle().Foreground(th.Foreground).Bold(true)
	h.Styles.ShortDesc = lipgloss.NewStyle().Foreground(th.Foreground)
	h.Styles.ShortSeparator = lipgloss.NewStyle().Foreground(th.Muted)
	h.Styles.Ellipsis = lipgloss.NewStyle().Foreground(th.Muted)
	return Footer{help: h}
}

// View renders bindings, truncated to width when width is positive
func (f Footer) View(bindings []key.Binding, width int) string {
	f.help.Width = width
	return f.help.ShortHelpView(bindings)
}
