package components

import (
	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"
)

// Panel is a bordered accordion item: a header line that is always shown and
// content that is only rendered while expanded
type Panel struct {
	Title    string
	Content  string
	Expanded bool
	Width    int
	Height   int
	Style    lipgloss.Style

	// Zones marks the header as clickable under ZoneID; nil disables marking
	Zones  *zone.Manager
	ZoneID string
}

// Header renders the collapse indicator and title
func (p *Panel) Header() string {
	indicator := "▸"
	if p.Expanded {
		indicator = "▾"
	}
	header := lipgloss.NewStyle().Bold(true).Padding(0, 1).Render(indicator + " " + p.Title)
	if p.Zones != nil && p.ZoneID != "" {
		return p.Zones.Mark(p.ZoneID, header)
	}
	return header
}

// View renders the panel
func (p *Panel) View() string {
	if p.Width <= 0 {
		return ""
	}

	style := p.Style.
		Width(p.Width).
		Border(lipgloss.RoundedBorder())

	if !p.Expanded {
		return style.Render(p.Header())
	}
	if p.Height > 0 {
		style = style.Height(p.Height)
	}
	return style.Render(p.Header() + "\n" + p.Content)
}
