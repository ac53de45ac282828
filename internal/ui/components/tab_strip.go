package components

import (
	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"
	"github.com/rebeliceyang/lazychart/internal/models"
	"github.com/rebeliceyang/lazychart/internal/ui/theme"
)

// TabLabel returns the strip label of a result kind
func TabLabel(kind models.ResultKind) string {
	switch kind {
	case models.KindSamples:
		return "View samples"
	default:
		return "View results"
	}
}

// TabZoneID is the mouse zone of a kind's tab
func TabZoneID(kind models.ResultKind) string {
	return "data-tab-" + kind.String()
}

// TabStrip renders the results/samples tabs with the active tab's controls
// on the right
type TabStrip struct {
	Theme theme.Theme
	Zones *zone.Manager
}

// View renders the strip for width cells
func (ts TabStrip) View(active models.ResultKind, controls string, width int) string {
	tabs := make([]string, 0, len(models.ResultKinds))
	for i, kind := range models.ResultKinds {
		label := "[" + string(rune('1'+i)) + "] " + TabLabel(kind)

		var style lipgloss.Style
		if kind == active {
			style = lipgloss.NewStyle().
				Foreground(ts.Theme.Background).
				Background(ts.Theme.TabActive).
				Bold(true).
				Padding(0, 1)
		} else {
			style = lipgloss.NewStyle().
				Foreground(ts.Theme.Foreground).
				Background(ts.Theme.TabInactive).
				Padding(0, 1)
		}
		tab := style.Render(label)
		if ts.Zones != nil {
			tab = ts.Zones.Mark(TabZoneID(kind), tab)
		}
		tabs = append(tabs, tab)
	}
	left := lipgloss.JoinHorizontal(lipgloss.Top, tabs...)

	gap := width - lipgloss.Width(left) - lipgloss.Width(controls)
	if gap < 1 {
		return left + " " + controls
	}
	return left + lipgloss.NewStyle().Width(gap).Render("") + controls
}
