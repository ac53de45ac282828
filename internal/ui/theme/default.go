package theme

import "github.com/charmbracelet/lipgloss"

// DefaultTheme returns the default dark theme
func DefaultTheme() Theme {
	return Theme{
		Name: "default",

		Background: lipgloss.Color("235"),
		Foreground: lipgloss.Color("252"),
		Muted:      lipgloss.Color("245"),

		Border:        lipgloss.Color("240"),
		BorderFocused: lipgloss.Color("62"),
		Selection:     lipgloss.Color("237"),

		Success: lipgloss.Color("42"),
		Warning: lipgloss.Color("220"),
		Error:   lipgloss.Color("196"),
		Info:    lipgloss.Color("75"),

		TabActive:   lipgloss.Color("75"),
		TabInactive: lipgloss.Color("237"),

		TableHeader:     lipgloss.Color("105"),
		TableHeaderBg:   lipgloss.Color("236"),
		TableSeparator:  lipgloss.Color("240"),
		TableNull:       lipgloss.Color("244"),
		TableRowOdd:     lipgloss.Color("236"),
		TableRowHovered: lipgloss.Color("25"),
	}
}
