package theme

import "github.com/charmbracelet/lipgloss"

// Theme defines the color scheme and styling
type Theme struct {
	Name string

	Background lipgloss.Color
	Foreground lipgloss.Color
	Muted      lipgloss.Color

	// UI elements
	Border        lipgloss.Color
	BorderFocused lipgloss.Color
	Selection     lipgloss.Color

	// Status colors
	Success lipgloss.Color
	Warning lipgloss.Color
	Error   lipgloss.Color
	Info    lipgloss.Color

	// Tab strip
	TabActive   lipgloss.Color
	TabInactive lipgloss.Color

	// Table colors
	TableHeader     lipgloss.Color
	TableHeaderBg   lipgloss.Color
	TableSeparator  lipgloss.Color
	TableNull       lipgloss.Color
	TableRowOdd     lipgloss.Color
	TableRowHovered lipgloss.Color
}

// Names lists the selectable themes
var Names = []string{"default", "catppuccin-mocha"}

// GetTheme returns a theme by name, falling back to the default theme
func GetTheme(name string) Theme {
	switch name {
	case "catppuccin", "catppuccin-mocha":
		return CatppuccinMochaTheme()
	default:
		return DefaultTheme()
	}
}
