package components

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rebeliceyang/lazychart/internal/ui/theme"
)

// FilterChangedMsg is sent whenever the filter text changes
type FilterChangedMsg struct {
	Text string
}

// CloseFilterMsg is sent when the filter box loses focus
type CloseFilterMsg struct{}

// FilterInput is the row filter text box shared by both tabs
type FilterInput struct {
	Input textinput.Model
	Theme theme.Theme
	Width int
	Keys  FilterKeyMap
}

// NewFilterInput creates a new filter input
func NewFilterInput(th theme.Theme) *FilterInput {
	ti := textinput.New()
	ti.Placeholder = "Search"
	ti.Prompt = "/ "
	ti.CharLimit = 256
	ti.Width = 24

	return &FilterInput{
		Input: ti,
		Theme: th,
		Keys:  DefaultFilterKeyMap(),
	}
}

// Focus starts capturing keys
func (f *FilterInput) Focus() tea.Cmd {
	return f.Input.Focus()
}

// Blur stops capturing keys but keeps the text
func (f *FilterInput) Blur() {
	f.Input.Blur()
}

// Focused reports whether keys go to the filter box
func (f *FilterInput) Focused() bool {
	return f.Input.Focused()
}

// Value returns the filter text
func (f *FilterInput) Value() string {
	return f.Input.Value()
}

// Update handles messages while focused
func (f *FilterInput) Update(msg tea.Msg) (*FilterInput, tea.Cmd) {
	before := f.Input.Value()

	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, f.Keys.Done):
			f.Blur()
			return f, func() tea.Msg { return CloseFilterMsg{} }
		case key.Matches(msg, f.Keys.Clear):
			f.Input.SetValue("")
			return f, f.changed(before)
		}
	}

	var cmd tea.Cmd
	f.Input, cmd = f.Input.Update(msg)
	return f, tea.Batch(cmd, f.changed(before))
}

func (f *FilterInput) changed(before string) tea.Cmd {
	text := f.Input.Value()
	if text == before {
		return nil
	}
	return func() tea.Msg { return FilterChangedMsg{Text: text} }
}

// View renders the filter box
func (f *FilterInput) View() string {
	if f.Width > 0 {
		f.Input.Width = f.Width
	}
	color := f.Theme.Border
	if f.Focused() {
		color = f.Theme.BorderFocused
	}
	return lipgloss.NewStyle().Foreground(color).Render(f.Input.View())
}
