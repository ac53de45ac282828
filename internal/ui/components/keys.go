package components

import "github.com/charmbracelet/bubbles/key"

// DataPanelKeyMap holds the data panel bindings
type DataPanelKeyMap struct {
	Toggle     key.Binding
	Results    key.Binding
	Samples    key.Binding
	NextTab    key.Binding
	Filter     key.Binding
	Copy       key.Binding
	Export     key.Binding
	ExportJSON key.Binding
	NextPage   key.Binding
	PrevPage   key.Binding
	LineUp     key.Binding
	LineDown   key.Binding
}

// DefaultDataPanelKeyMap returns the default bindings
func DefaultDataPanelKeyMap() DataPanelKeyMap {
	return DataPanelKeyMap{
		Toggle:     key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "toggle data")),
		Results:    key.NewBinding(key.WithKeys("1"), key.WithHelp("1", "results")),
		Samples:    key.NewBinding(key.WithKeys("2"), key.WithHelp("2", "samples")),
		NextTab:    key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "switch tab")),
		Filter:     key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "filter")),
		Copy:       key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy")),
		Export:     key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "export csv")),
		ExportJSON: key.NewBinding(key.WithKeys("X"), key.WithHelp("X", "export json")),
		NextPage:   key.NewBinding(key.WithKeys("n", "right", "l"), key.WithHelp("n/→", "next page")),
		PrevPage:   key.NewBinding(key.WithKeys("p", "left", "h"), key.WithHelp("p/←", "prev page")),
		LineUp:     key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		LineDown:   key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	}
}

// ShortHelp returns the bindings shown in the footer
func (k DataPanelKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.NextTab, k.Filter, k.Copy, k.Export, k.NextPage, k.PrevPage}
}

// FilterKeyMap holds the bindings active while the filter box has focus
type FilterKeyMap struct {
	Done  key.Binding
	Clear key.Binding
}

// DefaultFilterKeyMap returns the default filter box bindings
func DefaultFilterKeyMap() FilterKeyMap {
	return FilterKeyMap{
		Done:  key.NewBinding(key.WithKeys("esc", "enter"), key.WithHelp("esc/enter", "done")),
		Clear: key.NewBinding(key.WithKeys("ctrl+u"), key.WithHelp("ctrl+u", "clear filter")),
	}
}

// ShortHelp returns the bindings shown in the footer while filtering
func (k FilterKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Done, k.Clear}
}
