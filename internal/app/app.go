package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"
	"github.com/rebeliceyang/lazychart/internal/chartdata"
	"github.com/rebeliceyang/lazychart/internal/config"
	"github.com/rebeliceyang/lazychart/internal/datapanel"
	"github.com/rebeliceyang/lazychart/internal/models"
	"github.com/rebeliceyang/lazychart/internal/querydef"
	"github.com/rebeliceyang/lazychart/internal/ui/components"
	"github.com/rebeliceyang/lazychart/internal/ui/help"
	"github.com/rebeliceyang/lazychart/internal/ui/theme"
	"github.com/rs/zerolog"
)

// App is the main application model
type App struct {
	state     models.AppState
	config    *config.Config
	theme     theme.Theme
	logger    zerolog.Logger
	fetcher   chartdata.Fetcher
	reloads   <-chan querydef.Reload
	zones     *zone.Manager
	keys      keyMap
	footer    components.Footer
	chartPane components.Panel
	dataPanel *components.DataPanel

	// chartGen identifies the newest upstream chart query
	chartGen uint64

	// Error overlay
	showError    bool
	errorOverlay *components.ErrorOverlay
}

// Options wires the App to its collaborators
type Options struct {
	Config    *config.Config
	QueryFile string
	Fetcher   chartdata.Fetcher
	Store     datapanel.Store
	History   components.HistoryRecorder
	// Reloads delivers query file changes; nil disables watching
	Reloads <-chan querydef.Reload
	// OnCollapseChange is told which panel is open ("data" or "")
	OnCollapseChange func(openPanelName string)
	ExportDir        string
	Logger           zerolog.Logger
	// Zones enables mouse support; nil keeps the app keyboard only
	Zones *zone.Manager
}

// ChartQueryCompletedMsg is sent when the upstream chart query finishes
type ChartQueryCompletedMsg struct {
	Generation uint64
	Queries    []models.QueryResult
	Err        error
}

// QueryFileReloadedMsg is sent when the watched query file changes
type QueryFileReloadedMsg struct {
	FormData models.FormData
	Err      error
}

// ErrorMsg is sent when an error occurs
type ErrorMsg struct {
	Title   string
	Message string
}

// New creates a new App for formData
func New(formData models.FormData, opts Options) *App {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.GetDefaults()
	}
	th := theme.GetTheme(cfg.UI.Theme)

	state := models.NewAppState()
	state.QueryFile = opts.QueryFile
	state.FormData = formData

	app := &App{
		state:   state,
		config:  cfg,
		theme:   th,
		logger:  opts.Logger,
		fetcher: opts.Fetcher,
		reloads: opts.Reloads,
		zones:   opts.Zones,
		chartPane: components.Panel{
			Title:    "Chart",
			Expanded: true,
			Style:    lipgloss.NewStyle().BorderForeground(th.BorderFocused),
		},
		dataPanel: components.NewDataPanel(formData, components.DataPanelOptions{
			Fetcher:          opts.Fetcher,
			Store:            opts.Store,
			History:          opts.History,
			OnCollapseChange: opts.OnCollapseChange,
			DiscardStale:     cfg.Data.DiscardStaleResponses,
			PageSize:         cfg.Data.PageSize,
			MaxCellWidth:     cfg.Data.MaxCellDisplayLength,
			Height:           cfg.UI.PanelHeight,
			ExportDir:        opts.ExportDir,
			Theme:            th,
			Logger:           opts.Logger,
			Zones:            opts.Zones,
		}),
		errorOverlay: components.NewErrorOverlay(th),
		keys:         defaultKeyMap(),
		footer:       components.NewFooter(th),
	}
	app.updatePanelDimensions()
	return app
}

// Init implements tea.Model
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		a.dataPanel.Init(),
		a.runChartQuery(),
		a.waitForReload(),
	)
}

// runChartQuery starts the upstream "full" query for the current definition
func (a *App) runChartQuery() tea.Cmd {
	a.chartGen++
	gen := a.chartGen
	a.state.ChartStatus = models.ChartStatusLoading
	a.state.ChartError = ""

	cmds := []tea.Cmd{
		a.dataPanel.SetUpstreamError(""),
		a.dataPanel.SetChartStatus(models.ChartStatusLoading),
	}

	fetcher := a.fetcher
	req := chartdata.Request{
		FormData:     a.state.FormData,
		ResultFormat: chartdata.ResultFormatJSON,
		ResultType:   chartdata.ResultTypeFull,
	}
	cmds = append(cmds, func() tea.Msg {
		if fetcher == nil {
			return ChartQueryCompletedMsg{Generation: gen, Err: fmt.Errorf("no chart data backend configured")}
		}
		res, err := fetcher.Fetch(context.Background(), req)
		if err != nil {
			return ChartQueryCompletedMsg{Generation: gen, Err: err}
		}
		return ChartQueryCompletedMsg{Generation: gen, Queries: res.Queries}
	})
	return tea.Batch(cmds...)
}

func (a *App) waitForReload() tea.Cmd {
	reloads := a.reloads
	if reloads == nil {
		return nil
	}
	return func() tea.Msg {
		r, ok := <-reloads
		if !ok {
			return nil
		}
		return QueryFileReloadedMsg{FormData: r.FormData, Err: r.Err}
	}
}

// Update implements tea.Model
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case ErrorMsg:
		a.ShowError(msg.Title, msg.Message)
		return a, nil

	case ChartQueryCompletedMsg:
		return a, a.handleChartQuery(msg)

	case QueryFileReloadedMsg:
		return a, a.handleReload(msg)

	case tea.KeyMsg:
		return a.handleKey(msg)

	case tea.MouseMsg:
		if a.showError || a.state.ViewMode == models.HelpMode {
			return a, nil
		}

	case tea.WindowSizeMsg:
		a.state.Width = msg.Width
		a.state.Height = msg.Height
		a.updatePanelDimensions()
		return a, nil
	}

	// everything else belongs to the data panel
	var cmd tea.Cmd
	a.dataPanel, cmd = a.dataPanel.Update(msg)
	return a, cmd
}

func (a *App) handleChartQuery(msg ChartQueryCompletedMsg) tea.Cmd {
	if msg.Generation != a.chartGen {
		a.logger.Debug().Uint64("generation", msg.Generation).Msg("ignoring superseded chart query")
		return nil
	}

	if msg.Err != nil {
		text := chartdata.Normalize(msg.Err)
		a.logger.Warn().Err(msg.Err).Msg("chart query failed")
		a.state.ChartStatus = models.ChartStatusFailed
		a.state.ChartError = text
		a.state.Queries = nil
		return tea.Batch(
			a.dataPanel.SetUpstreamError(text),
			a.dataPanel.SetChartStatus(models.ChartStatusFailed),
		)
	}

	a.state.ChartStatus = models.ChartStatusSuccess
	a.state.Queries = msg.Queries
	a.dataPanel.SetQueriesResponse(msg.Queries)
	return a.dataPanel.SetChartStatus(models.ChartStatusSuccess)
}

func (a *App) handleReload(msg QueryFileReloadedMsg) tea.Cmd {
	next := a.waitForReload()
	if msg.Err != nil {
		a.ShowError("Query File Error", fmt.Sprintf("Could not reload %s\n\n%v", a.state.QueryFile, msg.Err))
		return next
	}
	if a.state.FormData.Equal(msg.FormData) {
		return next
	}

	a.logger.Info().Str("datasource", msg.FormData.Datasource()).Msg("query definition reloaded")
	a.state.FormData = msg.FormData
	// the rerun marks upstream as loading before the panel sees the change
	rerun := a.runChartQuery()
	return tea.Batch(rerun, a.dataPanel.SetFormData(msg.FormData), next)
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Handle error overlay dismissal first if visible
	if a.showError {
		switch msg.String() {
		case "esc", "enter":
			a.DismissError()
		case "q", "ctrl+c":
			return a, tea.Quit
		}
		return a, nil
	}

	if msg.String() == "ctrl+c" {
		return a, tea.Quit
	}

	if a.dataPanel.Filtering() {
		var cmd tea.Cmd
		a.dataPanel, cmd = a.dataPanel.Update(msg)
		a.syncViewMode()
		return a, cmd
	}

	switch {
	case key.Matches(msg, a.keys.Quit):
		// Don't quit if in help mode, exit help instead
		if a.state.ViewMode == models.HelpMode {
			a.state.ViewMode = models.NormalMode
			return a, nil
		}
		return a, tea.Quit
	case key.Matches(msg, a.keys.Help):
		if a.state.ViewMode == models.HelpMode {
			a.state.ViewMode = models.NormalMode
		} else {
			a.state.ViewMode = models.HelpMode
		}
		return a, nil
	case key.Matches(msg, a.keys.Back):
		if a.state.ViewMode == models.HelpMode {
			a.state.ViewMode = models.NormalMode
		}
		return a, nil
	}

	if a.state.ViewMode == models.HelpMode {
		return a, nil
	}

	if key.Matches(msg, a.keys.Rerun) {
		return a, a.runChartQuery()
	}

	var cmd tea.Cmd
	a.dataPanel, cmd = a.dataPanel.Update(msg)
	a.syncViewMode()
	return a, cmd
}

func (a *App) syncViewMode() {
	switch {
	case a.dataPanel.Filtering():
		a.state.ViewMode = models.FilterMode
	case a.state.ViewMode == models.FilterMode:
		a.state.ViewMode = models.NormalMode
	}
}

// View implements tea.Model
func (a *App) View() string {
	if a.showError {
		return lipgloss.Place(
			a.state.Width, a.state.Height,
			lipgloss.Center, lipgloss.Center,
			a.errorOverlay.View(),
		)
	}

	if a.state.ViewMode == models.HelpMode {
		return help.Render(a.state.Width, a.state.Height, a.theme)
	}

	view := a.renderNormalView()
	if a.zones != nil {
		return a.zones.Scan(view)
	}
	return view
}

func (a *App) renderNormalView() string {
	topBar := lipgloss.NewStyle().
		Width(a.state.Width).
		Background(a.theme.BorderFocused).
		Foreground(lipgloss.Color("230")).
		Padding(0, 2).
		Render(a.formatStatusBar("lazychart", a.state.QueryFile))

	bottomLeft := a.footer.View(a.footerKeys(), max(a.state.Width-4-lipgloss.Width(string(a.state.ChartStatus))-2, 0))
	bottomBar := lipgloss.NewStyle().
		Width(a.state.Width).
		Background(a.theme.Selection).
		Foreground(a.theme.Foreground).
		Padding(0, 2).
		Render(a.formatStatusBar(bottomLeft, string(a.state.ChartStatus)))

	a.chartPane.Content = a.chartSummary()

	return lipgloss.JoinVertical(
		lipgloss.Left,
		topBar,
		a.chartPane.View(),
		a.dataPanel.View(),
		bottomBar,
	)
}

// footerKeys lists the hints for the bottom bar
func (a *App) footerKeys() []key.Binding {
	bindings := a.dataPanel.ShortHelp()
	if a.state.ViewMode == models.FilterMode {
		return bindings
	}
	return append(bindings, a.keys.ShortHelp()...)
}

// chartSummary describes the definition and the upstream query outcome
func (a *App) chartSummary() string {
	fd := a.state.FormData
	label := lipgloss.NewStyle().Foreground(a.theme.Muted)

	vizType, _ := fd["viz_type"].(string)
	lines := []string{
		label.Render("Datasource: ") + fd.Datasource(),
		label.Render("Viz type:   ") + vizType,
		label.Render("Fields:     ") + strings.Join(fd.Keys(), ", "),
	}

	var status string
	switch a.state.ChartStatus {
	case models.ChartStatusFailed:
		status = lipgloss.NewStyle().Foreground(a.theme.Error).Render("failed: " + a.state.ChartError)
	case models.ChartStatusSuccess:
		rows := 0
		for _, q := range a.state.Queries {
			rows += q.RowCount
		}
		status = lipgloss.NewStyle().Foreground(a.theme.Success).
			Render(fmt.Sprintf("success (%d result sets, %d rows)", len(a.state.Queries), rows))
	default:
		status = string(a.state.ChartStatus)
	}
	lines = append(lines, label.Render("Status:     ")+status)
	return strings.Join(lines, "\n")
}

// updatePanelDimensions splits the height between the chart and data panels
func (a *App) updatePanelDimensions() {
	if a.state.Width <= 0 || a.state.Height <= 0 {
		return
	}

	// top bar, bottom bar and the chart pane (4 lines plus border and header)
	available := a.state.Height - 2 - 7
	panelHeight := a.config.UI.PanelHeight
	if panelHeight <= 0 || panelHeight > available {
		panelHeight = available
	}

	a.chartPane.Width = max(a.state.Width-2, 12)
	a.dataPanel.SetSize(a.state.Width, max(panelHeight, 6))
}

// formatStatusBar formats a status bar with left and right aligned content
func (a *App) formatStatusBar(left, right string) string {
	// Account for padding (2 chars on each side = 4 total)
	availableWidth := max(a.state.Width-4, 0)

	leftLen := lipgloss.Width(left)
	rightLen := lipgloss.Width(right)

	if leftLen+rightLen > availableWidth {
		return left
	}

	spacing := availableWidth - leftLen - rightLen
	return left + strings.Repeat(" ", spacing) + right
}

// ShowError displays an error overlay
func (a *App) ShowError(title, message string) {
	a.showError = true
	a.errorOverlay.Title = title
	a.errorOverlay.Message = message
}

// DismissError hides the error overlay
func (a *App) DismissError() {
	a.showError = false
}

// DataPanel exposes the hosted data panel
func (a *App) DataPanel() *components.DataPanel {
	return a.dataPanel
}

// State returns a copy of the application state
func (a *App) State() models.AppState {
	return a.state
}
