package components

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	zone "github.com/lrstanley/bubblezone"
	"github.com/rebeliceyang/lazychart/internal/chartdata"
	"github.com/rebeliceyang/lazychart/internal/datapanel"
	"github.com/rebeliceyang/lazychart/internal/export"
	"github.com/rebeliceyang/lazychart/internal/models"
	"github.com/rebeliceyang/lazychart/internal/ui/theme"
	"github.com/rs/zerolog"
)

// FetchCompletedMsg reports a finished data panel fetch
type FetchCompletedMsg struct {
	Kind       models.ResultKind
	Generation uint64
	RequestID  string
	// Datasource is the one the request was built from
	Datasource string
	StartedAt  time.Time
	Queries    []models.QueryResult
	Duration   time.Duration
	Err        error
}

// CopiedMsg is sent after rows were written to the clipboard
type CopiedMsg struct {
	Rows int
	Err  error
}

// ExportedMsg is sent after rows were written to a file
type ExportedMsg struct {
	Path string
	Rows int
	Err  error
}

// HistoryRecorder stores completed fetches
type HistoryRecorder interface {
	AddFetch(entry models.FetchEntry) error
}

// DataPanelOptions configures a DataPanel
type DataPanelOptions struct {
	Fetcher chartdata.Fetcher
	Store   datapanel.Store
	// History is optional
	History          HistoryRecorder
	OnCollapseChange func(openPanelName string)
	DiscardStale     bool
	OwnState         map[string]any
	PageSize         int
	MaxCellWidth     int
	// Height is the target height in lines while expanded
	Height    int
	ExportDir string
	Theme     theme.Theme
	Logger    zerolog.Logger
	// WriteClipboard defaults to the system clipboard
	WriteClipboard func(string) error
	// Zones enables clicking the header and tabs; nil leaves the panel
	// keyboard only
	Zones *zone.Manager
}

// HeaderZoneID is the mouse zone of the panel header
const HeaderZoneID = "data-header"

// DataPanel is the collapsible results/samples section
type DataPanel struct {
	panel   *datapanel.Panel
	fetcher chartdata.Fetcher
	history HistoryRecorder

	section  Panel
	tabs     TabStrip
	filter   *FilterInput
	spinner  spinner.Model
	spinning bool
	tables   [len(models.ResultKinds)]*TableView
	keys     DataPanelKeyMap

	status    string
	statusErr bool

	width     int
	height    int
	exportDir string
	theme     theme.Theme
	logger    zerolog.Logger
	clipboard func(string) error
	zones     *zone.Manager
}

// NewDataPanel builds the shell around a fresh panel state for formData
func NewDataPanel(formData models.FormData, opts DataPanelOptions) *DataPanel {
	th := opts.Theme
	if th.Name == "" {
		th = theme.DefaultTheme()
	}
	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}
	writeClipboard := opts.WriteClipboard
	if writeClipboard == nil {
		writeClipboard = clipboard.WriteAll
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(th.Info)

	d := &DataPanel{
		panel: datapanel.New(formData, datapanel.Options{
			Store:            opts.Store,
			OnCollapseChange: opts.OnCollapseChange,
			DiscardStale:     opts.DiscardStale,
			OwnState:         opts.OwnState,
			Logger:           opts.Logger,
		}),
		fetcher: opts.Fetcher,
		history: opts.History,
		section: Panel{
			Title:  "Data",
			Style:  lipgloss.NewStyle().BorderForeground(th.Border),
			Zones:  opts.Zones,
			ZoneID: HeaderZoneID,
		},
		tabs:      TabStrip{Theme: th, Zones: opts.Zones},
		filter:    NewFilterInput(th),
		spinner:   sp,
		keys:      DefaultDataPanelKeyMap(),
		height:    opts.Height,
		exportDir: opts.ExportDir,
		theme:     th,
		logger:    opts.Logger,
		clipboard: writeClipboard,
		zones:     opts.Zones,
	}
	for i := range d.tables {
		d.tables[i] = NewTableView(th, pageSize, opts.MaxCellWidth)
	}
	d.section.Expanded = d.panel.Open()
	return d
}

// Panel exposes the underlying state machine
func (d *DataPanel) Panel() *datapanel.Panel { return d.panel }

// Filtering reports whether keys go to the filter box
func (d *DataPanel) Filtering() bool { return d.filter.Focused() }

// Init starts the fetches owed at construction
func (d *DataPanel) Init() tea.Cmd {
	return d.reconcile()
}

// SetSize sets the available width and the expanded height
func (d *DataPanel) SetSize(width, height int) {
	d.width = width
	d.height = height
}

// SetFormData replaces the query definition
func (d *DataPanel) SetFormData(formData models.FormData) tea.Cmd {
	d.panel.SetFormData(formData)
	d.syncTables()
	return d.reconcile()
}

// SetChartStatus records the upstream chart query status
func (d *DataPanel) SetChartStatus(status models.ChartStatus) tea.Cmd {
	d.panel.SetChartStatus(status)
	return d.reconcile()
}

// SetUpstreamError records the upstream chart query error
func (d *DataPanel) SetUpstreamError(msg string) tea.Cmd {
	d.panel.SetUpstreamError(msg)
	return d.reconcile()
}

// SetOwnState replaces the auxiliary state sent with fetches
func (d *DataPanel) SetOwnState(ownState map[string]any) {
	d.panel.SetOwnState(ownState)
}

// SetQueriesResponse takes the column order from the upstream response
func (d *DataPanel) SetQueriesResponse(queries []models.QueryResult) {
	d.panel.SetQueriesResponse(queries)
	d.syncTables()
}

// Toggle opens or collapses the section
func (d *DataPanel) Toggle() tea.Cmd {
	name := datapanel.PanelName
	if d.panel.Open() {
		name = ""
	}
	if err := d.panel.Toggle(name); err != nil {
		d.logger.Warn().Err(err).Msg("failed to persist data panel state")
		d.setStatus("Could not save panel state: "+err.Error(), true)
	}
	d.section.Expanded = d.panel.Open()
	if !d.panel.Open() {
		d.filter.Blur()
	}
	return d.reconcile()
}

// SetActiveTab switches between results and samples
func (d *DataPanel) SetActiveTab(kind models.ResultKind) tea.Cmd {
	d.panel.SetActiveTab(kind)
	return d.reconcile()
}

// reconcile turns the orchestrator's decisions into fetch commands
func (d *DataPanel) reconcile() tea.Cmd {
	var cmds []tea.Cmd
	for _, f := range d.panel.Reconcile() {
		cmds = append(cmds, d.fetchCmd(f))
	}
	if d.spinnerVisible() && !d.spinning {
		d.spinning = true
		cmds = append(cmds, d.spinner.Tick)
	}
	return tea.Batch(cmds...)
}

func (d *DataPanel) fetchCmd(f datapanel.FetchRequest) tea.Cmd {
	fetcher := d.fetcher
	req := f.Request
	req.ID = uuid.NewString()

	return func() tea.Msg {
		msg := FetchCompletedMsg{
			Kind:       f.Kind,
			Generation: f.Generation,
			RequestID:  req.ID,
			Datasource: req.FormData.Datasource(),
		}
		if fetcher == nil {
			msg.Err = fmt.Errorf("no chart data backend configured")
			return msg
		}

		msg.StartedAt = time.Now()
		res, err := fetcher.Fetch(context.Background(), req)
		msg.Duration = time.Since(msg.StartedAt)
		if err != nil {
			msg.Err = err
			return msg
		}
		msg.Queries = res.Queries
		return msg
	}
}

// spinnerVisible reports whether the open section shows a loading marker
func (d *DataPanel) spinnerVisible() bool {
	return d.panel.Open() && d.panel.State(d.panel.ActiveTab()).Loading
}

// Update handles messages addressed to the panel
func (d *DataPanel) Update(msg tea.Msg) (*DataPanel, tea.Cmd) {
	switch msg := msg.(type) {
	case FetchCompletedMsg:
		var applied bool
		if msg.Err != nil {
			applied = d.panel.Fail(msg.Kind, msg.Generation, msg.Err)
		} else {
			applied = d.panel.Complete(msg.Kind, msg.Generation, msg.Queries)
		}
		if applied {
			d.recordFetch(msg)
			d.syncTable(msg.Kind)
		}
		return d, d.reconcile()

	case spinner.TickMsg:
		if !d.spinnerVisible() {
			d.spinning = false
			return d, nil
		}
		var cmd tea.Cmd
		d.spinner, cmd = d.spinner.Update(msg)
		return d, cmd

	case FilterChangedMsg:
		d.panel.SetFilterText(msg.Text)
		d.syncTables()
		return d, nil

	case CloseFilterMsg:
		return d, nil

	case CopiedMsg:
		if msg.Err != nil {
			d.setStatus("Copy failed: "+msg.Err.Error(), true)
		} else {
			d.setStatus(fmt.Sprintf("Copied %s to clipboard", plural(msg.Rows, "row")), false)
		}
		return d, nil

	case ExportedMsg:
		if msg.Err != nil {
			d.setStatus("Export failed: "+msg.Err.Error(), true)
		} else {
			d.setStatus(fmt.Sprintf("Exported %s to %s", plural(msg.Rows, "row"), msg.Path), false)
		}
		return d, nil

	case tea.MouseMsg:
		return d, d.handleMouse(msg)

	case tea.KeyMsg:
		return d.handleKey(msg)
	}
	return d, nil
}

func (d *DataPanel) handleKey(msg tea.KeyMsg) (*DataPanel, tea.Cmd) {
	if d.filter.Focused() {
		var cmd tea.Cmd
		d.filter, cmd = d.filter.Update(msg)
		return d, cmd
	}

	if key.Matches(msg, d.keys.Toggle) {
		return d, d.Toggle()
	}
	if !d.panel.Open() {
		return d, nil
	}

	active := d.panel.ActiveTab()
	table := d.tables[active]

	switch {
	case key.Matches(msg, d.keys.Results):
		return d, d.SetActiveTab(models.KindResults)
	case key.Matches(msg, d.keys.Samples):
		return d, d.SetActiveTab(models.KindSamples)
	case key.Matches(msg, d.keys.NextTab):
		next := models.KindSamples
		if active == models.KindSamples {
			next = models.KindResults
		}
		return d, d.SetActiveTab(next)
	case key.Matches(msg, d.keys.Filter):
		d.status = ""
		return d, d.filter.Focus()
	case key.Matches(msg, d.keys.Copy):
		return d, d.copyCmd(active)
	case key.Matches(msg, d.keys.Export):
		return d, d.exportCmd(active, "csv")
	case key.Matches(msg, d.keys.ExportJSON):
		return d, d.exportCmd(active, "json")
	case key.Matches(msg, d.keys.NextPage):
		table.NextPage()
	case key.Matches(msg, d.keys.PrevPage):
		table.PrevPage()
	case key.Matches(msg, d.keys.LineUp):
		table.MoveSelection(-1)
	case key.Matches(msg, d.keys.LineDown):
		table.MoveSelection(1)
	}
	return d, nil
}

// ShortHelp returns the bindings that currently apply to the panel
func (d *DataPanel) ShortHelp() []key.Binding {
	if d.filter.Focused() {
		return d.filter.Keys.ShortHelp()
	}
	return d.keys.ShortHelp()
}

// handleMouse toggles on header clicks, switches tabs on tab clicks and
// scrolls the active table with the wheel
func (d *DataPanel) handleMouse(msg tea.MouseMsg) tea.Cmd {
	if d.zones == nil {
		return nil
	}
	if d.panel.Open() {
		table := d.tables[d.panel.ActiveTab()]
		switch msg.Button {
		case tea.MouseButtonWheelUp:
			table.MoveSelection(-1)
			return nil
		case tea.MouseButtonWheelDown:
			table.MoveSelection(1)
			return nil
		}
	}

	if msg.Action != tea.MouseActionRelease || msg.Button != tea.MouseButtonLeft {
		return nil
	}
	if d.zones.Get(HeaderZoneID).InBounds(msg) {
		return d.Toggle()
	}
	if !d.panel.Open() {
		return nil
	}
	for _, kind := range models.ResultKinds {
		if d.zones.Get(TabZoneID(kind)).InBounds(msg) {
			return d.SetActiveTab(kind)
		}
	}
	return nil
}

// copyCmd writes the kind's rows as tab separated text
func (d *DataPanel) copyCmd(kind models.ResultKind) tea.Cmd {
	rows := d.panel.State(kind).Rows
	if len(rows) == 0 {
		d.setStatus("Nothing to copy", true)
		return nil
	}
	text := export.ToClipboardText(d.panel.Columns(kind), rows)
	write := d.clipboard
	return func() tea.Msg {
		return CopiedMsg{Rows: len(rows), Err: write(text)}
	}
}

// exportCmd writes the kind's visible rows to a CSV or JSON file
func (d *DataPanel) exportCmd(kind models.ResultKind, ext string) tea.Cmd {
	rows := d.panel.FilteredRows(kind)
	if len(rows) == 0 {
		d.setStatus("Nothing to export", true)
		return nil
	}
	columns := d.panel.Columns(kind)
	path := filepath.Join(d.exportDir, export.DefaultFileName(d.panel.FormData().Datasource(), kind, ext))
	write := export.ExportToCSV
	if ext == "json" {
		write = export.ExportToJSON
	}
	return func() tea.Msg {
		return ExportedMsg{Path: path, Rows: len(rows), Err: write(columns, rows, path)}
	}
}

// recordFetch stores an applied completion in the fetch history
func (d *DataPanel) recordFetch(msg FetchCompletedMsg) {
	if d.history == nil {
		return
	}
	entry := models.FetchEntry{
		RequestID:  msg.RequestID,
		Kind:       msg.Kind,
		Datasource: msg.Datasource,
		ExecutedAt: msg.StartedAt,
		Duration:   msg.Duration,
		Success:    msg.Err == nil,
	}
	if msg.Err != nil {
		entry.ErrorMessage = chartdata.Normalize(msg.Err)
	} else {
		entry.RowCount = len(chartdata.MergeResults(msg.Queries))
	}
	if err := d.history.AddFetch(entry); err != nil {
		d.logger.Warn().Err(err).Msg("failed to record fetch history")
	}
}

func (d *DataPanel) setStatus(text string, isErr bool) {
	d.status = text
	d.statusErr = isErr
}

func (d *DataPanel) syncTable(kind models.ResultKind) {
	d.tables[kind].SetData(d.panel.Columns(kind), d.panel.FilteredRows(kind))
}

func (d *DataPanel) syncTables() {
	for _, kind := range models.ResultKinds {
		d.syncTable(kind)
	}
}

// rowCount renders the active kind's unfiltered row count
func (d *DataPanel) rowCount(kind models.ResultKind) string {
	state := d.panel.State(kind)
	if state.Loading {
		return d.spinner.View()
	}
	return plural(len(state.Rows), "row")
}

// copyHint labels the copy control beside the row count
func (d *DataPanel) copyHint() string {
	h := d.keys.Copy.Help()
	return lipgloss.NewStyle().Foreground(d.theme.Muted).Render("[" + h.Key + "] " + h.Desc)
}

func plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

// body renders a tab's content: spinner, error, no data, table, upstream
// error, nothing
func (d *DataPanel) body(kind models.ResultKind, height int) string {
	state := d.panel.State(kind)

	switch {
	case state.Loading:
		return d.spinner.View() + " Loading..."
	case state.Err != "":
		return lipgloss.NewStyle().Foreground(d.theme.Error).Render(state.Err)
	case state.HasRows() && len(state.Rows) == 0:
		return lipgloss.NewStyle().Foreground(d.theme.Muted).Render("No data")
	case len(state.Rows) > 0:
		table := d.tables[kind]
		table.Width = d.innerWidth()
		table.Height = height
		return table.View()
	case d.panel.UpstreamError() != "":
		return lipgloss.NewStyle().Foreground(d.theme.Error).Render(d.panel.UpstreamError())
	}
	return ""
}

func (d *DataPanel) innerWidth() int {
	// border plus padding
	return max(d.width-4, 10)
}

// View renders the section
func (d *DataPanel) View() string {
	d.section.Width = max(d.width-2, 12)
	d.section.Expanded = d.panel.Open()
	if !d.panel.Open() {
		d.section.Height = 0
		return d.section.View()
	}

	active := d.panel.ActiveTab()
	controls := d.rowCount(active) + "  " + d.copyHint() + "  " + d.filter.View()
	strip := d.tabs.View(active, controls, d.innerWidth())

	// section header, tab strip and status line
	bodyHeight := max(d.height-2-3, 4)

	lines := []string{strip, d.body(active, bodyHeight)}
	if d.status != "" {
		color := d.theme.Success
		if d.statusErr {
			color = d.theme.Error
		}
		lines = append(lines, lipgloss.NewStyle().Foreground(color).Render(d.status))
	}

	d.section.Height = max(d.height-2, 0)
	d.section.Content = strings.Join(lines, "\n")
	return d.section.View()
}
