package app

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rebeliceyang/lazychart/internal/chartdata"
	"github.com/rebeliceyang/lazychart/internal/models"
	"github.com/rebeliceyang/lazychart/internal/storage"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubFetcher struct {
	mu     sync.Mutex
	counts map[string]int
	errs   map[string]error
}

func newStubFetcher() *stubFetcher {
	return &stubFetcher{counts: map[string]int{}, errs: map[string]error{}}
}

func (f *stubFetcher) Fetch(_ context.Context, req chartdata.Request) (*chartdata.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counts[req.ResultType]++
	if err := f.errs[req.ResultType]; err != nil {
		return nil, err
	}
	return &chartdata.Result{Queries: []models.QueryResult{{
		ColNames: []string{"gender", "count"},
		RowCount: 2,
		Data: []models.Record{
			{"gender": "boy", "count": 9.0},
			{"gender": "girl", "count": 9.0},
		},
	}}}, nil
}

func (f *stubFetcher) count(resultType string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.counts[resultType]
}

func formData() models.FormData {
	return models.FormData{
		"datasource": "birth_names__table",
		"viz_type":   "table",
		"groupby":    []any{"gender"},
		"metrics":    []any{"count"},
	}
}

func newTestApp(t *testing.T, fetcher chartdata.Fetcher) *App {
	t.Helper()
	a := New(formData(), Options{
		QueryFile: "query.yaml",
		Fetcher:   fetcher,
		Store:     storage.NewMemoryStore(),
		Logger:    zerolog.Nop(),
	})
	a.Update(tea.WindowSizeMsg{Width: 140, Height: 40})
	return a
}

// run executes cmd and feeds the resulting messages back into the app
func run(t *testing.T, a *App, cmd tea.Cmd) {
	t.Helper()
	if cmd == nil {
		return
	}
	switch msg := cmd().(type) {
	case nil, spinner.TickMsg, tea.QuitMsg:
	case tea.BatchMsg:
		for _, c := range msg {
			run(t, a, c)
		}
	default:
		_, next := a.Update(msg)
		run(t, a, next)
	}
}

func press(t *testing.T, a *App, s string) tea.Cmd {
	t.Helper()
	var msg tea.KeyMsg
	switch s {
	case "esc":
		msg = tea.KeyMsg{Type: tea.KeyEsc}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
	_, cmd := a.Update(msg)
	return cmd
}

func TestApp_InitRunsChartQuery(t *testing.T) {
	fetcher := newStubFetcher()
	a := newTestApp(t, fetcher)

	run(t, a, a.Init())

	assert.Equal(t, 1, fetcher.count(chartdata.ResultTypeFull))
	assert.Zero(t, fetcher.count(chartdata.ResultTypeResults), "closed panel must not fetch")
	assert.Equal(t, models.ChartStatusSuccess, a.State().ChartStatus)
	assert.Equal(t, []string{"gender", "count"}, a.DataPanel().Panel().ColumnNames())

	view := a.View()
	assert.Contains(t, view, "birth_names__table")
	assert.Contains(t, view, "success (1 result sets, 2 rows)")
	assert.Contains(t, view, "▸ Data")
}

func TestApp_FooterListsBindings(t *testing.T) {
	a := newTestApp(t, newStubFetcher())
	run(t, a, a.Init())

	view := a.View()
	for _, hint := range []string{"d toggle data", "/ filter", "y copy", "x export csv", "r rerun", "? help", "q quit"} {
		assert.Contains(t, view, hint)
	}
}

func TestApp_OpenPanelFetchesResults(t *testing.T) {
	fetcher := newStubFetcher()
	a := newTestApp(t, fetcher)
	run(t, a, a.Init())

	run(t, a, press(t, a, "d"))
	assert.True(t, a.DataPanel().Panel().Open())
	assert.Equal(t, 1, fetcher.count(chartdata.ResultTypeResults))
	assert.Contains(t, a.View(), "View results")

	run(t, a, press(t, a, "2"))
	assert.Equal(t, 1, fetcher.count(chartdata.ResultTypeSamples))
}

func TestApp_ChartFailureShownInPanel(t *testing.T) {
	fetcher := newStubFetcher()
	fetcher.errs[chartdata.ResultTypeFull] = &chartdata.ClientError{StatusCode: 500}
	a := newTestApp(t, fetcher)
	run(t, a, a.Init())
	run(t, a, press(t, a, "d"))

	assert.Equal(t, models.ChartStatusFailed, a.State().ChartStatus)
	assert.Equal(t, "Internal Server Error", a.State().ChartError)
	assert.Zero(t, fetcher.count(chartdata.ResultTypeResults))
	assert.Contains(t, a.DataPanel().View(), "Internal Server Error")
}

func TestApp_RerunKey(t *testing.T) {
	fetcher := newStubFetcher()
	a := newTestApp(t, fetcher)
	run(t, a, a.Init())

	run(t, a, press(t, a, "r"))
	assert.Equal(t, 2, fetcher.count(chartdata.ResultTypeFull))
	assert.Equal(t, models.ChartStatusSuccess, a.State().ChartStatus)
}

func TestApp_ReloadRerunsChartAndPanel(t *testing.T) {
	fetcher := newStubFetcher()
	a := newTestApp(t, fetcher)
	run(t, a, a.Init())
	run(t, a, press(t, a, "d"))
	require.Equal(t, 1, fetcher.count(chartdata.ResultTypeResults))

	// identical definition is ignored
	_, cmd := a.Update(QueryFileReloadedMsg{FormData: formData()})
	run(t, a, cmd)
	assert.Equal(t, 1, fetcher.count(chartdata.ResultTypeFull))

	changed := formData()
	changed["row_limit"] = 5.0
	_, cmd = a.Update(QueryFileReloadedMsg{FormData: changed})
	run(t, a, cmd)

	assert.Equal(t, 2, fetcher.count(chartdata.ResultTypeFull))
	assert.Equal(t, 2, fetcher.count(chartdata.ResultTypeResults))
	assert.Equal(t, 5.0, a.State().FormData["row_limit"])
}

func TestApp_ReloadErrorShowsOverlay(t *testing.T) {
	a := newTestApp(t, newStubFetcher())
	run(t, a, a.Init())

	_, cmd := a.Update(QueryFileReloadedMsg{Err: errors.New("yaml: line 3: did not find expected key")})
	assert.Nil(t, cmd)
	view := a.View()
	assert.Contains(t, view, "Query File Error")
	assert.Contains(t, view, "did not find expected key")

	// other keys are swallowed while the overlay is up
	press(t, a, "d")
	assert.False(t, a.DataPanel().Panel().Open())

	press(t, a, "esc")
	assert.NotContains(t, a.View(), "Query File Error")
}

func TestApp_SupersededChartQueryIgnored(t *testing.T) {
	a := newTestApp(t, newStubFetcher())
	run(t, a, a.Init())

	a.Update(ChartQueryCompletedMsg{Generation: 0, Err: errors.New("late failure")})
	assert.Equal(t, models.ChartStatusSuccess, a.State().ChartStatus)
	assert.Empty(t, a.State().ChartError)
}

func TestApp_HelpMode(t *testing.T) {
	a := newTestApp(t, newStubFetcher())

	press(t, a, "?")
	assert.Equal(t, models.HelpMode, a.State().ViewMode)
	assert.Contains(t, a.View(), "Keyboard Shortcuts")

	// q leaves help before it quits
	assert.Nil(t, press(t, a, "q"))
	assert.Equal(t, models.NormalMode, a.State().ViewMode)

	cmd := press(t, a, "q")
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestApp_FilterModeCapturesKeys(t *testing.T) {
	fetcher := newStubFetcher()
	a := newTestApp(t, fetcher)
	run(t, a, a.Init())
	run(t, a, press(t, a, "d"))

	press(t, a, "/")
	assert.Equal(t, models.FilterMode, a.State().ViewMode)

	// q is text here
	press(t, a, "q")
	assert.Equal(t, models.FilterMode, a.State().ViewMode)
	view := a.View()
	assert.Contains(t, view, "esc/enter done")
	assert.Contains(t, view, "ctrl+u clear filter")
	assert.NotContains(t, view, "q quit")

	press(t, a, "esc")
	assert.Equal(t, models.NormalMode, a.State().ViewMode)
}
