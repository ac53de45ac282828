package datapanel

import (
	"errors"
	"testing"

	"github.com/rebeliceyang/lazychart/internal/models"
	"github.com/rebeliceyang/lazychart/internal/storage"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseFormData() models.FormData {
	return models.FormData{
		"datasource": "birth_names__table",
		"viz_type":   "table",
		"columns":    []any{"name", "state"},
		"adhoc_filters": []any{
			map[string]any{"subject": "state", "operator": "==", "comparator": "CA"},
		},
	}
}

func newPanel(t *testing.T, store Store, discardStale bool) *Panel {
	t.Helper()
	return New(baseFormData(), Options{
		Store:        store,
		DiscardStale: discardStale,
		Logger:       zerolog.Nop(),
	})
}

func kinds(fetches []FetchRequest) []models.ResultKind {
	var out []models.ResultKind
	for _, f := range fetches {
		out = append(out, f.Kind)
	}
	return out
}

func TestPanel_InitialState(t *testing.T) {
	p := newPanel(t, storage.NewMemoryStore(), true)

	assert.False(t, p.Open())
	assert.Equal(t, models.KindResults, p.ActiveTab())
	for _, kind := range models.ResultKinds {
		s := p.State(kind)
		assert.True(t, s.Loading)
		assert.True(t, s.Pending)
		assert.False(t, s.HasRows())
	}
	assert.Empty(t, p.Reconcile(), "closed panel must not fetch")
}

func TestPanel_OpenTriggersOneResultsFetchAfterUpstreamSettles(t *testing.T) {
	p := newPanel(t, storage.NewMemoryStore(), true)

	require.NoError(t, p.Toggle(PanelName))

	// Upstream still loading: spinner, no request
	assert.Empty(t, p.Reconcile())
	assert.True(t, p.State(models.KindResults).Loading)
	assert.True(t, p.State(models.KindResults).Pending)

	p.SetChartStatus(models.ChartStatusSuccess)
	fetches := p.Reconcile()
	require.Len(t, fetches, 1)
	assert.Equal(t, models.KindResults, fetches[0].Kind)
	assert.Equal(t, "results", fetches[0].Request.ResultType)
	assert.Equal(t, "json", fetches[0].Request.ResultFormat)
	assert.False(t, p.State(models.KindResults).Pending)
	assert.True(t, p.State(models.KindResults).Loading)

	// Nothing more until a qualifying change
	assert.Empty(t, p.Reconcile())
	assert.Empty(t, p.Reconcile())
}

func TestPanel_UpstreamErrorSkipsResultsFetch(t *testing.T) {
	p := newPanel(t, storage.NewMemoryStore(), true)
	require.NoError(t, p.Toggle(PanelName))
	p.SetChartStatus(models.ChartStatusFailed)
	p.SetUpstreamError("Datasource does not exist")

	assert.Empty(t, p.Reconcile())
	s := p.State(models.KindResults)
	assert.False(t, s.Pending)
	assert.False(t, s.Loading)
	assert.Equal(t, "Datasource does not exist", p.UpstreamError())
}

func TestPanel_SamplesFetchedLazilyOnce(t *testing.T) {
	p := newPanel(t, storage.NewMemoryStore(), true)
	p.SetChartStatus(models.ChartStatusSuccess)
	require.NoError(t, p.Toggle(PanelName))

	assert.Equal(t, []models.ResultKind{models.KindResults}, kinds(p.Reconcile()))

	p.SetActiveTab(models.KindSamples)
	fetches := p.Reconcile()
	require.Len(t, fetches, 1)
	assert.Equal(t, models.KindSamples, fetches[0].Kind)
	assert.Equal(t, "samples", fetches[0].Request.ResultType)

	for i := 0; i < 3; i++ {
		p.SetActiveTab(models.KindResults)
		assert.Empty(t, p.Reconcile())
		p.SetActiveTab(models.KindSamples)
		assert.Empty(t, p.Reconcile())
	}
}

func TestPanel_NonSampleFieldChangeOnlyInvalidatesResults(t *testing.T) {
	p := newPanel(t, storage.NewMemoryStore(), true)
	p.SetChartStatus(models.ChartStatusSuccess)
	require.NoError(t, p.Toggle(PanelName))
	p.SetActiveTab(models.KindSamples)
	require.Len(t, p.Reconcile(), 2)

	changed := baseFormData()
	changed["viz_type"] = "bar"
	changed["row_limit"] = 10
	p.SetFormData(changed)

	assert.True(t, p.State(models.KindResults).Pending)
	assert.False(t, p.State(models.KindSamples).Pending)
	assert.Equal(t, []models.ResultKind{models.KindResults}, kinds(p.Reconcile()))
}

func TestPanel_SampleFieldChangeInvalidatesBoth(t *testing.T) {
	p := newPanel(t, storage.NewMemoryStore(), true)
	p.SetChartStatus(models.ChartStatusSuccess)
	require.NoError(t, p.Toggle(PanelName))
	p.SetActiveTab(models.KindSamples)
	for _, f := range p.Reconcile() {
		require.True(t, p.Complete(f.Kind, f.Generation, []models.QueryResult{{Data: []models.Record{{"a": 1}}}}))
	}

	changed := baseFormData()
	changed["adhoc_filters"] = []any{}
	p.SetFormData(changed)

	for _, kind := range models.ResultKinds {
		s := p.State(kind)
		assert.True(t, s.Pending, kind.String())
		assert.False(t, s.HasRows(), kind.String())
	}
	assert.ElementsMatch(t, []models.ResultKind{models.KindResults, models.KindSamples}, kinds(p.Reconcile()))
}

func TestPanel_SameFormDataIsNotAChange(t *testing.T) {
	p := newPanel(t, storage.NewMemoryStore(), true)
	p.SetChartStatus(models.ChartStatusSuccess)
	require.NoError(t, p.Toggle(PanelName))
	require.Len(t, p.Reconcile(), 1)

	p.SetFormData(baseFormData())
	assert.Empty(t, p.Reconcile())
}

func TestPanel_CompleteMergesAndClearsError(t *testing.T) {
	p := newPanel(t, storage.NewMemoryStore(), true)
	p.SetChartStatus(models.ChartStatusSuccess)
	require.NoError(t, p.Toggle(PanelName))
	f := p.Reconcile()[0]

	require.True(t, p.Fail(f.Kind, f.Generation, errors.New("timeout")))
	assert.Equal(t, "timeout", p.State(models.KindResults).Err)
	assert.False(t, p.State(models.KindResults).Loading)
	assert.False(t, p.State(models.KindResults).HasRows())

	// Re-fetch after a qualifying change
	changed := baseFormData()
	changed["row_limit"] = 5
	p.SetFormData(changed)
	f = p.Reconcile()[0]

	ok := p.Complete(f.Kind, f.Generation, []models.QueryResult{
		{Data: []models.Record{{"name": "a"}, {"name": "b"}, {"name": "c"}}},
		{Data: []models.Record{{"n": 1}, {"n": 2}, {"n": 3}}},
	})
	require.True(t, ok)

	s := p.State(models.KindResults)
	assert.Empty(t, s.Err)
	assert.False(t, s.Loading)
	require.Len(t, s.Rows, 3)
	assert.Equal(t, models.Record{"name": "b", "n": 2}, s.Rows[1])
	assert.True(t, s.HasRows())
}

func TestPanel_ErrorsArePerKind(t *testing.T) {
	p := newPanel(t, storage.NewMemoryStore(), true)
	p.SetChartStatus(models.ChartStatusSuccess)
	require.NoError(t, p.Toggle(PanelName))
	p.SetActiveTab(models.KindSamples)

	for _, f := range p.Reconcile() {
		if f.Kind == models.KindSamples {
			p.Fail(f.Kind, f.Generation, errors.New("samples broke"))
		} else {
			p.Complete(f.Kind, f.Generation, []models.QueryResult{{Data: []models.Record{{"a": 1}}}})
		}
	}

	assert.Empty(t, p.State(models.KindResults).Err)
	assert.Len(t, p.State(models.KindResults).Rows, 1)
	assert.Equal(t, "samples broke", p.State(models.KindSamples).Err)
}

func TestPanel_StaleResponseDiscarded(t *testing.T) {
	p := newPanel(t, storage.NewMemoryStore(), true)
	p.SetChartStatus(models.ChartStatusSuccess)
	require.NoError(t, p.Toggle(PanelName))
	first := p.Reconcile()[0]

	changed := baseFormData()
	changed["row_limit"] = 1
	p.SetFormData(changed)
	second := p.Reconcile()[0]
	require.NotEqual(t, first.Generation, second.Generation)

	fresh := []models.QueryResult{{Data: []models.Record{{"v": "fresh"}}}}
	stale := []models.QueryResult{{Data: []models.Record{{"v": "stale"}}}}

	require.True(t, p.Complete(second.Kind, second.Generation, fresh))
	assert.False(t, p.Complete(first.Kind, first.Generation, stale))
	assert.False(t, p.Fail(first.Kind, first.Generation, errors.New("late")))

	s := p.State(models.KindResults)
	assert.Equal(t, "fresh", s.Rows[0]["v"])
	assert.Empty(t, s.Err)
}

func TestPanel_StaleResponseWhileClosedDiscarded(t *testing.T) {
	p := newPanel(t, storage.NewMemoryStore(), true)
	p.SetChartStatus(models.ChartStatusSuccess)
	require.NoError(t, p.Toggle(PanelName))
	first := p.Reconcile()[0]

	require.NoError(t, p.Toggle(""))
	changed := baseFormData()
	changed["row_limit"] = 1
	p.SetFormData(changed)
	assert.Empty(t, p.Reconcile())

	assert.False(t, p.Complete(first.Kind, first.Generation, []models.QueryResult{{Data: []models.Record{{"v": 1}}}}))
	assert.False(t, p.State(models.KindResults).HasRows())
}

func TestPanel_LastWriteWinsWithoutGuard(t *testing.T) {
	p := newPanel(t, storage.NewMemoryStore(), false)
	p.SetChartStatus(models.ChartStatusSuccess)
	require.NoError(t, p.Toggle(PanelName))
	first := p.Reconcile()[0]

	changed := baseFormData()
	changed["row_limit"] = 1
	p.SetFormData(changed)
	second := p.Reconcile()[0]

	require.True(t, p.Complete(second.Kind, second.Generation, []models.QueryResult{{Data: []models.Record{{"v": "fresh"}}}}))
	require.True(t, p.Complete(first.Kind, first.Generation, []models.QueryResult{{Data: []models.Record{{"v": "stale"}}}}))
	assert.Equal(t, "stale", p.State(models.KindResults).Rows[0]["v"])
}

func TestPanel_TogglePersistsAndNotifies(t *testing.T) {
	store := storage.NewMemoryStore()
	var notified []string

	p := New(baseFormData(), Options{
		Store:            store,
		OnCollapseChange: func(name string) { notified = append(notified, name) },
	})

	require.NoError(t, p.Toggle(""))
	require.NoError(t, p.Toggle(PanelName))
	assert.True(t, p.Open())
	assert.Equal(t, []string{"", PanelName}, notified)

	fresh := New(baseFormData(), Options{Store: store})
	assert.True(t, fresh.Open())

	require.NoError(t, fresh.Toggle(""))
	assert.False(t, New(baseFormData(), Options{Store: store}).Open())
}

func TestPanel_TogglePersistFailureStillToggles(t *testing.T) {
	store := storage.NewMemoryStore()
	store.FailWrites = true
	p := New(baseFormData(), Options{Store: store})

	assert.Error(t, p.Toggle(PanelName))
	assert.True(t, p.Open())
}

func TestPanel_ProjectionUsesUpstreamColumnOrder(t *testing.T) {
	p := newPanel(t, storage.NewMemoryStore(), true)
	p.SetChartStatus(models.ChartStatusSuccess)
	p.SetQueriesResponse([]models.QueryResult{{ColNames: []string{"state", "name"}}})
	require.NoError(t, p.Toggle(PanelName))
	f := p.Reconcile()[0]
	p.Complete(f.Kind, f.Generation, []models.QueryResult{{Data: []models.Record{
		{"name": "Aaron", "state": "CA"},
		{"name": "Beth", "state": "NY"},
	}}})

	cols := p.Columns(models.KindResults)
	require.Len(t, cols, 2)
	assert.Equal(t, "state", cols[0].Key)
	assert.Equal(t, "name", cols[1].Key)

	p.SetFilterText("ny")
	assert.Len(t, p.FilteredRows(models.KindResults), 1)
	assert.Len(t, p.State(models.KindResults).Rows, 2)
	assert.Nil(t, p.FilteredRows(models.KindSamples))
}
