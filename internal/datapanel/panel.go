package datapanel

import (
	"encoding/json"

	"github.com/rebeliceyang/lazychart/internal/chartdata"
	"github.com/rebeliceyang/lazychart/internal/models"
	"github.com/rs/zerolog"
)

const (
	// OpenStateKey is the persisted key for the panel's open state
	OpenStateKey = "is_datapanel_open"
	// PanelName is reported to the collapse callback when the panel opens
	PanelName = "data"
)

// samplesFields are the only form_data fields a samples query depends on
var samplesFields = []string{"adhoc_filters", "datasource"}

// Store persists the panel's open state
type Store interface {
	GetBool(key string, fallback bool) bool
	SetBool(key string, value bool) error
}

// Options configures a Panel
type Options struct {
	Store Store
	// OnCollapseChange receives PanelName when opened and "" when closed
	OnCollapseChange func(openPanelName string)
	// DiscardStale drops completions from fetches that were superseded
	DiscardStale bool
	OwnState     map[string]any
	Logger       zerolog.Logger
}

// FetchRequest is a fetch the caller must run and report back on with
// Complete or Fail, passing Generation through unchanged
type FetchRequest struct {
	Kind       models.ResultKind
	Generation uint64
	Request    chartdata.Request
}

// Panel is the results/samples panel state machine. It is not safe for
// concurrent use; drive it from a single event loop.
type Panel struct {
	cache       Cache
	activeTab   models.ResultKind
	filterText  string
	open        bool
	columnNames []string

	formData    models.FormData
	samplesSig  string
	chartStatus models.ChartStatus
	upstreamErr string
	ownState    map[string]any

	store        Store
	onCollapse   func(string)
	discardStale bool
	logger       zerolog.Logger
}

// New builds a panel for formData, reading the open state from the store
func New(formData models.FormData, opts Options) *Panel {
	p := &Panel{
		cache:        NewCache(),
		activeTab:    models.KindResults,
		formData:     formData,
		samplesSig:   samplesSignature(formData),
		chartStatus:  models.ChartStatusLoading,
		ownState:     opts.OwnState,
		store:        opts.Store,
		onCollapse:   opts.OnCollapseChange,
		discardStale: opts.DiscardStale,
		logger:       opts.Logger,
	}
	if p.store != nil {
		p.open = p.store.GetBool(OpenStateKey, false)
	}
	return p
}

// SetFormData replaces the query definition. Results are invalidated on any
// change, samples only when one of samplesFields changed.
func (p *Panel) SetFormData(formData models.FormData) {
	if p.formData.Equal(formData) {
		return
	}
	p.formData = formData
	p.invalidate(models.KindResults)

	if sig := samplesSignature(formData); sig != p.samplesSig {
		p.samplesSig = sig
		p.invalidate(models.KindSamples)
	}
}

// invalidate resets a kind to empty and owes it a fetch
func (p *Panel) invalidate(kind models.ResultKind) {
	p.cache.SetRows(kind, nil)
	p.cache.SetError(kind, "")
	p.cache.SetPending(kind, true)
	if p.discardStale {
		p.cache.bump(kind)
	}
	p.logger.Debug().Str("kind", kind.String()).Msg("result invalidated")
}

// SetChartStatus records the upstream chart query status
func (p *Panel) SetChartStatus(status models.ChartStatus) {
	p.chartStatus = status
}

// SetUpstreamError records the upstream chart query error ("" clears it)
func (p *Panel) SetUpstreamError(msg string) {
	p.upstreamErr = msg
}

// SetOwnState replaces the auxiliary state sent with every fetch
func (p *Panel) SetOwnState(ownState map[string]any) {
	p.ownState = ownState
}

// SetQueriesResponse takes the column order from the first upstream result
func (p *Panel) SetQueriesResponse(queries []models.QueryResult) {
	if len(queries) == 0 {
		return
	}
	p.columnNames = append([]string(nil), queries[0].ColNames...)
}

// SetActiveTab switches the visible kind
func (p *Panel) SetActiveTab(kind models.ResultKind) {
	p.activeTab = kind
}

// SetFilterText sets the row filter shared by both tabs
func (p *Panel) SetFilterText(text string) {
	p.filterText = text
}

// Toggle handles the collapse control. openPanelName is PanelName when the
// section is being opened and "" when closed. The new state is persisted.
func (p *Panel) Toggle(openPanelName string) error {
	if p.onCollapse != nil {
		p.onCollapse(openPanelName)
	}
	p.open = openPanelName != ""
	if p.store == nil {
		return nil
	}
	return p.store.SetBool(OpenStateKey, p.open)
}

// Reconcile runs the orchestrator against the current state, applies its
// decisions and returns the fetches to start. Call it after every change.
func (p *Panel) Reconcile() []FetchRequest {
	plan := Decide(Inputs{
		PanelOpen:      p.open,
		ActiveTab:      p.activeTab,
		ResultsPending: p.cache.Get(models.KindResults).Pending,
		SamplesPending: p.cache.Get(models.KindSamples).Pending,
		ChartStatus:    p.chartStatus,
		UpstreamError:  p.upstreamErr,
	})

	var fetches []FetchRequest
	for _, kind := range models.ResultKinds {
		d := plan.For(kind)
		if d.ClearPending {
			p.cache.SetPending(kind, false)
		}
		if d.SetLoading != nil {
			p.cache.SetLoading(kind, *d.SetLoading)
		}
		if d.Fetch {
			fetches = append(fetches, p.begin(kind))
		}
	}
	return fetches
}

func (p *Panel) begin(kind models.ResultKind) FetchRequest {
	p.cache.SetLoading(kind, true)
	gen := p.cache.bump(kind)
	p.logger.Debug().Str("kind", kind.String()).Uint64("generation", gen).Msg("fetch started")
	return FetchRequest{
		Kind:       kind,
		Generation: gen,
		Request:    chartdata.NewRequest(p.formData, kind, p.ownState),
	}
}

// stale reports whether a completion for generation should be dropped
func (p *Panel) stale(kind models.ResultKind, generation uint64) bool {
	if !p.discardStale || generation == p.cache.generation(kind) {
		return false
	}
	p.logger.Info().
		Str("kind", kind.String()).
		Uint64("generation", generation).
		Uint64("current", p.cache.generation(kind)).
		Msg("discarding stale response")
	return true
}

// Complete stores a successful fetch. It returns false when the response was
// discarded as stale.
func (p *Panel) Complete(kind models.ResultKind, generation uint64, queries []models.QueryResult) bool {
	if p.stale(kind, generation) {
		return false
	}
	p.cache.SetRows(kind, chartdata.MergeResults(queries))
	p.cache.SetLoading(kind, false)
	p.cache.SetError(kind, "")
	return true
}

// Fail stores a failed fetch. It returns false when the failure was
// discarded as stale.
func (p *Panel) Fail(kind models.ResultKind, generation uint64, err error) bool {
	if p.stale(kind, generation) {
		return false
	}
	p.cache.SetError(kind, chartdata.Normalize(err))
	p.cache.SetLoading(kind, false)
	return true
}

// Open reports whether the panel is expanded
func (p *Panel) Open() bool                      { return p.open }
func (p *Panel) ActiveTab() models.ResultKind    { return p.activeTab }
func (p *Panel) FilterText() string              { return p.filterText }
func (p *Panel) ColumnNames() []string           { return p.columnNames }
func (p *Panel) UpstreamError() string           { return p.upstreamErr }
func (p *Panel) FormData() models.FormData       { return p.formData }
func (p *Panel) ChartStatus() models.ChartStatus { return p.chartStatus }

// State returns a snapshot of kind's state
func (p *Panel) State(kind models.ResultKind) ResultState {
	return p.cache.Get(kind)
}

// FilteredRows returns kind's rows after the filter text is applied
func (p *Panel) FilteredRows(kind models.ResultKind) []models.Record {
	return FilterRows(p.filterText, p.cache.Get(kind).Rows)
}

// Columns returns kind's ordered columns
func (p *Panel) Columns(kind models.ResultKind) []models.ColumnDescriptor {
	return Columns(p.columnNames, p.cache.Get(kind).Rows)
}

// samplesSignature encodes the fields samples depend on. encoding/json sorts
// map keys, so equal values give equal signatures.
func samplesSignature(formData models.FormData) string {
	subset := make(map[string]any, len(samplesFields))
	for _, f := range samplesFields {
		subset[f] = formData[f]
	}
	b, err := json.Marshal(subset)
	if err != nil {
		return ""
	}
	return string(b)
}
