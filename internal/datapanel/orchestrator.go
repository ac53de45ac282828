package datapanel

import (
	"github.com/rebeliceyang/lazychart/internal/models"
)

// Inputs are the facts the orchestrator decides on
type Inputs struct {
	PanelOpen      bool
	ActiveTab      models.ResultKind
	ResultsPending bool
	SamplesPending bool
	ChartStatus    models.ChartStatus
	UpstreamError  string
}

// Decision is what should happen to one kind right now
type Decision struct {
	Fetch        bool
	ClearPending bool
	// SetLoading is nil when the loading flag is left alone
	SetLoading *bool
}

// Plan is the orchestrator's verdict for both kinds
type Plan struct {
	Results Decision
	Samples Decision
}

// For returns the decision for kind
func (p Plan) For(kind models.ResultKind) Decision {
	if kind == models.KindSamples {
		return p.Samples
	}
	return p.Results
}

// Decide applies the fetch rules. Nothing happens while the panel is closed.
// Results wait for the upstream chart query to settle and are abandoned when
// it failed; samples are only fetched while their tab is showing.
func Decide(in Inputs) Plan {
	var plan Plan
	if !in.PanelOpen {
		return plan
	}

	if in.ResultsPending {
		switch {
		case in.UpstreamError != "":
			plan.Results = Decision{ClearPending: true, SetLoading: boolPtr(false)}
		case in.ChartStatus == models.ChartStatusLoading:
			plan.Results = Decision{SetLoading: boolPtr(true)}
		default:
			plan.Results = Decision{Fetch: true, ClearPending: true}
		}
	}

	if in.SamplesPending && in.ActiveTab == models.KindSamples {
		plan.Samples = Decision{Fetch: true, ClearPending: true}
	}

	return plan
}

func boolPtr(b bool) *bool {
	return &b
}
