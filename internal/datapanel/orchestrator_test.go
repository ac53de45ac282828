package datapanel

import (
	"testing"

	"github.com/rebeliceyang/lazychart/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestDecide(t *testing.T) {
	yes, no := true, false

	tests := []struct {
		name    string
		in      Inputs
		results Decision
		samples Decision
	}{
		{
			name: "closed panel never fetches",
			in: Inputs{
				PanelOpen: false, ActiveTab: models.KindSamples,
				ResultsPending: true, SamplesPending: true,
				ChartStatus: models.ChartStatusSuccess,
			},
		},
		{
			name: "results fetch once upstream settled",
			in: Inputs{
				PanelOpen: true, ResultsPending: true,
				ChartStatus: models.ChartStatusSuccess,
			},
			results: Decision{Fetch: true, ClearPending: true},
		},
		{
			name: "results wait while upstream loading",
			in: Inputs{
				PanelOpen: true, ResultsPending: true,
				ChartStatus: models.ChartStatusLoading,
			},
			results: Decision{SetLoading: &yes},
		},
		{
			name: "upstream error abandons results",
			in: Inputs{
				PanelOpen: true, ResultsPending: true,
				ChartStatus: models.ChartStatusFailed, UpstreamError: "boom",
			},
			results: Decision{ClearPending: true, SetLoading: &no},
		},
		{
			name: "upstream error wins over loading",
			in: Inputs{
				PanelOpen: true, ResultsPending: true,
				ChartStatus: models.ChartStatusLoading, UpstreamError: "boom",
			},
			results: Decision{ClearPending: true, SetLoading: &no},
		},
		{
			name: "results not pending is a no-op",
			in: Inputs{
				PanelOpen: true, ChartStatus: models.ChartStatusSuccess,
			},
		},
		{
			name: "samples are lazy",
			in: Inputs{
				PanelOpen: true, ActiveTab: models.KindResults, SamplesPending: true,
				ChartStatus: models.ChartStatusSuccess,
			},
		},
		{
			name: "samples fetch on their tab regardless of upstream",
			in: Inputs{
				PanelOpen: true, ActiveTab: models.KindSamples, SamplesPending: true,
				ChartStatus: models.ChartStatusLoading, UpstreamError: "boom",
			},
			samples: Decision{Fetch: true, ClearPending: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := Decide(tt.in)
			assert.Equal(t, tt.results, plan.Results)
			assert.Equal(t, tt.samples, plan.Samples)
			assert.Equal(t, plan.Samples, plan.For(models.KindSamples))
			assert.Equal(t, plan.Results, plan.For(models.KindResults))
		})
	}
}
