package chartdata

import (
	"github.com/rebeliceyang/lazychart/internal/models"
)

// Result types understood by the chart data endpoint
const (
	ResultTypeFull    = "full"
	ResultTypeResults = "results"
	ResultTypeSamples = "samples"
	ResultTypeQuery   = "query"
)

// ResultFormatJSON asks for structured rows
const ResultFormatJSON = "json"

// Request is the body of POST /api/v1/chart/data
type Request struct {
	// ID is sent as X-Request-ID; generated when empty
	ID string `json:"-"`

	FormData     models.FormData `json:"form_data" validate:"required"`
	ResultFormat string          `json:"result_format" validate:"required,eq=json"`
	ResultType   string          `json:"result_type" validate:"required,oneof=full results samples query"`
	OwnState     map[string]any  `json:"own_state,omitempty"`
}

// Response is the success body of the chart data endpoint
type Response struct {
	Result []models.QueryResult `json:"result"`
}

// NewRequest builds a structured-output request for one result kind
func NewRequest(formData models.FormData, kind models.ResultKind, ownState map[string]any) Request {
	return Request{
		FormData:     formData,
		ResultFormat: ResultFormatJSON,
		ResultType:   kind.String(),
		OwnState:     ownState,
	}
}
