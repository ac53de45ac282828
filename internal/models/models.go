package models

import (
	"encoding/json"
	"fmt"
	"sort"
)

// AppState holds the application state
type AppState struct {
	Width    int
	Height   int
	ViewMode ViewMode

	// Upstream chart query state
	QueryFile   string
	FormData    FormData
	ChartStatus ChartStatus
	ChartError  string
	Queries     []QueryResult
}

// ViewMode identifies the current view
type ViewMode int

const (
	NormalMode ViewMode = iota
	HelpMode
	FilterMode
)

// NewAppState creates a new AppState with defaults
func NewAppState() AppState {
	return AppState{
		Width:       80,
		Height:      24,
		ViewMode:    NormalMode,
		ChartStatus: ChartStatusLoading,
	}
}

// ResultKind selects which variant of the chart query a fetch asks for.
type ResultKind int

const (
	KindResults ResultKind = iota
	KindSamples
)

// ResultKinds lists every kind in tab order.
var ResultKinds = [...]ResultKind{KindResults, KindSamples}

// String returns the wire name of the kind
func (k ResultKind) String() string {
	switch k {
	case KindResults:
		return "results"
	case KindSamples:
		return "samples"
	default:
		return fmt.Sprintf("ResultKind(%d)", int(k))
	}
}

// ParseResultKind converts a wire name into a ResultKind
func ParseResultKind(s string) (ResultKind, error) {
	switch s {
	case "results":
		return KindResults, nil
	case "samples":
		return KindSamples, nil
	default:
		return 0, fmt.Errorf("unknown result kind %q", s)
	}
}

// ChartStatus is the execution state of the primary chart query
type ChartStatus string

const (
	ChartStatusLoading  ChartStatus = "loading"
	ChartStatusSuccess  ChartStatus = "success"
	ChartStatusFailed   ChartStatus = "failed"
	ChartStatusRendered ChartStatus = "rendered"
	ChartStatusStopped  ChartStatus = "stopped"
)

// Record is a single result row keyed by column name
type Record map[string]any

// FormData is the opaque chart query definition
type FormData map[string]any

// Datasource returns the datasource identifier, e.g. "birth_names__table"
func (f FormData) Datasource() string {
	s, _ := f["datasource"].(string)
	return s
}

// Equal reports whether two definitions encode identically
func (f FormData) Equal(other FormData) bool {
	a, errA := json.Marshal(f)
	b, errB := json.Marshal(other)
	if errA != nil || errB != nil {
		return false
	}
	return string(a) == string(b)
}

// Keys returns the field names in lexical order
func (f FormData) Keys() []string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// QueryResult is one result set returned by the chart data endpoint
type QueryResult struct {
	Data     []Record `json:"data"`
	ColNames []string `json:"colnames"`
	RowCount int      `json:"rowcount"`
	Query    string   `json:"query,omitempty"`
}

// ColumnDescriptor describes one rendered table column
type ColumnDescriptor struct {
	Key    string
	Header string
}
