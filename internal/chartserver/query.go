package chartserver

import (
	"fmt"
	"strings"

	"github.com/rebeliceyang/lazychart/internal/models"
)

const tableSuffix = "__table"

// Metric is one aggregate in the select list
type Metric struct {
	Aggregate string
	// Column is empty for COUNT(*)
	Column string
	Label  string
}

var aggregates = map[string]bool{
	"COUNT":          true,
	"COUNT_DISTINCT": true,
	"SUM":            true,
	"AVG":            true,
	"MIN":            true,
	"MAX":            true,
}

func (m Metric) expr() (string, error) {
	if !aggregates[m.Aggregate] {
		return "", fmt.Errorf("unsupported aggregate: %s", m.Aggregate)
	}
	if m.Column == "" {
		if m.Aggregate != "COUNT" {
			return "", fmt.Errorf("aggregate %s needs a column", m.Aggregate)
		}
		return "COUNT(*)", nil
	}
	col, err := quoteIdent(m.Column)
	if err != nil {
		return "", err
	}
	if m.Aggregate == "COUNT_DISTINCT" {
		return fmt.Sprintf("COUNT(DISTINCT %s)", col), nil
	}
	return fmt.Sprintf("%s(%s)", m.Aggregate, col), nil
}

// QuerySpec is one SELECT derived from a chart definition
type QuerySpec struct {
	Table    string
	GroupBy  []string
	Columns  []string
	Metrics  []Metric
	Filters  []models.AdhocFilter
	RowLimit int
}

// TableName strips the datasource type suffix, "birth_names__table" -> "birth_names"
func TableName(datasource string) (string, error) {
	table, ok := strings.CutSuffix(datasource, tableSuffix)
	if !ok || table == "" {
		return "", fmt.Errorf("unsupported datasource: %q", datasource)
	}
	if !identPattern.MatchString(table) {
		return "", fmt.Errorf("invalid table name: %q", table)
	}
	return table, nil
}

// BuildQueries derives the result queries of a chart definition. Mixed
// charts carry a second query whose fields use the "_b" suffix.
func BuildQueries(fd models.FormData, defaultLimit int) ([]QuerySpec, error) {
	table, err := TableName(fd.Datasource())
	if err != nil {
		return nil, err
	}

	first, err := buildQuery(fd, table, "", defaultLimit)
	if err != nil {
		return nil, err
	}
	queries := []QuerySpec{first}

	if isMixed(fd) {
		second, err := buildQuery(fd, table, "_b", defaultLimit)
		if err != nil {
			return nil, fmt.Errorf("query B: %w", err)
		}
		queries = append(queries, second)
	}
	return queries, nil
}

// SamplesQuery selects raw rows through the definition's filters
func SamplesQuery(fd models.FormData, limit int) (QuerySpec, error) {
	table, err := TableName(fd.Datasource())
	if err != nil {
		return QuerySpec{}, err
	}
	return QuerySpec{
		Table:    table,
		Filters:  fd.AdhocFilters(),
		RowLimit: limit,
	}, nil
}

func isMixed(fd models.FormData) bool {
	if vt, _ := fd["viz_type"].(string); vt == "mixed_timeseries" {
		return true
	}
	for _, key := range []string{"columns_b", "groupby_b", "metrics_b"} {
		if _, ok := fd[key]; ok {
			return true
		}
	}
	return false
}

func buildQuery(fd models.FormData, table, suffix string, defaultLimit int) (QuerySpec, error) {
	q := QuerySpec{
		Table:    table,
		GroupBy:  stringList(fd["groupby"+suffix]),
		Columns:  append(stringList(fd["columns"+suffix]), stringList(fd["all_columns"+suffix])...),
		RowLimit: defaultLimit,
	}

	metrics, err := parseMetrics(fd["metrics"+suffix])
	if err != nil {
		return QuerySpec{}, err
	}
	if m, ok := fd["metric"+suffix]; ok {
		single, err := parseMetrics([]any{m})
		if err != nil {
			return QuerySpec{}, err
		}
		metrics = append(metrics, single...)
	}
	q.Metrics = metrics

	q.Filters = models.FormData{"adhoc_filters": fd["adhoc_filters"+suffix]}.AdhocFilters()

	if limit, ok := fd["row_limit"+suffix].(float64); ok && limit > 0 {
		if defaultLimit <= 0 || int(limit) < defaultLimit {
			q.RowLimit = int(limit)
		}
	}
	return q, nil
}

func stringList(v any) []string {
	switch t := v.(type) {
	case string:
		if t == "" {
			return nil
		}
		return []string{t}
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// parseMetrics accepts "count", "<agg>__<column>" or
// {"aggregate": "SUM", "column": "num", "label": "total"}
func parseMetrics(v any) ([]Metric, error) {
	raw, ok := v.([]any)
	if !ok {
		return nil, nil
	}

	metrics := make([]Metric, 0, len(raw))
	for _, item := range raw {
		switch t := item.(type) {
		case string:
			m, err := parseMetricName(t)
			if err != nil {
				return nil, err
			}
			metrics = append(metrics, m)
		case map[string]any:
			m := Metric{
				Aggregate: strings.ToUpper(stringValue(t["aggregate"])),
				Label:     stringValue(t["label"]),
			}
			switch col := t["column"].(type) {
			case string:
				m.Column = col
			case map[string]any:
				m.Column = stringValue(col["column_name"])
			}
			if m.Label == "" {
				m.Label = metricLabel(m)
			}
			metrics = append(metrics, m)
		default:
			return nil, fmt.Errorf("unsupported metric: %v", item)
		}
	}
	return metrics, nil
}

func parseMetricName(name string) (Metric, error) {
	if name == "count" {
		return Metric{Aggregate: "COUNT", Label: "count"}, nil
	}
	agg, col, ok := strings.Cut(name, "__")
	if !ok || col == "" {
		return Metric{}, fmt.Errorf("unsupported metric: %q", name)
	}
	return Metric{Aggregate: strings.ToUpper(agg), Column: col, Label: name}, nil
}

func metricLabel(m Metric) string {
	if m.Column == "" {
		return strings.ToLower(m.Aggregate)
	}
	return strings.ToLower(m.Aggregate) + "__" + m.Column
}

func stringValue(v any) string {
	s, _ := v.(string)
	return s
}
