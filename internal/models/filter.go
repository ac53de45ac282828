package models

// FilterOperator represents an adhoc filter comparison operator
type FilterOperator string

const (
	OpEqual          FilterOperator = "=="
	OpNotEqual       FilterOperator = "!="
	OpGreaterThan    FilterOperator = ">"
	OpGreaterOrEqual FilterOperator = ">="
	OpLessThan       FilterOperator = "<"
	OpLessOrEqual    FilterOperator = "<="
	OpLike           FilterOperator = "LIKE"
	OpILike          FilterOperator = "ILIKE"
	OpIn             FilterOperator = "IN"
	OpNotIn          FilterOperator = "NOT IN"
	OpIsNull         FilterOperator = "IS NULL"
	OpIsNotNull      FilterOperator = "IS NOT NULL"
)

// AdhocFilter is a single SIMPLE filter from form_data.adhoc_filters
type AdhocFilter struct {
	ExpressionType string         `json:"expressionType" yaml:"expressionType"`
	Clause         string         `json:"clause" yaml:"clause"`
	Subject        string         `json:"subject" yaml:"subject"`
	Operator       FilterOperator `json:"operator" yaml:"operator"`
	Comparator     any            `json:"comparator" yaml:"comparator"`
}

// AdhocFilters decodes form_data.adhoc_filters, skipping entries that are not
// SIMPLE WHERE filters.
func (f FormData) AdhocFilters() []AdhocFilter {
	raw, ok := f["adhoc_filters"].([]any)
	if !ok {
		return nil
	}

	var filters []AdhocFilter
	for _, item := range raw {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		af := AdhocFilter{
			ExpressionType: stringField(m, "expressionType", "SIMPLE"),
			Clause:         stringField(m, "clause", "WHERE"),
			Subject:        stringField(m, "subject", ""),
			Operator:       FilterOperator(stringField(m, "operator", "")),
			Comparator:     m["comparator"],
		}
		if af.ExpressionType != "SIMPLE" || af.Clause != "WHERE" || af.Subject == "" {
			continue
		}
		filters = append(filters, af)
	}
	return filters
}

func stringField(m map[string]any, key, fallback string) string {
	if s, ok := m[key].(string); ok && s != "" {
		return s
	}
	return fallback
}
