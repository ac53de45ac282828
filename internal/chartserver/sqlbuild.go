package chartserver

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/rebeliceyang/lazychart/internal/models"
)

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// quoteIdent validates and quotes a column or table name
func quoteIdent(name string) (string, error) {
	if !identPattern.MatchString(name) {
		return "", fmt.Errorf("invalid identifier: %q", name)
	}
	return `"` + name + `"`, nil
}

// quoteLabel quotes a free-form output alias such as "SUM(num)"
func quoteLabel(label string) string {
	return `"` + strings.ReplaceAll(label, `"`, `""`) + `"`
}

// Builder generates parameterized SQL for one dialect. A Builder collects
// arguments as it goes, so use a fresh one per statement.
type Builder struct {
	dialect Dialect
	args    []any
}

// NewBuilder creates a new SQL builder
func NewBuilder(dialect Dialect) *Builder {
	return &Builder{dialect: dialect}
}

// Args returns the arguments bound so far
func (b *Builder) Args() []any {
	return b.args
}

func (b *Builder) bind(v any) string {
	b.args = append(b.args, v)
	if b.dialect == DialectPostgres {
		return fmt.Sprintf("$%d", len(b.args))
	}
	return "?"
}

// BuildWhere generates a WHERE clause from adhoc filters, ANDed together
func (b *Builder) BuildWhere(filters []models.AdhocFilter) (string, error) {
	if len(filters) == 0 {
		return "", nil
	}

	clauses := make([]string, 0, len(filters))
	for _, f := range filters {
		clause, err := b.buildCondition(f)
		if err != nil {
			return "", err
		}
		clauses = append(clauses, clause)
	}
	return "WHERE " + strings.Join(clauses, " AND "), nil
}

// buildCondition builds a single filter condition
func (b *Builder) buildCondition(f models.AdhocFilter) (string, error) {
	column, err := quoteIdent(f.Subject)
	if err != nil {
		return "", err
	}

	switch f.Operator {
	case models.OpIsNull, models.OpIsNotNull:
		return fmt.Sprintf("%s %s", column, f.Operator), nil
	case models.OpEqual:
		return fmt.Sprintf("%s = %s", column, b.bind(f.Comparator)), nil
	case models.OpNotEqual, models.OpGreaterThan, models.OpGreaterOrEqual,
		models.OpLessThan, models.OpLessOrEqual, models.OpLike:
		return fmt.Sprintf("%s %s %s", column, f.Operator, b.bind(f.Comparator)), nil
	case models.OpILike:
		if b.dialect == DialectSQLite {
			// LIKE is already case-insensitive for ASCII in sqlite
			return fmt.Sprintf("%s LIKE %s", column, b.bind(f.Comparator)), nil
		}
		return fmt.Sprintf("%s ILIKE %s", column, b.bind(f.Comparator)), nil
	case models.OpIn, models.OpNotIn:
		values, ok := f.Comparator.([]any)
		if !ok {
			values = []any{f.Comparator}
		}
		if len(values) == 0 {
			return "", fmt.Errorf("filter on %s: %s needs at least one value", f.Subject, f.Operator)
		}
		placeholders := make([]string, len(values))
		for i, v := range values {
			placeholders[i] = b.bind(v)
		}
		return fmt.Sprintf("%s %s (%s)", column, f.Operator, strings.Join(placeholders, ", ")), nil
	default:
		return "", fmt.Errorf("unsupported operator: %s", f.Operator)
	}
}

// Select renders the statement for one query spec
func (b *Builder) Select(q QuerySpec) (string, error) {
	table, err := quoteIdent(q.Table)
	if err != nil {
		return "", err
	}

	var selects, groupBy []string
	for _, g := range q.GroupBy {
		col, err := quoteIdent(g)
		if err != nil {
			return "", err
		}
		selects = append(selects, col)
		groupBy = append(groupBy, col)
	}
	for _, c := range q.Columns {
		col, err := quoteIdent(c)
		if err != nil {
			return "", err
		}
		selects = append(selects, col)
	}
	var orderBy string
	for i, m := range q.Metrics {
		expr, err := m.expr()
		if err != nil {
			return "", err
		}
		label := quoteLabel(m.Label)
		selects = append(selects, fmt.Sprintf("%s AS %s", expr, label))
		if i == 0 && len(groupBy) > 0 {
			orderBy = label + " DESC"
		}
	}
	if len(selects) == 0 {
		selects = []string{"*"}
	}

	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(strings.Join(selects, ", "))
	sb.WriteString(" FROM ")
	sb.WriteString(table)

	where, err := b.BuildWhere(q.Filters)
	if err != nil {
		return "", err
	}
	if where != "" {
		sb.WriteString(" " + where)
	}
	if len(groupBy) > 0 && len(q.Metrics) > 0 {
		sb.WriteString(" GROUP BY " + strings.Join(groupBy, ", "))
	}
	if orderBy != "" {
		sb.WriteString(" ORDER BY " + orderBy)
	}
	if q.RowLimit > 0 {
		fmt.Fprintf(&sb, " LIMIT %d", q.RowLimit)
	}
	return sb.String(), nil
}
