package datapanel

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/rebeliceyang/lazychart/internal/models"
)

// FilterRows keeps the rows where any non-null field, stringified, contains
// filterText case-insensitively. An empty filter returns rows unchanged.
func FilterRows(filterText string, rows []models.Record) []models.Record {
	if filterText == "" || rows == nil {
		return rows
	}
	needle := strings.ToLower(filterText)

	filtered := make([]models.Record, 0, len(rows))
	for _, row := range rows {
		for _, v := range row {
			if v == nil {
				continue
			}
			if strings.Contains(strings.ToLower(FormatValue(v)), needle) {
				filtered = append(filtered, row)
				break
			}
		}
	}
	return filtered
}

// Columns derives the table columns. Order comes from columnNames, not from
// the rows, and only names present in the first row are kept. Without column
// names the first row's keys are used in lexical order.
func Columns(columnNames []string, rows []models.Record) []models.ColumnDescriptor {
	if len(rows) == 0 {
		return nil
	}
	first := rows[0]

	var cols []models.ColumnDescriptor
	if len(columnNames) == 0 {
		keys := make([]string, 0, len(first))
		for k := range first {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			cols = append(cols, models.ColumnDescriptor{Key: k, Header: k})
		}
		return cols
	}

	for _, name := range columnNames {
		if _, ok := first[name]; ok {
			cols = append(cols, models.ColumnDescriptor{Key: name, Header: name})
		}
	}
	return cols
}

// FormatValue renders a cell value as text
func FormatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "NULL"
	case string:
		return val
	case float64:
		// JSON numbers; plain decimal notation below 1e21
		if math.Abs(val) < 1e21 {
			return strconv.FormatFloat(val, 'f', -1, 64)
		}
		return strconv.FormatFloat(val, 'g', -1, 64)
	case map[string]any, []any:
		b, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprintf("%v", val)
		}
		return string(b)
	case []byte:
		return string(val)
	default:
		return fmt.Sprintf("%v", val)
	}
}
