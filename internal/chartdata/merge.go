package chartdata

import (
	"github.com/rebeliceyang/lazychart/internal/models"
)

// MergeResults flattens a chart data response into one row sequence.
// A single result set is used as is; several are overlaid row by row, so row
// i of the output carries the union of every set's row i (later sets win on
// key collisions).
func MergeResults(results []models.QueryResult) []models.Record {
	switch len(results) {
	case 0:
		return []models.Record{}
	case 1:
		if results[0].Data == nil {
			return []models.Record{}
		}
		return results[0].Data
	}

	var merged []models.Record
	for _, res := range results {
		for i, row := range res.Data {
			if i < len(merged) {
				combined := make(models.Record, len(merged[i])+len(row))
				for k, v := range merged[i] {
					combined[k] = v
				}
				for k, v := range row {
					combined[k] = v
				}
				merged[i] = combined
			} else {
				merged = append(merged, row)
			}
		}
	}
	if merged == nil {
		merged = []models.Record{}
	}
	return merged
}
