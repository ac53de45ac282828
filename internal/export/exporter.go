package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rebeliceyang/lazychart/internal/datapanel"
	"github.com/rebeliceyang/lazychart/internal/models"
)

// cells renders one row in column order
func cells(columns []models.ColumnDescriptor, row models.Record) []string {
	out := make([]string, len(columns))
	for i, col := range columns {
		out[i] = datapanel.FormatValue(row[col.Key])
	}
	return out
}

// keeps one record per line
var flatten = strings.NewReplacer("\t", " ", "\n", " ", "\r", " ")

// ToClipboardText renders rows as tab separated text with a header line
func ToClipboardText(columns []models.ColumnDescriptor, rows []models.Record) string {
	if len(columns) == 0 {
		return ""
	}

	var sb strings.Builder
	header := make([]string, len(columns))
	for i, col := range columns {
		header[i] = col.Header
	}
	sb.WriteString(strings.Join(header, "\t"))
	sb.WriteString("\n")

	for _, row := range rows {
		line := cells(columns, row)
		for i, cell := range line {
			line[i] = flatten.Replace(cell)
		}
		sb.WriteString(strings.Join(line, "\t"))
		sb.WriteString("\n")
	}
	return sb.String()
}

// ExportToCSV writes rows to a CSV file with a header line
func ExportToCSV(columns []models.ColumnDescriptor, rows []models.Record, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}

	if err := writeCSV(file, columns, rows); err != nil {
		_ = file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close CSV file: %w", err)
	}
	return nil
}

func writeCSV(w io.Writer, columns []models.ColumnDescriptor, rows []models.Record) error {
	writer := csv.NewWriter(w)

	header := make([]string, len(columns))
	for i, col := range columns {
		header[i] = col.Header
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, row := range rows {
		if err := writer.Write(cells(columns, row)); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV file: %w", err)
	}
	return nil
}

// ExportToJSON writes rows to a JSON array file, keeping only the given columns
func ExportToJSON(columns []models.ColumnDescriptor, rows []models.Record, path string) error {
	out := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		m := make(map[string]any, len(columns))
		for _, col := range columns {
			m[col.Key] = row[col.Key]
		}
		out = append(out, m)
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal rows to JSON: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write JSON file: %w", err)
	}

	return nil
}

// DefaultFileName builds "<table>_<kind>.<ext>" from a datasource id
func DefaultFileName(datasource string, kind models.ResultKind, ext string) string {
	name, _, _ := strings.Cut(datasource, "__")
	if name == "" {
		name = "chart"
	}
	return fmt.Sprintf("%s_%s.%s", name, kind, ext)
}
