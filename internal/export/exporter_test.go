package export

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rebeliceyang/lazychart/internal/models"
)

var testColumns = []models.ColumnDescriptor{
	{Key: "name", Header: "name"},
	{Key: "num", Header: "num"},
	{Key: "note", Header: "note"},
}

var testRows = []models.Record{
	{"name": "Aaron", "num": 1269.0, "note": "commas, quotes \"and\" special chars"},
	{"name": "Amy", "num": 883.0, "note": nil, "extra": "dropped"},
}

func TestExportToCSV(t *testing.T) {
	csvPath := filepath.Join(t.TempDir(), "test.csv")

	if err := ExportToCSV(testColumns, testRows, csvPath); err != nil {
		t.Fatalf("ExportToCSV failed: %v", err)
	}

	file, err := os.Open(csvPath)
	if err != nil {
		t.Fatalf("Failed to open CSV: %v", err)
	}
	defer func() { _ = file.Close() }()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		t.Fatalf("Failed to read CSV: %v", err)
	}

	if len(records) != 3 { // header + 2 rows
		t.Fatalf("Expected 3 records, got %d", len(records))
	}

	want := [][]string{
		{"name", "num", "note"},
		{"Aaron", "1269", "commas, quotes \"and\" special chars"},
		{"Amy", "883", "NULL"},
	}
	for i, row := range want {
		for j, cell := range row {
			if records[i][j] != cell {
				t.Errorf("record %d col %d: expected %q, got %q", i, j, cell, records[i][j])
			}
		}
	}
}

func TestExportToCSVBadPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "test.csv")
	if err := ExportToCSV(testColumns, testRows, path); err == nil {
		t.Fatal("Expected error for missing directory")
	}
}

func TestExportToJSON(t *testing.T) {
	jsonPath := filepath.Join(t.TempDir(), "test.json")

	if err := ExportToJSON(testColumns, testRows, jsonPath); err != nil {
		t.Fatalf("ExportToJSON failed: %v", err)
	}

	data, err := os.ReadFile(jsonPath)
	if err != nil {
		t.Fatalf("Failed to read JSON: %v", err)
	}

	var got []map[string]any
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Failed to unmarshal JSON: %v", err)
	}

	if len(got) != 2 {
		t.Fatalf("Expected 2 rows, got %d", len(got))
	}
	if got[0]["name"] != "Aaron" || got[0]["num"] != 1269.0 {
		t.Errorf("Unexpected first row: %v", got[0])
	}
	if _, ok := got[1]["extra"]; ok {
		t.Error("Expected columns outside the table to be dropped")
	}
	if v, ok := got[1]["note"]; !ok || v != nil {
		t.Errorf("Expected null note, got %v", v)
	}
}

func TestToClipboardText(t *testing.T) {
	rows := []models.Record{
		{"name": "Aaron", "num": 1269.0, "note": "line one\nline two"},
		{"name": "Amy", "num": 883.5, "note": "tab\there"},
	}

	got := ToClipboardText(testColumns, rows)
	want := "name\tnum\tnote\n" +
		"Aaron\t1269\tline one line two\n" +
		"Amy\t883.5\ttab here\n"
	if got != want {
		t.Errorf("ToClipboardText mismatch:\nwant %q\ngot  %q", want, got)
	}

	if ToClipboardText(nil, rows) != "" {
		t.Error("Expected empty text without columns")
	}
}

func TestDefaultFileName(t *testing.T) {
	tests := []struct {
		datasource string
		kind       models.ResultKind
		ext        string
		want       string
	}{
		{"birth_names__table", models.KindResults, "csv", "birth_names_results.csv"},
		{"birth_names__table", models.KindSamples, "json", "birth_names_samples.json"},
		{"", models.KindResults, "csv", "chart_results.csv"},
	}

	for _, tt := range tests {
		if got := DefaultFileName(tt.datasource, tt.kind, tt.ext); got != tt.want {
			t.Errorf("DefaultFileName(%q, %v, %q) = %q, want %q", tt.datasource, tt.kind, tt.ext, got, tt.want)
		}
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("disk full")
}

func TestWriteCSVReportsWriteFailure(t *testing.T) {
	err := writeCSV(failingWriter{}, testColumns, testRows)
	if err == nil {
		t.Fatal("expected an error from a failing writer")
	}
	if !strings.Contains(err.Error(), "disk full") {
		t.Errorf("error %q does not wrap the write failure", err)
	}
}

func TestExportToCSVMissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "test.csv")
	if err := ExportToCSV(testColumns, testRows, path); err == nil {
		t.Fatal("expected an error for a missing directory")
	}
}
