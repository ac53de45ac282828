package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/paginator"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/rebeliceyang/lazychart/internal/datapanel"
	"github.com/rebeliceyang/lazychart/internal/models"
	"github.com/rebeliceyang/lazychart/internal/ui/theme"
)

const (
	minColumnWidth = 4
	nullText       = "NULL"
)

// TableView displays rows one page at a time
type TableView struct {
	Columns      []models.ColumnDescriptor
	Rows         [][]string
	Width        int
	Height       int
	MaxCellWidth int
	Theme        theme.Theme
	Paginator    paginator.Model

	// SelectedRow is relative to the current page
	SelectedRow int

	// Column widths (calculated)
	ColumnWidths []int
}

// NewTableView creates a table that shows pageSize rows per page
func NewTableView(th theme.Theme, pageSize, maxCellWidth int) *TableView {
	p := paginator.New()
	p.Type = paginator.Arabic
	p.PerPage = max(pageSize, 1)

	return &TableView{
		Theme:        th,
		MaxCellWidth: max(maxCellWidth, minColumnWidth),
		Paginator:    p,
	}
}

// SetData replaces the table contents and returns to the first page
func (tv *TableView) SetData(columns []models.ColumnDescriptor, rows []models.Record) {
	tv.Columns = columns
	tv.Rows = make([][]string, len(rows))
	for i, row := range rows {
		cells := make([]string, len(columns))
		for j, col := range columns {
			cells[j] = datapanel.FormatValue(row[col.Key])
		}
		tv.Rows[i] = cells
	}
	tv.Paginator.TotalPages = 1
	tv.Paginator.SetTotalPages(len(tv.Rows))
	tv.Paginator.Page = 0
	tv.SelectedRow = 0
	tv.calculateColumnWidths()
}

// PageBounds returns the slice bounds of the current page
func (tv *TableView) PageBounds() (start, end int) {
	return tv.Paginator.GetSliceBounds(len(tv.Rows))
}

// calculateColumnWidths sizes each column to its widest cell, capped
func (tv *TableView) calculateColumnWidths() {
	tv.ColumnWidths = make([]int, len(tv.Columns))
	for i, col := range tv.Columns {
		tv.ColumnWidths[i] = lipgloss.Width(col.Header)
	}
	for _, row := range tv.Rows {
		for i, cell := range row {
			if w := runewidth.StringWidth(cell); w > tv.ColumnWidths[i] {
				tv.ColumnWidths[i] = w
			}
		}
	}
	for i := range tv.ColumnWidths {
		tv.ColumnWidths[i] = min(max(tv.ColumnWidths[i], minColumnWidth), tv.MaxCellWidth)
	}
}

// View renders the current page
func (tv *TableView) View() string {
	if len(tv.Columns) == 0 || len(tv.Rows) == 0 {
		return lipgloss.NewStyle().Foreground(tv.Theme.Muted).Render("No data")
	}

	var b strings.Builder
	b.WriteString(tv.renderHeader())
	b.WriteString("\n")
	b.WriteString(tv.renderSeparator())

	start, end := tv.PageBounds()
	// Header, separator and footer take three lines
	visible := end - start
	if tv.Height > 3 {
		visible = min(visible, tv.Height-3)
	}
	offset := 0
	if tv.SelectedRow >= visible {
		offset = tv.SelectedRow - visible + 1
	}

	for i := start + offset; i < start+offset+visible && i < end; i++ {
		b.WriteString("\n")
		b.WriteString(tv.renderRow(i-start, tv.Rows[i]))
	}

	b.WriteString("\n")
	b.WriteString(tv.renderStatus())

	out := b.String()
	if tv.Width > 0 {
		out = lipgloss.NewStyle().MaxWidth(tv.Width).Render(out)
	}
	return out
}

func (tv *TableView) renderHeader() string {
	parts := make([]string, len(tv.Columns))
	for i, col := range tv.Columns {
		parts[i] = pad(col.Header, tv.ColumnWidths[i])
	}
	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(tv.Theme.TableHeader).
		Background(tv.Theme.TableHeaderBg)
	return headerStyle.Render(" " + strings.Join(parts, " │ ") + " ")
}

func (tv *TableView) renderSeparator() string {
	parts := make([]string, len(tv.ColumnWidths))
	for i, width := range tv.ColumnWidths {
		parts[i] = strings.Repeat("─", width)
	}
	return lipgloss.NewStyle().
		Foreground(tv.Theme.TableSeparator).
		Render("─" + strings.Join(parts, "─┼─") + "─")
}

func (tv *TableView) renderRow(pageIdx int, row []string) string {
	nullStyle := lipgloss.NewStyle().Foreground(tv.Theme.TableNull).Italic(true)

	parts := make([]string, len(row))
	for i, cell := range row {
		padded := pad(cell, tv.ColumnWidths[i])
		if cell == nullText && pageIdx != tv.SelectedRow {
			padded = nullStyle.Render(padded)
		}
		parts[i] = padded
	}
	line := " " + strings.Join(parts, " │ ") + " "

	switch {
	case pageIdx == tv.SelectedRow:
		return lipgloss.NewStyle().
			Background(tv.Theme.TableRowHovered).
			Bold(true).
			Render(line)
	case pageIdx%2 == 1:
		return lipgloss.NewStyle().Background(tv.Theme.TableRowOdd).Render(line)
	}
	return line
}

func (tv *TableView) renderStatus() string {
	start, end := tv.PageBounds()
	showing := fmt.Sprintf(" %d-%d of %d rows", start+1, end, len(tv.Rows))
	if tv.Paginator.TotalPages > 1 {
		showing += "  page " + tv.Paginator.View()
	}
	return lipgloss.NewStyle().
		Foreground(tv.Theme.Muted).
		Italic(true).
		Render(showing)
}

// pad truncates or pads s to exactly width cells
func pad(s string, width int) string {
	if runewidth.StringWidth(s) > width {
		s = runewidth.Truncate(s, width, "…")
	}
	return s + strings.Repeat(" ", max(width-runewidth.StringWidth(s), 0))
}

// MoveSelection moves the selection within the current page
func (tv *TableView) MoveSelection(delta int) {
	start, end := tv.PageBounds()
	tv.SelectedRow = min(max(tv.SelectedRow+delta, 0), max(end-start-1, 0))
}

// NextPage advances one page
func (tv *TableView) NextPage() {
	if !tv.Paginator.OnLastPage() {
		tv.Paginator.NextPage()
		tv.SelectedRow = 0
	}
}

// PrevPage goes back one page
func (tv *TableView) PrevPage() {
	if !tv.Paginator.OnFirstPage() {
		tv.Paginator.PrevPage()
		tv.SelectedRow = 0
	}
}
