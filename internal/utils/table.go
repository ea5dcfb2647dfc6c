package utils

import (
	"strings"
	"unicode/utf8"
)

// TableFormatter renders rows as a boxed, left-aligned text table.
type TableFormatter struct {
	headers []string
	rows    [][]string
	widths  []int
}

// NewTableFormatter creates a table with the given column headers.
func NewTableFormatter(headers ...string) *TableFormatter {
	t := &TableFormatter{headers: headers, widths: make([]int, len(headers))}
	t.measure(headers)
	return t
}

// AddRow appends a row. Missing cells are left blank and extra cells are
// dropped.
func (t *TableFormatter) AddRow(cells ...string) *TableFormatter {
	row := make([]string, len(t.headers))
	copy(row, cells)
	t.rows = append(t.rows, row)
	t.measure(row)
	return t
}

// Len returns the number of rows added so far.
func (t *TableFormatter) Len() int {
	return len(t.rows)
}

func (t *TableFormatter) measure(cells []string) {
	for i, cell := range cells {
		if n := utf8.RuneCountInString(cell); n > t.widths[i] {
			t.widths[i] = n
		}
	}
}

// String returns the formatted table.
func (t *TableFormatter) String() string {
	var sb strings.Builder

	t.writeBorder(&sb, "┌", "┬", "┐")
	t.writeRow(&sb, t.headers)
	t.writeBorder(&sb, "├", "┼", "┤")
	for _, row := range t.rows {
		t.writeRow(&sb, row)
	}
	t.writeBorder(&sb, "└", "┴", "┘")

	return sb.String()
}

func (t *TableFormatter) writeRow(sb *strings.Builder, cells []string) {
	sb.WriteString("│")
	for i, cell := range cells {
		sb.WriteString(" ")
		sb.WriteString(cell)
		sb.WriteString(strings.Repeat(" ", t.widths[i]-utf8.RuneCountInString(cell)))
		sb.WriteString(" │")
	}
	sb.WriteString("\n")
}

func (t *TableFormatter) writeBorder(sb *strings.Builder, left, middle, right string) {
	sb.WriteString(left)
	for i, w := range t.widths {
		sb.WriteString(strings.Repeat("─", w+2))
		if i < len(t.widths)-1 {
			sb.WriteString(middle)
		}
	}
	sb.WriteString(right)
	sb.WriteString("\n")
}
