// Package formatter renders operator-facing summary tables.
package formatter

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"
)

// Table is a titled grid of cells printed after each pipeline run.
type Table struct {
	Title   string
	Headers []string
	Rows    [][]string
}

// NewTable creates a table with the given title and column headers.
func NewTable(title string, headers ...string) *Table {
	return &Table{Title: title, Headers: headers}
}

// Add appends a row; values are formatted with %v.
func (t *Table) Add(values ...any) *Table {
	row := make([]string, len(values))
	for i, v := range values {
		row[i] = fmt.Sprint(v)
	}

	t.Rows = append(t.Rows, row)

	return t
}

// Lines renders the table as aligned markdown rows.
// Widths are measured in display cells so non-ASCII names line up.
func (t *Table) Lines() []string {
	table := append([][]string{t.Headers}, t.Rows...)

	colCount := 0
	for _, row := range table {
		if len(row) > colCount {
			colCount = len(row)
		}
	}

	if colCount == 0 {
		return nil
	}

	colWidths := make([]int, colCount)

	for _, row := range table {
		for i, cell := range row {
			if width := runewidth.StringWidth(cell); width > colWidths[i] {
				colWidths[i] = width
			}
		}
	}

	// A separator needs at least three dashes.
	for i := range colWidths {
		if colWidths[i] < 3 {
			colWidths[i] = 3
		}
	}

	result := make([]string, 0, len(table)+1)
	result = append(result, renderRow(t.Headers, colWidths))

	sep := make([]string, colCount)
	for i, w := range colWidths {
		sep[i] = strings.Repeat("-", w)
	}

	result = append(result, renderRow(sep, colWidths))

	for _, row := range t.Rows {
		result = append(result, renderRow(row, colWidths))
	}

	return result
}

// String renders the title and table.
func (t *Table) String() string {
	var sb strings.Builder

	if t.Title != "" {
		sb.WriteString(t.Title)
		sb.WriteString("\n\n")
	}

	for _, line := range t.Lines() {
		sb.WriteString(line)
		sb.WriteString("\n")
	}

	return sb.String()
}

// Print writes the rendered table to w followed by a blank line.
func (t *Table) Print(w io.Writer) error {
	_, err := fmt.Fprintln(w, t.String())

	return err
}

func renderRow(row []string, colWidths []int) string {
	var sb strings.Builder

	sb.WriteString("|")

	for j, width := range colWidths {
		content := ""
		if j < len(row) {
			content = row[j]
		}

		sb.WriteString(" ")
		sb.WriteString(content)

		if padding := width - runewidth.StringWidth(content); padding > 0 {
			sb.WriteString(strings.Repeat(" ", padding))
		}

		sb.WriteString(" |")
	}

	return sb.String()
}
