// Package format renders tabular CLI output. Code produces rows; this
// package decides how they look, in fixed-width ASCII for terminals or
// Markdown for reports.
package format

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// Mode selects the rendering target.
type Mode int

const (
	ASCII    Mode = iota // fixed-width terminal tables
	Markdown             // GitHub-flavoured Markdown tables
)

// ParseMode maps a --format flag value to a Mode. Unknown values render ASCII.
func ParseMode(s string) Mode {
	if s == "markdown" || s == "md" {
		return Markdown
	}
	return ASCII
}

// Table accumulates rows and renders them in a Mode.
type Table struct {
	writer  table.Writer
	mode    Mode
	configs []table.ColumnConfig
}

// NewTable returns a table with the given header columns.
func NewTable(m Mode, header ...string) *Table {
	w := table.NewWriter()
	if m == ASCII {
		w.SetStyle(table.StyleLight)
	}
	if len(header) > 0 {
		row := make(table.Row, len(header))
		for i, h := range header {
			row[i] = h
		}
		w.AppendHeader(row)
	}
	return &Table{writer: w, mode: m}
}

// Row appends one data row.
func (t *Table) Row(vals ...any) {
	row := make(table.Row, len(vals))
	copy(row, vals)
	t.writer.AppendRow(row)
}

// WidthMax caps the rendered width of a 1-based column, wrapping content.
func (t *Table) WidthMax(column, width int) {
	t.configs = append(t.configs, table.ColumnConfig{Number: column, WidthMax: width})
	t.writer.SetColumnConfigs(t.configs)
}

// AlignRight right-aligns a 1-based column.
func (t *Table) AlignRight(column int) {
	t.configs = append(t.configs, table.ColumnConfig{Number: column, Align: text.AlignRight})
	t.writer.SetColumnConfigs(t.configs)
}

// String renders the accumulated table.
func (t *Table) String() string {
	if t.mode == Markdown {
		return t.writer.RenderMarkdown()
	}
	return t.writer.Render()
}
