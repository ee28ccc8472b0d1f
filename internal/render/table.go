// Package render turns BOM query results into text: tables in several
// formats, an indented tree and a Graphviz DOT graph.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	bomtable "github.com/leapstack-labs/leapbom/internal/table"
)

// Format selects how tables are written.
type Format string

const (
	FormatTable    Format = "table"
	FormatJSON     Format = "json"
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
)

// ParseFormat accepts a format name; "md" is short for markdown.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "table", "":
		return FormatTable, nil
	case "json":
		return FormatJSON, nil
	case "csv":
		return FormatCSV, nil
	case "md", "markdown":
		return FormatMarkdown, nil
	}
	return "", fmt.Errorf("unknown output format %q", s)
}

// Table writes t in the given format.
func Table(w io.Writer, t *bomtable.Table, format Format) error {
	switch format {
	case FormatJSON:
		return renderJSON(w, t)
	case FormatCSV:
		newWriter(w, t).RenderCSV()
		return nil
	case FormatMarkdown:
		if t.Len() == 0 {
			_, _ = fmt.Fprintln(w, "(0 rows)")
			return nil
		}
		newWriter(w, t).RenderMarkdown()
		return nil
	default:
		return renderTable(w, t)
	}
}

func newWriter(w io.Writer, t *bomtable.Table) table.Writer {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleLight)

	header := make(table.Row, len(t.Columns))
	for i, col := range t.Columns {
		header[i] = col
	}
	tw.AppendHeader(header)

	for _, r := range t.Rows {
		row := make(table.Row, len(t.Columns))
		for i, col := range t.Columns {
			row[i] = r.Text(col)
		}
		tw.AppendRow(row)
	}
	return tw
}

func renderTable(w io.Writer, t *bomtable.Table) error {
	if t.Len() == 0 {
		_, _ = fmt.Fprintln(w, "(0 rows)")
		return nil
	}
	newWriter(w, t).Render()
	_, _ = fmt.Fprintf(w, "(%d rows)\n", t.Len())
	return nil
}

func renderJSON(w io.Writer, t *bomtable.Table) error {
	results := make([]map[string]any, 0, t.Len())
	for _, r := range t.Rows {
		row := make(map[string]any, len(t.Columns))
		for _, col := range t.Columns {
			v, _ := r.Get(col)
			row[col] = v
		}
		results = append(results, row)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}
