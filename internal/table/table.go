// Package table provides the ordered tabular data exchanged between source
// adapters, the BOM engine, and renderers.
//
// A Table is a named sheet: an ordered list of column names and rows keyed
// by column. Cells are nil (absent), int64, float64, bool or string.
package table

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Row is a single record keyed by column name. A missing key and a nil
// value both mean the cell is empty.
type Row map[string]any

// Get returns the cell for col and whether it holds a non-null value.
func (r Row) Get(col string) (any, bool) {
	v, ok := r[col]
	if !ok || IsNull(v) {
		return nil, false
	}
	return v, true
}

// Text returns the cell for col formatted as text, or "" when empty.
func (r Row) Text(col string) string {
	v, ok := r.Get(col)
	if !ok {
		return ""
	}
	return FormatValue(v)
}

// Table is an ordered, named collection of rows.
type Table struct {
	Name    string
	Columns []string
	Rows    []Row
}

// New creates an empty table with the given columns.
func New(name string, columns ...string) *Table {
	return &Table{Name: name, Columns: append([]string(nil), columns...)}
}

// HasColumn reports whether col is one of the table's columns.
func (t *Table) HasColumn(col string) bool {
	for _, c := range t.Columns {
		if c == col {
			return true
		}
	}
	return false
}

// AddColumn appends col to the column list if it is not present yet.
func (t *Table) AddColumn(col string) {
	if !t.HasColumn(col) {
		t.Columns = append(t.Columns, col)
	}
}

// Append adds a row built from values in column order. Extra values are
// ignored and missing values are left empty.
func (t *Table) Append(values ...any) {
	row := make(Row, len(t.Columns))
	for i, col := range t.Columns {
		if i < len(values) && !IsNull(values[i]) {
			row[col] = values[i]
		}
	}
	t.Rows = append(t.Rows, row)
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// Clone returns a deep copy of the table; rows and the column list are not
// shared with the original.
func (t *Table) Clone() *Table {
	c := &Table{
		Name:    t.Name,
		Columns: append([]string(nil), t.Columns...),
		Rows:    make([]Row, len(t.Rows)),
	}
	for i, row := range t.Rows {
		cp := make(Row, len(row))
		for k, v := range row {
			cp[k] = v
		}
		c.Rows[i] = cp
	}
	return c
}

// Select returns a copy restricted to the named columns that exist in t.
func (t *Table) Select(cols ...string) *Table {
	out := &Table{Name: t.Name}
	for _, col := range cols {
		if t.HasColumn(col) {
			out.Columns = append(out.Columns, col)
		}
	}
	for _, row := range t.Rows {
		cp := make(Row, len(out.Columns))
		for _, col := range out.Columns {
			if v, ok := row.Get(col); ok {
				cp[col] = v
			}
		}
		out.Rows = append(out.Rows, cp)
	}
	return out
}

// DropEmptyColumns returns a copy without columns whose cells are all empty.
func (t *Table) DropEmptyColumns() *Table {
	var keep []string
	for _, col := range t.Columns {
		for _, row := range t.Rows {
			if _, ok := row.Get(col); ok {
				keep = append(keep, col)
				break
			}
		}
	}
	return t.Select(keep...)
}

// FromRecords builds a table from a header and string records, coercing
// every cell with ParseCell except the columns listed in textCols which
// keep their trimmed text. Blank header cells get positional names.
func FromRecords(name string, header []string, records [][]string, textCols ...string) *Table {
	text := make(map[string]bool, len(textCols))
	for _, c := range textCols {
		text[c] = true
	}

	t := &Table{Name: name}
	for i, h := range header {
		h = strings.TrimSpace(h)
		if h == "" {
			h = fmt.Sprintf("Unnamed: %d", i)
		}
		t.Columns = append(t.Columns, h)
	}

	for _, rec := range records {
		if blankRecord(rec) {
			continue
		}
		row := make(Row, len(t.Columns))
		for i, col := range t.Columns {
			if i >= len(rec) {
				break
			}
			raw := strings.TrimSpace(rec[i])
			if raw == "" {
				continue
			}
			if text[col] {
				row[col] = raw
				continue
			}
			row[col] = ParseCell(raw)
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

func blankRecord(rec []string) bool {
	for _, c := range rec {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// ParseCell converts spreadsheet text into a typed cell value.
func ParseCell(s string) any {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return f
	}
	switch strings.ToLower(s) {
	case "true":
		return true
	case "false":
		return false
	case "nan", "null", "none", "n/a":
		return nil
	}
	return s
}

// IsNull reports whether v is an empty cell.
func IsNull(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case float64:
		return math.IsNaN(x)
	case string:
		return x == ""
	}
	return false
}

// AsFloat converts a numeric cell to float64. Numeric text is accepted.
func AsFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case int64:
		return float64(x), true
	case int:
		return float64(x), true
	case float64:
		if math.IsNaN(x) {
			return 0, false
		}
		return x, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil || math.IsNaN(f) {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

// AsInt converts an integral cell to int64. Floats are accepted only when
// they hold a whole number.
func AsInt(v any) (int64, bool) {
	switch x := v.(type) {
	case int64:
		return x, true
	case int:
		return int64(x), true
	}
	f, ok := AsFloat(v)
	if !ok || f != math.Trunc(f) || math.Abs(f) > math.MaxInt64 {
		return 0, false
	}
	return int64(f), true
}

// FormatValue renders a cell for display. Whole floats print without a
// fractional part so numeric part numbers read naturally.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		if math.IsNaN(x) {
			return ""
		}
		if x == math.Trunc(x) && math.Abs(x) < 1e15 {
			return strconv.FormatInt(int64(x), 10)
		}
		return strconv.FormatFloat(x, 'f', -1, 64)
	}
	return fmt.Sprintf("%v", v)
}
