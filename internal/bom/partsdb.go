package bom

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/leapstack-labs/leapbom/internal/table"
)

// Attr is a named attribute of a part record.
type Attr struct {
	Name  string
	Value any
}

// PartRecord is one row of the parts list. It is immutable once loaded.
type PartRecord struct {
	PN     string
	Tag    string
	fields []string
	row    table.Row
}

// Get returns the value of field and whether it is non-null.
func (r *PartRecord) Get(field string) (any, bool) {
	return r.row.Get(field)
}

// Attrs returns the non-null attributes other than the part number, in
// column order.
func (r *PartRecord) Attrs() []Attr {
	var out []Attr
	for _, f := range r.fields {
		if v, ok := r.row.Get(f); ok {
			out = append(out, Attr{Name: f, Value: v})
		}
	}
	return out
}

// PartsDB is the master parts list keyed by part number.
type PartsDB struct {
	table   *table.Table
	cols    Columns
	records map[string]*PartRecord
	order   []string
	dups    []string
	log     *slog.Logger
}

// LoadParts indexes the parts table by its PN column. Rows without a part
// number are skipped. A repeated part number replaces the earlier record
// unless opts.StrictParts is set, in which case ErrDuplicatePart is returned.
func LoadParts(t *table.Table, opts Options) (*PartsDB, error) {
	opts = opts.normalize()
	cols := opts.Columns
	if !t.HasColumn(cols.PN) {
		return nil, fmt.Errorf("parts table %q: %w %q", t.Name, ErrMissingKeyColumn, cols.PN)
	}

	var fields []string
	for _, c := range t.Columns {
		if c != cols.PN {
			fields = append(fields, c)
		}
	}

	db := &PartsDB{
		table:   t.Clone(),
		cols:    cols,
		records: make(map[string]*PartRecord, t.Len()),
		log:     opts.Logger,
	}

	for i, row := range t.Rows {
		pn := row.Text(cols.PN)
		if pn == "" {
			db.log.Warn("parts list row without part number", "row", i+1)
			continue
		}
		if _, exists := db.records[pn]; exists {
			if opts.StrictParts {
				return nil, fmt.Errorf("%w: %s", ErrDuplicatePart, pn)
			}
			db.log.Warn("duplicate part number, later row wins", "pn", pn, "row", i+1)
			db.dups = append(db.dups, pn)
		} else {
			db.order = append(db.order, pn)
		}

		tag := "part"
		if v := strings.ToLower(row.Text(cols.Type)); v != "" {
			tag = v
		}
		db.records[pn] = &PartRecord{PN: pn, Tag: tag, fields: fields, row: row}
	}
	return db, nil
}

// Get returns the record for pn.
func (db *PartsDB) Get(pn string) (*PartRecord, bool) {
	r, ok := db.records[pn]
	return r, ok
}

// Fields returns the column names of the parts list, PN first.
func (db *PartsDB) Fields() []string {
	return append([]string(nil), db.table.Columns...)
}

// Prop returns a single attribute of a part. An unknown part is logged and
// reported as absent.
func (db *PartsDB) Prop(pn, field string) (any, bool) {
	r, ok := db.records[pn]
	if !ok {
		db.log.Warn("part not found", "pn", pn)
		return nil, false
	}
	if field == db.cols.PN {
		return r.PN, true
	}
	return r.Get(field)
}

// PNs returns the part numbers in first-seen order.
func (db *PartsDB) PNs() []string {
	return append([]string(nil), db.order...)
}

// Len returns the number of distinct part numbers.
func (db *PartsDB) Len() int {
	return len(db.order)
}

// Duplicates lists the part numbers that appeared more than once.
func (db *PartsDB) Duplicates() []string {
	return append([]string(nil), db.dups...)
}

// Table returns a copy of the parts table.
func (db *PartsDB) Table() *table.Table {
	return db.table.Clone()
}

// Columns returns the column names in effect.
func (db *PartsDB) Columns() Columns {
	return db.cols
}
