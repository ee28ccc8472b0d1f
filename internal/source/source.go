// Package source loads the raw tables of a bill of materials from disk.
//
// A source is either a directory of spreadsheets (one table per file), a
// single workbook (one table per sheet), or a SQLite database (one table per
// database table). Whatever the format, one table is the parts list and every
// other table defines the assembly it is named after.
package source

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/leapstack-labs/leapbom/internal/bom"
	"github.com/leapstack-labs/leapbom/internal/table"
)

// DefaultPartsName is the name of the parts list table.
const DefaultPartsName = "Parts list"

var (
	// ErrNoPartsTable is returned when no table carries the parts list name.
	ErrNoPartsTable = errors.New("parts list not found")
	// ErrUnsupported is returned for file types no reader handles.
	ErrUnsupported = errors.New("unsupported source format")
)

// Options configures loading.
type Options struct {
	// PartsName names the parts list table; matched case-insensitively.
	PartsName string
	// PNColumn is kept as text in every table.
	PNColumn string
	Logger   *slog.Logger
}

func (o Options) normalize() Options {
	if o.PartsName == "" {
		o.PartsName = DefaultPartsName
	}
	if o.PNColumn == "" {
		o.PNColumn = bom.DefaultColumns().PN
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}
	return o
}

// Workbook is the loaded input of one bill of materials.
type Workbook struct {
	Origin     string
	Parts      *table.Table
	Assemblies []*table.Table
}

// Build indexes the parts list and resolves the assemblies into a tree.
func (w *Workbook) Build(opts bom.Options) (*bom.Tree, error) {
	db, err := bom.LoadParts(w.Parts, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to load parts list: %w", err)
	}
	tree, err := bom.Resolve(db, w.Assemblies, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", w.Origin, err)
	}
	return tree, nil
}

// Load reads path as a directory or as a single file.
func Load(ctx context.Context, path string, opts Options) (*Workbook, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read source: %w", err)
	}
	if info.IsDir() {
		return LoadDir(ctx, path, opts)
	}
	return LoadFile(ctx, path, opts)
}

// LoadDir reads every .xlsx and .csv file in dir as a table named after the
// file. Files whose names start with "_" or "~" are ignored.
func LoadDir(ctx context.Context, dir string, opts Options) (*Workbook, error) {
	opts = opts.normalize()

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	var tables []*table.Table
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, "_") || strings.HasPrefix(name, "~") {
			continue
		}
		path := filepath.Join(dir, name)
		base := strings.TrimSuffix(name, filepath.Ext(name))

		var t *table.Table
		switch strings.ToLower(filepath.Ext(name)) {
		case ".csv":
			t, err = readCSV(path, base, opts.PNColumn)
		case ".xlsx":
			t, err = readXLSXFirstSheet(path, base, opts.PNColumn)
		default:
			continue
		}
		if err != nil {
			return nil, err
		}
		opts.Logger.Debug("loaded table", "table", t.Name, "rows", t.Len(), "path", path)
		tables = append(tables, t)
	}

	return splitByName(dir, tables, opts.PartsName)
}

// LoadFile reads a single workbook. Spreadsheet and document workbooks take
// their first sheet as the parts list; SQLite databases use the table named
// after the parts list.
func LoadFile(ctx context.Context, path string, opts Options) (*Workbook, error) {
	opts = opts.normalize()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		sheets, err := readXLSX(path, opts.PNColumn)
		if err != nil {
			return nil, err
		}
		return splitFirst(path, sheets)
	case ".yaml", ".yml", ".json":
		sheets, err := readDocument(path, opts.PNColumn)
		if err != nil {
			return nil, err
		}
		return splitFirst(path, sheets)
	case ".db", ".sqlite", ".sqlite3":
		return LoadSQLite(ctx, path, opts)
	case ".csv":
		return nil, fmt.Errorf("%w: %s (a CSV file holds one table; load its directory instead)", ErrUnsupported, path)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupported, path)
}

func splitFirst(origin string, sheets []*table.Table) (*Workbook, error) {
	if len(sheets) < 2 {
		return nil, fmt.Errorf("%s: a workbook needs a parts list and at least one assembly, found %d sheet(s)", origin, len(sheets))
	}
	return &Workbook{Origin: origin, Parts: sheets[0], Assemblies: sheets[1:]}, nil
}

func splitByName(origin string, tables []*table.Table, partsName string) (*Workbook, error) {
	w := &Workbook{Origin: origin}
	for _, t := range tables {
		if !strings.EqualFold(t.Name, partsName) {
			w.Assemblies = append(w.Assemblies, t)
			continue
		}
		if w.Parts != nil {
			return nil, fmt.Errorf("%s: parts list %q defined twice", origin, partsName)
		}
		w.Parts = t
	}
	if w.Parts == nil {
		return nil, fmt.Errorf("%w: no %q table in %s", ErrNoPartsTable, partsName, origin)
	}
	return w, nil
}
