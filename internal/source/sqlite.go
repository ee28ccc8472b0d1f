package source

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/leapstack-labs/leapbom/internal/table"
)

// LoadSQLite reads a SQLite database. The table named after the parts list
// is the parts list; every other table is an assembly, in name order.
func LoadSQLite(ctx context.Context, path string, opts Options) (*Workbook, error) {
	opts = opts.normalize()

	db, err := sql.Open("sqlite", readOnlyDSN(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	defer func() { _ = db.Close() }()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	tables, err := readDatabase(ctx, db, opts)
	if err != nil {
		return nil, err
	}
	return splitByName(path, tables, opts.PartsName)
}

// uriEscaper escapes the characters that end or encode the path part of a
// SQLite URI filename.
var uriEscaper = strings.NewReplacer("%", "%25", "?", "%3f", "#", "%23")

// readOnlyDSN opens path as a read-only URI filename. Query parameters are
// only honoured by the driver when the name has the file: scheme.
func readOnlyDSN(path string) string {
	return "file:" + uriEscaper.Replace(path) + "?mode=ro"
}

func readDatabase(ctx context.Context, db *sql.DB, opts Options) ([]*table.Table, error) {
	names, err := tableNames(ctx, db)
	if err != nil {
		return nil, err
	}

	out := make([]*table.Table, 0, len(names))
	for _, name := range names {
		t, err := readSQLTable(ctx, db, name, opts.PNColumn)
		if err != nil {
			return nil, err
		}
		opts.Logger.Debug("loaded table", "table", name, "rows", t.Len())
		out = append(out, t)
	}
	return out, nil
}

func tableNames(ctx context.Context, db *sql.DB) ([]string, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan table name: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tables: %w", err)
	}
	return names, nil
}

func readSQLTable(ctx context.Context, db *sql.DB, name, pnCol string) (*table.Table, error) {
	//nolint:gosec // table names come from sqlite_master and are quoted
	rows, err := db.QueryContext(ctx, "SELECT * FROM "+quoteIdent(name))
	if err != nil {
		return nil, fmt.Errorf("failed to query table %q: %w", name, err)
	}
	defer func() { _ = rows.Close() }()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns of %q: %w", name, err)
	}

	t := table.New(name, cols...)
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row of %q: %w", name, err)
		}

		row := make(table.Row, len(cols))
		for i, col := range cols {
			v := sqlCell(values[i])
			if v == nil {
				continue
			}
			if col == pnCol {
				v = table.FormatValue(v)
			}
			row[col] = v
		}
		t.Rows = append(t.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %q: %w", name, err)
	}
	return t, nil
}

func sqlCell(v any) any {
	switch x := v.(type) {
	case []byte:
		v = string(x)
	case int:
		return int64(x)
	case int32:
		return int64(x)
	}
	if s, ok := v.(string); ok {
		s = strings.TrimSpace(s)
		if s == "" {
			return nil
		}
		return s
	}
	return v
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
