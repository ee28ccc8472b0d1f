package source

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/leapstack-labs/leapbom/internal/table"
)

// readXLSX returns one table per sheet, in workbook order.
func readXLSX(path, pnCol string) ([]*table.Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	var out []*table.Table
	for _, sheet := range f.GetSheetList() {
		t, err := sheetTable(f, sheet, sheet, pnCol)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		out = append(out, t)
	}
	return out, nil
}

// readXLSXFirstSheet reads the first sheet of a workbook as a table called
// name.
func readXLSXFirstSheet(path, name, pnCol string) (*table.Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return table.New(name), nil
	}
	t, err := sheetTable(f, sheets[0], name, pnCol)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

func sheetTable(f *excelize.File, sheet, name, pnCol string) (*table.Table, error) {
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return table.New(name), nil
	}
	return table.FromRecords(name, rows[0], rows[1:], pnCol), nil
}
