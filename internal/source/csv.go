package source

import (
	"encoding/csv"
	"fmt"
	"os"

	"github.com/leapstack-labs/leapbom/internal/table"
)

func readCSV(path, name, pnCol string) (*table.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if len(records) == 0 {
		return table.New(name), nil
	}
	return table.FromRecords(name, records[0], records[1:], pnCol), nil
}
