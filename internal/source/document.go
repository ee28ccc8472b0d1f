package source

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/leapstack-labs/leapbom/internal/table"
)

// document is a workbook written as YAML or JSON:
//
//	sheets:
//	  - name: Parts list
//	    rows:
//	      - {PN: P1, Name: Bolt}
//	  - name: Top
//	    rows:
//	      - {PN: P1, QTY: 4}
type document struct {
	Sheets []sheetDoc `yaml:"sheets"`
}

type sheetDoc struct {
	Name string `yaml:"name"`
	// Columns fixes the column order; keys not listed follow in first-seen
	// order.
	Columns []string    `yaml:"columns"`
	Rows    []yaml.Node `yaml:"rows"`
}

func readDocument(path, pnCol string) ([]*table.Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	out := make([]*table.Table, 0, len(doc.Sheets))
	for i, s := range doc.Sheets {
		name := strings.TrimSpace(s.Name)
		if name == "" {
			return nil, fmt.Errorf("%s: sheet %d has no name", path, i+1)
		}
		t, err := sheetFromDoc(name, s, pnCol)
		if err != nil {
			return nil, fmt.Errorf("%s: sheet %q: %w", path, name, err)
		}
		out = append(out, t)
	}
	return out, nil
}

func sheetFromDoc(name string, s sheetDoc, pnCol string) (*table.Table, error) {
	t := table.New(name, s.Columns...)
	for i, n := range s.Rows {
		if n.Kind != yaml.MappingNode {
			return nil, fmt.Errorf("row %d is not a mapping", i+1)
		}
		row := make(table.Row, len(n.Content)/2)
		for j := 0; j+1 < len(n.Content); j += 2 {
			key, val := n.Content[j], n.Content[j+1]
			col := strings.TrimSpace(key.Value)
			t.AddColumn(col)
			if val.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("row %d: column %q is not a scalar", i+1, col)
			}
			if val.ShortTag() == "!!null" {
				continue
			}
			if col == pnCol {
				if v := strings.TrimSpace(val.Value); v != "" {
					row[col] = v
				}
				continue
			}
			if v := table.ParseCell(val.Value); v != nil {
				row[col] = v
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}
