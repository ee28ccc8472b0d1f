package render

import (
	"strings"

	"github.com/leapstack-labs/leapbom/internal/bom"
	"github.com/leapstack-labs/leapbom/internal/table"
)

// FlatTable lists every part placement below a, one row per placement.
func FlatTable(a bom.Assembly) *table.Table {
	cols := a.Tree().Columns()
	t := table.New("flat", cols.PN, "Used In", cols.QTY, cols.Name)
	for _, sub := range a.Descendants() {
		for _, p := range sub.Parts() {
			var qty any
			if q, ok := sub.QTY(p.PN()); ok {
				qty = q
			}
			t.Append(p.PN(), sub.PN(), qty, p.Name())
		}
	}
	return t
}

// AggregateTable lists the total quantity of every part needed for one a.
func AggregateTable(a bom.Assembly) *table.Table {
	agg := a.Aggregate()
	cols := a.Tree().Columns()
	t := table.New("aggregate", cols.PN, cols.Name, bom.ColTotalQTY)
	for _, pn := range agg.PNs() {
		total, _ := agg.Get(pn)
		var name any
		if rec, ok := agg.Record(pn); ok {
			name, _ = rec.Get(cols.Name)
		}
		t.Append(pn, name, total)
	}
	return t
}

// PartsTable lists the parts used anywhere below a, once each, with their
// name and description.
func PartsTable(a bom.Assembly) *table.Table {
	cols := a.Tree().Columns()
	t := table.New("parts", cols.PN, cols.Name, cols.Description)
	seen := make(map[string]bool)
	for _, p := range a.Flat() {
		if seen[p.PN()] {
			continue
		}
		seen[p.PN()] = true
		desc, _ := p.Attr(cols.Description)
		t.Append(p.PN(), p.Name(), desc)
	}
	return t.DropEmptyColumns()
}

// AssembliesTable lists a and every assembly below it in depth-first
// order.
func AssembliesTable(a bom.Assembly) *table.Table {
	cols := a.Tree().Columns()
	t := table.New("assemblies", cols.PN, cols.Name)
	for _, sub := range a.Descendants() {
		t.Append(sub.PN(), sub.Name())
	}
	return t
}

// SummaryTable is the purchasing summary of a without all-empty columns.
func SummaryTable(a bom.Assembly) *table.Table {
	return a.Summary().DropEmptyColumns()
}

// LevelsTable lists the low-level code of every part number in tree.
func LevelsTable(tree *bom.Tree) (*table.Table, error) {
	levels, err := tree.Levels()
	if err != nil {
		return nil, err
	}
	t := table.New("levels", "Level", "PN", "Kind")
	for lvl, pns := range levels {
		for _, pn := range pns {
			kind := ""
			if n, ok := tree.Lookup(pn); ok {
				kind = n.Tag()
			}
			t.Append(int64(lvl), pn, kind)
		}
	}
	return t, nil
}

// WhereUsedTable lists the assemblies using pn directly and at any depth.
func WhereUsedTable(tree *bom.Tree, pn string) *table.Table {
	direct, all := tree.WhereUsed(pn)
	t := table.New("where-used", "PN", "Used By", "All Assemblies")
	t.Append(pn, strings.Join(direct, ", "), strings.Join(all, ", "))
	return t
}
