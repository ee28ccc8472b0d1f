package bom

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/leapbom/internal/dag"
	"github.com/leapstack-labs/leapbom/internal/table"
)

// Resolve links the assembly tables into a single tree. Each table's Name is
// the part number of the assembly it defines; child order follows the
// order of tables and rows.
//
// A row naming another assembly makes it a sub-assembly; a row naming a
// known part places that part. Whatever was already placed elsewhere is
// added as a reference instead. Rows naming neither are skipped with a
// warning. Exactly one assembly must be left without a parent.
func Resolve(db *PartsDB, assemblies []*table.Table, opts Options) (*Tree, error) {
	opts = opts.normalize()
	cols := opts.Columns
	if db != nil {
		cols = db.cols
	}

	t := &Tree{
		assemblies: make(map[string]NodeID, len(assemblies)),
		terminals:  make(map[string]NodeID),
		root:       noNode,
		db:         db,
		graph:      dag.NewGraph(),
		cols:       cols,
		log:        opts.Logger,
	}

	order := make([]NodeID, 0, len(assemblies))
	for _, at := range assemblies {
		pn := strings.TrimSpace(at.Name)
		if pn == "" {
			return nil, fmt.Errorf("assembly table without a name: %w", ErrMissingKeyColumn)
		}
		if _, dup := t.assemblies[pn]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateAssembly, pn)
		}
		if !at.HasColumn(cols.PN) {
			return nil, fmt.Errorf("assembly %q: %w %q", pn, ErrMissingKeyColumn, cols.PN)
		}
		n := node{
			kind:   KindAssembly,
			pn:     pn,
			tag:    "assembly",
			parent: noNode,
			target: noNode,
			rows:   at.Clone(),
		}
		if db != nil {
			if rec, ok := db.Get(pn); ok {
				n.record = rec
			}
		}
		id := t.add(n)
		t.assemblies[pn] = id
		order = append(order, id)
		t.graph.AddNode(pn)
	}

	for _, id := range order {
		t.resolveRows(id)
	}

	if cycle := t.graph.FindCycle(); cycle != nil {
		return nil, fmt.Errorf("%w: %s", ErrCycle, strings.Join(cycle, " -> "))
	}

	var roots []string
	for _, id := range order {
		if t.nodes[id].parent == noNode {
			roots = append(roots, t.nodes[id].pn)
			t.root = id
		}
	}
	switch len(roots) {
	case 0:
		return nil, ErrNoRoot
	case 1:
		return t, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrMultipleRoots, strings.Join(roots, ", "))
	}
}

func (t *Tree) resolveRows(asm NodeID) {
	cols := t.cols
	self := t.nodes[asm].pn
	rows := t.nodes[asm].rows
	hasQTY := rows.HasColumn(cols.QTY)
	if !hasQTY {
		t.log.Warn("assembly has no quantity column", "assembly", self, "column", cols.QTY)
	}

	seen := make(map[string]bool, rows.Len())
	for i, row := range rows.Rows {
		pn := row.Text(cols.PN)
		if pn == "" {
			t.log.Warn("row without part number", "assembly", self, "row", i+1)
			continue
		}
		if seen[pn] {
			t.log.Warn("part listed twice, first row wins", "assembly", self, "pn", pn, "row", i+1)
			continue
		}
		seen[pn] = true

		if hasQTY {
			v, ok := row.Get(cols.QTY)
			if !ok {
				t.log.Warn("missing quantity", "assembly", self, "pn", pn)
			} else if _, ok := table.AsInt(v); !ok {
				t.log.Warn("quantity is not a whole number", "assembly", self, "pn", pn, "qty", v)
			}
		}

		if sub, ok := t.assemblies[pn]; ok {
			t.graph.AddEdge(self, pn)
			if pn == self {
				// Reported as a cycle once all rows are resolved.
				continue
			}
			t.place(asm, sub)
			continue
		}

		if t.db == nil {
			t.log.Warn("part not found", "assembly", self, "pn", pn)
			continue
		}
		rec, ok := t.db.Get(pn)
		if !ok {
			t.log.Warn("part not found", "assembly", self, "pn", pn)
			continue
		}
		t.graph.AddEdge(self, pn)
		id, ok := t.terminals[pn]
		if !ok {
			id = t.add(node{
				kind:   KindTerminal,
				pn:     pn,
				tag:    rec.Tag,
				parent: noNode,
				target: noNode,
				record: rec,
			})
			t.terminals[pn] = id
		}
		t.place(asm, id)
	}
}

// place appends child to parent, taking ownership on first placement and
// adding a reference afterwards.
func (t *Tree) place(parent, child NodeID) {
	if t.nodes[child].parent == noNode {
		t.nodes[child].parent = parent
		t.nodes[parent].children = append(t.nodes[parent].children, child)
		return
	}
	ref := t.add(node{
		kind:   KindReference,
		pn:     t.nodes[child].pn,
		parent: parent,
		target: child,
	})
	t.nodes[parent].children = append(t.nodes[parent].children, ref)
}
