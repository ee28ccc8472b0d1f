// Package bom builds a hierarchical bill of materials from a parts list and
// per-assembly row tables, and answers structural queries over it.
//
// Nodes live in an arena owned by a Tree and refer to each other by index.
// A part or sub-assembly used in more than one place is owned by the first
// assembly that lists it; every later use is a reference node aliasing it.
package bom

import (
	"log/slog"

	"github.com/leapstack-labs/leapbom/internal/dag"
	"github.com/leapstack-labs/leapbom/internal/table"
)

// Kind distinguishes the three node variants.
type Kind uint8

const (
	KindTerminal Kind = iota
	KindAssembly
	KindReference
)

func (k Kind) String() string {
	switch k {
	case KindTerminal:
		return "terminal"
	case KindAssembly:
		return "assembly"
	case KindReference:
		return "reference"
	}
	return "unknown"
}

// NodeID indexes a node in its tree's arena.
type NodeID int

const noNode NodeID = -1

type node struct {
	kind     Kind
	pn       string
	tag      string
	parent   NodeID
	children []NodeID
	target   NodeID
	rows     *table.Table
	record   *PartRecord
}

// Item is the capability shared by every node variant.
type Item interface {
	PN() string
	Kind() Kind
	Parent() (Node, bool)
}

var (
	_ Item = Node{}
	_ Item = Assembly{}
)

// Tree is a resolved bill of materials.
type Tree struct {
	nodes      []node
	assemblies map[string]NodeID
	terminals  map[string]NodeID
	root       NodeID
	db         *PartsDB
	graph      *dag.Graph
	cols       Columns
	log        *slog.Logger
}

// Root returns the top-level assembly.
func (t *Tree) Root() Assembly {
	return Assembly{Node{t, t.root}}
}

// PartsDB returns the parts list the tree was resolved against.
func (t *Tree) PartsDB() *PartsDB {
	return t.db
}

// Assembly returns the assembly with the given part number.
func (t *Tree) Assembly(pn string) (Assembly, bool) {
	id, ok := t.assemblies[pn]
	if !ok {
		return Assembly{}, false
	}
	return Assembly{Node{t, id}}, true
}

// Lookup returns the owning node for pn, either an assembly or a terminal.
func (t *Tree) Lookup(pn string) (Node, bool) {
	if id, ok := t.assemblies[pn]; ok {
		return Node{t, id}, true
	}
	if id, ok := t.terminals[pn]; ok {
		return Node{t, id}, true
	}
	return Node{}, false
}

// Columns returns the column names the tree was resolved with.
func (t *Tree) Columns() Columns {
	return t.cols
}

// Len returns the number of nodes in the arena, references included.
func (t *Tree) Len() int {
	return len(t.nodes)
}

func (t *Tree) add(n node) NodeID {
	t.nodes = append(t.nodes, n)
	return NodeID(len(t.nodes) - 1)
}

// Node is a handle to a node in a Tree. The zero value is invalid.
type Node struct {
	tree *Tree
	id   NodeID
}

func (n Node) get() *node {
	return &n.tree.nodes[n.id]
}

// ID returns the arena index.
func (n Node) ID() NodeID { return n.id }

// Tree returns the tree the node belongs to.
func (n Node) Tree() *Tree { return n.tree }

// Valid reports whether the handle points into a tree.
func (n Node) Valid() bool { return n.tree != nil }

// PN returns the part number. A reference reports its target's.
func (n Node) PN() string { return n.get().pn }

func (n Node) Kind() Kind { return n.get().kind }

// Tag returns the item-kind tag of the node or, for references, of the
// target, e.g. "part", "document" or "assembly".
func (n Node) Tag() string { return n.Target().get().tag }

// Parent returns the owning assembly. References report the assembly that
// lists them.
func (n Node) Parent() (Node, bool) {
	p := n.get().parent
	if p == noNode {
		return Node{}, false
	}
	return Node{n.tree, p}, true
}

// Children returns the direct children of an assembly in row order.
func (n Node) Children() []Node {
	ids := n.get().children
	out := make([]Node, len(ids))
	for i, id := range ids {
		out[i] = Node{n.tree, id}
	}
	return out
}

// IsReference reports whether n aliases a node owned elsewhere.
func (n Node) IsReference() bool {
	return n.get().kind == KindReference
}

// Target resolves a reference to the node it aliases. Other nodes return
// themselves.
func (n Node) Target() Node {
	if nd := n.get(); nd.kind == KindReference {
		return Node{n.tree, nd.target}
	}
	return n
}

// IsAssembly reports whether n is, or references, an assembly.
func (n Node) IsAssembly() bool {
	return n.Target().get().kind == KindAssembly
}

// Assembly returns the assembly view of n or of its target.
func (n Node) Assembly() (Assembly, bool) {
	t := n.Target()
	if t.get().kind != KindAssembly {
		return Assembly{}, false
	}
	return Assembly{t}, true
}

// Record returns the parts list record backing the node, if any.
func (n Node) Record() (*PartRecord, bool) {
	r := n.Target().get().record
	return r, r != nil
}

// Attr returns a parts list attribute of the node.
func (n Node) Attr(field string) (any, bool) {
	r, ok := n.Record()
	if !ok {
		return nil, false
	}
	return r.Get(field)
}

// Attrs returns all non-null parts list attributes of the node.
func (n Node) Attrs() []Attr {
	r, ok := n.Record()
	if !ok {
		return nil
	}
	return r.Attrs()
}

// Name returns the Name attribute as text, or "".
func (n Node) Name() string {
	v, ok := n.Attr(n.tree.cols.Name)
	if !ok {
		return ""
	}
	return table.FormatValue(v)
}

// Assembly is a node known to be an assembly.
type Assembly struct {
	Node
}

// Parts returns the terminal items directly used by the assembly in row
// order. References are resolved to their targets.
func (a Assembly) Parts() []Node {
	var out []Node
	for _, c := range a.Children() {
		if t := c.Target(); t.get().kind == KindTerminal {
			out = append(out, t)
		}
	}
	return out
}

// Assemblies returns the sub-assemblies directly used by the assembly in
// row order. References are resolved to their targets.
func (a Assembly) Assemblies() []Assembly {
	var out []Assembly
	for _, c := range a.Children() {
		if sub, ok := c.Assembly(); ok {
			out = append(out, sub)
		}
	}
	return out
}

// Flat returns every part placement below the assembly: its direct parts,
// then each sub-assembly's flattened parts in child order. A part used in
// two places appears twice.
func (a Assembly) Flat() []Node {
	out := a.Parts()
	for _, sub := range a.Assemblies() {
		out = append(out, sub.Flat()...)
	}
	return out
}

// QTY returns the quantity of pn in this assembly's own row table. The
// first matching row is authoritative. Missing rows and missing or
// non-integral quantities report false.
func (a Assembly) QTY(pn string) (int64, bool) {
	cols := a.tree.cols
	for _, row := range a.get().rows.Rows {
		if row.Text(cols.PN) != pn {
			continue
		}
		v, ok := row.Get(cols.QTY)
		if !ok {
			return 0, false
		}
		return table.AsInt(v)
	}
	return 0, false
}

// Descendants returns the assembly itself followed by every sub-assembly
// below it in depth-first order, one entry per use.
func (a Assembly) Descendants() []Assembly {
	out := []Assembly{a}
	for _, sub := range a.Assemblies() {
		out = append(out, sub.Descendants()...)
	}
	return out
}
