package bom

import "errors"

// SkipChildren may be returned by a WalkFunc to skip the children of the
// node just visited.
var SkipChildren = errors.New("skip children")

// WalkFunc is called for every node visited by Walk. depth is 0 for the
// starting assembly.
type WalkFunc func(n Node, depth int) error

// Walk visits the assembly and everything below it in depth-first
// pre-order. A reference to an assembly is visited once as the reference
// itself and then expanded through its target's children.
func (a Assembly) Walk(fn WalkFunc) error {
	return walk(a.Node, 0, fn)
}

func walk(n Node, depth int, fn WalkFunc) error {
	if err := fn(n, depth); err != nil {
		if errors.Is(err, SkipChildren) {
			return nil
		}
		return err
	}
	for _, c := range n.Target().Children() {
		if err := walk(c, depth+1, fn); err != nil {
			return err
		}
	}
	return nil
}

// Levels groups every part number used below the root by low-level code:
// the deepest level at which it is used, with the root at level 0.
func (t *Tree) Levels() ([][]string, error) {
	return t.graph.Levels(t.nodes[t.root].pn)
}

// WhereUsed returns the assemblies that list pn directly and every
// assembly that uses it at any depth.
func (t *Tree) WhereUsed(pn string) (direct, all []string) {
	return append([]string(nil), t.graph.UsedBy(pn)...), t.graph.Ancestors(pn)
}
