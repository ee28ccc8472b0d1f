package render

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/tree"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/leapstack-labs/leapbom/internal/bom"
)

// TreeOptions controls tree output.
type TreeOptions struct {
	// QTY appends each placement's quantity to its label.
	QTY bool
}

var titleCase = cases.Title(language.English)

// Label names a node the way the tree shows it: assemblies by part number,
// everything else by kind and part number, e.g. "Part P1".
func Label(n bom.Node) string {
	if n.IsAssembly() {
		return n.PN()
	}
	tag := n.Tag()
	if tag == "" {
		tag = "item"
	}
	return titleCase.String(tag) + " " + n.PN()
}

// PlacementQTY returns the quantity of n in the assembly that lists it.
func PlacementQTY(n bom.Node) (int64, bool) {
	p, ok := n.Parent()
	if !ok {
		return 0, false
	}
	a, ok := p.Assembly()
	if !ok {
		return 0, false
	}
	return a.QTY(n.PN())
}

// Tree writes the hierarchy below a as an indented tree. Reused parts and
// sub-assemblies are shown at every place they are used.
func Tree(w io.Writer, a bom.Assembly, opts TreeOptions) error {
	r := lipgloss.NewRenderer(w)
	asmStyle := r.NewStyle().Bold(true)
	refStyle := r.NewStyle().Faint(true)

	label := func(n bom.Node) string {
		s := Label(n)
		if opts.QTY {
			if q, ok := PlacementQTY(n); ok {
				s += fmt.Sprintf(" (x%d)", q)
			}
		}
		switch {
		case n.IsAssembly():
			return asmStyle.Render(s)
		case n.IsReference():
			return refStyle.Render(s)
		}
		return s
	}

	var build func(n bom.Node) *tree.Tree
	build = func(n bom.Node) *tree.Tree {
		t := tree.Root(label(n))
		for _, c := range n.Target().Children() {
			t.Child(build(c))
		}
		return t
	}

	_, err := fmt.Fprintln(w, build(a.Node))
	return err
}
