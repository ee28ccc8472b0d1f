package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/leapstack-labs/leapbom/internal/bom"
)

// DOT writes the usage graph below a in Graphviz format. Each part number
// is one graph node; an edge is labelled with the quantity used.
func DOT(w io.Writer, a bom.Assembly) error {
	var b strings.Builder
	b.WriteString("digraph tree {\n")

	seenNode := make(map[string]bool)
	seenEdge := make(map[string]bool)
	var edges []string

	err := a.Walk(func(n bom.Node, depth int) error {
		if !seenNode[n.PN()] {
			seenNode[n.PN()] = true
			fmt.Fprintf(&b, "    %s;\n", quote(n.PN()))
		}
		p, ok := n.Parent()
		if !ok || depth == 0 {
			return nil
		}
		edge := quote(p.PN()) + " -> " + quote(n.PN())
		if seenEdge[edge] {
			return nil
		}
		seenEdge[edge] = true
		if q, ok := PlacementQTY(n); ok {
			edge += fmt.Sprintf(" [label=\"%d\"]", q)
		}
		edges = append(edges, edge)
		return nil
	})
	if err != nil {
		return err
	}

	for _, e := range edges {
		b.WriteString("    " + e + ";\n")
	}
	b.WriteString("}\n")
	_, err = io.WriteString(w, b.String())
	return err
}

// dotEscaper escapes a part number for a quoted DOT ID. Line breaks become
// the \n label escape so the ID stays on one line.
var dotEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`, "\r", "")

func quote(s string) string {
	return `"` + dotEscaper.Replace(s) + `"`
}
