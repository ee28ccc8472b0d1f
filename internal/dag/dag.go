// Package dag provides a directed usage graph over part numbers.
// An edge runs from an assembly to each item it uses. The graph supports
// cycle detection, low-level coding and where-used queries.
package dag

import (
	"fmt"
	"sort"
)

// Graph is a directed graph keyed by part number. Insertion order of nodes
// and edges is preserved so traversals are deterministic.
type Graph struct {
	order  []string
	nodes  map[string]bool
	uses   map[string][]string // assembly -> items it uses
	usedBy map[string][]string // item -> assemblies using it
}

// NewGraph creates a new empty graph.
func NewGraph() *Graph {
	return &Graph{
		nodes:  make(map[string]bool),
		uses:   make(map[string][]string),
		usedBy: make(map[string][]string),
	}
}

// AddNode adds a node if it does not exist yet.
func (g *Graph) AddNode(id string) {
	if g.nodes[id] {
		return
	}
	g.nodes[id] = true
	g.order = append(g.order, id)
}

// AddEdge records that parent uses child. Both nodes are created on demand.
// Repeated edges are stored once.
func (g *Graph) AddEdge(parent, child string) {
	g.AddNode(parent)
	g.AddNode(child)
	if contains(g.uses[parent], child) {
		return
	}
	g.uses[parent] = append(g.uses[parent], child)
	g.usedBy[child] = append(g.usedBy[child], parent)
}

// UsedBy returns the assemblies that directly use id, in insertion order.
func (g *Graph) UsedBy(id string) []string {
	return g.usedBy[id]
}

// FindCycle returns the first cycle found as a closed path
// (first element repeated at the end), or nil if the graph is acyclic.
func (g *Graph) FindCycle() []string {
	const (
		unvisited = iota
		active
		done
	)
	state := make(map[string]int, len(g.order))
	var stack []string
	var cycle []string

	var dfs func(id string) bool
	dfs = func(id string) bool {
		state[id] = active
		stack = append(stack, id)
		for _, next := range g.uses[id] {
			switch state[next] {
			case active:
				for i, s := range stack {
					if s == next {
						cycle = append(append([]string(nil), stack[i:]...), next)
						return true
					}
				}
			case unvisited:
				if dfs(next) {
					return true
				}
			}
		}
		stack = stack[:len(stack)-1]
		state[id] = done
		return false
	}

	for _, id := range g.order {
		if state[id] == unvisited && dfs(id) {
			return cycle
		}
	}
	return nil
}

// LowLevelCodes assigns each node reachable from root the deepest level at
// which it is used; root is level 0. The graph must be acyclic.
func (g *Graph) LowLevelCodes(root string) (map[string]int, error) {
	if cycle := g.FindCycle(); cycle != nil {
		return nil, fmt.Errorf("cycle detected: %v", cycle)
	}
	if !g.nodes[root] {
		return nil, fmt.Errorf("node %q does not exist", root)
	}

	codes := map[string]int{root: 0}
	var visit func(id string, level int)
	visit = func(id string, level int) {
		for _, child := range g.uses[id] {
			if cur, ok := codes[child]; ok && cur >= level+1 {
				continue
			}
			codes[child] = level + 1
			visit(child, level+1)
		}
	}
	visit(root, 0)
	return codes, nil
}

// Levels groups the low-level codes of LowLevelCodes by level. Each level is
// sorted for deterministic output.
func (g *Graph) Levels(root string) ([][]string, error) {
	codes, err := g.LowLevelCodes(root)
	if err != nil {
		return nil, err
	}
	maxLevel := 0
	for _, lvl := range codes {
		if lvl > maxLevel {
			maxLevel = lvl
		}
	}
	levels := make([][]string, maxLevel+1)
	for id, lvl := range codes {
		levels[lvl] = append(levels[lvl], id)
	}
	for i := range levels {
		sort.Strings(levels[i])
	}
	return levels, nil
}

// Ancestors returns every node that uses id directly or transitively,
// sorted.
func (g *Graph) Ancestors(id string) []string {
	seen := make(map[string]bool)
	var walk func(n string)
	walk = func(n string) {
		for _, p := range g.usedBy[n] {
			if !seen[p] {
				seen[p] = true
				walk(p)
			}
		}
	}
	walk(id)

	out := make([]string, 0, len(seen))
	for n := range seen {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

func contains(slice []string, s string) bool {
	for _, v := range slice {
		if v == s {
			return true
		}
	}
	return false
}
