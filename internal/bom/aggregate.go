package bom

// Aggregate holds total part quantities keyed by part number, in the order
// each part number was first counted.
type Aggregate struct {
	order []string
	qty   map[string]int64
	db    *PartsDB
}

func newAggregate(db *PartsDB) *Aggregate {
	return &Aggregate{qty: make(map[string]int64), db: db}
}

func (g *Aggregate) add(pn string, n int64) {
	if _, ok := g.qty[pn]; !ok {
		g.order = append(g.order, pn)
	}
	g.qty[pn] += n
}

// Get returns the total quantity of pn.
func (g *Aggregate) Get(pn string) (int64, bool) {
	n, ok := g.qty[pn]
	return n, ok
}

// Len returns the number of distinct part numbers.
func (g *Aggregate) Len() int {
	return len(g.order)
}

// PNs returns the part numbers in first-counted order.
func (g *Aggregate) PNs() []string {
	return append([]string(nil), g.order...)
}

// Map returns the totals as a plain map.
func (g *Aggregate) Map() map[string]int64 {
	out := make(map[string]int64, len(g.qty))
	for k, v := range g.qty {
		out[k] = v
	}
	return out
}

// Record returns the parts list record of pn.
func (g *Aggregate) Record(pn string) (*PartRecord, bool) {
	if g.db == nil {
		return nil, false
	}
	return g.db.Get(pn)
}

// Aggregate totals the parts needed to build one unit of the assembly.
// Direct parts contribute their own quantity; each sub-assembly's totals
// are multiplied by the quantity of that sub-assembly here. Contributions
// reaching the same part by different paths are summed. Placements without
// a usable quantity contribute nothing.
func (a Assembly) Aggregate() *Aggregate {
	out := newAggregate(a.tree.db)
	for _, p := range a.Parts() {
		if q, ok := a.QTY(p.PN()); ok {
			out.add(p.PN(), q)
		}
	}
	for _, sub := range a.Assemblies() {
		q, ok := a.QTY(sub.PN())
		if !ok {
			continue
		}
		inner := sub.Aggregate()
		for _, pn := range inner.order {
			out.add(pn, inner.qty[pn]*q)
		}
	}
	return out
}
