package bom

import (
	"errors"
	"testing"

	"github.com/leapstack-labs/leapbom/internal/table"
	"github.com/leapstack-labs/leapbom/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// row is a (PN, QTY) pair of an assembly table.
type row struct {
	pn  string
	qty any
}

func asm(name string, rows ...row) *table.Table {
	t := table.New(name, "PN", "QTY")
	for _, r := range rows {
		t.Append(r.pn, r.qty)
	}
	return t
}

func partsDB(t *testing.T, pns ...string) *PartsDB {
	t.Helper()
	pt := table.New("Parts list", "PN", "Name")
	for _, pn := range pns {
		pt.Append(pn, "Name of "+pn)
	}
	db, err := LoadParts(pt, Options{Logger: testutil.NewTestLogger(t)})
	require.NoError(t, err)
	return db
}

func resolve(t *testing.T, db *PartsDB, tables ...*table.Table) *Tree {
	t.Helper()
	tree, err := Resolve(db, tables, Options{Logger: testutil.NewTestLogger(t)})
	require.NoError(t, err)
	return tree
}

func pnsOf(nodes []Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.PN()
	}
	return out
}

func TestResolve_FlatBOM(t *testing.T) {
	db := partsDB(t, "P1", "P2", "P3", "P4", "P5", "P6", "P7")
	tree := resolve(t, db, asm("Top", row{"P2", 1}, row{"P1", 2}, row{"P5", 2}, row{"P7", 2}))

	top := tree.Root()
	assert.Equal(t, "Top", top.PN())
	assert.Equal(t, []string{"P2", "P1", "P5", "P7"}, pnsOf(top.Parts()))
	assert.Empty(t, top.Assemblies())

	q, ok := top.QTY("P1")
	require.True(t, ok)
	assert.Equal(t, int64(2), q)

	assert.Equal(t, map[string]int64{"P1": 2, "P2": 1, "P5": 2, "P7": 2}, top.Aggregate().Map())
}

func TestResolve_Nested(t *testing.T) {
	db := partsDB(t, "P1", "P2", "P3")
	tree := resolve(t, db,
		asm("Top", row{"P1", 1}, row{"Sub", 2}),
		asm("Sub", row{"P2", 3}, row{"P3", 1}),
	)

	top := tree.Root()
	assert.Len(t, top.Assemblies(), 1)
	assert.Len(t, top.Parts(), 1)
	assert.Equal(t, map[string]int64{"P1": 1, "P2": 6, "P3": 2}, top.Aggregate().Map())

	sub := top.Assemblies()[0]
	parent, ok := sub.Parent()
	require.True(t, ok)
	assert.Equal(t, "Top", parent.PN())
	_, ok = top.Parent()
	assert.False(t, ok, "root has no parent")
}

func TestResolve_RootOrderIndependent(t *testing.T) {
	db := partsDB(t, "P1", "P2")
	tree := resolve(t, db,
		asm("Sub", row{"P2", 3}),
		asm("Top", row{"P1", 1}, row{"Sub", 2}),
	)
	assert.Equal(t, "Top", tree.Root().PN())
	assert.Equal(t, map[string]int64{"P1": 1, "P2": 6}, tree.Root().Aggregate().Map())
}

func TestQTY_Unknown(t *testing.T) {
	db := partsDB(t, "P1")
	tree := resolve(t, db, asm("Top", row{"P1", 1}))

	q, ok := tree.Root().QTY("NONEXISTENT")
	assert.False(t, ok)
	assert.Zero(t, q)
}

func TestQTY_MissingOrFractional(t *testing.T) {
	db := partsDB(t, "P1", "P2", "P3")
	logger, buf := testutil.NewCaptureLogger()
	tree, err := Resolve(db, []*table.Table{
		asm("Top", row{"P1", nil}, row{"P2", 1.5}, row{"P3", 2.0}),
	}, Options{Logger: logger})
	require.NoError(t, err)

	top := tree.Root()
	_, ok := top.QTY("P1")
	assert.False(t, ok)
	_, ok = top.QTY("P2")
	assert.False(t, ok)
	q, ok := top.QTY("P3")
	assert.True(t, ok)
	assert.Equal(t, int64(2), q)

	assert.Equal(t, map[string]int64{"P3": 2}, top.Aggregate().Map())
	assert.Contains(t, buf.String(), "missing quantity")
	assert.Contains(t, buf.String(), "quantity is not a whole number")
}

func TestResolve_UnresolvableRowSkipped(t *testing.T) {
	db := partsDB(t, "P1")
	logger, buf := testutil.NewCaptureLogger()
	tree, err := Resolve(db, []*table.Table{
		asm("Top", row{"P1", 1}, row{"GHOST", 4}),
	}, Options{Logger: logger})
	require.NoError(t, err)

	assert.Equal(t, []string{"P1"}, pnsOf(tree.Root().Children()))
	assert.Equal(t, map[string]int64{"P1": 1}, tree.Root().Aggregate().Map())
	assert.Contains(t, buf.String(), "part not found")
	assert.Contains(t, buf.String(), "pn=GHOST")
}

func TestResolve_RootCardinality(t *testing.T) {
	db := partsDB(t, "P1", "P2")

	t.Run("no assemblies", func(t *testing.T) {
		_, err := Resolve(db, nil, Options{})
		assert.ErrorIs(t, err, ErrNoRoot)
	})

	t.Run("two disconnected assemblies", func(t *testing.T) {
		_, err := Resolve(db, []*table.Table{
			asm("A", row{"P1", 1}),
			asm("B", row{"P2", 1}),
		}, Options{})
		require.ErrorIs(t, err, ErrMultipleRoots)
		assert.Contains(t, err.Error(), "A, B")
	})
}

func TestResolve_Cycle(t *testing.T) {
	db := partsDB(t, "P1")

	tests := []struct {
		name   string
		tables []*table.Table
		path   string
	}{
		{
			name: "two assemblies",
			tables: []*table.Table{
				asm("Top", row{"A", 1}),
				asm("A", row{"B", 1}),
				asm("B", row{"A", 1}, row{"P1", 1}),
			},
			path: "A -> B -> A",
		},
		{
			name:   "self reference",
			tables: []*table.Table{asm("Top", row{"P1", 1}, row{"Top", 1})},
			path:   "Top -> Top",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Resolve(db, tt.tables, Options{})
			require.ErrorIs(t, err, ErrCycle)
			assert.Contains(t, err.Error(), tt.path)
		})
	}
}

func TestResolve_InputErrors(t *testing.T) {
	db := partsDB(t, "P1")

	_, err := Resolve(db, []*table.Table{asm("Top", row{"P1", 1}), asm("Top", row{"P1", 2})}, Options{})
	assert.ErrorIs(t, err, ErrDuplicateAssembly)

	noPN := table.New("Top", "Part", "QTY")
	_, err = Resolve(db, []*table.Table{noPN}, Options{})
	assert.ErrorIs(t, err, ErrMissingKeyColumn)

	_, err = Resolve(db, []*table.Table{asm("", row{"P1", 1})}, Options{})
	assert.ErrorIs(t, err, ErrMissingKeyColumn)
}

func TestResolve_ReferenceRoundTrip(t *testing.T) {
	db := partsDB(t, "P1")
	tree := resolve(t, db,
		asm("Top", row{"A", 1}, row{"B", 1}),
		asm("A", row{"P1", 2}),
		asm("B", row{"P1", 3}),
	)

	a, ok := tree.Assembly("A")
	require.True(t, ok)
	b, ok := tree.Assembly("B")
	require.True(t, ok)

	ca, cb := a.Children()[0], b.Children()[0]
	assert.Equal(t, KindTerminal, ca.Kind())
	assert.Equal(t, KindReference, cb.Kind())
	assert.Equal(t, ca.ID(), cb.Target().ID())
	assert.Equal(t, "P1", cb.PN())
	assert.Equal(t, "part", cb.Tag())

	owner, ok := ca.Parent()
	require.True(t, ok)
	assert.Equal(t, "A", owner.PN(), "first placement owns the part")
	user, ok := cb.Parent()
	require.True(t, ok)
	assert.Equal(t, "B", user.PN())

	recA, _ := ca.Record()
	recB, _ := cb.Record()
	assert.Same(t, recA, recB)

	assert.Equal(t, map[string]int64{"P1": 5}, tree.Root().Aggregate().Map())
}

func TestAggregate_Multiplicative(t *testing.T) {
	const r, p, q = 2, 4, 3
	db := partsDB(t, "P")

	t.Run("only through sub-assembly", func(t *testing.T) {
		tree := resolve(t, db, asm("R", row{"S", q}), asm("S", row{"P", p}))
		n, ok := tree.Root().Aggregate().Get("P")
		require.True(t, ok)
		assert.Equal(t, int64(p*q), n)
	})

	t.Run("direct and through sub-assembly", func(t *testing.T) {
		tree := resolve(t, db, asm("R", row{"P", r}, row{"S", q}), asm("S", row{"P", p}))
		n, ok := tree.Root().Aggregate().Get("P")
		require.True(t, ok)
		assert.Equal(t, int64(r+p*q), n)
	})
}

func TestAggregate_ReusedSubAssembly(t *testing.T) {
	db := partsDB(t, "P1")
	tree := resolve(t, db,
		asm("Top", row{"A", 2}, row{"B", 1}),
		asm("A", row{"S", 1}),
		asm("B", row{"S", 3}),
		asm("S", row{"P1", 2}),
	)

	b, _ := tree.Assembly("B")
	assert.True(t, b.Children()[0].IsReference())
	assert.True(t, b.Children()[0].IsAssembly())

	top := tree.Root()
	assert.Equal(t, map[string]int64{"P1": 2*1*2 + 1*3*2}, top.Aggregate().Map())
	assert.Equal(t, []string{"P1", "P1"}, pnsOf(top.Flat()))
}

func TestAggregate_OrderAndRecord(t *testing.T) {
	db := partsDB(t, "P1", "P2", "P3")
	tree := resolve(t, db,
		asm("Top", row{"Sub", 1}, row{"P3", 1}),
		asm("Sub", row{"P2", 1}, row{"P1", 1}),
	)

	agg := tree.Root().Aggregate()
	assert.Equal(t, []string{"P3", "P2", "P1"}, agg.PNs(), "direct parts first")
	assert.Equal(t, 3, agg.Len())
	rec, ok := agg.Record("P2")
	require.True(t, ok)
	name, _ := rec.Get("Name")
	assert.Equal(t, "Name of P2", name)
}

func TestFlat_LengthMatchesDirectParts(t *testing.T) {
	db := partsDB(t, "P1", "P2", "P3", "P4")
	tree := resolve(t, db,
		asm("Top", row{"P1", 1}, row{"A", 1}, row{"B", 2}),
		asm("A", row{"P2", 1}, row{"P3", 1}, row{"C", 1}),
		asm("B", row{"P1", 1}, row{"C", 1}),
		asm("C", row{"P4", 5}, row{"P2", 1}),
	)

	top := tree.Root()
	want := 0
	for _, a := range top.Descendants() {
		want += len(a.Parts())
	}
	assert.Len(t, top.Flat(), want)
	assert.Equal(t, []string{"P1", "P2", "P3", "P4", "P2", "P1", "P4", "P2"}, pnsOf(top.Flat()))
}

func TestQueries_Idempotent(t *testing.T) {
	db := partsDB(t, "P1", "P2", "P3")
	tree := resolve(t, db,
		asm("Top", row{"P1", 1}, row{"Sub", 2}),
		asm("Sub", row{"P2", 3}, row{"P1", 1}),
	)
	top := tree.Root()

	assert.Equal(t, top.Aggregate().Map(), top.Aggregate().Map())
	assert.Equal(t, top.Aggregate().PNs(), top.Aggregate().PNs())
	assert.Equal(t, pnsOf(top.Flat()), pnsOf(top.Flat()))
}

func TestResolve_DuplicateRowInAssembly(t *testing.T) {
	db := partsDB(t, "P1")
	logger, buf := testutil.NewCaptureLogger()
	tree, err := Resolve(db, []*table.Table{asm("Top", row{"P1", 2}, row{"P1", 5})}, Options{Logger: logger})
	require.NoError(t, err)

	assert.Len(t, tree.Root().Children(), 1)
	assert.Equal(t, map[string]int64{"P1": 2}, tree.Root().Aggregate().Map())
	assert.Contains(t, buf.String(), "part listed twice")
}

func TestAssembly_AttributesFromPartsDB(t *testing.T) {
	db := partsDB(t, "P1", "Sub")
	tree := resolve(t, db,
		asm("Top", row{"Sub", 1}),
		asm("Sub", row{"P1", 1}),
	)

	sub, _ := tree.Assembly("Sub")
	assert.Equal(t, "Name of Sub", sub.Name())
	assert.Equal(t, "assembly", sub.Tag())
	assert.Equal(t, "", tree.Root().Name())
	assert.Equal(t, []string{"P1"}, pnsOf(sub.Parts()), "a PN naming an assembly is never a terminal")
}

func TestWalk(t *testing.T) {
	db := partsDB(t, "P1", "P2")
	tree := resolve(t, db,
		asm("Top", row{"P1", 1}, row{"A", 1}, row{"B", 1}),
		asm("A", row{"P2", 1}),
		asm("B", row{"A", 1}),
	)

	type visit struct {
		pn    string
		depth int
		ref   bool
	}
	var got []visit
	err := tree.Root().Walk(func(n Node, depth int) error {
		got = append(got, visit{n.PN(), depth, n.IsReference()})
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []visit{
		{"Top", 0, false},
		{"P1", 1, false},
		{"A", 1, false},
		{"P2", 2, false},
		{"B", 1, false},
		{"A", 2, true},
		{"P2", 3, false},
	}, got)

	var skipped []string
	err = tree.Root().Walk(func(n Node, depth int) error {
		skipped = append(skipped, n.PN())
		if n.IsAssembly() && depth > 0 {
			return SkipChildren
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Top", "P1", "A", "B"}, skipped)

	stop := errors.New("stop")
	err = tree.Root().Walk(func(n Node, depth int) error {
		if n.PN() == "A" {
			return stop
		}
		return nil
	})
	assert.ErrorIs(t, err, stop)
}

func TestLevelsAndWhereUsed(t *testing.T) {
	db := partsDB(t, "P1", "P2")
	tree := resolve(t, db,
		asm("Top", row{"P1", 1}, row{"A", 1}),
		asm("A", row{"P1", 2}, row{"P2", 1}),
	)

	levels, err := tree.Levels()
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"Top"}, {"A"}, {"P1", "P2"}}, levels)

	direct, all := tree.WhereUsed("P2")
	assert.Equal(t, []string{"A"}, direct)
	assert.Equal(t, []string{"A", "Top"}, all)

	direct, all = tree.WhereUsed("P1")
	assert.Equal(t, []string{"Top", "A"}, direct)
	assert.Equal(t, []string{"A", "Top"}, all)

	direct, all = tree.WhereUsed("NOPE")
	assert.Empty(t, direct)
	assert.Empty(t, all)
}
