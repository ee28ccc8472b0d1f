package commands

import (
	"fmt"

	"github.com/leapstack-labs/leapbom/internal/bom"
	"github.com/leapstack-labs/leapbom/internal/render"
	"github.com/leapstack-labs/leapbom/internal/table"
	"github.com/spf13/cobra"
)

// tableView describes a command that prints one table computed from the BOM.
type tableView struct {
	use     string
	short   string
	long    string
	example string
	build   func(c *CommandContext) (*table.Table, error)
	// after runs once the table is written, e.g. to print a total.
	after func(c *CommandContext, t *table.Table)
}

func newTableCommand(v tableView) *cobra.Command {
	return &cobra.Command{
		Use:     v.use,
		Short:   v.short,
		Long:    v.long,
		Example: v.example,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := NewCommandContext(cmd, nil)
			if err != nil {
				return err
			}
			t, err := v.build(c)
			if err != nil {
				return err
			}
			if err := c.RenderTable(t); err != nil {
				return err
			}
			if v.after != nil {
				v.after(c, t)
			}
			return nil
		},
	}
}

// NewFlatCommand creates the flat command.
func NewFlatCommand() *cobra.Command {
	return newTableCommand(tableView{
		use:   "flat",
		short: "List every part placement",
		long: `List every part placement in the BOM, one row per use.

A part used in several assemblies appears once for each of them, with the
quantity listed in that assembly.`,
		build: func(c *CommandContext) (*table.Table, error) {
			return render.FlatTable(c.Tree.Root()), nil
		},
	})
}

// NewAggregateCommand creates the aggregate command.
func NewAggregateCommand() *cobra.Command {
	return newTableCommand(tableView{
		use:   "aggregate",
		short: "Total quantity of each part",
		long: `Show the total quantity of every part needed to build one top-level
assembly. Quantities of parts in sub-assemblies are multiplied by the number
of sub-assemblies used.`,
		example: `  leapbom -d boms aggregate
  leapbom -f bom.xlsx aggregate -o csv`,
		build: func(c *CommandContext) (*table.Table, error) {
			return render.AggregateTable(c.Tree.Root()), nil
		},
	})
}

// NewSummaryCommand creates the summary command.
func NewSummaryCommand() *cobra.Command {
	return newTableCommand(tableView{
		use:   "summary",
		short: "Purchasing and cost summary",
		long: `Show the parts list of every used part with its total quantity, the
quantity to purchase in whole packages, and the resulting subtotal.`,
		build: func(c *CommandContext) (*table.Table, error) {
			return render.SummaryTable(c.Tree.Root()), nil
		},
		after: func(c *CommandContext, t *table.Table) {
			if c.Format == render.FormatTable {
				_, _ = fmt.Fprintf(c.Out, "Total cost: %.2f\n", bom.TotalCost(t))
			}
		},
	})
}

// NewPartsCommand creates the parts command.
func NewPartsCommand() *cobra.Command {
	return newTableCommand(tableView{
		use:   "parts",
		short: "List the parts used, with name and description",
		build: func(c *CommandContext) (*table.Table, error) {
			return render.PartsTable(c.Tree.Root()), nil
		},
	})
}

// NewAssembliesCommand creates the assemblies command.
func NewAssembliesCommand() *cobra.Command {
	return newTableCommand(tableView{
		use:   "assemblies",
		short: "List all assemblies depth-first",
		build: func(c *CommandContext) (*table.Table, error) {
			return render.AssembliesTable(c.Tree.Root()), nil
		},
	})
}

// NewLevelsCommand creates the levels command.
func NewLevelsCommand() *cobra.Command {
	return newTableCommand(tableView{
		use:   "levels",
		short: "Low-level code of every part number",
		long: `Show the deepest level at which each part number occurs, with the top
assembly at level 0. Parts are planned in order of increasing level.`,
		build: func(c *CommandContext) (*table.Table, error) {
			return render.LevelsTable(c.Tree)
		},
	})
}

// NewWhereUsedCommand creates the where-used command.
func NewWhereUsedCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "where-used <PN>",
		Short: "Assemblies that use a part",
		Long: `List the assemblies that use a part number directly, and every assembly
that contains it at any depth.`,
		Example: `  leapbom where-used P1`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := NewCommandContext(cmd, nil)
			if err != nil {
				return err
			}
			if _, ok := c.Tree.Lookup(args[0]); !ok {
				return fmt.Errorf("%s is not used in this BOM", args[0])
			}
			return c.RenderTable(render.WhereUsedTable(c.Tree, args[0]))
		},
	}
}

// QTYOptions holds options for the qty command.
type QTYOptions struct {
	In string
}

// NewQTYCommand creates the qty command.
func NewQTYCommand() *cobra.Command {
	opts := &QTYOptions{}

	cmd := &cobra.Command{
		Use:   "qty <PN>",
		Short: "Total quantity of a part",
		Long: `Print the total quantity of a part needed for the top assembly, or with
--in the quantity listed in one assembly.`,
		Example: `  leapbom qty P1
  leapbom qty P1 --in Bracket`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := NewCommandContext(cmd, nil)
			if err != nil {
				return err
			}
			pn := args[0]
			if opts.In == "" {
				n, ok := c.Tree.Root().Aggregate().Get(pn)
				if !ok {
					return fmt.Errorf("%s is not used in this BOM", pn)
				}
				_, _ = fmt.Fprintf(c.Out, "%s: %d\n", pn, n)
				return nil
			}
			a, ok := c.Tree.Assembly(opts.In)
			if !ok {
				return fmt.Errorf("no assembly %q", opts.In)
			}
			n, ok := a.QTY(pn)
			if !ok {
				return fmt.Errorf("%s has no quantity for %s", a.PN(), pn)
			}
			_, _ = fmt.Fprintf(c.Out, "%s in %s: %d\n", pn, a.PN(), n)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.In, "in", "", "Assembly to read the quantity from")

	return cmd
}

// TreeOptions holds options for the tree command.
type TreeOptions struct {
	QTY bool
}

// NewTreeCommand creates the tree command.
func NewTreeCommand() *cobra.Command {
	opts := &TreeOptions{}

	cmd := &cobra.Command{
		Use:   "tree [ASSEMBLY]",
		Short: "Show the BOM hierarchy",
		Long: `Show the BOM as an indented tree, starting from the top assembly or the
named one. Reused parts and sub-assemblies are shown wherever they are used.`,
		Example: `  leapbom -d boms tree
  leapbom tree Sub --qty`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := NewCommandContext(cmd, nil)
			if err != nil {
				return err
			}
			a, err := pickAssembly(c.Tree, args)
			if err != nil {
				return err
			}
			return render.Tree(c.Out, a, render.TreeOptions{QTY: opts.QTY})
		},
	}

	cmd.Flags().BoolVarP(&opts.QTY, "qty", "q", false, "Show the quantity of each placement")

	return cmd
}

// NewDOTCommand creates the dot command.
func NewDOTCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "dot [ASSEMBLY]",
		Short:   "Print the BOM as a Graphviz graph",
		Example: `  leapbom dot | dot -Tsvg > bom.svg`,
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := NewCommandContext(cmd, nil)
			if err != nil {
				return err
			}
			a, err := pickAssembly(c.Tree, args)
			if err != nil {
				return err
			}
			return render.DOT(c.Out, a)
		},
	}
}

func pickAssembly(tree *bom.Tree, args []string) (bom.Assembly, error) {
	if len(args) == 0 {
		return tree.Root(), nil
	}
	a, ok := tree.Assembly(args[0])
	if !ok {
		return bom.Assembly{}, fmt.Errorf("no assembly %q", args[0])
	}
	return a, nil
}
