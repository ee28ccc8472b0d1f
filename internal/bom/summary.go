package bom

import (
	"math"

	"github.com/leapstack-labs/leapbom/internal/table"
)

// Summary joins the parts list with the assembly's aggregate and adds the
// Total QTY, Purchase QTY and Subtotal columns. It works on a copy of the
// parts table; the parts list itself is never modified.
//
// Purchase QTY rounds Total QTY up to whole packages when a package
// quantity is given and equals Total QTY otherwise. Subtotal prices the
// purchase with the package price, falling back to the unit cost.
func (a Assembly) Summary() *table.Table {
	db := a.tree.db
	if db == nil {
		return table.New(a.PN(), ColTotalQTY, ColPurchaseQTY, ColSubtotal)
	}
	cols := db.cols
	agg := a.Aggregate()

	out := db.Table()
	out.AddColumn(ColTotalQTY)
	out.AddColumn(ColPurchaseQTY)
	out.AddColumn(ColSubtotal)

	for _, row := range out.Rows {
		var total any
		if n, ok := agg.Get(row.Text(cols.PN)); ok {
			total = n
		}
		purchase := purchaseQTY(total, row, cols)
		row[ColTotalQTY] = total
		row[ColPurchaseQTY] = purchase
		row[ColSubtotal] = subtotal(purchase, row, cols)
	}
	return out
}

func purchaseQTY(total any, row table.Row, cols Columns) any {
	pkg, ok := row.Get(cols.PkgQTY)
	if !ok {
		return total
	}
	n, ok := total.(int64)
	if !ok {
		return int64(0)
	}
	size, ok := table.AsFloat(pkg)
	if !ok || size <= 0 {
		return int64(0)
	}
	return int64(math.Ceil(float64(n) / size))
}

func subtotal(purchase any, row table.Row, cols Columns) any {
	n, ok := purchase.(int64)
	if !ok {
		return nil
	}
	price, ok := row.Get(cols.PkgPrice)
	if !ok {
		price, ok = row.Get(cols.Cost)
	}
	if !ok {
		return nil
	}
	p, ok := table.AsFloat(price)
	if !ok {
		return nil
	}
	return float64(n) * p
}

// TotalCost sums the non-null Subtotal cells of a summary table.
func TotalCost(summary *table.Table) float64 {
	var sum float64
	for _, row := range summary.Rows {
		if v, ok := row.Get(ColSubtotal); ok {
			if f, ok := table.AsFloat(v); ok {
				sum += f
			}
		}
	}
	return sum
}
