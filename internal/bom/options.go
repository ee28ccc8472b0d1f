package bom

import "log/slog"

// Derived column names added by Summary.
const (
	ColTotalQTY    = "Total QTY"
	ColPurchaseQTY = "Purchase QTY"
	ColSubtotal    = "Subtotal"
)

// Columns names the source columns the engine reads.
type Columns struct {
	PN          string
	QTY         string
	PkgQTY      string
	PkgPrice    string
	Cost        string
	Name        string
	Description string
	Type        string
}

// DefaultColumns returns the column names used by the stock spreadsheets.
func DefaultColumns() Columns {
	return Columns{
		PN:          "PN",
		QTY:         "QTY",
		PkgQTY:      "Pkg QTY",
		PkgPrice:    "Pkg Price",
		Cost:        "Cost",
		Name:        "Name",
		Description: "Description",
		Type:        "Type",
	}
}

// withDefaults fills every empty name from DefaultColumns.
func (c Columns) withDefaults() Columns {
	d := DefaultColumns()
	fill := func(v *string, def string) {
		if *v == "" {
			*v = def
		}
	}
	fill(&c.PN, d.PN)
	fill(&c.QTY, d.QTY)
	fill(&c.PkgQTY, d.PkgQTY)
	fill(&c.PkgPrice, d.PkgPrice)
	fill(&c.Cost, d.Cost)
	fill(&c.Name, d.Name)
	fill(&c.Description, d.Description)
	fill(&c.Type, d.Type)
	return c
}

// Options configures loading and resolution.
type Options struct {
	// Logger receives soft data-quality warnings. Nil discards them.
	Logger *slog.Logger
	// StrictParts rejects duplicate part numbers in the parts list.
	StrictParts bool
	Columns     Columns
}

func (o Options) normalize() Options {
	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}
	o.Columns = o.Columns.withDefaults()
	return o
}
