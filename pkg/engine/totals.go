package engine

import (
	"math"

	"github.com/google/uuid"

	"github.com/01101001raj/dms-backend/pkg/db/models"
)

// Line is one order line as the totals calculator sees it. Freebie
// lines carry their quantity for stock purposes but contribute nothing
// to money.
type Line struct {
	SKUID         uuid.UUID
	Quantity      int
	UnitPrice     float64
	GSTPercentage float64
	IsFreebie     bool
}

// TaxableValue is the line's pre-tax money value.
func (l Line) TaxableValue() float64 {
	if l.IsFreebie {
		return 0
	}
	return float64(l.Quantity) * l.UnitPrice
}

// Totals is the monetary summary of an order.
type Totals struct {
	Subtotal    float64
	GSTAmount   float64
	TotalAmount float64
	// Degenerate is set when the arithmetic produced NaN or an
	// infinity. All three amounts are forced to zero in that case so a
	// poisoned input can never debit a wallet.
	Degenerate bool
}

// ComputeTotals sums taxable values and per-line GST. GST is computed
// line by line at each line's own rate, never as a blended rate over
// the subtotal. Fails closed to zero on non-finite results.
func ComputeTotals(lines []Line) Totals {
	var subtotal, gst float64
	for _, line := range lines {
		taxable := line.TaxableValue()
		subtotal += taxable
		gst += taxable * line.GSTPercentage / 100
	}
	total := subtotal + gst
	if !isFinite(subtotal) || !isFinite(gst) || !isFinite(total) {
		return Totals{Degenerate: true}
	}
	return Totals{Subtotal: subtotal, GSTAmount: gst, TotalAmount: total}
}

// TotalsFromItems recomputes totals from persisted order lines using
// their frozen unit prices. Used by the audit job and by order edits to
// check that stored totals still agree with the stored lines.
func TotalsFromItems(items []models.OrderItem, catalog Catalog) Totals {
	lines := make([]Line, 0, len(items))
	for _, item := range items {
		lines = append(lines, Line{
			SKUID:         item.SKUID,
			Quantity:      item.Quantity,
			UnitPrice:     item.UnitPrice,
			GSTPercentage: catalog[item.SKUID].GSTPercentage,
			IsFreebie:     item.IsFreebie,
		})
	}
	return ComputeTotals(lines)
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
