package engine

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// InvoiceLine is one printable invoice row with its GST split into the
// equal central and state halves.
type InvoiceLine struct {
	SKUID         uuid.UUID
	Quantity      int
	UnitPrice     decimal.Decimal
	TaxableValue  decimal.Decimal
	GSTPercentage decimal.Decimal
	CGST          decimal.Decimal
	SGST          decimal.Decimal
	IsFreebie     bool
}

// Invoice carries the document-level rounding of an order. Raw amounts
// keep full precision; the displayed subtotal, CGST and SGST are each
// rounded half-up to whole currency units independently, while the
// grand total is the ceiling of the raw sum. RoundOff is the signed gap
// between the grand total and the sum of the displayed components, so
// the printed figures always reconcile.
type Invoice struct {
	Lines       []InvoiceLine
	RawSubtotal decimal.Decimal
	RawCGST     decimal.Decimal
	RawSGST     decimal.Decimal
	Subtotal    int64
	CGST        int64
	SGST        int64
	GrandTotal  int64
	RoundOff    decimal.Decimal
}

// BuildInvoice converts priced order lines into invoice rows and
// applies the rounding policy. Engine arithmetic stays in floats; the
// invoice switches to decimals so repeated rounding of the same order
// is reproducible to the paisa.
func BuildInvoice(lines []Line) Invoice {
	inv := Invoice{Lines: make([]InvoiceLine, 0, len(lines))}
	for _, line := range lines {
		taxable := decimal.NewFromFloat(line.TaxableValue())
		rate := decimal.NewFromFloat(line.GSTPercentage)
		gst := taxable.Mul(rate).Div(hundred)
		half := gst.Div(decimal.NewFromInt(2))
		row := InvoiceLine{
			SKUID:         line.SKUID,
			Quantity:      line.Quantity,
			UnitPrice:     decimal.NewFromFloat(line.UnitPrice),
			TaxableValue:  taxable,
			GSTPercentage: rate,
			CGST:          half,
			SGST:          half,
			IsFreebie:     line.IsFreebie,
		}
		inv.Lines = append(inv.Lines, row)
		inv.RawSubtotal = inv.RawSubtotal.Add(taxable)
		inv.RawCGST = inv.RawCGST.Add(half)
		inv.RawSGST = inv.RawSGST.Add(half)
	}

	inv.Subtotal = inv.RawSubtotal.Round(0).IntPart()
	inv.CGST = inv.RawCGST.Round(0).IntPart()
	inv.SGST = inv.RawSGST.Round(0).IntPart()

	rawGrand := inv.RawSubtotal.Add(inv.RawCGST).Add(inv.RawSGST)
	inv.GrandTotal = rawGrand.Ceil().IntPart()

	displayed := decimal.NewFromInt(inv.Subtotal + inv.CGST + inv.SGST)
	inv.RoundOff = decimal.NewFromInt(inv.GrandTotal).Sub(displayed)
	return inv
}
