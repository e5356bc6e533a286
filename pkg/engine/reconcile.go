package engine

import (
	"github.com/google/uuid"

	"github.com/01101001raj/dms-backend/pkg/db/models"
)

// ReturnLine is one requested return quantity against a paid SKU.
type ReturnLine struct {
	SKUID    uuid.UUID
	Quantity int
}

// ReturnInput carries the persisted state of one order plus the return
// request. Items must be the order's full line set in creation order so
// acceptance consumes the oldest lines first. Schemes must be the index
// that was in force on the order's date, not today's.
type ReturnInput struct {
	Items     []models.OrderItem
	Catalog   Catalog
	Schemes   SchemeIndex
	Requested []ReturnLine
}

// Reconciliation is the money and quantity outcome of a return.
// FinalCredit may be negative: a return that drops the order below a
// scheme threshold can claw back more freebie value than the returned
// units refund.
type Reconciliation struct {
	GrossCredit   float64
	ClawbackValue float64
	FinalCredit   float64
	// Accepted is the per-SKU quantity actually returnable after
	// clamping against remaining paid stock.
	Accepted map[uuid.UUID]int
	// NewEntitlements is the freebie allowance recomputed from the
	// post-return paid quantities.
	NewEntitlements map[uuid.UUID]int
	// ClawbackUnits is the per-SKU count of delivered freebies that the
	// shrunken order no longer earns.
	ClawbackUnits map[uuid.UUID]int
	Degenerate    bool
}

// ReconcileReturn computes the credit for a return request. Requested
// quantities only ever count against paid lines; freebies are never
// directly returnable. Each accepted unit refunds its line's frozen
// unit price plus GST at the SKU's current rate. Entitlements are then
// recomputed from the net paid quantities and any excess delivered
// freebies are clawed back at the catalog base price plus GST,
// regardless of any tier discount the paid lines enjoyed.
func ReconcileReturn(in ReturnInput) Reconciliation {
	rec := Reconciliation{
		Accepted:      make(map[uuid.UUID]int),
		ClawbackUnits: make(map[uuid.UUID]int),
	}

	paidLines := make(map[uuid.UUID][]models.OrderItem)
	freebieQty := make(map[uuid.UUID]int)
	for _, item := range in.Items {
		if item.IsFreebie {
			freebieQty[item.SKUID] += item.Quantity
			continue
		}
		paidLines[item.SKUID] = append(paidLines[item.SKUID], item)
	}

	// Acceptance walks the request in order and the paid lines oldest
	// first, so a partial return always drains the earliest line.
	taken := make(map[uuid.UUID]int)
	var gross float64
	for _, req := range in.Requested {
		remaining := req.Quantity
		if remaining <= 0 {
			continue
		}
		sku, known := in.Catalog[req.SKUID]
		for i := range paidLines[req.SKUID] {
			if remaining == 0 {
				break
			}
			line := paidLines[req.SKUID][i]
			avail := line.ReturnableQuantity() - taken[line.ID]
			if avail <= 0 {
				continue
			}
			take := remaining
			if take > avail {
				take = avail
			}
			taken[line.ID] += take
			rec.Accepted[req.SKUID] += take
			remaining -= take
			if known {
				gross += float64(take) * line.UnitPrice * (1 + sku.GSTPercentage/100)
			}
		}
	}

	netPaid := make(map[uuid.UUID]int, len(paidLines))
	for skuID, lines := range paidLines {
		var qty int
		for _, line := range lines {
			qty += line.ReturnableQuantity()
		}
		netPaid[skuID] = qty - rec.Accepted[skuID]
	}

	rec.NewEntitlements = Entitlements(netPaid, in.Schemes)

	var clawback float64
	for _, skuID := range sortedSKUIDs(freebieQty) {
		excess := freebieQty[skuID] - rec.NewEntitlements[skuID]
		if excess <= 0 {
			continue
		}
		rec.ClawbackUnits[skuID] = excess
		sku, known := in.Catalog[skuID]
		if !known {
			continue
		}
		clawback += float64(excess) * sku.Price * (1 + sku.GSTPercentage/100)
	}

	final := gross - clawback
	if !isFinite(gross) || !isFinite(clawback) || !isFinite(final) {
		return Reconciliation{
			Accepted:        rec.Accepted,
			NewEntitlements: rec.NewEntitlements,
			ClawbackUnits:   rec.ClawbackUnits,
			Degenerate:      true,
		}
	}
	rec.GrossCredit = gross
	rec.ClawbackValue = clawback
	rec.FinalCredit = final
	return rec
}
