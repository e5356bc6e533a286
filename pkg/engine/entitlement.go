package engine

import "github.com/google/uuid"

// Entitlements computes the free units owed per reward SKU given the
// net paid quantities. Freebie lines never count toward thresholds.
//
// Every scheme attached to a buy-SKU is evaluated independently against
// the same full purchased quantity: schemes do not share a decrementing
// pool, so two stacked schemes on one buy-SKU both pay out at full
// strength. That matches the production behavior this engine replaces
// and is locked in by test; do not "fix" it without a business ruling.
func Entitlements(paidQty map[uuid.UUID]int, index SchemeIndex) map[uuid.UUID]int {
	entitled := make(map[uuid.UUID]int)
	for skuID, qty := range paidQty {
		if qty <= 0 {
			continue
		}
		for _, scheme := range index[skuID] {
			if scheme.BuyQuantity <= 0 || qty < scheme.BuyQuantity {
				continue
			}
			timesApplied := qty / scheme.BuyQuantity
			freeUnits := timesApplied * scheme.GetQuantity
			if freeUnits <= 0 {
				continue
			}
			entitled[scheme.GetSKUID] += freeUnits
		}
	}
	return entitled
}
