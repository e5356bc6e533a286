// Package engine implements the promotional pricing, entitlement and
// returns-reconciliation calculations. Everything here is a pure
// function over in-memory arguments: callers load the catalog, tier
// overrides and candidate scheme set, and persist whatever the engine
// returns. Order placement, order editing and return reconciliation all
// go through this package so the three flows can never drift apart.
package engine

import (
	"sort"

	"github.com/google/uuid"

	"github.com/01101001raj/dms-backend/pkg/db/models"
	"github.com/01101001raj/dms-backend/pkg/types"
)

// Catalog is the SKU table keyed by id.
type Catalog map[uuid.UUID]models.SKU

// NewCatalog builds a Catalog from a slice of SKU records.
func NewCatalog(skus []models.SKU) Catalog {
	catalog := make(Catalog, len(skus))
	for _, sku := range skus {
		catalog[sku.ID] = sku
	}
	return catalog
}

// Has reports whether the SKU exists in the catalog.
func (c Catalog) Has(id uuid.UUID) bool {
	_, ok := c[id]
	return ok
}

// ItemRequest is one paid line of a requested order.
type ItemRequest struct {
	SKUID    uuid.UUID
	Quantity int
}

// OrderInput carries everything needed to price an order. Date is the
// order's calendar date, not the moment of computation, so editing an
// order later re-evaluates the schemes that were live when it was
// placed.
type OrderInput struct {
	Distributor models.Distributor
	Catalog     Catalog
	TierItems   []models.PriceTierItem
	Schemes     []models.Scheme
	Date        types.Date
	Items       []ItemRequest
}

// OrderMetrics is the full pricing outcome for an order: the paid lines
// in request order followed by derived freebie lines, plus totals.
type OrderMetrics struct {
	Lines        []Line
	Entitlements map[uuid.UUID]int
	Totals       Totals
}

// ComputeOrderMetrics resolves prices, matches schemes, computes
// freebie entitlements and totals in one pass. It is deterministic: for
// a fixed catalog, tiers, schemes and order date, identical inputs
// yield bit-identical output.
func ComputeOrderMetrics(in OrderInput) OrderMetrics {
	prices := ResolvePrices(in.Distributor, in.Catalog, in.TierItems)
	index := MatchSchemes(in.Schemes, in.Distributor, in.Catalog, in.Date)

	paidQty := make(map[uuid.UUID]int, len(in.Items))
	lines := make([]Line, 0, len(in.Items))
	for _, item := range in.Items {
		if item.Quantity <= 0 {
			continue
		}
		paidQty[item.SKUID] += item.Quantity
		// Unknown SKUs keep a zero price and zero GST so the line
		// contributes nothing; callers guard the boundary.
		lines = append(lines, Line{
			SKUID:         item.SKUID,
			Quantity:      item.Quantity,
			UnitPrice:     prices[item.SKUID],
			GSTPercentage: in.Catalog[item.SKUID].GSTPercentage,
		})
	}

	entitlements := Entitlements(paidQty, index)
	for _, skuID := range sortedSKUIDs(entitlements) {
		lines = append(lines, Line{
			SKUID:         skuID,
			Quantity:      entitlements[skuID],
			UnitPrice:     0,
			GSTPercentage: in.Catalog[skuID].GSTPercentage,
			IsFreebie:     true,
		})
	}

	return OrderMetrics{
		Lines:        lines,
		Entitlements: entitlements,
		Totals:       ComputeTotals(lines),
	}
}

func sortedSKUIDs[V any](m map[uuid.UUID]V) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return ids[i].String() < ids[j].String()
	})
	return ids
}
