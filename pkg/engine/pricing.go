package engine

import (
	"github.com/google/uuid"

	"github.com/01101001raj/dms-backend/pkg/db/models"
)

// ResolvePrices returns the effective unit price per SKU for the
// distributor: the tier override when the distributor is assigned to a
// tier that carries one, otherwise the SKU's base list price. There is
// no error path; SKUs without a catalog entry are simply absent from
// the result.
func ResolvePrices(dist models.Distributor, catalog Catalog, tierItems []models.PriceTierItem) map[uuid.UUID]float64 {
	prices := make(map[uuid.UUID]float64, len(catalog))
	for id, sku := range catalog {
		prices[id] = sku.Price
	}

	if dist.PriceTierID == nil {
		return prices
	}
	for _, item := range tierItems {
		if item.TierID != *dist.PriceTierID {
			continue
		}
		if !catalog.Has(item.SKUID) {
			continue
		}
		prices[item.SKUID] = item.Price
	}
	return prices
}
