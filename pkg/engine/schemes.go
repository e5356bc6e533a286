package engine

import (
	"github.com/google/uuid"

	"github.com/01101001raj/dms-backend/pkg/db/models"
	"github.com/01101001raj/dms-backend/pkg/types"
)

// SchemeIndex groups eligible schemes by their buy-SKU. One buy-SKU may
// carry several independent schemes.
type SchemeIndex map[uuid.UUID][]models.Scheme

// MatchSchemes filters the candidate scheme set down to the schemes
// that are active on the reference date and eligible for the
// distributor, de-duplicated by id and indexed by buy-SKU. Schemes
// whose buy or reward SKU has left the catalog are dropped: a stale
// reference must never grant or claw back stock.
func MatchSchemes(schemes []models.Scheme, dist models.Distributor, catalog Catalog, date types.Date) SchemeIndex {
	index := make(SchemeIndex)
	seen := make(map[uuid.UUID]struct{}, len(schemes))
	for _, scheme := range schemes {
		if _, dup := seen[scheme.ID]; dup {
			continue
		}
		if !schemeActiveOn(scheme, date) {
			continue
		}
		if !schemeEligibleFor(scheme, dist) {
			continue
		}
		if !catalog.Has(scheme.BuySKUID) || !catalog.Has(scheme.GetSKUID) {
			continue
		}
		seen[scheme.ID] = struct{}{}
		index[scheme.BuySKUID] = append(index[scheme.BuySKUID], scheme)
	}
	return index
}

// schemeActiveOn applies the calendar-day window. A stopped scheme is
// dead regardless of its dates.
func schemeActiveOn(scheme models.Scheme, date types.Date) bool {
	if scheme.IsStopped() {
		return false
	}
	return date.Within(scheme.StartDate, scheme.EndDate)
}

func schemeEligibleFor(scheme models.Scheme, dist models.Distributor) bool {
	if scheme.IsGlobal {
		return true
	}
	if scheme.StoreID != nil && dist.StoreID != nil && *scheme.StoreID == *dist.StoreID {
		return true
	}
	if scheme.DistributorID != nil && *scheme.DistributorID == dist.ID && dist.HasSpecialSchemes {
		return true
	}
	return false
}
