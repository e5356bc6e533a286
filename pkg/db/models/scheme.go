package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/01101001raj/dms-backend/pkg/types"
)

// Scheme is a "buy N of SKU A, get M of SKU B free" promotional rule.
// The [StartDate, EndDate] window is inclusive at day granularity. A
// non-nil StoppedDate kills the scheme permanently regardless of the
// window. Scope is one of: global, store-targeted, distributor-targeted.
type Scheme struct {
	ID            uuid.UUID   `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Description   string      `gorm:"column:description;not null;default:''"`
	BuySKUID      uuid.UUID   `gorm:"column:buy_sku_id;type:uuid;not null"`
	BuyQuantity   int         `gorm:"column:buy_quantity;not null"`
	GetSKUID      uuid.UUID   `gorm:"column:get_sku_id;type:uuid;not null"`
	GetQuantity   int         `gorm:"column:get_quantity;not null"`
	StartDate     types.Date  `gorm:"column:start_date;type:date;not null"`
	EndDate       types.Date  `gorm:"column:end_date;type:date;not null"`
	IsGlobal      bool        `gorm:"column:is_global;not null;default:false"`
	StoreID       *uuid.UUID  `gorm:"column:store_id;type:uuid"`
	DistributorID *uuid.UUID  `gorm:"column:distributor_id;type:uuid"`
	StoppedBy     *string     `gorm:"column:stopped_by"`
	StoppedDate   *types.Date `gorm:"column:stopped_date;type:date"`
	CreatedAt     time.Time   `gorm:"column:created_at;autoCreateTime"`
}

// IsStopped reports whether the scheme has been permanently disabled.
func (s Scheme) IsStopped() bool {
	return s.StoppedDate != nil && !s.StoppedDate.IsZero()
}
