package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/01101001raj/dms-backend/pkg/enums"
	"github.com/01101001raj/dms-backend/pkg/types"
)

// Order is a distributor purchase. TotalAmount is the authoritative
// stored total and must stay re-derivable from the persisted item list.
type Order struct {
	ID            uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	DistributorID uuid.UUID         `gorm:"column:distributor_id;type:uuid;not null"`
	Date          types.Date        `gorm:"column:date;type:date;not null"`
	Status        enums.OrderStatus `gorm:"column:status;not null;default:'Pending'"`
	TotalAmount   float64           `gorm:"column:total_amount;not null"`
	PlacedBy      string            `gorm:"column:placed_by;not null;default:''"`
	DeliveredDate *types.Date       `gorm:"column:delivered_date;type:date"`
	CreatedAt     time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
