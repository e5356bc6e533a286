package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/01101001raj/dms-backend/pkg/enums"
)

// OrderReturn is a request to send units of a delivered order back.
// TotalCreditAmount is frozen at creation by the return reconciler and
// applied verbatim at confirmation; it is never recomputed.
type OrderReturn struct {
	ID                uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID           uuid.UUID          `gorm:"column:order_id;type:uuid;not null"`
	DistributorID     uuid.UUID          `gorm:"column:distributor_id;type:uuid;not null"`
	Status            enums.ReturnStatus `gorm:"column:status;not null;default:'PENDING'"`
	TotalCreditAmount float64            `gorm:"column:total_credit_amount;not null"`
	Remarks           string             `gorm:"column:remarks;not null"`
	InitiatedBy       string             `gorm:"column:initiated_by;not null;default:''"`
	ConfirmedBy       *string            `gorm:"column:confirmed_by"`
	ConfirmedAt       *time.Time         `gorm:"column:confirmed_at"`
	CreatedAt         time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

// OrderReturnItem is one requested return line.
type OrderReturnItem struct {
	ID       uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ReturnID uuid.UUID `gorm:"column:return_id;type:uuid;not null"`
	SKUID    uuid.UUID `gorm:"column:sku_id;type:uuid;not null"`
	Quantity int       `gorm:"column:quantity;not null"`
	Reason   *string   `gorm:"column:reason"`
}
