package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/01101001raj/dms-backend/pkg/enums"
)

// WalletTransaction is one append-only entry in a distributor's wallet
// ledger. BalanceAfter snapshots the balance once the entry applied.
type WalletTransaction struct {
	ID            uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	DistributorID uuid.UUID             `gorm:"column:distributor_id;type:uuid;not null"`
	Type          enums.TransactionType `gorm:"column:type;not null"`
	Amount        float64               `gorm:"column:amount;not null"`
	BalanceAfter  float64               `gorm:"column:balance_after;not null"`
	OrderID       *uuid.UUID            `gorm:"column:order_id;type:uuid"`
	ReturnID      *uuid.UUID            `gorm:"column:return_id;type:uuid"`
	Remarks       *string               `gorm:"column:remarks"`
	InitiatedBy   string                `gorm:"column:initiated_by;not null;default:''"`
	CreatedAt     time.Time             `gorm:"column:created_at;autoCreateTime"`
}
