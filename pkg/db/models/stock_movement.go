package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/01101001raj/dms-backend/pkg/enums"
)

// StockMovement is one entry in the stock ledger. Quantity is signed:
// negative for outflows (sales), positive for inflows (restocked
// returns, production). Damaged units are ledgered with a negative
// quantity so they never re-enter sellable stock.
type StockMovement struct {
	ID        uuid.UUID               `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SKUID     uuid.UUID               `gorm:"column:sku_id;type:uuid;not null"`
	Type      enums.StockMovementType `gorm:"column:type;not null"`
	Quantity  int                     `gorm:"column:quantity;not null"`
	OrderID   *uuid.UUID              `gorm:"column:order_id;type:uuid"`
	ReturnID  *uuid.UUID              `gorm:"column:return_id;type:uuid"`
	Remarks   *string                 `gorm:"column:remarks"`
	CreatedAt time.Time               `gorm:"column:created_at;autoCreateTime"`
}
