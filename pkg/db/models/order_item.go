package models

import (
	"time"

	"github.com/google/uuid"
)

// OrderItem is one line of an order. Freebie lines carry UnitPrice 0 and
// never count toward scheme thresholds. ReturnedQuantity only grows, and
// never beyond Quantity.
type OrderItem struct {
	ID               uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID          uuid.UUID `gorm:"column:order_id;type:uuid;not null"`
	SKUID            uuid.UUID `gorm:"column:sku_id;type:uuid;not null"`
	Quantity         int       `gorm:"column:quantity;not null"`
	UnitPrice        float64   `gorm:"column:unit_price;not null"`
	IsFreebie        bool      `gorm:"column:is_freebie;not null;default:false"`
	ReturnedQuantity int       `gorm:"column:returned_quantity;not null;default:0"`
	CreatedAt        time.Time `gorm:"column:created_at;autoCreateTime"`
}

// ReturnableQuantity is how many units of the line can still be returned.
func (i OrderItem) ReturnableQuantity() int {
	remaining := i.Quantity - i.ReturnedQuantity
	if remaining < 0 {
		return 0
	}
	return remaining
}
