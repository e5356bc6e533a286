package models

import (
	"time"

	"github.com/google/uuid"
)

// SKU is a sellable catalog unit. Price is the GST-exclusive base list
// price; tier overrides take precedence at order time. GSTPercentage is
// constrained to [0,100].
type SKU struct {
	ID               uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name             string    `gorm:"column:name;not null"`
	HSNCode          string    `gorm:"column:hsn_code;not null"`
	Price            float64   `gorm:"column:price;not null"`
	GSTPercentage    float64   `gorm:"column:gst_percentage;not null"`
	CartonPriceNet   *float64  `gorm:"column:carton_price_net"`
	CartonPriceGross *float64  `gorm:"column:carton_price_gross"`
	CreatedAt        time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName overrides the default pluralization.
func (SKU) TableName() string {
	return "skus"
}
