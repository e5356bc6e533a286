package models

import (
	"time"

	"github.com/google/uuid"
)

// PriceTier is a named distributor-pricing override group.
type PriceTier struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name        string    `gorm:"column:name;not null"`
	Description string    `gorm:"column:description;not null;default:''"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
}

// PriceTierItem overrides the unit price of one SKU for one tier.
type PriceTierItem struct {
	TierID    uuid.UUID `gorm:"column:tier_id;type:uuid;primaryKey"`
	SKUID     uuid.UUID `gorm:"column:sku_id;type:uuid;primaryKey"`
	Price     float64   `gorm:"column:price;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
