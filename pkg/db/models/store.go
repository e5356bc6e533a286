package models

import (
	"time"

	"github.com/google/uuid"
)

// Store is a regional depot distributors can be assigned to. Schemes may
// be scoped to a store.
type Store struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name      string    `gorm:"column:name;not null"`
	Location  string    `gorm:"column:location;not null;default:''"`
	GSTIN     string    `gorm:"column:gstin;not null;default:''"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
