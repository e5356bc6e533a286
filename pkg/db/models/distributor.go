package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/01101001raj/dms-backend/pkg/types"
)

// Distributor is a buying party. A nil StoreID means the distributor is
// served at plant level; a nil PriceTierID means base catalog pricing.
// HasSpecialSchemes gates distributor-targeted promotional schemes.
type Distributor struct {
	ID                uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name              string     `gorm:"column:name;not null"`
	Phone             string     `gorm:"column:phone;not null;default:''"`
	State             string     `gorm:"column:state;not null;default:''"`
	Area              string     `gorm:"column:area;not null;default:''"`
	GSTIN             string     `gorm:"column:gstin;not null;default:''"`
	BillingAddress    string     `gorm:"column:billing_address;not null;default:''"`
	ASMName           string     `gorm:"column:asm_name;not null;default:''"`
	ExecutiveName     string     `gorm:"column:executive_name;not null;default:''"`
	HasSpecialSchemes bool       `gorm:"column:has_special_schemes;not null;default:false"`
	WalletBalance     float64    `gorm:"column:wallet_balance;not null;default:0"`
	CreditLimit       float64    `gorm:"column:credit_limit;not null;default:0"`
	PriceTierID       *uuid.UUID `gorm:"column:price_tier_id;type:uuid"`
	StoreID           *uuid.UUID `gorm:"column:store_id;type:uuid"`
	DateAdded         types.Date `gorm:"column:date_added;type:date"`
	CreatedAt         time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
