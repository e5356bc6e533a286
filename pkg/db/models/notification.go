package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/01101001raj/dms-backend/pkg/enums"
)

// Notification is a stored event record. Delivery to any channel is out
// of scope; the table is the system of record for the feed.
type Notification struct {
	ID            uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Type          enums.NotificationType `gorm:"column:type;not null"`
	Message       string                 `gorm:"column:message;not null"`
	DistributorID *uuid.UUID             `gorm:"column:distributor_id;type:uuid"`
	SchemeID      *uuid.UUID             `gorm:"column:scheme_id;type:uuid"`
	OrderID       *uuid.UUID             `gorm:"column:order_id;type:uuid"`
	ReturnID      *uuid.UUID             `gorm:"column:return_id;type:uuid"`
	CreatedAt     time.Time              `gorm:"column:created_at;autoCreateTime"`
}
