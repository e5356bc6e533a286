package notifications

import (
	"context"

	"gorm.io/gorm"

	"github.com/01101001raj/dms-backend/internal/repo"
	"github.com/01101001raj/dms-backend/pkg/db/models"
)

// Repository manages stored notification records.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, record *models.Notification) error
	ListRecent(ctx context.Context, limit int) ([]models.Notification, error)
}

type repository struct {
	base repo.Base
}

// NewRepository returns a notification repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{base: repo.NewBase(tx)}
}

func (r *repository) Create(ctx context.Context, record *models.Notification) error {
	return r.base.DB(ctx).Create(record).Error
}

func (r *repository) ListRecent(ctx context.Context, limit int) ([]models.Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	var records []models.Notification
	if err := r.base.DB(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}
