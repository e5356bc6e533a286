package stock

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/01101001raj/dms-backend/internal/repo"
	"github.com/01101001raj/dms-backend/pkg/db/models"
)

// Repository manages the append-only stock movement ledger.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, movement *models.StockMovement) error
	ListBySKU(ctx context.Context, skuID uuid.UUID, limit int) ([]models.StockMovement, error)
	OnHand(ctx context.Context, skuID uuid.UUID) (int, error)
}

type repository struct {
	base repo.Base
}

// NewRepository returns a stock repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{base: repo.NewBase(tx)}
}

func (r *repository) Create(ctx context.Context, movement *models.StockMovement) error {
	return r.base.DB(ctx).Create(movement).Error
}

func (r *repository) ListBySKU(ctx context.Context, skuID uuid.UUID, limit int) ([]models.StockMovement, error) {
	query := r.base.DB(ctx).
		Where("sku_id = ?", skuID).
		Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var movements []models.StockMovement
	if err := query.Find(&movements).Error; err != nil {
		return nil, err
	}
	return movements, nil
}

func (r *repository) OnHand(ctx context.Context, skuID uuid.UUID) (int, error) {
	var total *int
	err := r.base.DB(ctx).
		Model(&models.StockMovement{}).
		Select("SUM(quantity)").
		Where("sku_id = ?", skuID).
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	if total == nil {
		return 0, nil
	}
	return *total, nil
}
