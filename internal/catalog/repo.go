package catalog

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/01101001raj/dms-backend/internal/repo"
	"github.com/01101001raj/dms-backend/pkg/db/models"
)

// Repository manages persistence for SKUs and price tiers.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateSKU(ctx context.Context, sku *models.SKU) error
	UpdateSKU(ctx context.Context, sku *models.SKU) error
	FindSKU(ctx context.Context, id uuid.UUID) (*models.SKU, error)
	ListSKUs(ctx context.Context) ([]models.SKU, error)
	CreateTier(ctx context.Context, tier *models.PriceTier) error
	FindTier(ctx context.Context, id uuid.UUID) (*models.PriceTier, error)
	UpsertTierItem(ctx context.Context, item *models.PriceTierItem) error
	ListTierItems(ctx context.Context, tierID uuid.UUID) ([]models.PriceTierItem, error)
}

type repository struct {
	base repo.Base
}

// NewRepository returns a catalog repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{base: repo.NewBase(tx)}
}

func (r *repository) CreateSKU(ctx context.Context, sku *models.SKU) error {
	return r.base.DB(ctx).Create(sku).Error
}

func (r *repository) UpdateSKU(ctx context.Context, sku *models.SKU) error {
	return r.base.DB(ctx).Save(sku).Error
}

func (r *repository) FindSKU(ctx context.Context, id uuid.UUID) (*models.SKU, error) {
	var sku models.SKU
	if err := r.base.DB(ctx).First(&sku, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &sku, nil
}

func (r *repository) ListSKUs(ctx context.Context) ([]models.SKU, error) {
	var skus []models.SKU
	if err := r.base.DB(ctx).Order("name ASC").Find(&skus).Error; err != nil {
		return nil, err
	}
	return skus, nil
}

func (r *repository) CreateTier(ctx context.Context, tier *models.PriceTier) error {
	return r.base.DB(ctx).Create(tier).Error
}

func (r *repository) FindTier(ctx context.Context, id uuid.UUID) (*models.PriceTier, error) {
	var tier models.PriceTier
	if err := r.base.DB(ctx).First(&tier, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &tier, nil
}

func (r *repository) UpsertTierItem(ctx context.Context, item *models.PriceTierItem) error {
	return r.base.DB(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "tier_id"}, {Name: "sku_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"price", "updated_at"}),
		}).
		Create(item).Error
}

func (r *repository) ListTierItems(ctx context.Context, tierID uuid.UUID) ([]models.PriceTierItem, error) {
	var items []models.PriceTierItem
	if err := r.base.DB(ctx).
		Where("tier_id = ?", tierID).
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}
