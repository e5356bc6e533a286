package returns

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/01101001raj/dms-backend/internal/repo"
	"github.com/01101001raj/dms-backend/pkg/db/models"
	"github.com/01101001raj/dms-backend/pkg/enums"
)

// Repository manages persistence for order returns.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, ret *models.OrderReturn) error
	CreateItems(ctx context.Context, items []models.OrderReturnItem) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.OrderReturn, error)
	ListItems(ctx context.Context, returnID uuid.UUID) ([]models.OrderReturnItem, error)
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.OrderReturn, error)
	// Confirm flips PENDING to CONFIRMED exactly once. Returns false
	// when the return was already confirmed.
	Confirm(ctx context.Context, id uuid.UUID, confirmedBy string) (bool, error)
}

type repository struct {
	base repo.Base
}

// NewRepository returns a returns repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{base: repo.NewBase(tx)}
}

func (r *repository) Create(ctx context.Context, ret *models.OrderReturn) error {
	return r.base.DB(ctx).Create(ret).Error
}

func (r *repository) CreateItems(ctx context.Context, items []models.OrderReturnItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.base.DB(ctx).Create(&items).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.OrderReturn, error) {
	var ret models.OrderReturn
	if err := r.base.DB(ctx).First(&ret, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &ret, nil
}

func (r *repository) ListItems(ctx context.Context, returnID uuid.UUID) ([]models.OrderReturnItem, error) {
	var items []models.OrderReturnItem
	if err := r.base.DB(ctx).
		Where("return_id = ?", returnID).
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repository) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.OrderReturn, error) {
	var rets []models.OrderReturn
	if err := r.base.DB(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&rets).Error; err != nil {
		return nil, err
	}
	return rets, nil
}

func (r *repository) Confirm(ctx context.Context, id uuid.UUID, confirmedBy string) (bool, error) {
	res := r.base.DB(ctx).
		Model(&models.OrderReturn{}).
		Where("id = ? AND status = ?", id, enums.ReturnStatusPending).
		Updates(map[string]any{
			"status":       enums.ReturnStatusConfirmed,
			"confirmed_by": confirmedBy,
			"confirmed_at": gorm.Expr("CURRENT_TIMESTAMP"),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
