package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/01101001raj/dms-backend/internal/repo"
	"github.com/01101001raj/dms-backend/pkg/db/models"
	pkgerrors "github.com/01101001raj/dms-backend/pkg/errors"
)

// Repository manages persistence for orders and their lines.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) error
	CreateItems(ctx context.Context, items []models.OrderItem) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	// ListItems returns an order's lines in creation order, which the
	// return flow relies on for oldest-first acceptance.
	ListItems(ctx context.Context, orderID uuid.UUID) ([]models.OrderItem, error)
	ListByDistributor(ctx context.Context, distributorID uuid.UUID, limit int) ([]models.Order, error)
	ListPage(ctx context.Context, offset, limit int) ([]models.Order, error)
	Update(ctx context.Context, order *models.Order) error
	DeleteItems(ctx context.Context, orderID uuid.UUID) error
	Delete(ctx context.Context, orderID uuid.UUID) error
	// IncrementReturned bumps a line's returned quantity only while
	// enough unreturned units remain. A guard miss means a concurrent
	// return won the race.
	IncrementReturned(ctx context.Context, itemID uuid.UUID, quantity int) error
}

type repository struct {
	base repo.Base
}

// NewRepository returns an order repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{base: repo.NewBase(tx)}
}

func (r *repository) Create(ctx context.Context, order *models.Order) error {
	return r.base.DB(ctx).Create(order).Error
}

func (r *repository) CreateItems(ctx context.Context, items []models.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.base.DB(ctx).Create(&items).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.base.DB(ctx).First(&order, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) ListItems(ctx context.Context, orderID uuid.UUID) ([]models.OrderItem, error) {
	var items []models.OrderItem
	if err := r.base.DB(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC, id ASC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repository) ListByDistributor(ctx context.Context, distributorID uuid.UUID, limit int) ([]models.Order, error) {
	query := r.base.DB(ctx).
		Where("distributor_id = ?", distributorID).
		Order("date DESC, created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var orders []models.Order
	if err := query.Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *repository) ListPage(ctx context.Context, offset, limit int) ([]models.Order, error) {
	var orders []models.Order
	if err := r.base.DB(ctx).
		Order("created_at ASC").
		Offset(offset).
		Limit(limit).
		Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *repository) Update(ctx context.Context, order *models.Order) error {
	return r.base.DB(ctx).Save(order).Error
}

func (r *repository) DeleteItems(ctx context.Context, orderID uuid.UUID) error {
	return r.base.DB(ctx).
		Where("order_id = ?", orderID).
		Delete(&models.OrderItem{}).Error
}

func (r *repository) Delete(ctx context.Context, orderID uuid.UUID) error {
	return r.base.DB(ctx).
		Where("id = ?", orderID).
		Delete(&models.Order{}).Error
}

func (r *repository) IncrementReturned(ctx context.Context, itemID uuid.UUID, quantity int) error {
	if quantity <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "returned quantity must be positive")
	}
	res := r.base.DB(ctx).
		Model(&models.OrderItem{}).
		Where("id = ? AND quantity - returned_quantity >= ?", itemID, quantity).
		Update("returned_quantity", gorm.Expr("returned_quantity + ?", quantity))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "order line no longer has enough returnable units")
	}
	return nil
}
