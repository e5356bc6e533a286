package wallet

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/01101001raj/dms-backend/internal/repo"
	"github.com/01101001raj/dms-backend/pkg/db/models"
)

// Repository manages the append-only wallet transaction ledger.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, txn *models.WalletTransaction) error
	ListByDistributor(ctx context.Context, distributorID uuid.UUID, limit int) ([]models.WalletTransaction, error)
}

type repository struct {
	base repo.Base
}

// NewRepository returns a wallet repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{base: repo.NewBase(tx)}
}

func (r *repository) Create(ctx context.Context, txn *models.WalletTransaction) error {
	return r.base.DB(ctx).Create(txn).Error
}

func (r *repository) ListByDistributor(ctx context.Context, distributorID uuid.UUID, limit int) ([]models.WalletTransaction, error) {
	query := r.base.DB(ctx).
		Where("distributor_id = ?", distributorID).
		Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var txns []models.WalletTransaction
	if err := query.Find(&txns).Error; err != nil {
		return nil, err
	}
	return txns, nil
}
