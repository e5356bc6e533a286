package distributors

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/01101001raj/dms-backend/internal/repo"
	"github.com/01101001raj/dms-backend/pkg/db/models"
	pkgerrors "github.com/01101001raj/dms-backend/pkg/errors"
)

// Repository manages persistence for distributors, including the
// guarded wallet-balance mutations the order and return flows rely on.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, dist *models.Distributor) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Distributor, error)
	List(ctx context.Context) ([]models.Distributor, error)
	Update(ctx context.Context, dist *models.Distributor) error
	// AdjustBalance applies delta to the wallet atomically and returns
	// the balance after the change. When requireFunds is set the update
	// only succeeds if the balance stays non-negative; a guard miss is a
	// state conflict.
	AdjustBalance(ctx context.Context, id uuid.UUID, delta float64, requireFunds bool) (float64, error)
}

type repository struct {
	base repo.Base
}

// NewRepository returns a distributor repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{base: repo.NewBase(tx)}
}

func (r *repository) Create(ctx context.Context, dist *models.Distributor) error {
	return r.base.DB(ctx).Create(dist).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Distributor, error) {
	var dist models.Distributor
	if err := r.base.DB(ctx).First(&dist, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &dist, nil
}

func (r *repository) List(ctx context.Context) ([]models.Distributor, error) {
	var dists []models.Distributor
	if err := r.base.DB(ctx).Order("name ASC").Find(&dists).Error; err != nil {
		return nil, err
	}
	return dists, nil
}

func (r *repository) Update(ctx context.Context, dist *models.Distributor) error {
	return r.base.DB(ctx).Save(dist).Error
}

func (r *repository) AdjustBalance(ctx context.Context, id uuid.UUID, delta float64, requireFunds bool) (float64, error) {
	query := r.base.DB(ctx).
		Model(&models.Distributor{}).
		Where("id = ?", id)
	if requireFunds && delta < 0 {
		query = query.Where("wallet_balance + ? >= 0", delta)
	}
	res := query.Update("wallet_balance", gorm.Expr("wallet_balance + ?", delta))
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := r.base.DB(ctx).Model(&models.Distributor{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return 0, err
		}
		if count == 0 {
			return 0, pkgerrors.New(pkgerrors.CodeNotFound, "distributor not found")
		}
		return 0, pkgerrors.New(pkgerrors.CodeStateConflict, "insufficient wallet balance")
	}

	var dist models.Distributor
	if err := r.base.DB(ctx).Select("wallet_balance").First(&dist, "id = ?", id).Error; err != nil {
		return 0, err
	}
	return dist.WalletBalance, nil
}
