package schemes

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/01101001raj/dms-backend/internal/repo"
	"github.com/01101001raj/dms-backend/pkg/db/models"
	"github.com/01101001raj/dms-backend/pkg/types"
)

// Repository manages persistence for promotional schemes.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, scheme *models.Scheme) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Scheme, error)
	ListAll(ctx context.Context) ([]models.Scheme, error)
	// ListLiveOn returns schemes whose window covers the date and that
	// have not been stopped. Eligibility filtering stays in the engine.
	ListLiveOn(ctx context.Context, date types.Date) ([]models.Scheme, error)
	// Stop sets the stop marker once. Returns false when the scheme was
	// already stopped.
	Stop(ctx context.Context, id uuid.UUID, stoppedBy string, date types.Date) (bool, error)
}

type repository struct {
	base repo.Base
}

// NewRepository returns a scheme repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{base: repo.NewBase(tx)}
}

func (r *repository) Create(ctx context.Context, scheme *models.Scheme) error {
	return r.base.DB(ctx).Create(scheme).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Scheme, error) {
	var scheme models.Scheme
	if err := r.base.DB(ctx).First(&scheme, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &scheme, nil
}

func (r *repository) ListAll(ctx context.Context) ([]models.Scheme, error) {
	var schemes []models.Scheme
	if err := r.base.DB(ctx).Order("created_at DESC").Find(&schemes).Error; err != nil {
		return nil, err
	}
	return schemes, nil
}

func (r *repository) ListLiveOn(ctx context.Context, date types.Date) ([]models.Scheme, error) {
	var schemes []models.Scheme
	if err := r.base.DB(ctx).
		Where("stopped_date IS NULL").
		Where("start_date <= ? AND end_date >= ?", date, date).
		Order("created_at ASC").
		Find(&schemes).Error; err != nil {
		return nil, err
	}
	return schemes, nil
}

func (r *repository) Stop(ctx context.Context, id uuid.UUID, stoppedBy string, date types.Date) (bool, error) {
	res := r.base.DB(ctx).
		Model(&models.Scheme{}).
		Where("id = ? AND stopped_date IS NULL", id).
		Updates(map[string]any{
			"stopped_by":   stoppedBy,
			"stopped_date": date,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
