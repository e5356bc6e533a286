package schemes

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/01101001raj/dms-backend/internal/notifications"
	"github.com/01101001raj/dms-backend/pkg/db/models"
	"github.com/01101001raj/dms-backend/pkg/enums"
	pkgerrors "github.com/01101001raj/dms-backend/pkg/errors"
	"github.com/01101001raj/dms-backend/pkg/logger"
	"github.com/01101001raj/dms-backend/pkg/types"
	"github.com/01101001raj/dms-backend/pkg/validate"
)

// Service exposes promotional scheme management and the candidate-set
// lookup the order and return flows feed into the engine.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Scheme, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Scheme, error)
	List(ctx context.Context) ([]models.Scheme, error)
	// Stop permanently disables a scheme. Stopping is one-way; a second
	// stop is a state conflict.
	Stop(ctx context.Context, id uuid.UUID, stoppedBy string) (*models.Scheme, error)
	// LiveOn returns the schemes whose window covers the date, served
	// from cache when possible. Per-distributor eligibility is applied
	// later by the engine.
	LiveOn(ctx context.Context, date types.Date) ([]models.Scheme, error)
}

// CreateInput is the validated payload to create a scheme.
type CreateInput struct {
	Description   string     `json:"description"`
	BuySKUID      uuid.UUID  `json:"buy_sku_id" validate:"required"`
	BuyQuantity   int        `json:"buy_quantity" validate:"required,gt=0"`
	GetSKUID      uuid.UUID  `json:"get_sku_id" validate:"required"`
	GetQuantity   int        `json:"get_quantity" validate:"gte=0"`
	StartDate     types.Date `json:"start_date" validate:"required"`
	EndDate       types.Date `json:"end_date" validate:"required"`
	IsGlobal      bool       `json:"is_global"`
	StoreID       *uuid.UUID `json:"store_id"`
	DistributorID *uuid.UUID `json:"distributor_id"`
}

type skuChecker interface {
	FindSKU(ctx context.Context, id uuid.UUID) (*models.SKU, error)
}

type service struct {
	repo          Repository
	cache         *Cache
	skus          skuChecker
	notifications notifications.Repository
	logg          *logger.Logger
}

// NewService constructs a scheme service instance. The cache is
// optional; without it every lookup goes to the database.
func NewService(repo Repository, cache *Cache, skus skuChecker, notifs notifications.Repository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("scheme repository required")
	}
	if skus == nil {
		return nil, fmt.Errorf("sku reader required")
	}
	if notifs == nil {
		return nil, fmt.Errorf("notification repository required")
	}
	return &service{repo: repo, cache: cache, skus: skus, notifications: notifs, logg: logg}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Scheme, error) {
	if err := validate.Struct(input); err != nil {
		return nil, err
	}
	if input.EndDate.Before(input.StartDate) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "end date precedes start date")
	}
	if !input.IsGlobal && input.StoreID == nil && input.DistributorID == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "scheme needs a scope: global, store or distributor")
	}
	for _, skuID := range []uuid.UUID{input.BuySKUID, input.GetSKUID} {
		if _, err := s.skus.FindSKU(ctx, skuID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "scheme references unknown sku")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "checking scheme skus")
		}
	}

	scheme := &models.Scheme{
		Description:   input.Description,
		BuySKUID:      input.BuySKUID,
		BuyQuantity:   input.BuyQuantity,
		GetSKUID:      input.GetSKUID,
		GetQuantity:   input.GetQuantity,
		StartDate:     input.StartDate,
		EndDate:       input.EndDate,
		IsGlobal:      input.IsGlobal,
		StoreID:       input.StoreID,
		DistributorID: input.DistributorID,
	}
	if err := s.repo.Create(ctx, scheme); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "creating scheme")
	}

	record := &models.Notification{
		Type:          enums.NotificationNewScheme,
		Message:       fmt.Sprintf("New scheme: buy %d get %d free", scheme.BuyQuantity, scheme.GetQuantity),
		SchemeID:      &scheme.ID,
		DistributorID: scheme.DistributorID,
	}
	if err := s.notifications.Create(ctx, record); err != nil && s.logg != nil {
		s.logg.Error(ctx, "recording scheme notification", err)
	}

	s.invalidate(ctx)
	return scheme, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Scheme, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "scheme id is required")
	}
	scheme, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "scheme not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading scheme")
	}
	return scheme, nil
}

func (s *service) List(ctx context.Context) ([]models.Scheme, error) {
	schemes, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing schemes")
	}
	return schemes, nil
}

func (s *service) Stop(ctx context.Context, id uuid.UUID, stoppedBy string) (*models.Scheme, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "scheme id is required")
	}
	if stoppedBy == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stopped-by is required")
	}

	stopped, err := s.repo.Stop(ctx, id, stoppedBy, types.Today())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "stopping scheme")
	}
	if !stopped {
		scheme, err := s.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if scheme.IsStopped() {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "scheme already stopped")
		}
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "scheme stop had no effect")
	}

	s.invalidate(ctx)
	return s.Get(ctx, id)
}

func (s *service) LiveOn(ctx context.Context, date types.Date) ([]models.Scheme, error) {
	if date.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "date is required")
	}
	if s.cache != nil {
		cached, hit, err := s.cache.Get(ctx, date)
		if err == nil && hit {
			return cached, nil
		}
		if err != nil && s.logg != nil {
			s.logg.Warn(ctx, "scheme cache read failed, falling back to db")
		}
	}

	schemes, err := s.repo.ListLiveOn(ctx, date)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing live schemes")
	}
	if s.cache != nil {
		if err := s.cache.Put(ctx, date, schemes); err != nil && s.logg != nil {
			s.logg.Warn(ctx, "scheme cache write failed")
		}
	}
	return schemes, nil
}

func (s *service) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil && s.logg != nil {
		s.logg.Warn(ctx, "scheme cache invalidation failed")
	}
}
