package distributors

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/01101001raj/dms-backend/pkg/db/models"
	pkgerrors "github.com/01101001raj/dms-backend/pkg/errors"
	"github.com/01101001raj/dms-backend/pkg/types"
	"github.com/01101001raj/dms-backend/pkg/validate"
)

// Service exposes distributor onboarding and profile management.
type Service interface {
	Onboard(ctx context.Context, input OnboardInput) (*models.Distributor, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Distributor, error)
	List(ctx context.Context) ([]models.Distributor, error)
	AssignPriceTier(ctx context.Context, id uuid.UUID, tierID *uuid.UUID) error
	SetSpecialSchemes(ctx context.Context, id uuid.UUID, enabled bool) error
}

// OnboardInput is the validated payload to register a distributor.
type OnboardInput struct {
	Name           string     `json:"name" validate:"required"`
	Phone          string     `json:"phone"`
	State          string     `json:"state"`
	Area           string     `json:"area"`
	GSTIN          string     `json:"gstin"`
	BillingAddress string     `json:"billing_address"`
	ASMName        string     `json:"asm_name"`
	ExecutiveName  string     `json:"executive_name"`
	InitialBalance float64    `json:"initial_balance" validate:"gte=0"`
	CreditLimit    float64    `json:"credit_limit" validate:"gte=0"`
	PriceTierID    *uuid.UUID `json:"price_tier_id"`
	StoreID        *uuid.UUID `json:"store_id"`
}

type service struct {
	repo Repository
}

// NewService constructs a distributor service instance.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("distributor repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Onboard(ctx context.Context, input OnboardInput) (*models.Distributor, error) {
	if err := validate.Struct(input); err != nil {
		return nil, err
	}
	dist := &models.Distributor{
		Name:           input.Name,
		Phone:          input.Phone,
		State:          input.State,
		Area:           input.Area,
		GSTIN:          input.GSTIN,
		BillingAddress: input.BillingAddress,
		ASMName:        input.ASMName,
		ExecutiveName:  input.ExecutiveName,
		WalletBalance:  input.InitialBalance,
		CreditLimit:    input.CreditLimit,
		PriceTierID:    input.PriceTierID,
		StoreID:        input.StoreID,
		DateAdded:      types.Today(),
	}
	if err := s.repo.Create(ctx, dist); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "creating distributor")
	}
	return dist, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Distributor, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "distributor id is required")
	}
	dist, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "distributor not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading distributor")
	}
	return dist, nil
}

func (s *service) List(ctx context.Context) ([]models.Distributor, error) {
	dists, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing distributors")
	}
	return dists, nil
}

func (s *service) AssignPriceTier(ctx context.Context, id uuid.UUID, tierID *uuid.UUID) error {
	dist, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	dist.PriceTierID = tierID
	if err := s.repo.Update(ctx, dist); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "updating distributor")
	}
	return nil
}

func (s *service) SetSpecialSchemes(ctx context.Context, id uuid.UUID, enabled bool) error {
	dist, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	dist.HasSpecialSchemes = enabled
	if err := s.repo.Update(ctx, dist); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "updating distributor")
	}
	return nil
}
