package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/01101001raj/dms-backend/pkg/db"
	"github.com/01101001raj/dms-backend/pkg/db/models"
	"github.com/01101001raj/dms-backend/pkg/engine"
	pkgerrors "github.com/01101001raj/dms-backend/pkg/errors"
	"github.com/01101001raj/dms-backend/pkg/validate"
)

// Service exposes catalog management and the pricing snapshot the order
// flows consume.
type Service interface {
	CreateSKU(ctx context.Context, input CreateSKUInput) (*models.SKU, error)
	UpdateSKU(ctx context.Context, skuID uuid.UUID, input UpdateSKUInput) (*models.SKU, error)
	ListSKUs(ctx context.Context) ([]models.SKU, error)
	CreateTier(ctx context.Context, input CreateTierInput) (*models.PriceTier, error)
	SetTierPrice(ctx context.Context, tierID, skuID uuid.UUID, price float64) error
	// Snapshot loads the full SKU table plus the tier overrides of one
	// distributor, ready to hand to the pricing engine.
	Snapshot(ctx context.Context, tierID *uuid.UUID) (engine.Catalog, []models.PriceTierItem, error)
}

// CreateSKUInput is the validated payload to register a SKU.
type CreateSKUInput struct {
	Name             string   `json:"name" validate:"required"`
	HSNCode          string   `json:"hsn_code"`
	Price            float64  `json:"price" validate:"gte=0"`
	GSTPercentage    float64  `json:"gst_percentage" validate:"gte=0,lte=100"`
	CartonPriceNet   *float64 `json:"carton_price_net" validate:"omitempty,gte=0"`
	CartonPriceGross *float64 `json:"carton_price_gross" validate:"omitempty,gte=0"`
}

// UpdateSKUInput holds optional mutation values for a SKU.
type UpdateSKUInput struct {
	Name          *string  `json:"name" validate:"omitempty,min=1"`
	HSNCode       *string  `json:"hsn_code"`
	Price         *float64 `json:"price" validate:"omitempty,gte=0"`
	GSTPercentage *float64 `json:"gst_percentage" validate:"omitempty,gte=0,lte=100"`
}

// CreateTierInput is the validated payload to create a price tier.
type CreateTierInput struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
}

type service struct {
	repo Repository
}

// NewService constructs a catalog service instance.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) CreateSKU(ctx context.Context, input CreateSKUInput) (*models.SKU, error) {
	if err := validate.Struct(input); err != nil {
		return nil, err
	}
	sku := &models.SKU{
		Name:             input.Name,
		HSNCode:          input.HSNCode,
		Price:            input.Price,
		GSTPercentage:    input.GSTPercentage,
		CartonPriceNet:   input.CartonPriceNet,
		CartonPriceGross: input.CartonPriceGross,
	}
	if err := s.repo.CreateSKU(ctx, sku); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "sku name already in use")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "creating sku")
	}
	return sku, nil
}

func (s *service) UpdateSKU(ctx context.Context, skuID uuid.UUID, input UpdateSKUInput) (*models.SKU, error) {
	if skuID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sku id is required")
	}
	if err := validate.Struct(input); err != nil {
		return nil, err
	}
	sku, err := s.repo.FindSKU(ctx, skuID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "sku not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading sku")
	}
	if input.Name != nil {
		sku.Name = *input.Name
	}
	if input.HSNCode != nil {
		sku.HSNCode = *input.HSNCode
	}
	if input.Price != nil {
		sku.Price = *input.Price
	}
	if input.GSTPercentage != nil {
		sku.GSTPercentage = *input.GSTPercentage
	}
	if err := s.repo.UpdateSKU(ctx, sku); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "updating sku")
	}
	return sku, nil
}

func (s *service) ListSKUs(ctx context.Context) ([]models.SKU, error) {
	skus, err := s.repo.ListSKUs(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing skus")
	}
	return skus, nil
}

func (s *service) CreateTier(ctx context.Context, input CreateTierInput) (*models.PriceTier, error) {
	if err := validate.Struct(input); err != nil {
		return nil, err
	}
	tier := &models.PriceTier{Name: input.Name, Description: input.Description}
	if err := s.repo.CreateTier(ctx, tier); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "price tier name already in use")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "creating price tier")
	}
	return tier, nil
}

func (s *service) SetTierPrice(ctx context.Context, tierID, skuID uuid.UUID, price float64) error {
	if tierID == uuid.Nil || skuID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "tier id and sku id are required")
	}
	if price < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "tier price must not be negative")
	}
	if _, err := s.repo.FindTier(ctx, tierID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "price tier not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading price tier")
	}
	if _, err := s.repo.FindSKU(ctx, skuID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "sku not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading sku")
	}
	item := &models.PriceTierItem{TierID: tierID, SKUID: skuID, Price: price}
	if err := s.repo.UpsertTierItem(ctx, item); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "saving tier price")
	}
	return nil
}

func (s *service) Snapshot(ctx context.Context, tierID *uuid.UUID) (engine.Catalog, []models.PriceTierItem, error) {
	skus, err := s.repo.ListSKUs(ctx)
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading catalog")
	}
	var items []models.PriceTierItem
	if tierID != nil && *tierID != uuid.Nil {
		items, err = s.repo.ListTierItems(ctx, *tierID)
		if err != nil {
			return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading tier prices")
		}
	}
	return engine.NewCatalog(skus), items, nil
}
