package stock

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/01101001raj/dms-backend/pkg/db/models"
	"github.com/01101001raj/dms-backend/pkg/enums"
	pkgerrors "github.com/01101001raj/dms-backend/pkg/errors"
	"github.com/01101001raj/dms-backend/pkg/validate"
)

// Service exposes manual stock ledger operations: production inflows
// and ad-hoc adjustments. Order delivery and return confirmation write
// their movements through the repository inside their own transactions.
type Service interface {
	Record(ctx context.Context, input RecordInput) (*models.StockMovement, error)
	History(ctx context.Context, skuID uuid.UUID, limit int) ([]models.StockMovement, error)
	OnHand(ctx context.Context, skuID uuid.UUID) (int, error)
}

// RecordInput is the validated payload for a manual ledger entry.
type RecordInput struct {
	SKUID    uuid.UUID               `json:"sku_id" validate:"required"`
	Type     enums.StockMovementType `json:"type" validate:"required"`
	Quantity int                     `json:"quantity" validate:"required"`
	Remarks  *string                 `json:"remarks"`
}

type service struct {
	repo Repository
}

// NewService constructs a stock service instance.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("stock repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Record(ctx context.Context, input RecordInput) (*models.StockMovement, error) {
	if err := validate.Struct(input); err != nil {
		return nil, err
	}
	if !input.Type.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid stock movement type")
	}
	switch input.Type {
	case enums.StockMovementProduction:
		if input.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "production quantity must be positive")
		}
	case enums.StockMovementCompletelyDamaged:
		if input.Quantity >= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "damaged quantity must be negative")
		}
	case enums.StockMovementSale, enums.StockMovementReturn:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sale and return movements are written by their flows")
	}

	movement := &models.StockMovement{
		SKUID:    input.SKUID,
		Type:     input.Type,
		Quantity: input.Quantity,
		Remarks:  input.Remarks,
	}
	if err := s.repo.Create(ctx, movement); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "recording stock movement")
	}
	return movement, nil
}

func (s *service) History(ctx context.Context, skuID uuid.UUID, limit int) ([]models.StockMovement, error) {
	if skuID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sku id is required")
	}
	movements, err := s.repo.ListBySKU(ctx, skuID, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading stock history")
	}
	return movements, nil
}

func (s *service) OnHand(ctx context.Context, skuID uuid.UUID) (int, error) {
	if skuID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "sku id is required")
	}
	total, err := s.repo.OnHand(ctx, skuID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "computing on-hand stock")
	}
	return total, nil
}
