package wallet

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/01101001raj/dms-backend/internal/distributors"
	"github.com/01101001raj/dms-backend/pkg/db/models"
	"github.com/01101001raj/dms-backend/pkg/enums"
	pkgerrors "github.com/01101001raj/dms-backend/pkg/errors"
	"github.com/01101001raj/dms-backend/pkg/validate"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes the distributor wallet operations that are not part
// of an order or return flow: manual recharges and the statement view.
type Service interface {
	Recharge(ctx context.Context, input RechargeInput) (*models.WalletTransaction, error)
	Statement(ctx context.Context, distributorID uuid.UUID, limit int) ([]models.WalletTransaction, error)
}

// RechargeInput is the validated payload for a wallet top-up.
type RechargeInput struct {
	DistributorID uuid.UUID `json:"distributor_id" validate:"required"`
	Amount        float64   `json:"amount" validate:"required,gt=0"`
	Remarks       *string   `json:"remarks"`
	InitiatedBy   string    `json:"initiated_by" validate:"required"`
}

type service struct {
	tx        txRunner
	repo      Repository
	distsRepo distributors.Repository
}

// NewService constructs a wallet service instance.
func NewService(tx txRunner, repo Repository, distsRepo distributors.Repository) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("wallet repository required")
	}
	if distsRepo == nil {
		return nil, fmt.Errorf("distributor repository required")
	}
	return &service{tx: tx, repo: repo, distsRepo: distsRepo}, nil
}

func (s *service) Recharge(ctx context.Context, input RechargeInput) (*models.WalletTransaction, error) {
	if err := validate.Struct(input); err != nil {
		return nil, err
	}

	var txn *models.WalletTransaction
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		balance, err := s.distsRepo.WithTx(tx).AdjustBalance(ctx, input.DistributorID, input.Amount, false)
		if err != nil {
			return err
		}
		txn = &models.WalletTransaction{
			DistributorID: input.DistributorID,
			Type:          enums.TransactionTypeRecharge,
			Amount:        input.Amount,
			BalanceAfter:  balance,
			Remarks:       input.Remarks,
			InitiatedBy:   input.InitiatedBy,
		}
		return s.repo.WithTx(tx).Create(ctx, txn)
	})
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "recording recharge")
	}
	return txn, nil
}

func (s *service) Statement(ctx context.Context, distributorID uuid.UUID, limit int) ([]models.WalletTransaction, error) {
	if distributorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "distributor id is required")
	}
	txns, err := s.repo.ListByDistributor(ctx, distributorID, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading wallet statement")
	}
	return txns, nil
}
