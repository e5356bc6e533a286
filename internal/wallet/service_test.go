package wallet

import (
	"context"
	"math"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/01101001raj/dms-backend/internal/distributors"
	"github.com/01101001raj/dms-backend/pkg/db/models"
	"github.com/01101001raj/dms-backend/pkg/enums"
	pkgerrors "github.com/01101001raj/dms-backend/pkg/errors"
)

var testDistID = uuid.MustParse("dddddddd-0000-0000-0000-000000000001")

type fakeTx struct{}

func (fakeTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type fakeWalletRepo struct {
	entries []models.WalletTransaction
}

func (f *fakeWalletRepo) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeWalletRepo) Create(ctx context.Context, txn *models.WalletTransaction) error {
	f.entries = append(f.entries, *txn)
	return nil
}

func (f *fakeWalletRepo) ListByDistributor(ctx context.Context, distributorID uuid.UUID, limit int) ([]models.WalletTransaction, error) {
	return f.entries, nil
}

type fakeDistRepo struct {
	balance float64
}

func (f *fakeDistRepo) WithTx(tx *gorm.DB) distributors.Repository           { return f }
func (f *fakeDistRepo) Create(ctx context.Context, d *models.Distributor) error { return nil }
func (f *fakeDistRepo) List(ctx context.Context) ([]models.Distributor, error)  { return nil, nil }
func (f *fakeDistRepo) Update(ctx context.Context, d *models.Distributor) error { return nil }

func (f *fakeDistRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Distributor, error) {
	return &models.Distributor{ID: id, WalletBalance: f.balance}, nil
}

func (f *fakeDistRepo) AdjustBalance(ctx context.Context, id uuid.UUID, delta float64, requireFunds bool) (float64, error) {
	if id != testDistID {
		return 0, pkgerrors.New(pkgerrors.CodeNotFound, "distributor not found")
	}
	f.balance += delta
	return f.balance, nil
}

func TestService_RechargeCreditsAndRecordsEntry(t *testing.T) {
	repo := &fakeWalletRepo{}
	dists := &fakeDistRepo{balance: 250}
	svc, err := NewService(fakeTx{}, repo, dists)
	if err != nil {
		t.Fatalf("NewService error: %v", err)
	}

	txn, err := svc.Recharge(context.Background(), RechargeInput{
		DistributorID: testDistID,
		Amount:        500,
		InitiatedBy:   "ops",
	})
	if err != nil {
		t.Fatalf("Recharge error: %v", err)
	}

	if txn.Type != enums.TransactionTypeRecharge {
		t.Fatalf("entry type %s, want recharge", txn.Type)
	}
	if math.Abs(txn.Amount-500) > 1e-9 || math.Abs(txn.BalanceAfter-750) > 1e-9 {
		t.Fatalf("unexpected amounts %+v", txn)
	}
	if len(repo.entries) != 1 {
		t.Fatalf("got %d ledger entries, want 1", len(repo.entries))
	}
}

func TestService_RechargeValidation(t *testing.T) {
	svc, err := NewService(fakeTx{}, &fakeWalletRepo{}, &fakeDistRepo{})
	if err != nil {
		t.Fatalf("NewService error: %v", err)
	}

	cases := []RechargeInput{
		{Amount: 100, InitiatedBy: "ops"},
		{DistributorID: testDistID, InitiatedBy: "ops"},
		{DistributorID: testDistID, Amount: -50, InitiatedBy: "ops"},
		{DistributorID: testDistID, Amount: 100},
	}
	for i, input := range cases {
		if _, err := svc.Recharge(context.Background(), input); pkgerrors.CodeOf(err) != pkgerrors.CodeValidation {
			t.Fatalf("case %d: expected validation error, got %v", i, err)
		}
	}
}

func TestService_RechargePropagatesMissingDistributor(t *testing.T) {
	svc, err := NewService(fakeTx{}, &fakeWalletRepo{}, &fakeDistRepo{})
	if err != nil {
		t.Fatalf("NewService error: %v", err)
	}

	_, err = svc.Recharge(context.Background(), RechargeInput{
		DistributorID: uuid.New(),
		Amount:        100,
		InitiatedBy:   "ops",
	})
	if pkgerrors.CodeOf(err) != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestService_StatementRequiresDistributor(t *testing.T) {
	svc, err := NewService(fakeTx{}, &fakeWalletRepo{}, &fakeDistRepo{})
	if err != nil {
		t.Fatalf("NewService error: %v", err)
	}

	if _, err := svc.Statement(context.Background(), uuid.Nil, 10); pkgerrors.CodeOf(err) != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}
