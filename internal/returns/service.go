package returns

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/01101001raj/dms-backend/internal/distributors"
	"github.com/01101001raj/dms-backend/internal/notifications"
	"github.com/01101001raj/dms-backend/internal/orders"
	"github.com/01101001raj/dms-backend/internal/stock"
	"github.com/01101001raj/dms-backend/internal/wallet"
	"github.com/01101001raj/dms-backend/pkg/db/models"
	"github.com/01101001raj/dms-backend/pkg/engine"
	"github.com/01101001raj/dms-backend/pkg/enums"
	pkgerrors "github.com/01101001raj/dms-backend/pkg/errors"
	"github.com/01101001raj/dms-backend/pkg/logger"
	"github.com/01101001raj/dms-backend/pkg/metrics"
	"github.com/01101001raj/dms-backend/pkg/types"
	"github.com/01101001raj/dms-backend/pkg/validate"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type catalogSource interface {
	Snapshot(ctx context.Context, tierID *uuid.UUID) (engine.Catalog, []models.PriceTierItem, error)
}

type schemeSource interface {
	LiveOn(ctx context.Context, date types.Date) ([]models.Scheme, error)
}

// Service exposes the return lifecycle. The credit amount is computed
// and frozen at creation; confirmation applies the frozen amount and
// mutates order lines, wallet and stock exactly once.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*Detail, error)
	Confirm(ctx context.Context, returnID uuid.UUID, input ConfirmInput) (*models.OrderReturn, error)
	Get(ctx context.Context, returnID uuid.UUID) (*Detail, error)
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.OrderReturn, error)
}

// CreateInput is the validated payload to open a return.
type CreateInput struct {
	OrderID     uuid.UUID   `json:"order_id" validate:"required"`
	Remarks     string      `json:"remarks" validate:"required"`
	InitiatedBy string      `json:"initiated_by" validate:"required"`
	Items       []ItemInput `json:"items" validate:"required,min=1,dive"`
}

// ItemInput is one requested return line.
type ItemInput struct {
	SKUID    uuid.UUID `json:"sku_id" validate:"required"`
	Quantity int       `json:"quantity" validate:"required,gt=0"`
	Reason   *string   `json:"reason"`
}

// ConfirmInput finalizes a pending return. Damaged goods are received
// and immediately written off instead of re-entering sellable stock.
type ConfirmInput struct {
	ConfirmedBy string `json:"confirmed_by" validate:"required"`
	Damaged     bool   `json:"damaged"`
}

// Detail is a return with its accepted lines.
type Detail struct {
	Return models.OrderReturn
	Items  []models.OrderReturnItem
}

type service struct {
	tx            txRunner
	repo          Repository
	ordersRepo    orders.Repository
	catalog       catalogSource
	schemes       schemeSource
	distsRepo     distributors.Repository
	walletRepo    wallet.Repository
	stockRepo     stock.Repository
	notifications notifications.Repository
	logg          *logger.Logger
	metrics       *metrics.EngineMetrics
}

// NewService constructs a returns service instance.
func NewService(
	tx txRunner,
	repo Repository,
	ordersRepo orders.Repository,
	catalog catalogSource,
	schemes schemeSource,
	distsRepo distributors.Repository,
	walletRepo wallet.Repository,
	stockRepo stock.Repository,
	notifs notifications.Repository,
	logg *logger.Logger,
	engineMetrics *metrics.EngineMetrics,
) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("returns repository required")
	}
	if ordersRepo == nil {
		return nil, fmt.Errorf("order repository required")
	}
	if catalog == nil {
		return nil, fmt.Errorf("catalog source required")
	}
	if schemes == nil {
		return nil, fmt.Errorf("scheme source required")
	}
	if distsRepo == nil {
		return nil, fmt.Errorf("distributor repository required")
	}
	if walletRepo == nil {
		return nil, fmt.Errorf("wallet repository required")
	}
	if stockRepo == nil {
		return nil, fmt.Errorf("stock repository required")
	}
	if notifs == nil {
		return nil, fmt.Errorf("notification repository required")
	}
	return &service{
		tx:            tx,
		repo:          repo,
		ordersRepo:    ordersRepo,
		catalog:       catalog,
		schemes:       schemes,
		distsRepo:     distsRepo,
		walletRepo:    walletRepo,
		stockRepo:     stockRepo,
		notifications: notifs,
		logg:          logg,
		metrics:       engineMetrics,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*Detail, error) {
	if err := validate.Struct(input); err != nil {
		return nil, err
	}

	order, err := s.ordersRepo.FindByID(ctx, input.OrderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading order")
	}
	if order.Status != enums.OrderStatusDelivered {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "only delivered orders can be returned")
	}

	rec, err := s.reconcile(ctx, order, input.Items)
	if err != nil {
		return nil, err
	}

	var totalAccepted int
	for _, qty := range rec.Accepted {
		totalAccepted += qty
	}
	if totalAccepted == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no returnable units in request")
	}

	ret := &models.OrderReturn{
		OrderID:           order.ID,
		DistributorID:     order.DistributorID,
		Status:            enums.ReturnStatusPending,
		TotalCreditAmount: rec.FinalCredit,
		Remarks:           input.Remarks,
		InitiatedBy:       input.InitiatedBy,
	}
	reasons := reasonsBySKU(input.Items)
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.Create(ctx, ret); err != nil {
			return err
		}
		items := make([]models.OrderReturnItem, 0, len(rec.Accepted))
		for _, line := range input.Items {
			accepted := rec.Accepted[line.SKUID]
			if accepted <= 0 {
				continue
			}
			items = append(items, models.OrderReturnItem{
				ReturnID: ret.ID,
				SKUID:    line.SKUID,
				Quantity: accepted,
				Reason:   reasons[line.SKUID],
			})
			delete(rec.Accepted, line.SKUID)
		}
		return repo.CreateItems(ctx, items)
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "creating return")
	}

	s.metrics.IncReturnsCreated()
	s.metrics.ObserveClawback(rec.ClawbackValue)
	if s.logg != nil {
		s.logg.Info(s.withReturnLog(ctx, ret), "return created")
	}
	return s.Get(ctx, ret.ID)
}

func (s *service) Confirm(ctx context.Context, returnID uuid.UUID, input ConfirmInput) (*models.OrderReturn, error) {
	if returnID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "return id is required")
	}
	if err := validate.Struct(input); err != nil {
		return nil, err
	}

	ret, err := s.loadReturn(ctx, returnID)
	if err != nil {
		return nil, err
	}
	retItems, err := s.repo.ListItems(ctx, returnID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading return items")
	}
	orderItems, err := s.ordersRepo.ListItems(ctx, ret.OrderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading order items")
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		confirmed, err := s.repo.WithTx(tx).Confirm(ctx, returnID, input.ConfirmedBy)
		if err != nil {
			return err
		}
		if !confirmed {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "return already confirmed")
		}

		ordersRepo := s.ordersRepo.WithTx(tx)
		if err := applyOldestFirst(ctx, ordersRepo, orderItems, retItems); err != nil {
			return err
		}

		balance, err := s.distsRepo.WithTx(tx).AdjustBalance(ctx, ret.DistributorID, ret.TotalCreditAmount, false)
		if err != nil {
			return err
		}
		if err := s.walletRepo.WithTx(tx).Create(ctx, &models.WalletTransaction{
			DistributorID: ret.DistributorID,
			Type:          enums.TransactionTypeReturnCredit,
			Amount:        ret.TotalCreditAmount,
			BalanceAfter:  balance,
			ReturnID:      &ret.ID,
			InitiatedBy:   input.ConfirmedBy,
		}); err != nil {
			return err
		}

		stockRepo := s.stockRepo.WithTx(tx)
		for _, item := range retItems {
			if err := stockRepo.Create(ctx, &models.StockMovement{
				SKUID:    item.SKUID,
				Type:     enums.StockMovementReturn,
				Quantity: item.Quantity,
				ReturnID: &ret.ID,
			}); err != nil {
				return err
			}
			if !input.Damaged {
				continue
			}
			if err := stockRepo.Create(ctx, &models.StockMovement{
				SKUID:    item.SKUID,
				Type:     enums.StockMovementCompletelyDamaged,
				Quantity: -item.Quantity,
				ReturnID: &ret.ID,
			}); err != nil {
				return err
			}
		}

		return s.notifications.WithTx(tx).Create(ctx, &models.Notification{
			Type:          enums.NotificationReturnConfirmed,
			Message:       fmt.Sprintf("Return confirmed, credit %.2f", ret.TotalCreditAmount),
			DistributorID: &ret.DistributorID,
			OrderID:       &ret.OrderID,
			ReturnID:      &ret.ID,
		})
	})
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "confirming return")
	}

	s.metrics.IncReturnsConfirmed()
	if s.logg != nil {
		s.logg.Info(s.withReturnLog(ctx, ret), "return confirmed")
	}
	return s.loadReturn(ctx, returnID)
}

func (s *service) Get(ctx context.Context, returnID uuid.UUID) (*Detail, error) {
	ret, err := s.loadReturn(ctx, returnID)
	if err != nil {
		return nil, err
	}
	items, err := s.repo.ListItems(ctx, returnID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading return items")
	}
	return &Detail{Return: *ret, Items: items}, nil
}

func (s *service) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.OrderReturn, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	rets, err := s.repo.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing returns")
	}
	return rets, nil
}

// reconcile runs the engine over the order's persisted state and the
// scheme set that was in force on the order date.
func (s *service) reconcile(ctx context.Context, order *models.Order, requested []ItemInput) (*engine.Reconciliation, error) {
	items, err := s.ordersRepo.ListItems(ctx, order.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading order items")
	}
	dist, err := s.distsRepo.FindByID(ctx, order.DistributorID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading distributor")
	}
	catalog, _, err := s.catalog.Snapshot(ctx, dist.PriceTierID)
	if err != nil {
		return nil, err
	}
	candidates, err := s.schemes.LiveOn(ctx, order.Date)
	if err != nil {
		return nil, err
	}
	index := engine.MatchSchemes(candidates, *dist, catalog, order.Date)

	lines := make([]engine.ReturnLine, 0, len(requested))
	for _, item := range requested {
		lines = append(lines, engine.ReturnLine{SKUID: item.SKUID, Quantity: item.Quantity})
	}
	rec := engine.ReconcileReturn(engine.ReturnInput{
		Items:     items,
		Catalog:   catalog,
		Schemes:   index,
		Requested: lines,
	})
	if rec.Degenerate {
		s.metrics.IncDegenerateTotals()
		if s.logg != nil {
			s.logg.Warn(ctx, "return credit degenerate, rejecting")
		}
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "return credit produced a non-finite amount")
	}
	return &rec, nil
}

func (s *service) loadReturn(ctx context.Context, id uuid.UUID) (*models.OrderReturn, error) {
	ret, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "return not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading return")
	}
	return ret, nil
}

func (s *service) withReturnLog(ctx context.Context, ret *models.OrderReturn) context.Context {
	if s.logg == nil {
		return ctx
	}
	ctx = s.logg.WithDistributorID(ctx, ret.DistributorID.String())
	ctx = s.logg.WithOrderID(ctx, ret.OrderID.String())
	return s.logg.WithReturnID(ctx, ret.ID.String())
}

// applyOldestFirst distributes each accepted return quantity across the
// order's paid lines in creation order using the guarded increment.
func applyOldestFirst(ctx context.Context, repo orders.Repository, orderItems []models.OrderItem, retItems []models.OrderReturnItem) error {
	for _, ret := range retItems {
		remaining := ret.Quantity
		for _, line := range orderItems {
			if remaining == 0 {
				break
			}
			if line.IsFreebie || line.SKUID != ret.SKUID {
				continue
			}
			take := line.ReturnableQuantity()
			if take <= 0 {
				continue
			}
			if take > remaining {
				take = remaining
			}
			if err := repo.IncrementReturned(ctx, line.ID, take); err != nil {
				return err
			}
			remaining -= take
		}
		if remaining > 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order line no longer has enough returnable units")
		}
	}
	return nil
}

func reasonsBySKU(items []ItemInput) map[uuid.UUID]*string {
	reasons := make(map[uuid.UUID]*string, len(items))
	for _, item := range items {
		if item.Reason != nil {
			reasons[item.SKUID] = item.Reason
		}
	}
	return reasons
}
