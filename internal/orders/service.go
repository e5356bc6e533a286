package orders

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/01101001raj/dms-backend/internal/distributors"
	"github.com/01101001raj/dms-backend/internal/notifications"
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

// Service exposes the order lifecycle: placement, edit, delivery,
// cancellation and the invoice view.
type Service interface {
	Place(ctx context.Context, input PlaceInput) (*Detail, error)
	// Edit replaces a pending order's requested items wholesale and
	// reprices through the same engine path as placement, settling the
	// wallet difference.
	Edit(ctx context.Context, orderID uuid.UUID, input EditInput) (*Detail, error)
	Deliver(ctx context.Context, orderID uuid.UUID, deliveredBy string) (*models.Order, error)
	Cancel(ctx context.Context, orderID uuid.UUID, canceledBy string) error
	Get(ctx context.Context, orderID uuid.UUID) (*Detail, error)
	ListByDistributor(ctx context.Context, distributorID uuid.UUID, limit int) ([]models.Order, error)
	Invoice(ctx context.Context, orderID uuid.UUID) (*engine.Invoice, error)
}

// PlaceInput is the validated payload to place an order.
type PlaceInput struct {
	DistributorID uuid.UUID   `json:"distributor_id" validate:"required"`
	Date          types.Date  `json:"date"`
	PlacedBy      string      `json:"placed_by" validate:"required"`
	Items         []ItemInput `json:"items" validate:"required,min=1,dive"`
}

// EditInput is the validated payload to replace a pending order's items.
type EditInput struct {
	EditedBy string      `json:"edited_by" validate:"required"`
	Items    []ItemInput `json:"items" validate:"required,min=1,dive"`
}

// ItemInput is one requested paid line.
type ItemInput struct {
	SKUID    uuid.UUID `json:"sku_id" validate:"required"`
	Quantity int       `json:"quantity" validate:"required,gt=0"`
}

// Detail is an order with its persisted lines.
type Detail struct {
	Order models.Order
	Items []models.OrderItem
}

type service struct {
	tx            txRunner
	repo          Repository
	catalog       catalogSource
	schemes       schemeSource
	distsRepo     distributors.Repository
	walletRepo    wallet.Repository
	stockRepo     stock.Repository
	notifications notifications.Repository
	logg          *logger.Logger
	metrics       *metrics.EngineMetrics
}

// NewService constructs an order service instance.
func NewService(
	tx txRunner,
	repo Repository,
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

func (s *service) Place(ctx context.Context, input PlaceInput) (*Detail, error) {
	if err := validate.Struct(input); err != nil {
		return nil, err
	}
	date := input.Date
	if date.IsZero() {
		date = types.Today()
	}

	dist, err := s.loadDistributor(ctx, input.DistributorID)
	if err != nil {
		return nil, err
	}
	priced, err := s.price(ctx, dist, date, input.Items)
	if err != nil {
		return nil, err
	}

	order := &models.Order{
		DistributorID: dist.ID,
		Date:          date,
		Status:        enums.OrderStatusPending,
		TotalAmount:   priced.Totals.TotalAmount,
		PlacedBy:      input.PlacedBy,
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		balance, err := s.distsRepo.WithTx(tx).AdjustBalance(ctx, dist.ID, -priced.Totals.TotalAmount, true)
		if err != nil {
			return err
		}
		repo := s.repo.WithTx(tx)
		if err := repo.Create(ctx, order); err != nil {
			return err
		}
		if err := repo.CreateItems(ctx, itemsFromLines(order.ID, priced.Lines)); err != nil {
			return err
		}
		return s.walletRepo.WithTx(tx).Create(ctx, &models.WalletTransaction{
			DistributorID: dist.ID,
			Type:          enums.TransactionTypeOrderPayment,
			Amount:        -priced.Totals.TotalAmount,
			BalanceAfter:  balance,
			OrderID:       &order.ID,
			InitiatedBy:   input.PlacedBy,
		})
	})
	if err != nil {
		return nil, s.asServiceError(err, "placing order")
	}

	s.metrics.IncOrdersPlaced()
	ctx = s.withOrderLog(ctx, order)
	if s.logg != nil {
		s.logg.Info(ctx, "order placed")
	}
	return s.Get(ctx, order.ID)
}

func (s *service) Edit(ctx context.Context, orderID uuid.UUID, input EditInput) (*Detail, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	if err := validate.Struct(input); err != nil {
		return nil, err
	}

	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != enums.OrderStatusPending {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "only pending orders can be edited")
	}
	dist, err := s.loadDistributor(ctx, order.DistributorID)
	if err != nil {
		return nil, err
	}

	// Reprice against the original order date so the scheme window the
	// order was placed under still governs.
	priced, err := s.price(ctx, dist, order.Date, input.Items)
	if err != nil {
		return nil, err
	}
	delta := priced.Totals.TotalAmount - order.TotalAmount

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		balance, err := s.distsRepo.WithTx(tx).AdjustBalance(ctx, dist.ID, -delta, delta > 0)
		if err != nil {
			return err
		}
		repo := s.repo.WithTx(tx)
		if err := repo.DeleteItems(ctx, order.ID); err != nil {
			return err
		}
		if err := repo.CreateItems(ctx, itemsFromLines(order.ID, priced.Lines)); err != nil {
			return err
		}
		order.TotalAmount = priced.Totals.TotalAmount
		if err := repo.Update(ctx, order); err != nil {
			return err
		}
		if delta == 0 {
			return nil
		}
		txnType := enums.TransactionTypeOrderRefund
		if delta > 0 {
			txnType = enums.TransactionTypeOrderPayment
		}
		return s.walletRepo.WithTx(tx).Create(ctx, &models.WalletTransaction{
			DistributorID: dist.ID,
			Type:          txnType,
			Amount:        -delta,
			BalanceAfter:  balance,
			OrderID:       &order.ID,
			InitiatedBy:   input.EditedBy,
		})
	})
	if err != nil {
		return nil, s.asServiceError(err, "editing order")
	}

	s.metrics.IncOrdersEdited()
	if s.logg != nil {
		s.logg.Info(s.withOrderLog(ctx, order), "order edited")
	}
	return s.Get(ctx, order.ID)
}

func (s *service) Deliver(ctx context.Context, orderID uuid.UUID, deliveredBy string) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	if deliveredBy == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "delivered-by is required")
	}
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status == enums.OrderStatusDelivered {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order already delivered")
	}
	items, err := s.repo.ListItems(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading order items")
	}

	deliveredOn := types.Today()
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		order.Status = enums.OrderStatusDelivered
		order.DeliveredDate = &deliveredOn
		if err := s.repo.WithTx(tx).Update(ctx, order); err != nil {
			return err
		}
		stockRepo := s.stockRepo.WithTx(tx)
		for _, item := range items {
			movement := &models.StockMovement{
				SKUID:    item.SKUID,
				Type:     enums.StockMovementSale,
				Quantity: -item.Quantity,
				OrderID:  &order.ID,
			}
			if err := stockRepo.Create(ctx, movement); err != nil {
				return err
			}
		}
		return s.notifications.WithTx(tx).Create(ctx, &models.Notification{
			Type:          enums.NotificationOrderDelivered,
			Message:       fmt.Sprintf("Order delivered on %s", deliveredOn),
			DistributorID: &order.DistributorID,
			OrderID:       &order.ID,
		})
	})
	if err != nil {
		return nil, s.asServiceError(err, "delivering order")
	}

	if s.logg != nil {
		s.logg.Info(s.withOrderLog(ctx, order), "order delivered")
	}
	return order, nil
}

func (s *service) Cancel(ctx context.Context, orderID uuid.UUID, canceledBy string) error {
	if orderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	if canceledBy == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "canceled-by is required")
	}
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return err
	}
	if order.Status != enums.OrderStatusPending {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "only pending orders can be canceled")
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		balance, err := s.distsRepo.WithTx(tx).AdjustBalance(ctx, order.DistributorID, order.TotalAmount, false)
		if err != nil {
			return err
		}
		if err := s.walletRepo.WithTx(tx).Create(ctx, &models.WalletTransaction{
			DistributorID: order.DistributorID,
			Type:          enums.TransactionTypeOrderRefund,
			Amount:        order.TotalAmount,
			BalanceAfter:  balance,
			OrderID:       &order.ID,
			InitiatedBy:   canceledBy,
		}); err != nil {
			return err
		}
		repo := s.repo.WithTx(tx)
		if err := repo.DeleteItems(ctx, order.ID); err != nil {
			return err
		}
		return repo.Delete(ctx, order.ID)
	})
	if err != nil {
		return s.asServiceError(err, "canceling order")
	}

	s.metrics.IncOrdersCanceled()
	if s.logg != nil {
		s.logg.Info(s.withOrderLog(ctx, order), "order canceled")
	}
	return nil
}

func (s *service) Get(ctx context.Context, orderID uuid.UUID) (*Detail, error) {
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	items, err := s.repo.ListItems(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading order items")
	}
	return &Detail{Order: *order, Items: items}, nil
}

func (s *service) ListByDistributor(ctx context.Context, distributorID uuid.UUID, limit int) ([]models.Order, error) {
	if distributorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "distributor id is required")
	}
	list, err := s.repo.ListByDistributor(ctx, distributorID, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing orders")
	}
	return list, nil
}

func (s *service) Invoice(ctx context.Context, orderID uuid.UUID) (*engine.Invoice, error) {
	detail, err := s.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	dist, err := s.loadDistributor(ctx, detail.Order.DistributorID)
	if err != nil {
		return nil, err
	}
	catalog, _, err := s.catalog.Snapshot(ctx, dist.PriceTierID)
	if err != nil {
		return nil, err
	}

	lines := make([]engine.Line, 0, len(detail.Items))
	for _, item := range detail.Items {
		lines = append(lines, engine.Line{
			SKUID:         item.SKUID,
			Quantity:      item.Quantity,
			UnitPrice:     item.UnitPrice,
			GSTPercentage: catalog[item.SKUID].GSTPercentage,
			IsFreebie:     item.IsFreebie,
		})
	}
	invoice := engine.BuildInvoice(lines)
	return &invoice, nil
}

// price runs the full engine path shared by placement and edit.
func (s *service) price(ctx context.Context, dist *models.Distributor, date types.Date, items []ItemInput) (*engine.OrderMetrics, error) {
	catalog, tierItems, err := s.catalog.Snapshot(ctx, dist.PriceTierID)
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		if !catalog.Has(item.SKUID) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "order references unknown sku").
				WithDetails(map[string]string{"sku_id": item.SKUID.String()})
		}
	}
	candidates, err := s.schemes.LiveOn(ctx, date)
	if err != nil {
		return nil, err
	}

	requests := make([]engine.ItemRequest, 0, len(items))
	for _, item := range items {
		requests = append(requests, engine.ItemRequest{SKUID: item.SKUID, Quantity: item.Quantity})
	}
	priced := engine.ComputeOrderMetrics(engine.OrderInput{
		Distributor: *dist,
		Catalog:     catalog,
		TierItems:   tierItems,
		Schemes:     candidates,
		Date:        date,
		Items:       requests,
	})
	if priced.Totals.Degenerate || !isFinite(priced.Totals.TotalAmount) {
		s.metrics.IncDegenerateTotals()
		if s.logg != nil {
			s.logg.Warn(ctx, "order totals degenerate, rejecting")
		}
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order pricing produced a non-finite total")
	}
	return &priced, nil
}

func (s *service) loadOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading order")
	}
	return order, nil
}

func (s *service) loadDistributor(ctx context.Context, id uuid.UUID) (*models.Distributor, error) {
	dist, err := s.distsRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "distributor not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading distributor")
	}
	return dist, nil
}

func (s *service) withOrderLog(ctx context.Context, order *models.Order) context.Context {
	if s.logg == nil {
		return ctx
	}
	ctx = s.logg.WithDistributorID(ctx, order.DistributorID.String())
	return s.logg.WithOrderID(ctx, order.ID.String())
}

func (s *service) asServiceError(err error, action string) error {
	if pkgerrors.As(err) != nil {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, action)
}

func itemsFromLines(orderID uuid.UUID, lines []engine.Line) []models.OrderItem {
	items := make([]models.OrderItem, 0, len(lines))
	for _, line := range lines {
		items = append(items, models.OrderItem{
			OrderID:   orderID,
			SKUID:     line.SKUID,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
			IsFreebie: line.IsFreebie,
		})
	}
	return items
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
