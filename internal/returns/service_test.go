package returns

import (
	"context"
	"math"
	"testing"

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
	"github.com/01101001raj/dms-backend/pkg/types"
)

var (
	testSKUX   = uuid.MustParse("11111111-1111-1111-1111-111111111111")
	testSKUR   = uuid.MustParse("22222222-2222-2222-2222-222222222222")
	testDistID = uuid.MustParse("dddddddd-0000-0000-0000-000000000001")
	orderDate  = types.Date("2026-03-15")
)

type fakeTx struct{}

func (fakeTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type fakeReturnRepo struct {
	returns map[uuid.UUID]*models.OrderReturn
	items   map[uuid.UUID][]models.OrderReturnItem
}

func newFakeReturnRepo() *fakeReturnRepo {
	return &fakeReturnRepo{
		returns: map[uuid.UUID]*models.OrderReturn{},
		items:   map[uuid.UUID][]models.OrderReturnItem{},
	}
}

func (f *fakeReturnRepo) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeReturnRepo) Create(ctx context.Context, ret *models.OrderReturn) error {
	if ret.ID == uuid.Nil {
		ret.ID = uuid.New()
	}
	clone := *ret
	f.returns[ret.ID] = &clone
	return nil
}

func (f *fakeReturnRepo) CreateItems(ctx context.Context, items []models.OrderReturnItem) error {
	for i := range items {
		if items[i].ID == uuid.Nil {
			items[i].ID = uuid.New()
		}
		f.items[items[i].ReturnID] = append(f.items[items[i].ReturnID], items[i])
	}
	return nil
}

func (f *fakeReturnRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.OrderReturn, error) {
	ret, ok := f.returns[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *ret
	return &clone, nil
}

func (f *fakeReturnRepo) ListItems(ctx context.Context, returnID uuid.UUID) ([]models.OrderReturnItem, error) {
	return f.items[returnID], nil
}

func (f *fakeReturnRepo) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.OrderReturn, error) {
	var out []models.OrderReturn
	for _, ret := range f.returns {
		if ret.OrderID == orderID {
			out = append(out, *ret)
		}
	}
	return out, nil
}

func (f *fakeReturnRepo) Confirm(ctx context.Context, id uuid.UUID, confirmedBy string) (bool, error) {
	ret, ok := f.returns[id]
	if !ok || ret.Status != enums.ReturnStatusPending {
		return false, nil
	}
	ret.Status = enums.ReturnStatusConfirmed
	ret.ConfirmedBy = &confirmedBy
	return true, nil
}

type fakeOrderRepo struct {
	orders map[uuid.UUID]*models.Order
	items  []models.OrderItem
}

func (f *fakeOrderRepo) WithTx(tx *gorm.DB) orders.Repository { return f }

func (f *fakeOrderRepo) Create(ctx context.Context, order *models.Order) error      { return nil }
func (f *fakeOrderRepo) CreateItems(ctx context.Context, items []models.OrderItem) error { return nil }

func (f *fakeOrderRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, ok := f.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *order
	return &clone, nil
}

func (f *fakeOrderRepo) ListItems(ctx context.Context, orderID uuid.UUID) ([]models.OrderItem, error) {
	var out []models.OrderItem
	for _, item := range f.items {
		if item.OrderID == orderID {
			out = append(out, item)
		}
	}
	return out, nil
}

func (f *fakeOrderRepo) ListByDistributor(ctx context.Context, distributorID uuid.UUID, limit int) ([]models.Order, error) {
	return nil, nil
}

func (f *fakeOrderRepo) ListPage(ctx context.Context, offset, limit int) ([]models.Order, error) {
	return nil, nil
}

func (f *fakeOrderRepo) Update(ctx context.Context, order *models.Order) error { return nil }
func (f *fakeOrderRepo) DeleteItems(ctx context.Context, orderID uuid.UUID) error { return nil }
func (f *fakeOrderRepo) Delete(ctx context.Context, orderID uuid.UUID) error      { return nil }

func (f *fakeOrderRepo) IncrementReturned(ctx context.Context, itemID uuid.UUID, quantity int) error {
	for i := range f.items {
		if f.items[i].ID != itemID {
			continue
		}
		if f.items[i].Quantity-f.items[i].ReturnedQuantity < quantity {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order line no longer has enough returnable units")
		}
		f.items[i].ReturnedQuantity += quantity
		return nil
	}
	return gorm.ErrRecordNotFound
}

type fakeDistRepo struct {
	dist *models.Distributor
}

func (f *fakeDistRepo) WithTx(tx *gorm.DB) distributors.Repository           { return f }
func (f *fakeDistRepo) Create(ctx context.Context, d *models.Distributor) error { return nil }
func (f *fakeDistRepo) List(ctx context.Context) ([]models.Distributor, error)  { return nil, nil }
func (f *fakeDistRepo) Update(ctx context.Context, d *models.Distributor) error { return nil }

func (f *fakeDistRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Distributor, error) {
	if f.dist == nil || f.dist.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *f.dist
	return &clone, nil
}

func (f *fakeDistRepo) AdjustBalance(ctx context.Context, id uuid.UUID, delta float64, requireFunds bool) (float64, error) {
	f.dist.WalletBalance += delta
	return f.dist.WalletBalance, nil
}

type fakeWalletRepo struct {
	entries []models.WalletTransaction
}

func (f *fakeWalletRepo) WithTx(tx *gorm.DB) wallet.Repository { return f }

func (f *fakeWalletRepo) Create(ctx context.Context, txn *models.WalletTransaction) error {
	f.entries = append(f.entries, *txn)
	return nil
}

func (f *fakeWalletRepo) ListByDistributor(ctx context.Context, distributorID uuid.UUID, limit int) ([]models.WalletTransaction, error) {
	return f.entries, nil
}

type fakeStockRepo struct {
	movements []models.StockMovement
}

func (f *fakeStockRepo) WithTx(tx *gorm.DB) stock.Repository { return f }

func (f *fakeStockRepo) Create(ctx context.Context, movement *models.StockMovement) error {
	f.movements = append(f.movements, *movement)
	return nil
}

func (f *fakeStockRepo) ListBySKU(ctx context.Context, skuID uuid.UUID, limit int) ([]models.StockMovement, error) {
	return nil, nil
}

func (f *fakeStockRepo) OnHand(ctx context.Context, skuID uuid.UUID) (int, error) { return 0, nil }

type fakeNotifRepo struct {
	records []models.Notification
}

func (f *fakeNotifRepo) WithTx(tx *gorm.DB) notifications.Repository { return f }

func (f *fakeNotifRepo) Create(ctx context.Context, record *models.Notification) error {
	f.records = append(f.records, *record)
	return nil
}

func (f *fakeNotifRepo) ListRecent(ctx context.Context, limit int) ([]models.Notification, error) {
	return f.records, nil
}

type fakeCatalog struct {
	catalog engine.Catalog
}

func (f *fakeCatalog) Snapshot(ctx context.Context, tierID *uuid.UUID) (engine.Catalog, []models.PriceTierItem, error) {
	return f.catalog, nil, nil
}

type fakeSchemes struct {
	schemes []models.Scheme
}

func (f *fakeSchemes) LiveOn(ctx context.Context, date types.Date) ([]models.Scheme, error) {
	return f.schemes, nil
}

type fixture struct {
	svc     Service
	repo    *fakeReturnRepo
	orders  *fakeOrderRepo
	dists   *fakeDistRepo
	wallet  *fakeWalletRepo
	stock   *fakeStockRepo
	orderID uuid.UUID
}

// newDeliveredFixture seeds a delivered order of 120 paid X at 10 with
// 10 freebie R granted by a live buy-100-get-10 scheme.
func newDeliveredFixture(t *testing.T) *fixture {
	t.Helper()
	orderID := uuid.New()
	ordersRepo := &fakeOrderRepo{
		orders: map[uuid.UUID]*models.Order{
			orderID: {
				ID:            orderID,
				DistributorID: testDistID,
				Date:          orderDate,
				Status:        enums.OrderStatusDelivered,
				TotalAmount:   1416,
			},
		},
		items: []models.OrderItem{
			{ID: uuid.New(), OrderID: orderID, SKUID: testSKUX, Quantity: 120, UnitPrice: 10},
			{ID: uuid.New(), OrderID: orderID, SKUID: testSKUR, Quantity: 10, UnitPrice: 0, IsFreebie: true},
		},
	}
	repo := newFakeReturnRepo()
	dists := &fakeDistRepo{dist: &models.Distributor{ID: testDistID, WalletBalance: 1000}}
	walletRepo := &fakeWalletRepo{}
	stockRepo := &fakeStockRepo{}
	catalog := &fakeCatalog{catalog: engine.NewCatalog([]models.SKU{
		{ID: testSKUX, Name: "Widget X", Price: 10, GSTPercentage: 18},
		{ID: testSKUR, Name: "Reward R", Price: 5, GSTPercentage: 18},
	})}
	schemes := &fakeSchemes{schemes: []models.Scheme{{
		ID:          uuid.New(),
		BuySKUID:    testSKUX,
		BuyQuantity: 100,
		GetSKUID:    testSKUR,
		GetQuantity: 10,
		StartDate:   types.Date("2026-03-01"),
		EndDate:     types.Date("2026-03-31"),
		IsGlobal:    true,
	}}}

	svc, err := NewService(fakeTx{}, repo, ordersRepo, catalog, schemes, dists, walletRepo, stockRepo, &fakeNotifRepo{}, nil, nil)
	if err != nil {
		t.Fatalf("NewService error: %v", err)
	}
	return &fixture{
		svc:     svc,
		repo:    repo,
		orders:  ordersRepo,
		dists:   dists,
		wallet:  walletRepo,
		stock:   stockRepo,
		orderID: orderID,
	}
}

func TestService_CreateRejectsUndeliveredOrder(t *testing.T) {
	f := newDeliveredFixture(t)
	f.orders.orders[f.orderID].Status = enums.OrderStatusPending

	_, err := f.svc.Create(context.Background(), CreateInput{
		OrderID:     f.orderID,
		Remarks:     "wrong flavor",
		InitiatedBy: "ops",
		Items:       []ItemInput{{SKUID: testSKUX, Quantity: 5}},
	})
	if pkgerrors.CodeOf(err) != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestService_CreateFreezesNetCredit(t *testing.T) {
	f := newDeliveredFixture(t)

	// Returning 25 drops net paid to 95, below the 100 threshold: gross
	// 25×10×1.18 = 295 minus clawback of all 10 freebies at 5×1.18 = 59.
	detail, err := f.svc.Create(context.Background(), CreateInput{
		OrderID:     f.orderID,
		Remarks:     "damaged in transit",
		InitiatedBy: "ops",
		Items:       []ItemInput{{SKUID: testSKUX, Quantity: 25}},
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}

	if math.Abs(detail.Return.TotalCreditAmount-236) > 1e-9 {
		t.Fatalf("frozen credit %v, want 236", detail.Return.TotalCreditAmount)
	}
	if detail.Return.Status != enums.ReturnStatusPending {
		t.Fatalf("status %s, want pending", detail.Return.Status)
	}
	if len(detail.Items) != 1 || detail.Items[0].SKUID != testSKUX || detail.Items[0].Quantity != 25 {
		t.Fatalf("unexpected accepted lines %+v", detail.Items)
	}
}

func TestService_CreateClampsToReturnableUnits(t *testing.T) {
	f := newDeliveredFixture(t)

	detail, err := f.svc.Create(context.Background(), CreateInput{
		OrderID:     f.orderID,
		Remarks:     "over-ask",
		InitiatedBy: "ops",
		Items:       []ItemInput{{SKUID: testSKUX, Quantity: 500}},
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if detail.Items[0].Quantity != 120 {
		t.Fatalf("accepted %d, want clamp to 120 paid units", detail.Items[0].Quantity)
	}
}

func TestService_CreateRejectsFreebieOnlyRequest(t *testing.T) {
	f := newDeliveredFixture(t)

	_, err := f.svc.Create(context.Background(), CreateInput{
		OrderID:     f.orderID,
		Remarks:     "freebies back",
		InitiatedBy: "ops",
		Items:       []ItemInput{{SKUID: testSKUR, Quantity: 5}},
	})
	if pkgerrors.CodeOf(err) != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestService_ConfirmAppliesFrozenCreditOnce(t *testing.T) {
	f := newDeliveredFixture(t)

	detail, err := f.svc.Create(context.Background(), CreateInput{
		OrderID:     f.orderID,
		Remarks:     "damaged in transit",
		InitiatedBy: "ops",
		Items:       []ItemInput{{SKUID: testSKUX, Quantity: 25}},
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}

	ret, err := f.svc.Confirm(context.Background(), detail.Return.ID, ConfirmInput{ConfirmedBy: "warehouse"})
	if err != nil {
		t.Fatalf("Confirm error: %v", err)
	}
	if ret.Status != enums.ReturnStatusConfirmed {
		t.Fatalf("status %s after confirm", ret.Status)
	}

	if math.Abs(f.dists.dist.WalletBalance-1236) > 1e-9 {
		t.Fatalf("balance %v, want 1000 + frozen 236", f.dists.dist.WalletBalance)
	}
	if len(f.wallet.entries) != 1 || f.wallet.entries[0].Type != enums.TransactionTypeReturnCredit {
		t.Fatalf("unexpected wallet entries %+v", f.wallet.entries)
	}

	if got := f.orders.items[0].ReturnedQuantity; got != 25 {
		t.Fatalf("order line returned quantity %d, want 25", got)
	}
	if len(f.stock.movements) != 1 {
		t.Fatalf("got %d stock movements, want 1", len(f.stock.movements))
	}
	movement := f.stock.movements[0]
	if movement.Type != enums.StockMovementReturn || movement.Quantity != 25 {
		t.Fatalf("unexpected stock movement %+v", movement)
	}

	if _, err := f.svc.Confirm(context.Background(), detail.Return.ID, ConfirmInput{ConfirmedBy: "warehouse"}); pkgerrors.CodeOf(err) != pkgerrors.CodeStateConflict {
		t.Fatalf("second confirm should conflict, got %v", err)
	}
	if math.Abs(f.dists.dist.WalletBalance-1236) > 1e-9 {
		t.Fatalf("balance changed by rejected second confirm: %v", f.dists.dist.WalletBalance)
	}
}

func TestService_ConfirmDamagedWritesOffStock(t *testing.T) {
	f := newDeliveredFixture(t)

	detail, err := f.svc.Create(context.Background(), CreateInput{
		OrderID:     f.orderID,
		Remarks:     "crushed cases",
		InitiatedBy: "ops",
		Items:       []ItemInput{{SKUID: testSKUX, Quantity: 10}},
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if _, err := f.svc.Confirm(context.Background(), detail.Return.ID, ConfirmInput{ConfirmedBy: "warehouse", Damaged: true}); err != nil {
		t.Fatalf("Confirm error: %v", err)
	}

	if len(f.stock.movements) != 2 {
		t.Fatalf("got %d stock movements, want receipt plus write-off", len(f.stock.movements))
	}
	receipt, writeOff := f.stock.movements[0], f.stock.movements[1]
	if receipt.Type != enums.StockMovementReturn || receipt.Quantity != 10 {
		t.Fatalf("unexpected receipt movement %+v", receipt)
	}
	if writeOff.Type != enums.StockMovementCompletelyDamaged || writeOff.Quantity != -10 {
		t.Fatalf("unexpected write-off movement %+v", writeOff)
	}
}

func TestService_ConfirmDistributesOldestFirst(t *testing.T) {
	f := newDeliveredFixture(t)
	// Split the paid quantity across two lines; the first must fill
	// before the second is touched.
	first := f.orders.items[0]
	f.orders.items = []models.OrderItem{
		{ID: first.ID, OrderID: f.orderID, SKUID: testSKUX, Quantity: 20, UnitPrice: 10},
		{ID: uuid.New(), OrderID: f.orderID, SKUID: testSKUX, Quantity: 100, UnitPrice: 10},
	}

	detail, err := f.svc.Create(context.Background(), CreateInput{
		OrderID:     f.orderID,
		Remarks:     "partial",
		InitiatedBy: "ops",
		Items:       []ItemInput{{SKUID: testSKUX, Quantity: 30}},
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if _, err := f.svc.Confirm(context.Background(), detail.Return.ID, ConfirmInput{ConfirmedBy: "warehouse"}); err != nil {
		t.Fatalf("Confirm error: %v", err)
	}

	if f.orders.items[0].ReturnedQuantity != 20 {
		t.Fatalf("first line returned %d, want exhausted at 20", f.orders.items[0].ReturnedQuantity)
	}
	if f.orders.items[1].ReturnedQuantity != 10 {
		t.Fatalf("second line returned %d, want overflow of 10", f.orders.items[1].ReturnedQuantity)
	}
}
