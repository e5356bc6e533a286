package orders

import (
	"context"
	"math"
	"testing"

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
	"github.com/01101001raj/dms-backend/pkg/types"
)

var (
	testSKUX    = uuid.MustParse("11111111-1111-1111-1111-111111111111")
	testSKUR    = uuid.MustParse("22222222-2222-2222-2222-222222222222")
	testDate    = types.Date("2026-03-15")
	testDistID  = uuid.MustParse("dddddddd-0000-0000-0000-000000000001")
	testOrderID = uuid.MustParse("00000000-0000-0000-0000-0000000000aa")
)

type fakeTx struct{}

func (fakeTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type fakeOrderRepo struct {
	orders  map[uuid.UUID]*models.Order
	items   map[uuid.UUID][]models.OrderItem
	deleted []uuid.UUID
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{
		orders: map[uuid.UUID]*models.Order{},
		items:  map[uuid.UUID][]models.OrderItem{},
	}
}

func (f *fakeOrderRepo) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeOrderRepo) Create(ctx context.Context, order *models.Order) error {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	clone := *order
	f.orders[order.ID] = &clone
	return nil
}

func (f *fakeOrderRepo) CreateItems(ctx context.Context, items []models.OrderItem) error {
	for i := range items {
		if items[i].ID == uuid.Nil {
			items[i].ID = uuid.New()
		}
		f.items[items[i].OrderID] = append(f.items[items[i].OrderID], items[i])
	}
	return nil
}

func (f *fakeOrderRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, ok := f.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *order
	return &clone, nil
}

func (f *fakeOrderRepo) ListItems(ctx context.Context, orderID uuid.UUID) ([]models.OrderItem, error) {
	return f.items[orderID], nil
}

func (f *fakeOrderRepo) ListByDistributor(ctx context.Context, distributorID uuid.UUID, limit int) ([]models.Order, error) {
	var out []models.Order
	for _, order := range f.orders {
		if order.DistributorID == distributorID {
			out = append(out, *order)
		}
	}
	return out, nil
}

func (f *fakeOrderRepo) ListPage(ctx context.Context, offset, limit int) ([]models.Order, error) {
	return nil, nil
}

func (f *fakeOrderRepo) Update(ctx context.Context, order *models.Order) error {
	clone := *order
	f.orders[order.ID] = &clone
	return nil
}

func (f *fakeOrderRepo) DeleteItems(ctx context.Context, orderID uuid.UUID) error {
	delete(f.items, orderID)
	return nil
}

func (f *fakeOrderRepo) Delete(ctx context.Context, orderID uuid.UUID) error {
	delete(f.orders, orderID)
	f.deleted = append(f.deleted, orderID)
	return nil
}

func (f *fakeOrderRepo) IncrementReturned(ctx context.Context, itemID uuid.UUID, quantity int) error {
	for orderID, items := range f.items {
		for i := range items {
			if items[i].ID != itemID {
				continue
			}
			if items[i].Quantity-items[i].ReturnedQuantity < quantity {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "order line no longer has enough returnable units")
			}
			f.items[orderID][i].ReturnedQuantity += quantity
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

type fakeDistRepo struct {
	dist    *models.Distributor
	debits  []float64
	guarded []bool
}

func (f *fakeDistRepo) WithTx(tx *gorm.DB) distributors.Repository      { return f }
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
	if requireFunds && f.dist.WalletBalance+delta < 0 {
		return 0, pkgerrors.New(pkgerrors.CodeStateConflict, "insufficient wallet balance")
	}
	f.dist.WalletBalance += delta
	f.debits = append(f.debits, delta)
	f.guarded = append(f.guarded, requireFunds)
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
	items   []models.PriceTierItem
}

func (f *fakeCatalog) Snapshot(ctx context.Context, tierID *uuid.UUID) (engine.Catalog, []models.PriceTierItem, error) {
	return f.catalog, f.items, nil
}

type fakeSchemes struct {
	schemes []models.Scheme
}

func (f *fakeSchemes) LiveOn(ctx context.Context, date types.Date) ([]models.Scheme, error) {
	return f.schemes, nil
}

type fixture struct {
	svc    Service
	repo   *fakeOrderRepo
	dists  *fakeDistRepo
	wallet *fakeWalletRepo
	stock  *fakeStockRepo
	notifs *fakeNotifRepo
}

func newFixture(t *testing.T, balance float64, schemes []models.Scheme) *fixture {
	t.Helper()
	repo := newFakeOrderRepo()
	dists := &fakeDistRepo{dist: &models.Distributor{ID: testDistID, WalletBalance: balance}}
	walletRepo := &fakeWalletRepo{}
	stockRepo := &fakeStockRepo{}
	notifRepo := &fakeNotifRepo{}
	catalog := &fakeCatalog{catalog: engine.NewCatalog([]models.SKU{
		{ID: testSKUX, Name: "Widget X", Price: 10, GSTPercentage: 18},
		{ID: testSKUR, Name: "Reward R", Price: 5, GSTPercentage: 18},
	})}

	svc, err := NewService(fakeTx{}, repo, catalog, &fakeSchemes{schemes: schemes}, dists, walletRepo, stockRepo, notifRepo, nil, nil)
	if err != nil {
		t.Fatalf("NewService error: %v", err)
	}
	return &fixture{svc: svc, repo: repo, dists: dists, wallet: walletRepo, stock: stockRepo, notifs: notifRepo}
}

func globalScheme(buy, get int) models.Scheme {
	return models.Scheme{
		ID:          uuid.New(),
		BuySKUID:    testSKUX,
		BuyQuantity: buy,
		GetSKUID:    testSKUR,
		GetQuantity: get,
		StartDate:   types.Date("2026-03-01"),
		EndDate:     types.Date("2026-03-31"),
		IsGlobal:    true,
	}
}

func TestService_PlaceComputesTotalsAndDebitsWallet(t *testing.T) {
	f := newFixture(t, 5000, []models.Scheme{globalScheme(100, 10)})

	detail, err := f.svc.Place(context.Background(), PlaceInput{
		DistributorID: testDistID,
		Date:          testDate,
		PlacedBy:      "ops",
		Items:         []ItemInput{{SKUID: testSKUX, Quantity: 120}},
	})
	if err != nil {
		t.Fatalf("Place error: %v", err)
	}

	if math.Abs(detail.Order.TotalAmount-1416) > 1e-9 {
		t.Fatalf("total %v, want 1416", detail.Order.TotalAmount)
	}
	if detail.Order.Status != enums.OrderStatusPending {
		t.Fatalf("status %s, want pending", detail.Order.Status)
	}
	if len(detail.Items) != 2 {
		t.Fatalf("persisted %d lines, want paid + freebie", len(detail.Items))
	}
	free := detail.Items[1]
	if !free.IsFreebie || free.SKUID != testSKUR || free.Quantity != 10 || free.UnitPrice != 0 {
		t.Fatalf("unexpected freebie line %+v", free)
	}

	if math.Abs(f.dists.dist.WalletBalance-(5000-1416)) > 1e-9 {
		t.Fatalf("balance %v after debit", f.dists.dist.WalletBalance)
	}
	if len(f.dists.guarded) != 1 || !f.dists.guarded[0] {
		t.Fatalf("wallet debit was not balance-guarded")
	}
	if len(f.wallet.entries) != 1 {
		t.Fatalf("got %d wallet entries, want 1", len(f.wallet.entries))
	}
	entry := f.wallet.entries[0]
	if entry.Type != enums.TransactionTypeOrderPayment || math.Abs(entry.Amount+1416) > 1e-9 {
		t.Fatalf("unexpected wallet entry %+v", entry)
	}
}

func TestService_PlaceRejectsInsufficientBalance(t *testing.T) {
	f := newFixture(t, 100, nil)

	_, err := f.svc.Place(context.Background(), PlaceInput{
		DistributorID: testDistID,
		Date:          testDate,
		PlacedBy:      "ops",
		Items:         []ItemInput{{SKUID: testSKUX, Quantity: 120}},
	})
	if pkgerrors.CodeOf(err) != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
	if len(f.repo.orders) != 0 {
		t.Fatalf("order persisted despite failed debit")
	}
}

func TestService_PlaceRejectsUnknownSKU(t *testing.T) {
	f := newFixture(t, 5000, nil)

	_, err := f.svc.Place(context.Background(), PlaceInput{
		DistributorID: testDistID,
		Date:          testDate,
		PlacedBy:      "ops",
		Items:         []ItemInput{{SKUID: uuid.New(), Quantity: 5}},
	})
	if pkgerrors.CodeOf(err) != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestService_PlaceRejectsEmptyAndNonPositive(t *testing.T) {
	f := newFixture(t, 5000, nil)

	cases := []PlaceInput{
		{DistributorID: testDistID, PlacedBy: "ops"},
		{DistributorID: testDistID, PlacedBy: "ops", Items: []ItemInput{{SKUID: testSKUX, Quantity: 0}}},
		{DistributorID: testDistID, PlacedBy: "ops", Items: []ItemInput{{SKUID: testSKUX, Quantity: -4}}},
	}
	for i, input := range cases {
		if _, err := f.svc.Place(context.Background(), input); pkgerrors.CodeOf(err) != pkgerrors.CodeValidation {
			t.Fatalf("case %d: expected validation error, got %v", i, err)
		}
	}
}

func TestService_EditSettlesWalletDelta(t *testing.T) {
	f := newFixture(t, 5000, []models.Scheme{globalScheme(100, 10)})

	detail, err := f.svc.Place(context.Background(), PlaceInput{
		DistributorID: testDistID,
		Date:          testDate,
		PlacedBy:      "ops",
		Items:         []ItemInput{{SKUID: testSKUX, Quantity: 120}},
	})
	if err != nil {
		t.Fatalf("Place error: %v", err)
	}

	// Shrink the order below the scheme threshold: new total 50×10×1.18
	// = 590, so 826 flows back and the freebie line disappears.
	edited, err := f.svc.Edit(context.Background(), detail.Order.ID, EditInput{
		EditedBy: "ops",
		Items:    []ItemInput{{SKUID: testSKUX, Quantity: 50}},
	})
	if err != nil {
		t.Fatalf("Edit error: %v", err)
	}
	if math.Abs(edited.Order.TotalAmount-590) > 1e-9 {
		t.Fatalf("edited total %v, want 590", edited.Order.TotalAmount)
	}
	if len(edited.Items) != 1 {
		t.Fatalf("edited order has %d lines, want 1", len(edited.Items))
	}
	if math.Abs(f.dists.dist.WalletBalance-(5000-590)) > 1e-9 {
		t.Fatalf("balance %v after edit settlement", f.dists.dist.WalletBalance)
	}
	last := f.wallet.entries[len(f.wallet.entries)-1]
	if last.Type != enums.TransactionTypeOrderRefund || math.Abs(last.Amount-826) > 1e-9 {
		t.Fatalf("unexpected settlement entry %+v", last)
	}
}

func TestService_EditRejectsDeliveredOrder(t *testing.T) {
	f := newFixture(t, 5000, nil)
	f.repo.orders[testOrderID] = &models.Order{
		ID:            testOrderID,
		DistributorID: testDistID,
		Date:          testDate,
		Status:        enums.OrderStatusDelivered,
	}

	_, err := f.svc.Edit(context.Background(), testOrderID, EditInput{
		EditedBy: "ops",
		Items:    []ItemInput{{SKUID: testSKUX, Quantity: 1}},
	})
	if pkgerrors.CodeOf(err) != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestService_DeliverStampsDateAndWritesSaleMovements(t *testing.T) {
	f := newFixture(t, 5000, []models.Scheme{globalScheme(100, 10)})

	detail, err := f.svc.Place(context.Background(), PlaceInput{
		DistributorID: testDistID,
		Date:          testDate,
		PlacedBy:      "ops",
		Items:         []ItemInput{{SKUID: testSKUX, Quantity: 120}},
	})
	if err != nil {
		t.Fatalf("Place error: %v", err)
	}

	order, err := f.svc.Deliver(context.Background(), detail.Order.ID, "ops")
	if err != nil {
		t.Fatalf("Deliver error: %v", err)
	}
	if order.Status != enums.OrderStatusDelivered || order.DeliveredDate == nil {
		t.Fatalf("delivery not stamped: %+v", order)
	}

	if len(f.stock.movements) != 2 {
		t.Fatalf("got %d stock movements, want one per line", len(f.stock.movements))
	}
	for _, movement := range f.stock.movements {
		if movement.Type != enums.StockMovementSale || movement.Quantity >= 0 {
			t.Fatalf("unexpected movement %+v", movement)
		}
	}

	if _, err := f.svc.Deliver(context.Background(), detail.Order.ID, "ops"); pkgerrors.CodeOf(err) != pkgerrors.CodeStateConflict {
		t.Fatalf("second delivery should conflict, got %v", err)
	}
}

func TestService_CancelRefundsAndRemoves(t *testing.T) {
	f := newFixture(t, 5000, nil)

	detail, err := f.svc.Place(context.Background(), PlaceInput{
		DistributorID: testDistID,
		Date:          testDate,
		PlacedBy:      "ops",
		Items:         []ItemInput{{SKUID: testSKUX, Quantity: 10}},
	})
	if err != nil {
		t.Fatalf("Place error: %v", err)
	}

	if err := f.svc.Cancel(context.Background(), detail.Order.ID, "ops"); err != nil {
		t.Fatalf("Cancel error: %v", err)
	}
	if math.Abs(f.dists.dist.WalletBalance-5000) > 1e-9 {
		t.Fatalf("balance %v after cancel, want full refund", f.dists.dist.WalletBalance)
	}
	if len(f.repo.orders) != 0 {
		t.Fatalf("order still present after cancel")
	}
	last := f.wallet.entries[len(f.wallet.entries)-1]
	if last.Type != enums.TransactionTypeOrderRefund {
		t.Fatalf("unexpected refund entry %+v", last)
	}
}

func TestService_InvoiceFromPersistedLines(t *testing.T) {
	f := newFixture(t, 5000, []models.Scheme{globalScheme(100, 10)})

	detail, err := f.svc.Place(context.Background(), PlaceInput{
		DistributorID: testDistID,
		Date:          testDate,
		PlacedBy:      "ops",
		Items:         []ItemInput{{SKUID: testSKUX, Quantity: 120}},
	})
	if err != nil {
		t.Fatalf("Place error: %v", err)
	}

	invoice, err := f.svc.Invoice(context.Background(), detail.Order.ID)
	if err != nil {
		t.Fatalf("Invoice error: %v", err)
	}
	if invoice.GrandTotal != 1416 {
		t.Fatalf("grand total %d, want 1416", invoice.GrandTotal)
	}
	if invoice.CGST != 108 || invoice.SGST != 108 {
		t.Fatalf("gst halves %d/%d, want 108/108", invoice.CGST, invoice.SGST)
	}
}
