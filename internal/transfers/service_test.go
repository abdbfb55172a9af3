package transfers

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/khoatrankai/autoparts-backoffice/internal/products"
	"github.com/khoatrankai/autoparts-backoffice/internal/stock"
	"github.com/khoatrankai/autoparts-backoffice/internal/warehouses"
	"github.com/khoatrankai/autoparts-backoffice/pkg/db"
	"github.com/khoatrankai/autoparts-backoffice/pkg/db/models"
	"github.com/khoatrankai/autoparts-backoffice/pkg/enums"
	pkgerrors "github.com/khoatrankai/autoparts-backoffice/pkg/errors"
	"github.com/khoatrankai/autoparts-backoffice/pkg/logger"
)

type fixture struct {
	conn      *gorm.DB
	svc       Service
	w1        uuid.UUID
	w2        uuid.UUID
	productID uuid.UUID
	staffID   uuid.UUID
}

func newFixture(t *testing.T, initialStock int) *fixture {
	t.Helper()

	dsn := "file:transfers_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := conn.AutoMigrate(
		&models.Product{}, &models.Warehouse{},
		&models.StockRecord{}, &models.MovementEntry{},
		&models.Transfer{}, &models.TransferItem{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	logg := logger.New(logger.Options{ServiceName: "transfers-test", Output: io.Discard})
	svc, err := NewService(
		db.FromGorm(conn),
		NewRepository(conn),
		products.NewRepository(conn),
		warehouses.NewRepository(conn),
		stock.NewLedger(conn),
		stock.NewJournal(conn),
		logg,
		nil,
	)
	if err != nil {
		t.Fatalf("transfers service: %v", err)
	}

	f := &fixture{conn: conn, svc: svc, staffID: uuid.New()}

	w1 := models.Warehouse{Code: "W1", Name: "Main", Type: enums.WarehouseTypeMain, IsActive: true}
	w2 := models.Warehouse{Code: "W2", Name: "Branch", Type: enums.WarehouseTypeBranch, IsActive: true}
	if err := conn.Create(&w1).Error; err != nil {
		t.Fatalf("seed warehouse: %v", err)
	}
	if err := conn.Create(&w2).Error; err != nil {
		t.Fatalf("seed warehouse: %v", err)
	}
	f.w1, f.w2 = w1.ID, w2.ID

	product := models.Product{
		SKU:       "MA-PHANH-ATE",
		Name:      "Brake pads",
		Unit:      "set",
		CostPrice: decimal.RequireFromString("30"),
		IsActive:  true,
	}
	if err := conn.Create(&product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	f.productID = product.ID

	if initialStock > 0 {
		if err := conn.Create(&models.StockRecord{ProductID: product.ID, WarehouseID: w1.ID, Quantity: initialStock}).Error; err != nil {
			t.Fatalf("seed stock: %v", err)
		}
	}
	return f
}

func (f *fixture) quantity(t *testing.T, warehouseID uuid.UUID) int {
	t.Helper()
	var record models.StockRecord
	err := f.conn.First(&record, "product_id = ? AND warehouse_id = ?", f.productID, warehouseID).Error
	if err == gorm.ErrRecordNotFound {
		return 0
	}
	if err != nil {
		t.Fatalf("load stock record: %v", err)
	}
	return record.Quantity
}

func TestTransferRoundTrip(t *testing.T) {
	t.Parallel()

	f := newFixture(t, 6)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, CreateInput{
		FromWarehouseID: f.w1,
		ToWarehouseID:   f.w2,
		StaffID:         f.staffID,
		Items:           []LineInput{{ProductID: f.productID, Quantity: 5}},
		Code:            "TRF1",
	})
	if err != nil {
		t.Fatalf("create transfer: %v", err)
	}
	if created.Status != enums.TransferStatusPending {
		t.Fatalf("expected pending transfer, got %s", created.Status)
	}
	if got := f.quantity(t, f.w1); got != 1 {
		t.Fatalf("expected W1 stock 1 after create, got %d", got)
	}

	var outEntry models.MovementEntry
	if err := f.conn.First(&outEntry, "reference_code = ? AND kind = ?", "TRF1", enums.MovementKindTransferOut).Error; err != nil {
		t.Fatalf("load transfer_out entry: %v", err)
	}
	if outEntry.BalanceAfter != 1 || outEntry.ChangeAmount != -5 {
		t.Fatalf("unexpected transfer_out entry: %+v", outEntry)
	}

	received, err := f.svc.Receive(ctx, created.ID)
	if err != nil {
		t.Fatalf("receive transfer: %v", err)
	}
	if received.Status != enums.TransferStatusCompleted {
		t.Fatalf("expected completed transfer, got %s", received.Status)
	}
	if got := f.quantity(t, f.w2); got != 5 {
		t.Fatalf("expected W2 stock 5 after receive, got %d", got)
	}

	var inEntry models.MovementEntry
	if err := f.conn.First(&inEntry, "reference_code = ? AND kind = ?", "TRF1", enums.MovementKindTransferIn).Error; err != nil {
		t.Fatalf("load transfer_in entry: %v", err)
	}
	if inEntry.BalanceAfter != 5 || inEntry.ChangeAmount != 5 {
		t.Fatalf("unexpected transfer_in entry: %+v", inEntry)
	}
}

func TestTransferRejectCompensates(t *testing.T) {
	t.Parallel()

	f := newFixture(t, 6)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, CreateInput{
		FromWarehouseID: f.w1,
		ToWarehouseID:   f.w2,
		StaffID:         f.staffID,
		Items:           []LineInput{{ProductID: f.productID, Quantity: 4}},
	})
	if err != nil {
		t.Fatalf("create transfer: %v", err)
	}
	if got := f.quantity(t, f.w1); got != 2 {
		t.Fatalf("expected W1 stock 2 after create, got %d", got)
	}

	rejected, err := f.svc.Reject(ctx, created.ID, "damaged in loading")
	if err != nil {
		t.Fatalf("reject transfer: %v", err)
	}
	if rejected.Status != enums.TransferStatusCancelled {
		t.Fatalf("expected cancelled transfer, got %s", rejected.Status)
	}
	if !strings.Contains(rejected.Note, "damaged in loading") {
		t.Fatalf("expected reason in note, got %q", rejected.Note)
	}
	if got := f.quantity(t, f.w1); got != 6 {
		t.Fatalf("expected W1 restored to 6, got %d", got)
	}
	if got := f.quantity(t, f.w2); got != 0 {
		t.Fatalf("expected W2 untouched, got %d", got)
	}

	var returnEntry models.MovementEntry
	if err := f.conn.First(&returnEntry, "reference_code = ? AND kind = ?", created.Code, enums.MovementKindTransferReturn).Error; err != nil {
		t.Fatalf("load transfer_return entry: %v", err)
	}
	if returnEntry.BalanceAfter != 6 {
		t.Fatalf("unexpected transfer_return entry: %+v", returnEntry)
	}
}

func TestTransferTerminalStatesAreImmutable(t *testing.T) {
	t.Parallel()

	f := newFixture(t, 10)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, CreateInput{
		FromWarehouseID: f.w1,
		ToWarehouseID:   f.w2,
		StaffID:         f.staffID,
		Items:           []LineInput{{ProductID: f.productID, Quantity: 2}},
	})
	if err != nil {
		t.Fatalf("create transfer: %v", err)
	}
	if _, err := f.svc.Receive(ctx, created.ID); err != nil {
		t.Fatalf("first receive: %v", err)
	}

	_, err = f.svc.Receive(ctx, created.ID)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict on double receive, got %v", err)
	}
	if got := f.quantity(t, f.w2); got != 2 {
		t.Fatalf("double receive must not double-credit, got %d", got)
	}

	_, err = f.svc.Reject(ctx, created.ID, "too late")
	typed = pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict on reject after receive, got %v", err)
	}
}

func TestTransferCreateRejectsSameWarehouse(t *testing.T) {
	t.Parallel()

	f := newFixture(t, 10)

	_, err := f.svc.Create(context.Background(), CreateInput{
		FromWarehouseID: f.w1,
		ToWarehouseID:   f.w1,
		StaffID:         f.staffID,
		Items:           []LineInput{{ProductID: f.productID, Quantity: 1}},
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict for same warehouse, got %v", err)
	}
}

func TestTransferCreateInsufficientStock(t *testing.T) {
	t.Parallel()

	f := newFixture(t, 3)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, CreateInput{
		FromWarehouseID: f.w1,
		ToWarehouseID:   f.w2,
		StaffID:         f.staffID,
		Items:           []LineInput{{ProductID: f.productID, Quantity: 5}},
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeInsufficientStock {
		t.Fatalf("expected insufficient stock, got %v", err)
	}
	if got := f.quantity(t, f.w1); got != 3 {
		t.Fatalf("rejected transfer must leave stock at 3, got %d", got)
	}

	var count int64
	if err := f.conn.Model(&models.Transfer{}).Count(&count).Error; err != nil {
		t.Fatalf("count transfers: %v", err)
	}
	if count != 0 {
		t.Fatalf("rejected transfer must not persist a header, got %d", count)
	}
}

func TestTransferFindByIDDerivesValuation(t *testing.T) {
	t.Parallel()

	f := newFixture(t, 10)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, CreateInput{
		FromWarehouseID: f.w1,
		ToWarehouseID:   f.w2,
		StaffID:         f.staffID,
		Items:           []LineInput{{ProductID: f.productID, Quantity: 3}},
	})
	if err != nil {
		t.Fatalf("create transfer: %v", err)
	}

	view, err := f.svc.FindByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("find transfer: %v", err)
	}
	if len(view.ItemViews) != 1 {
		t.Fatalf("expected 1 item view, got %d", len(view.ItemViews))
	}
	item := view.ItemViews[0]
	if !item.Price.Equal(decimal.RequireFromString("30")) || !item.Total.Equal(decimal.RequireFromString("90")) {
		t.Fatalf("unexpected valuation: price=%s total=%s", item.Price, item.Total)
	}
	if !view.TotalValue.Equal(decimal.RequireFromString("90")) {
		t.Fatalf("unexpected total value %s", view.TotalValue)
	}
	if item.SKU != "MA-PHANH-ATE" {
		t.Fatalf("expected product snapshot in view, got %q", item.SKU)
	}
}
