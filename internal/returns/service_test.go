package returns

import (
	"context"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/khoatrankai/autoparts-backoffice/internal/orders"
	"github.com/khoatrankai/autoparts-backoffice/internal/partners"
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
	partnerID uuid.UUID
	whID      uuid.UUID
	productID uuid.UUID
	staffID   uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	dsn := "file:returns_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := conn.AutoMigrate(
		&models.Product{}, &models.Warehouse{}, &models.Partner{},
		&models.StockRecord{}, &models.MovementEntry{},
		&models.Order{}, &models.OrderItem{},
		&models.Return{}, &models.ReturnItem{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	logg := logger.New(logger.Options{ServiceName: "returns-test", Output: io.Discard})
	svc, err := NewService(
		db.FromGorm(conn),
		NewRepository(conn),
		orders.NewRepository(conn),
		partners.NewRepository(conn),
		products.NewRepository(conn),
		warehouses.NewRepository(conn),
		stock.NewLedger(conn),
		stock.NewJournal(conn),
		logg,
		nil,
	)
	if err != nil {
		t.Fatalf("returns service: %v", err)
	}

	f := &fixture{conn: conn, svc: svc, staffID: uuid.New()}

	partner := models.Partner{
		Code:         "KH001",
		Name:         "Garage Minh Phat",
		Type:         enums.PartnerTypeCustomer,
		Status:       enums.PartnerStatusActive,
		CurrentDebt:  decimal.RequireFromString("50"),
		TotalRevenue: decimal.RequireFromString("200"),
	}
	if err := conn.Create(&partner).Error; err != nil {
		t.Fatalf("seed partner: %v", err)
	}
	f.partnerID = partner.ID

	warehouse := models.Warehouse{Code: "W1", Name: "Main", Type: enums.WarehouseTypeMain, IsActive: true}
	if err := conn.Create(&warehouse).Error; err != nil {
		t.Fatalf("seed warehouse: %v", err)
	}
	f.whID = warehouse.ID

	product := models.Product{SKU: "LOC-GIO-K27", Name: "Air filter", Unit: "pcs", IsActive: true}
	if err := conn.Create(&product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	f.productID = product.ID
	return f
}

func (f *fixture) quantity(t *testing.T) int {
	t.Helper()
	var record models.StockRecord
	err := f.conn.First(&record, "product_id = ? AND warehouse_id = ?", f.productID, f.whID).Error
	if err == gorm.ErrRecordNotFound {
		return 0
	}
	if err != nil {
		t.Fatalf("load stock record: %v", err)
	}
	return record.Quantity
}

func (f *fixture) seedCompletedOrder(t *testing.T) *models.Order {
	t.Helper()
	order := models.Order{
		Code:        "ORD-SEED",
		PartnerID:   f.partnerID,
		WarehouseID: f.whID,
		StaffID:     f.staffID,
		TotalAmount: decimal.RequireFromString("30"),
		FinalAmount: decimal.RequireFromString("30"),
		Status:      enums.OrderStatusCompleted,
	}
	if err := f.conn.Create(&order).Error; err != nil {
		t.Fatalf("seed order: %v", err)
	}
	return &order
}

func TestCreateReturnCreditsStockAndRelievesDebt(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	order := f.seedCompletedOrder(t)

	ret, err := f.svc.Create(ctx, CreateInput{
		PartnerID:   f.partnerID,
		OrderID:     &order.ID,
		WarehouseID: f.whID,
		StaffID:     f.staffID,
		Items:       []LineInput{{ProductID: f.productID, Quantity: 2, RefundPrice: decimal.RequireFromString("15")}},
		Reason:      "wrong fitment",
	})
	if err != nil {
		t.Fatalf("create return: %v", err)
	}

	if !ret.TotalRefund.Equal(decimal.RequireFromString("30")) {
		t.Fatalf("expected refund 30, got %s", ret.TotalRefund)
	}
	if got := f.quantity(t); got != 2 {
		t.Fatalf("expected stock 2 after return, got %d", got)
	}

	var entry models.MovementEntry
	if err := f.conn.First(&entry, "reference_code = ?", ret.Code).Error; err != nil {
		t.Fatalf("load movement entry: %v", err)
	}
	if entry.Kind != enums.MovementKindReturn || entry.ChangeAmount != 2 || entry.BalanceAfter != 2 {
		t.Fatalf("unexpected journal entry: %+v", entry)
	}

	var reloaded models.Order
	if err := f.conn.First(&reloaded, "id = ?", order.ID).Error; err != nil {
		t.Fatalf("load order: %v", err)
	}
	if reloaded.Status != enums.OrderStatusReturned {
		t.Fatalf("expected order marked returned, got %s", reloaded.Status)
	}

	var partner models.Partner
	if err := f.conn.First(&partner, "id = ?", f.partnerID).Error; err != nil {
		t.Fatalf("load partner: %v", err)
	}
	if !partner.CurrentDebt.Equal(decimal.RequireFromString("20")) {
		t.Fatalf("expected debt relieved to 20, got %s", partner.CurrentDebt)
	}
	if !partner.TotalRevenue.Equal(decimal.RequireFromString("170")) {
		t.Fatalf("expected revenue backed out to 170, got %s", partner.TotalRevenue)
	}
}

func TestCreateReturnWithoutOrder(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	ret, err := f.svc.Create(ctx, CreateInput{
		PartnerID:   f.partnerID,
		WarehouseID: f.whID,
		StaffID:     f.staffID,
		Items:       []LineInput{{ProductID: f.productID, Quantity: 1, RefundPrice: decimal.RequireFromString("10")}},
	})
	if err != nil {
		t.Fatalf("create return: %v", err)
	}
	if ret.OrderID != nil {
		t.Fatalf("expected no order link, got %v", ret.OrderID)
	}
	if got := f.quantity(t); got != 1 {
		t.Fatalf("expected stock 1, got %d", got)
	}
}

func TestCreateReturnRejectsPendingOrder(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	order := models.Order{
		Code:        "ORD-PEND",
		PartnerID:   f.partnerID,
		WarehouseID: f.whID,
		StaffID:     f.staffID,
		Status:      enums.OrderStatusPending,
	}
	if err := f.conn.Create(&order).Error; err != nil {
		t.Fatalf("seed order: %v", err)
	}

	_, err := f.svc.Create(ctx, CreateInput{
		PartnerID:   f.partnerID,
		OrderID:     &order.ID,
		WarehouseID: f.whID,
		StaffID:     f.staffID,
		Items:       []LineInput{{ProductID: f.productID, Quantity: 1, RefundPrice: decimal.RequireFromString("10")}},
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict for pending order, got %v", err)
	}
	if got := f.quantity(t); got != 0 {
		t.Fatalf("rejected return must not credit stock, got %d", got)
	}
}

func TestCreateReturnMissingOrder(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	missing := uuid.New()

	_, err := f.svc.Create(context.Background(), CreateInput{
		PartnerID:   f.partnerID,
		OrderID:     &missing,
		WarehouseID: f.whID,
		StaffID:     f.staffID,
		Items:       []LineInput{{ProductID: f.productID, Quantity: 1, RefundPrice: decimal.RequireFromString("10")}},
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found for missing order, got %v", err)
	}
}
