package purchases

import (
	"context"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

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
	conn       *gorm.DB
	svc        Service
	supplierID uuid.UUID
	whID       uuid.UUID
	productID  uuid.UUID
	staffID    uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	dsn := "file:purchases_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := conn.AutoMigrate(
		&models.Product{}, &models.Warehouse{}, &models.Partner{},
		&models.StockRecord{}, &models.MovementEntry{},
		&models.PurchaseOrder{}, &models.PurchaseItem{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	logg := logger.New(logger.Options{ServiceName: "purchases-test", Output: io.Discard})
	svc, err := NewService(
		db.FromGorm(conn),
		NewRepository(conn),
		partners.NewRepository(conn),
		products.NewRepository(conn),
		warehouses.NewRepository(conn),
		stock.NewLedger(conn),
		stock.NewJournal(conn),
		logg,
		nil,
	)
	if err != nil {
		t.Fatalf("purchases service: %v", err)
	}

	f := &fixture{conn: conn, svc: svc, staffID: uuid.New()}

	supplier := models.Partner{Code: "NCC001", Name: "Phu Tung Truong Hai", Type: enums.PartnerTypeSupplier, Status: enums.PartnerStatusActive}
	if err := conn.Create(&supplier).Error; err != nil {
		t.Fatalf("seed supplier: %v", err)
	}
	f.supplierID = supplier.ID

	warehouse := models.Warehouse{Code: "W1", Name: "Main", Type: enums.WarehouseTypeMain, IsActive: true}
	if err := conn.Create(&warehouse).Error; err != nil {
		t.Fatalf("seed warehouse: %v", err)
	}
	f.whID = warehouse.ID

	product := models.Product{SKU: "BUGI-NGK-7938", Name: "Spark plug", Unit: "pcs", IsActive: true}
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

func TestCreateCompletedPurchaseCreditsStock(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	purchase, err := f.svc.Create(ctx, CreateInput{
		SupplierID:  f.supplierID,
		WarehouseID: f.whID,
		StaffID:     f.staffID,
		Items:       []LineInput{{ProductID: f.productID, Quantity: 20, ImportPrice: decimal.RequireFromString("7")}},
		PaidAmount:  decimal.RequireFromString("100"),
		Status:      enums.DocumentStatusCompleted,
	})
	if err != nil {
		t.Fatalf("create purchase: %v", err)
	}

	if !purchase.TotalAmount.Equal(decimal.RequireFromString("140")) || !purchase.FinalAmount.Equal(decimal.RequireFromString("140")) {
		t.Fatalf("unexpected totals: total=%s final=%s", purchase.TotalAmount, purchase.FinalAmount)
	}
	if got := f.quantity(t); got != 20 {
		t.Fatalf("expected stock 20 after receipt, got %d", got)
	}

	var entry models.MovementEntry
	if err := f.conn.First(&entry, "reference_code = ?", purchase.Code).Error; err != nil {
		t.Fatalf("load movement entry: %v", err)
	}
	if entry.Kind != enums.MovementKindPurchase || entry.ChangeAmount != 20 || entry.BalanceAfter != 20 {
		t.Fatalf("unexpected journal entry: %+v", entry)
	}

	var supplier models.Partner
	if err := f.conn.First(&supplier, "id = ?", f.supplierID).Error; err != nil {
		t.Fatalf("load supplier: %v", err)
	}
	if !supplier.CurrentDebt.Equal(decimal.RequireFromString("40")) {
		t.Fatalf("expected payable 40 (140 final - 100 paid), got %s", supplier.CurrentDebt)
	}
}

func TestCreateDraftDefersLedger(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	draft, err := f.svc.Create(ctx, CreateInput{
		SupplierID:  f.supplierID,
		WarehouseID: f.whID,
		StaffID:     f.staffID,
		Items:       []LineInput{{ProductID: f.productID, Quantity: 10, ImportPrice: decimal.RequireFromString("7")}},
		Status:      enums.DocumentStatusDraft,
	})
	if err != nil {
		t.Fatalf("create draft: %v", err)
	}
	if got := f.quantity(t); got != 0 {
		t.Fatalf("draft must not credit stock, got %d", got)
	}

	completed, err := f.svc.Complete(ctx, draft.ID)
	if err != nil {
		t.Fatalf("complete purchase: %v", err)
	}
	if completed.Status != enums.DocumentStatusCompleted {
		t.Fatalf("expected completed status, got %s", completed.Status)
	}
	if got := f.quantity(t); got != 10 {
		t.Fatalf("expected stock 10 after completion, got %d", got)
	}

	// Completing twice must not double-credit.
	_, err = f.svc.Complete(ctx, draft.ID)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict on double completion, got %v", err)
	}
	if got := f.quantity(t); got != 10 {
		t.Fatalf("double completion must not change stock, got %d", got)
	}
}

func TestCreatePurchaseRejectsCustomer(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	customer := models.Partner{Code: "KH001", Name: "Customer", Type: enums.PartnerTypeCustomer, Status: enums.PartnerStatusActive}
	if err := f.conn.Create(&customer).Error; err != nil {
		t.Fatalf("seed customer: %v", err)
	}

	_, err := f.svc.Create(ctx, CreateInput{
		SupplierID:  customer.ID,
		WarehouseID: f.whID,
		StaffID:     f.staffID,
		Items:       []LineInput{{ProductID: f.productID, Quantity: 1, ImportPrice: decimal.RequireFromString("7")}},
		Status:      enums.DocumentStatusCompleted,
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for non-supplier, got %v", err)
	}
}

func TestCreatePurchaseRejectsCancelledStatus(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	_, err := f.svc.Create(context.Background(), CreateInput{
		SupplierID:  f.supplierID,
		WarehouseID: f.whID,
		StaffID:     f.staffID,
		Items:       []LineInput{{ProductID: f.productID, Quantity: 1, ImportPrice: decimal.RequireFromString("7")}},
		Status:      enums.DocumentStatusCancelled,
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}
