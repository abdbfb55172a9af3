package stockcard

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/khoatrankai/autoparts-backoffice/internal/stock"
	"github.com/khoatrankai/autoparts-backoffice/pkg/db/models"
	"github.com/khoatrankai/autoparts-backoffice/pkg/enums"
)

func newTestEnv(t *testing.T) (*gorm.DB, *Reconstructor) {
	t.Helper()

	dsn := "file:stockcard_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := conn.AutoMigrate(
		&models.StockRecord{}, &models.MovementEntry{},
		&models.Order{}, &models.OrderItem{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	rec, err := NewReconstructor(conn, stock.NewLedger(conn), stock.NewJournal(conn))
	if err != nil {
		t.Fatalf("reconstructor: %v", err)
	}
	return conn, rec
}

func TestFromJournalMergesAllKinds(t *testing.T) {
	t.Parallel()

	conn, rec := newTestEnv(t)
	ctx := context.Background()
	productID := uuid.New()
	w1 := uuid.New()
	w2 := uuid.New()

	journal := stock.NewJournal(conn)
	seed := []models.MovementEntry{
		{ProductID: productID, WarehouseID: w1, Kind: enums.MovementKindPurchase, ChangeAmount: 10, BalanceAfter: 10, ReferenceCode: "PO1"},
		{ProductID: productID, WarehouseID: w1, Kind: enums.MovementKindSale, ChangeAmount: -4, BalanceAfter: 6, ReferenceCode: "ORD1"},
		{ProductID: productID, WarehouseID: w1, Kind: enums.MovementKindTransferOut, ChangeAmount: -5, BalanceAfter: 1, ReferenceCode: "TRF1"},
		{ProductID: productID, WarehouseID: w2, Kind: enums.MovementKindTransferIn, ChangeAmount: 5, BalanceAfter: 5, ReferenceCode: "TRF1"},
	}
	for i := range seed {
		if err := journal.Append(ctx, &seed[i]); err != nil {
			t.Fatalf("seed journal: %v", err)
		}
	}

	entries, next, err := rec.FromJournal(ctx, productID, stock.PageQuery{Limit: 10})
	if err != nil {
		t.Fatalf("from journal: %v", err)
	}
	if len(entries) != 4 || next != 0 {
		t.Fatalf("expected 4 merged entries, got %d (next %d)", len(entries), next)
	}
	if entries[0].Kind != enums.MovementKindTransferIn || entries[0].BalanceAfter != 5 {
		t.Fatalf("expected newest entry first, got %+v", entries[0])
	}
	if entries[3].Kind != enums.MovementKindPurchase || entries[3].BalanceAfter != 10 {
		t.Fatalf("expected oldest entry last, got %+v", entries[3])
	}
}

func TestBackCalculateSalesOnly(t *testing.T) {
	t.Parallel()

	conn, rec := newTestEnv(t)
	ctx := context.Background()
	productID := uuid.New()
	warehouseID := uuid.New()
	partnerID := uuid.New()
	staffID := uuid.New()

	// Current stock 6 after selling 4 of 10.
	if err := conn.Create(&models.StockRecord{ProductID: productID, WarehouseID: warehouseID, Quantity: 6}).Error; err != nil {
		t.Fatalf("seed stock: %v", err)
	}

	order := models.Order{
		Code:        "ORD1",
		PartnerID:   partnerID,
		WarehouseID: warehouseID,
		StaffID:     staffID,
		Status:      enums.OrderStatusCompleted,
		TotalAmount: decimal.RequireFromString("40"),
		FinalAmount: decimal.RequireFromString("40"),
		Items: []models.OrderItem{
			{ProductID: productID, SKU: "SKU1", Name: "Part", Quantity: 4, UnitPrice: decimal.RequireFromString("10")},
		},
	}
	if err := conn.Create(&order).Error; err != nil {
		t.Fatalf("seed order: %v", err)
	}

	entries, err := rec.BackCalculate(ctx, productID)
	if err != nil {
		t.Fatalf("back calculate: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 sale row, got %d", len(entries))
	}
	if entries[0].BalanceAfter != 6 || entries[0].ChangeAmount != -4 {
		t.Fatalf("unexpected back-calculated row: %+v", entries[0])
	}
	if entries[0].ReferenceCode != "ORD1" {
		t.Fatalf("expected order code reference, got %q", entries[0].ReferenceCode)
	}
}

func TestBackCalculateWalksNewestFirst(t *testing.T) {
	t.Parallel()

	conn, rec := newTestEnv(t)
	ctx := context.Background()
	productID := uuid.New()
	warehouseID := uuid.New()

	if err := conn.Create(&models.StockRecord{ProductID: productID, WarehouseID: warehouseID, Quantity: 3}).Error; err != nil {
		t.Fatalf("seed stock: %v", err)
	}

	// Two sales: 5 then 2 (older to newer). Current 3, so newest row shows 3,
	// older row shows 3+2=5.
	base := time.Now().Add(-time.Hour)
	for i, sale := range []struct {
		code string
		qty  int
		at   time.Time
	}{
		{"ORD-OLD", 5, base},
		{"ORD-NEW", 2, base.Add(30 * time.Minute)},
	} {
		order := models.Order{
			Code:        sale.code,
			PartnerID:   uuid.New(),
			WarehouseID: warehouseID,
			StaffID:     uuid.New(),
			Status:      enums.OrderStatusCompleted,
		}
		if err := conn.Create(&order).Error; err != nil {
			t.Fatalf("seed order %d: %v", i, err)
		}
		item := models.OrderItem{
			OrderID:   order.ID,
			ProductID: productID,
			SKU:       "SKU1",
			Name:      "Part",
			Quantity:  sale.qty,
			UnitPrice: decimal.RequireFromString("10"),
		}
		if err := conn.Create(&item).Error; err != nil {
			t.Fatalf("seed item %d: %v", i, err)
		}
		if err := conn.Model(&models.OrderItem{}).Where("id = ?", item.ID).Update("created_at", sale.at).Error; err != nil {
			t.Fatalf("backdate item %d: %v", i, err)
		}
	}

	entries, err := rec.BackCalculate(ctx, productID)
	if err != nil {
		t.Fatalf("back calculate: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(entries))
	}
	if entries[0].ReferenceCode != "ORD-NEW" || entries[0].BalanceAfter != 3 {
		t.Fatalf("unexpected newest row: %+v", entries[0])
	}
	if entries[1].ReferenceCode != "ORD-OLD" || entries[1].BalanceAfter != 5 {
		t.Fatalf("unexpected older row: %+v", entries[1])
	}
}

func TestVerifyPair(t *testing.T) {
	t.Parallel()

	conn, rec := newTestEnv(t)
	ctx := context.Background()
	productID := uuid.New()
	warehouseID := uuid.New()

	// No history at all: vacuously consistent.
	check, err := rec.VerifyPair(ctx, productID, warehouseID)
	if err != nil {
		t.Fatalf("verify empty pair: %v", err)
	}
	if !check.Consistent || check.HasJournal {
		t.Fatalf("empty pair must be consistent: %+v", check)
	}

	if err := conn.Create(&models.StockRecord{ProductID: productID, WarehouseID: warehouseID, Quantity: 6}).Error; err != nil {
		t.Fatalf("seed stock: %v", err)
	}
	journal := stock.NewJournal(conn)
	if err := journal.Append(ctx, &models.MovementEntry{
		ProductID: productID, WarehouseID: warehouseID,
		Kind: enums.MovementKindSale, ChangeAmount: -4, BalanceAfter: 6,
	}); err != nil {
		t.Fatalf("seed journal: %v", err)
	}

	check, err = rec.VerifyPair(ctx, productID, warehouseID)
	if err != nil {
		t.Fatalf("verify pair: %v", err)
	}
	if !check.Consistent || check.JournalQty != 6 || check.LedgerQty != 6 {
		t.Fatalf("expected consistent pair: %+v", check)
	}

	// Drift the stock record; the check must fail.
	if err := conn.Model(&models.StockRecord{}).
		Where("product_id = ? AND warehouse_id = ?", productID, warehouseID).
		Update("quantity", 7).Error; err != nil {
		t.Fatalf("drift stock: %v", err)
	}
	check, err = rec.VerifyPair(ctx, productID, warehouseID)
	if err != nil {
		t.Fatalf("verify drifted pair: %v", err)
	}
	if check.Consistent {
		t.Fatalf("expected drift to be detected: %+v", check)
	}
}
