package cron

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/khoatrankai/autoparts-backoffice/internal/stock"
	"github.com/khoatrankai/autoparts-backoffice/internal/stockcard"
	"github.com/khoatrankai/autoparts-backoffice/pkg/db/models"
	"github.com/khoatrankai/autoparts-backoffice/pkg/enums"
	"github.com/khoatrankai/autoparts-backoffice/pkg/logger"
)

func newReconcileEnv(t *testing.T) (*gorm.DB, *ReconcileJob) {
	t.Helper()

	dsn := "file:reconcile_" + uuid.NewString() + "?mode=memory&cache=shared"
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

	journal := stock.NewJournal(conn)
	rec, err := stockcard.NewReconstructor(conn, stock.NewLedger(conn), journal)
	if err != nil {
		t.Fatalf("reconstructor: %v", err)
	}
	logg := logger.New(logger.Options{ServiceName: "reconcile-test", Output: io.Discard})
	job, err := NewReconcileJob(journal, rec, logg)
	if err != nil {
		t.Fatalf("reconcile job: %v", err)
	}
	return conn, job
}

func seedPair(t *testing.T, conn *gorm.DB, quantity, balanceAfter int) (uuid.UUID, uuid.UUID) {
	t.Helper()
	productID := uuid.New()
	warehouseID := uuid.New()
	if err := conn.Create(&models.StockRecord{ProductID: productID, WarehouseID: warehouseID, Quantity: quantity}).Error; err != nil {
		t.Fatalf("seed stock: %v", err)
	}
	entry := models.MovementEntry{
		ProductID:    productID,
		WarehouseID:  warehouseID,
		Kind:         enums.MovementKindPurchase,
		ChangeAmount: balanceAfter,
		BalanceAfter: balanceAfter,
	}
	if err := conn.Create(&entry).Error; err != nil {
		t.Fatalf("seed journal: %v", err)
	}
	return productID, warehouseID
}

func TestReconcileJobCleanRun(t *testing.T) {
	t.Parallel()

	conn, job := newReconcileEnv(t)
	seedPair(t, conn, 5, 5)
	seedPair(t, conn, 12, 12)

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("expected clean run, got %v", err)
	}
}

func TestReconcileJobReportsEveryDriftedPair(t *testing.T) {
	t.Parallel()

	conn, job := newReconcileEnv(t)
	seedPair(t, conn, 5, 5)
	driftedA, _ := seedPair(t, conn, 7, 9)
	driftedB, _ := seedPair(t, conn, 0, 3)

	err := job.Run(context.Background())
	if err == nil {
		t.Fatal("expected drift to be reported")
	}

	errs := multierr.Errors(err)
	if len(errs) != 2 {
		t.Fatalf("expected 2 drift errors, got %d: %v", len(errs), err)
	}
	msg := err.Error()
	if !strings.Contains(msg, driftedA.String()) || !strings.Contains(msg, driftedB.String()) {
		t.Fatalf("expected both drifted products in error, got %q", msg)
	}
}
