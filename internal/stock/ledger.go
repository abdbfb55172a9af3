package stock

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/khoatrankai/autoparts-backoffice/pkg/db/models"
	pkgerrors "github.com/khoatrankai/autoparts-backoffice/pkg/errors"
)

// Ledger owns the authoritative per-warehouse stock balances. All writes go
// through Adjust, which locks the affected row so concurrent workflows
// serialize on the same (product, warehouse) pair.
type Ledger struct {
	db *gorm.DB
}

// NewLedger builds a ledger tied to the provided GORM DB.
func NewLedger(db *gorm.DB) *Ledger {
	return &Ledger{db: db}
}

// WithTx returns a ledger bound to the provided transaction.
func (l *Ledger) WithTx(tx *gorm.DB) *Ledger {
	return &Ledger{db: tx}
}

// Quantity returns the current on-hand quantity for the pair. A pair with no
// stock record yet reads as zero.
func (l *Ledger) Quantity(ctx context.Context, productID, warehouseID uuid.UUID) (int, error) {
	var record models.StockRecord
	err := l.db.WithContext(ctx).
		First(&record, "product_id = ? AND warehouse_id = ?", productID, warehouseID).
		Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("loading stock record: %w", err)
	}
	return record.Quantity, nil
}

// Adjust applies a signed quantity change to the pair and returns the new
// balance. The stock row is locked for the remainder of the transaction, and
// the record is created lazily on the first credit. A change that would drive
// the balance negative is rejected with an INSUFFICIENT_STOCK error and
// nothing is written.
func (l *Ledger) Adjust(ctx context.Context, productID, warehouseID uuid.UUID, change int) (int, error) {
	if change == 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "stock adjustment must be non-zero")
	}
	if productID == uuid.Nil || warehouseID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "product and warehouse are required")
	}

	tx := l.db.WithContext(ctx)

	var record models.StockRecord
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&record, "product_id = ? AND warehouse_id = ?", productID, warehouseID).
		Error

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		if change < 0 {
			return 0, pkgerrors.InsufficientStock(productID, warehouseID, 0, -change)
		}
		record = models.StockRecord{
			ProductID:   productID,
			WarehouseID: warehouseID,
			Quantity:    change,
		}
		if err := tx.Create(&record).Error; err != nil {
			return 0, fmt.Errorf("creating stock record: %w", err)
		}
		return record.Quantity, nil

	case err != nil:
		return 0, fmt.Errorf("locking stock record: %w", err)
	}

	next := record.Quantity + change
	if next < 0 {
		return 0, pkgerrors.InsufficientStock(productID, warehouseID, record.Quantity, -change)
	}

	if err := tx.Model(&models.StockRecord{}).
		Where("product_id = ? AND warehouse_id = ?", productID, warehouseID).
		Update("quantity", next).
		Error; err != nil {
		return 0, fmt.Errorf("updating stock record: %w", err)
	}
	return next, nil
}

// ListByWarehouse returns all stock records held at a warehouse.
func (l *Ledger) ListByWarehouse(ctx context.Context, warehouseID uuid.UUID) ([]models.StockRecord, error) {
	var records []models.StockRecord
	if err := l.db.WithContext(ctx).
		Where("warehouse_id = ?", warehouseID).
		Order("product_id").
		Find(&records).
		Error; err != nil {
		return nil, fmt.Errorf("listing stock records: %w", err)
	}
	return records, nil
}

// ListByProduct returns the product's stock records across all warehouses.
func (l *Ledger) ListByProduct(ctx context.Context, productID uuid.UUID) ([]models.StockRecord, error) {
	var records []models.StockRecord
	if err := l.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("warehouse_id").
		Find(&records).
		Error; err != nil {
		return nil, fmt.Errorf("listing stock records: %w", err)
	}
	return records, nil
}
