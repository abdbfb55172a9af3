package stock

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/khoatrankai/autoparts-backoffice/pkg/db/models"
	"github.com/khoatrankai/autoparts-backoffice/pkg/enums"
	pkgerrors "github.com/khoatrankai/autoparts-backoffice/pkg/errors"
	"github.com/khoatrankai/autoparts-backoffice/pkg/pagination"
)

// Journal is the append-only movement history. Entries are never updated or
// deleted; corrections are expressed as compensating entries.
type Journal struct {
	db *gorm.DB
}

// NewJournal builds a journal tied to the provided GORM DB.
func NewJournal(db *gorm.DB) *Journal {
	return &Journal{db: db}
}

// WithTx returns a journal bound to the provided transaction.
func (j *Journal) WithTx(tx *gorm.DB) *Journal {
	return &Journal{db: tx}
}

// Append records one movement entry. The caller supplies BalanceAfter from the
// ledger adjustment made in the same transaction.
func (j *Journal) Append(ctx context.Context, entry *models.MovementEntry) error {
	if entry == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "movement entry is required")
	}
	if !entry.Kind.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid movement kind %q", entry.Kind))
	}
	if entry.ChangeAmount == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "movement change amount must be non-zero")
	}
	if entry.BalanceAfter < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "movement balance must not be negative")
	}
	if entry.ProductID == uuid.Nil || entry.WarehouseID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product and warehouse are required")
	}

	if err := j.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("appending movement entry: %w", err)
	}
	return nil
}

// PageQuery bounds a journal listing. BeforeID of zero starts from the newest
// entry; entries are always returned newest first.
type PageQuery struct {
	Limit    int
	BeforeID uint64
}

// ListByPair returns movement entries for one (product, warehouse) pair,
// newest first. The second return value is the BeforeID for the next page, or
// zero when the listing is exhausted.
func (j *Journal) ListByPair(ctx context.Context, productID, warehouseID uuid.UUID, page PageQuery) ([]models.MovementEntry, uint64, error) {
	query := j.db.WithContext(ctx).
		Where("product_id = ? AND warehouse_id = ?", productID, warehouseID)
	return j.list(query, page)
}

// ListByProduct returns movement entries for one product across all
// warehouses, newest first.
func (j *Journal) ListByProduct(ctx context.Context, productID uuid.UUID, page PageQuery) ([]models.MovementEntry, uint64, error) {
	query := j.db.WithContext(ctx).
		Where("product_id = ?", productID)
	return j.list(query, page)
}

// ListByReference returns every entry stamped with the document reference
// code, oldest first so the document's legs read in application order.
func (j *Journal) ListByReference(ctx context.Context, referenceCode string) ([]models.MovementEntry, error) {
	var entries []models.MovementEntry
	if err := j.db.WithContext(ctx).
		Where("reference_code = ?", referenceCode).
		Order("id ASC").
		Find(&entries).
		Error; err != nil {
		return nil, fmt.Errorf("listing movement entries: %w", err)
	}
	return entries, nil
}

// LatestForPair returns the most recent entry for the pair, or nil when the
// pair has no history yet.
func (j *Journal) LatestForPair(ctx context.Context, productID, warehouseID uuid.UUID) (*models.MovementEntry, error) {
	var entry models.MovementEntry
	err := j.db.WithContext(ctx).
		Where("product_id = ? AND warehouse_id = ?", productID, warehouseID).
		Order("id DESC").
		First(&entry).
		Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading latest movement entry: %w", err)
	}
	return &entry, nil
}

// AscendingByPair returns the pair's full history oldest first. Reconciliation
// and stock card reads replay history in this order.
func (j *Journal) AscendingByPair(ctx context.Context, productID, warehouseID uuid.UUID) ([]models.MovementEntry, error) {
	var entries []models.MovementEntry
	if err := j.db.WithContext(ctx).
		Where("product_id = ? AND warehouse_id = ?", productID, warehouseID).
		Order("id ASC").
		Find(&entries).
		Error; err != nil {
		return nil, fmt.Errorf("listing movement entries: %w", err)
	}
	return entries, nil
}

// Pairs returns every (product, warehouse) pair present in the journal.
func (j *Journal) Pairs(ctx context.Context) ([]models.StockRecord, error) {
	var pairs []models.StockRecord
	if err := j.db.WithContext(ctx).
		Model(&models.MovementEntry{}).
		Distinct("product_id", "warehouse_id").
		Find(&pairs).
		Error; err != nil {
		return nil, fmt.Errorf("listing journal pairs: %w", err)
	}
	return pairs, nil
}

// SumByKind aggregates signed change amounts per movement kind for a pair.
func (j *Journal) SumByKind(ctx context.Context, productID, warehouseID uuid.UUID) (map[enums.MovementKind]int, error) {
	type kindSum struct {
		Kind  enums.MovementKind
		Total int
	}
	var rows []kindSum
	if err := j.db.WithContext(ctx).
		Model(&models.MovementEntry{}).
		Select("kind, SUM(change_amount) AS total").
		Where("product_id = ? AND warehouse_id = ?", productID, warehouseID).
		Group("kind").
		Find(&rows).
		Error; err != nil {
		return nil, fmt.Errorf("summing movement entries: %w", err)
	}

	sums := make(map[enums.MovementKind]int, len(rows))
	for _, row := range rows {
		sums[row.Kind] = row.Total
	}
	return sums, nil
}

func (j *Journal) list(query *gorm.DB, page PageQuery) ([]models.MovementEntry, uint64, error) {
	limit := pagination.NormalizeLimit(page.Limit)
	if page.BeforeID > 0 {
		query = query.Where("id < ?", page.BeforeID)
	}

	var entries []models.MovementEntry
	if err := query.
		Order("id DESC").
		Limit(limit + 1).
		Find(&entries).
		Error; err != nil {
		return nil, 0, fmt.Errorf("listing movement entries: %w", err)
	}

	var nextBefore uint64
	if len(entries) > limit {
		entries = entries[:limit]
		nextBefore = entries[len(entries)-1].ID
	}
	return entries, nextBefore, nil
}
