// Package stockcard rebuilds per-product movement history with running
// balances. The journal's stored balance_after is the authoritative source;
// the sales-only back-calculation survives for history that predates the
// journal.
package stockcard

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/khoatrankai/autoparts-backoffice/internal/stock"
	"github.com/khoatrankai/autoparts-backoffice/pkg/db/models"
	"github.com/khoatrankai/autoparts-backoffice/pkg/enums"
	pkgerrors "github.com/khoatrankai/autoparts-backoffice/pkg/errors"
)

// Entry is one stock card row.
type Entry struct {
	EntryID       uint64             `json:"entry_id,omitempty"`
	WarehouseID   uuid.UUID          `json:"warehouse_id"`
	Kind          enums.MovementKind `json:"kind"`
	ChangeAmount  int                `json:"change_amount"`
	BalanceAfter  int                `json:"balance_after"`
	ReferenceCode string             `json:"reference_code,omitempty"`
	OccurredAt    time.Time          `json:"occurred_at"`
}

// PairCheck is the outcome of verifying one (product, warehouse) pair.
type PairCheck struct {
	ProductID   uuid.UUID
	WarehouseID uuid.UUID
	LedgerQty   int
	JournalQty  int
	HasJournal  bool
	Consistent  bool
}

// Reconstructor produces stock card views and consistency checks.
type Reconstructor struct {
	db      *gorm.DB
	ledger  *stock.Ledger
	journal *stock.Journal
}

// NewReconstructor builds a reconstructor over the shared store.
func NewReconstructor(db *gorm.DB, ledger *stock.Ledger, journal *stock.Journal) (*Reconstructor, error) {
	if db == nil {
		return nil, fmt.Errorf("db required")
	}
	if ledger == nil {
		return nil, fmt.Errorf("stock ledger required")
	}
	if journal == nil {
		return nil, fmt.Errorf("movement journal required")
	}
	return &Reconstructor{db: db, ledger: ledger, journal: journal}, nil
}

// FromJournal returns the product's movement history straight from the
// journal, newest first and merged across all kinds. Balances are the stored
// balance_after values, so no re-derivation happens.
func (r *Reconstructor) FromJournal(ctx context.Context, productID uuid.UUID, page stock.PageQuery) ([]Entry, uint64, error) {
	if productID == uuid.Nil {
		return nil, 0, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}

	rows, next, err := r.journal.ListByProduct(ctx, productID, page)
	if err != nil {
		return nil, 0, err
	}

	entries := make([]Entry, len(rows))
	for i, row := range rows {
		entries[i] = Entry{
			EntryID:       row.ID,
			WarehouseID:   row.WarehouseID,
			Kind:          row.Kind,
			ChangeAmount:  row.ChangeAmount,
			BalanceAfter:  row.BalanceAfter,
			ReferenceCode: row.ReferenceCode,
			OccurredAt:    row.CreatedAt,
		}
	}
	return entries, next, nil
}

// BackCalculate rebuilds a sales-only card by walking completed sales newest
// first from the product's current total stock. Each row's balance is the
// stock immediately after that sale; stepping back adds the sold quantity.
// Movements of other kinds inside the window make older balances drift, which
// is the accepted limit of this view.
func (r *Reconstructor) BackCalculate(ctx context.Context, productID uuid.UUID) ([]Entry, error) {
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}

	records, err := r.ledger.ListByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	running := 0
	for _, record := range records {
		running += record.Quantity
	}

	var sales []saleRow
	if err := r.db.WithContext(ctx).
		Model(&models.OrderItem{}).
		Select("order_items.quantity, order_items.created_at, orders.code, orders.warehouse_id").
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("order_items.product_id = ? AND orders.status IN ?", productID,
			[]string{string(enums.OrderStatusCompleted), string(enums.OrderStatusReturned)}).
		Order("order_items.created_at DESC").
		Find(&sales).
		Error; err != nil {
		return nil, fmt.Errorf("loading sales history: %w", err)
	}

	entries := make([]Entry, 0, len(sales))
	for _, sale := range sales {
		entries = append(entries, Entry{
			WarehouseID:   sale.WarehouseID,
			Kind:          enums.MovementKindSale,
			ChangeAmount:  -sale.Quantity,
			BalanceAfter:  running,
			ReferenceCode: sale.Code,
			OccurredAt:    sale.CreatedAt,
		})
		running += sale.Quantity
	}
	return entries, nil
}

type saleRow struct {
	Quantity    int
	CreatedAt   time.Time
	Code        string
	WarehouseID uuid.UUID
}

// VerifyPair checks that the pair's latest journal balance matches the stock
// record. Pairs with no journal history are vacuously consistent.
func (r *Reconstructor) VerifyPair(ctx context.Context, productID, warehouseID uuid.UUID) (*PairCheck, error) {
	if productID == uuid.Nil || warehouseID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product and warehouse are required")
	}

	quantity, err := r.ledger.Quantity(ctx, productID, warehouseID)
	if err != nil {
		return nil, err
	}

	latest, err := r.journal.LatestForPair(ctx, productID, warehouseID)
	if err != nil {
		return nil, err
	}

	check := &PairCheck{
		ProductID:   productID,
		WarehouseID: warehouseID,
		LedgerQty:   quantity,
	}
	if latest == nil {
		check.Consistent = true
		return check, nil
	}
	check.HasJournal = true
	check.JournalQty = latest.BalanceAfter
	check.Consistent = latest.BalanceAfter == quantity
	return check, nil
}
