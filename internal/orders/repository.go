package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/khoatrankai/autoparts-backoffice/pkg/db"
	"github.com/khoatrankai/autoparts-backoffice/pkg/db/models"
	pkgerrors "github.com/khoatrankai/autoparts-backoffice/pkg/errors"
	"github.com/khoatrankai/autoparts-backoffice/pkg/pagination"
)

// Repository manages persistence for sales orders.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// Create inserts the order header and its items in one statement batch.
func (r *Repository) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		if db.IsUniqueViolation(err) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, fmt.Sprintf("order code %q already exists", order.Code))
		}
		return nil, fmt.Errorf("creating order: %w", err)
	}
	return order, nil
}

// FindByID loads the order with its line items.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		First(&order, "id = ?", id).
		Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.NotFound("order", id)
	}
	if err != nil {
		return nil, fmt.Errorf("loading order: %w", err)
	}
	return &order, nil
}

// FindByIDForUpdate loads the order header with a row lock.
func (r *Repository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&order, "id = ?", id).
		Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.NotFound("order", id)
	}
	if err != nil {
		return nil, fmt.Errorf("locking order: %w", err)
	}
	return &order, nil
}

// UpdateStatus sets the order status unconditionally. Callers enforce legal
// transitions before writing.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	result := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", id).
		Update("status", status)
	if result.Error != nil {
		return fmt.Errorf("updating order status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return pkgerrors.NotFound("order", id)
	}
	return nil
}

// ListFilter bounds an order listing.
type ListFilter struct {
	PartnerID   uuid.UUID
	WarehouseID uuid.UUID
	Status      string
	Page        pagination.Params
}

// List returns orders newest first with cursor pagination. The second return
// value is the cursor for the next page, empty when exhausted.
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]models.Order, string, error) {
	limit := pagination.NormalizeLimit(filter.Page.Limit)

	query := r.db.WithContext(ctx).Model(&models.Order{})
	if filter.PartnerID != uuid.Nil {
		query = query.Where("partner_id = ?", filter.PartnerID)
	}
	if filter.WarehouseID != uuid.Nil {
		query = query.Where("warehouse_id = ?", filter.WarehouseID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	cursor, err := pagination.ParseCursor(filter.Page.Cursor)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var listed []models.Order
	if err := query.
		Order("created_at DESC, id DESC").
		Limit(limit + 1).
		Find(&listed).
		Error; err != nil {
		return nil, "", fmt.Errorf("listing orders: %w", err)
	}

	next := ""
	if len(listed) > limit {
		listed = listed[:limit]
		last := listed[len(listed)-1]
		next = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return listed, next, nil
}

// CreateCashReceipt records money collected against an order.
func (r *Repository) CreateCashReceipt(ctx context.Context, receipt *models.CashReceipt) error {
	if err := r.db.WithContext(ctx).Create(receipt).Error; err != nil {
		return fmt.Errorf("creating cash receipt: %w", err)
	}
	return nil
}
