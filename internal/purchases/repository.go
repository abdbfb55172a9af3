package purchases

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/khoatrankai/autoparts-backoffice/pkg/db"
	"github.com/khoatrankai/autoparts-backoffice/pkg/db/models"
	"github.com/khoatrankai/autoparts-backoffice/pkg/enums"
	pkgerrors "github.com/khoatrankai/autoparts-backoffice/pkg/errors"
)

// Repository manages persistence for purchase receipts.
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

// Create inserts the purchase header and its items.
func (r *Repository) Create(ctx context.Context, purchase *models.PurchaseOrder) (*models.PurchaseOrder, error) {
	if err := r.db.WithContext(ctx).Create(purchase).Error; err != nil {
		if db.IsUniqueViolation(err) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, fmt.Sprintf("purchase code %q already exists", purchase.Code))
		}
		return nil, fmt.Errorf("creating purchase: %w", err)
	}
	return purchase, nil
}

// FindByID loads the purchase with its items.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.PurchaseOrder, error) {
	var purchase models.PurchaseOrder
	err := r.db.WithContext(ctx).
		Preload("Items").
		First(&purchase, "id = ?", id).
		Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.NotFound("purchase", id)
	}
	if err != nil {
		return nil, fmt.Errorf("loading purchase: %w", err)
	}
	return &purchase, nil
}

// ClaimDraft promotes a draft purchase to completed. The guarded WHERE makes
// completion apply exactly once.
func (r *Repository) ClaimDraft(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Model(&models.PurchaseOrder{}).
		Where("id = ? AND status = ?", id, enums.DocumentStatusDraft).
		Update("status", enums.DocumentStatusCompleted)
	if result.Error != nil {
		return fmt.Errorf("claiming purchase: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("purchase %s is not a draft", id))
	}
	return nil
}

// List returns purchases newest first, optionally filtered by status.
func (r *Repository) List(ctx context.Context, status string) ([]models.PurchaseOrder, error) {
	query := r.db.WithContext(ctx).Model(&models.PurchaseOrder{})
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var listed []models.PurchaseOrder
	if err := query.
		Preload("Items").
		Order("created_at DESC").
		Find(&listed).
		Error; err != nil {
		return nil, fmt.Errorf("listing purchases: %w", err)
	}
	return listed, nil
}
