package transfers

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

// Repository manages persistence for inter-warehouse transfers.
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

// Create inserts the transfer header and its items.
func (r *Repository) Create(ctx context.Context, transfer *models.Transfer) (*models.Transfer, error) {
	if err := r.db.WithContext(ctx).Create(transfer).Error; err != nil {
		if db.IsUniqueViolation(err) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, fmt.Sprintf("transfer code %q already exists", transfer.Code))
		}
		return nil, fmt.Errorf("creating transfer: %w", err)
	}
	return transfer, nil
}

// FindByID loads the transfer with its items.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Transfer, error) {
	var transfer models.Transfer
	err := r.db.WithContext(ctx).
		Preload("Items").
		First(&transfer, "id = ?", id).
		Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.NotFound("transfer", id)
	}
	if err != nil {
		return nil, fmt.Errorf("loading transfer: %w", err)
	}
	return &transfer, nil
}

// ClaimPending flips a pending transfer to the target status. The guarded
// WHERE makes the claim first-writer-wins: a second concurrent receive or
// reject matches zero rows and surfaces as STATE_CONFLICT.
func (r *Repository) ClaimPending(ctx context.Context, id uuid.UUID, target enums.TransferStatus, note string) error {
	updates := map[string]any{"status": target}
	if note != "" {
		updates["note"] = note
	}

	result := r.db.WithContext(ctx).
		Model(&models.Transfer{}).
		Where("id = ? AND status = ?", id, enums.TransferStatusPending).
		Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("claiming transfer: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("transfer %s is not pending", id))
	}
	return nil
}

// List returns transfers newest first, optionally filtered by status.
func (r *Repository) List(ctx context.Context, status string) ([]models.Transfer, error) {
	query := r.db.WithContext(ctx).Model(&models.Transfer{})
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var listed []models.Transfer
	if err := query.
		Preload("Items").
		Order("created_at DESC").
		Find(&listed).
		Error; err != nil {
		return nil, fmt.Errorf("listing transfers: %w", err)
	}
	return listed, nil
}
