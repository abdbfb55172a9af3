package returns

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/khoatrankai/autoparts-backoffice/pkg/db"
	"github.com/khoatrankai/autoparts-backoffice/pkg/db/models"
	pkgerrors "github.com/khoatrankai/autoparts-backoffice/pkg/errors"
)

// Repository manages persistence for return documents.
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

// Create inserts the return header and its items.
func (r *Repository) Create(ctx context.Context, ret *models.Return) (*models.Return, error) {
	if err := r.db.WithContext(ctx).Create(ret).Error; err != nil {
		if db.IsUniqueViolation(err) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, fmt.Sprintf("return code %q already exists", ret.Code))
		}
		return nil, fmt.Errorf("creating return: %w", err)
	}
	return ret, nil
}

// FindByID loads the return with its items.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Return, error) {
	var ret models.Return
	err := r.db.WithContext(ctx).
		Preload("Items").
		First(&ret, "id = ?", id).
		Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.NotFound("return", id)
	}
	if err != nil {
		return nil, fmt.Errorf("loading return: %w", err)
	}
	return &ret, nil
}

// List returns return documents newest first.
func (r *Repository) List(ctx context.Context, partnerID uuid.UUID) ([]models.Return, error) {
	query := r.db.WithContext(ctx).Model(&models.Return{})
	if partnerID != uuid.Nil {
		query = query.Where("partner_id = ?", partnerID)
	}

	var listed []models.Return
	if err := query.
		Preload("Items").
		Order("created_at DESC").
		Find(&listed).
		Error; err != nil {
		return nil, fmt.Errorf("listing returns: %w", err)
	}
	return listed, nil
}
