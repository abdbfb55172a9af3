package warehouses

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

// Repository wires together warehouse persistence helpers.
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

// Create inserts a new warehouse.
func (r *Repository) Create(ctx context.Context, warehouse *models.Warehouse) (*models.Warehouse, error) {
	if err := r.db.WithContext(ctx).Create(warehouse).Error; err != nil {
		if db.IsUniqueViolation(err) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, fmt.Sprintf("warehouse code %q already exists", warehouse.Code))
		}
		return nil, fmt.Errorf("creating warehouse: %w", err)
	}
	return warehouse, nil
}

// FindByID loads one warehouse.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Warehouse, error) {
	var warehouse models.Warehouse
	err := r.db.WithContext(ctx).First(&warehouse, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.NotFound("warehouse", id)
	}
	if err != nil {
		return nil, fmt.Errorf("loading warehouse: %w", err)
	}
	return &warehouse, nil
}

// MustExist verifies the warehouse exists and is active.
func (r *Repository) MustExist(ctx context.Context, id uuid.UUID) error {
	warehouse, err := r.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !warehouse.IsActive {
		return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("warehouse %s is inactive", warehouse.Code))
	}
	return nil
}

// List returns all warehouses ordered by code.
func (r *Repository) List(ctx context.Context) ([]models.Warehouse, error) {
	var listed []models.Warehouse
	if err := r.db.WithContext(ctx).Order("code").Find(&listed).Error; err != nil {
		return nil, fmt.Errorf("listing warehouses: %w", err)
	}
	return listed, nil
}
