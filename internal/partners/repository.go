package partners

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/khoatrankai/autoparts-backoffice/pkg/db"
	"github.com/khoatrankai/autoparts-backoffice/pkg/db/models"
	pkgerrors "github.com/khoatrankai/autoparts-backoffice/pkg/errors"
)

// Repository wires together partner persistence helpers.
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

// Create inserts a new partner.
func (r *Repository) Create(ctx context.Context, partner *models.Partner) (*models.Partner, error) {
	if err := r.db.WithContext(ctx).Create(partner).Error; err != nil {
		if db.IsUniqueViolation(err) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, fmt.Sprintf("partner code %q already exists", partner.Code))
		}
		return nil, fmt.Errorf("creating partner: %w", err)
	}
	return partner, nil
}

// FindByID loads the partner without locking.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Partner, error) {
	var partner models.Partner
	err := r.db.WithContext(ctx).First(&partner, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.NotFound("partner", id)
	}
	if err != nil {
		return nil, fmt.Errorf("loading partner: %w", err)
	}
	return &partner, nil
}

// FindByIDForUpdate loads the partner with a row lock. Workflows that adjust
// debt take the lock before checking the credit limit so concurrent orders for
// the same partner serialize.
func (r *Repository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Partner, error) {
	var partner models.Partner
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&partner, "id = ?", id).
		Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.NotFound("partner", id)
	}
	if err != nil {
		return nil, fmt.Errorf("locking partner: %w", err)
	}
	return &partner, nil
}

// ApplyAdjustment moves the partner's debt and revenue balances by the given
// signed deltas. Callers hold the row lock from FindByIDForUpdate.
func (r *Repository) ApplyAdjustment(ctx context.Context, id uuid.UUID, debtDelta, revenueDelta decimal.Decimal) error {
	result := r.db.WithContext(ctx).
		Model(&models.Partner{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"current_debt":  gorm.Expr("current_debt + ?", debtDelta),
			"total_revenue": gorm.Expr("total_revenue + ?", revenueDelta),
		})
	if result.Error != nil {
		return fmt.Errorf("adjusting partner balances: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return pkgerrors.NotFound("partner", id)
	}
	return nil
}

// UpdateStatus flips the partner's trading status.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	result := r.db.WithContext(ctx).
		Model(&models.Partner{}).
		Where("id = ?", id).
		Update("status", status)
	if result.Error != nil {
		return fmt.Errorf("updating partner status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return pkgerrors.NotFound("partner", id)
	}
	return nil
}

// List returns partners filtered by type when provided, ordered by code.
func (r *Repository) List(ctx context.Context, partnerType string) ([]models.Partner, error) {
	query := r.db.WithContext(ctx).Model(&models.Partner{})
	if partnerType != "" {
		query = query.Where("type = ?", partnerType)
	}

	var listed []models.Partner
	if err := query.Order("code").Find(&listed).Error; err != nil {
		return nil, fmt.Errorf("listing partners: %w", err)
	}
	return listed, nil
}
