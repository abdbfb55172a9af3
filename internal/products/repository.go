package products

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

// Repository wires together product catalog persistence helpers.
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

// Create inserts a new product.
func (r *Repository) Create(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		if db.IsUniqueViolation(err) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, fmt.Sprintf("product sku %q already exists", product.SKU))
		}
		return nil, fmt.Errorf("creating product: %w", err)
	}
	return product, nil
}

// FindByID loads one product.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.NotFound("product", id)
	}
	if err != nil {
		return nil, fmt.Errorf("loading product: %w", err)
	}
	return &product, nil
}

// FindByIDs loads several products keyed by id. Missing ids surface as a
// NOT_FOUND error naming the first absent product.
func (r *Repository) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error) {
	var listed []models.Product
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&listed).Error; err != nil {
		return nil, fmt.Errorf("loading products: %w", err)
	}

	byID := make(map[uuid.UUID]models.Product, len(listed))
	for _, product := range listed {
		byID[product.ID] = product
	}
	for _, id := range ids {
		if _, ok := byID[id]; !ok {
			return nil, pkgerrors.NotFound("product", id)
		}
	}
	return byID, nil
}

// Update persists mutable product fields.
func (r *Repository) Update(ctx context.Context, product *models.Product) (*models.Product, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", product.ID).
		Updates(map[string]any{
			"name":         product.Name,
			"brand":        product.Brand,
			"unit":         product.Unit,
			"cost_price":   product.CostPrice,
			"retail_price": product.RetailPrice,
			"min_stock":    product.MinStock,
			"is_active":    product.IsActive,
		})
	if result.Error != nil {
		return nil, fmt.Errorf("updating product: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, pkgerrors.NotFound("product", product.ID)
	}
	return r.FindByID(ctx, product.ID)
}

// List returns catalog products, optionally filtered to active ones.
func (r *Repository) List(ctx context.Context, activeOnly bool) ([]models.Product, error) {
	query := r.db.WithContext(ctx).Model(&models.Product{})
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}

	var listed []models.Product
	if err := query.Order("sku").Find(&listed).Error; err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	return listed, nil
}
