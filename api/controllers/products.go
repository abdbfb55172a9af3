package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/khoatrankai/autoparts-backoffice/api/responses"
	"github.com/khoatrankai/autoparts-backoffice/api/validators"
	"github.com/khoatrankai/autoparts-backoffice/internal/products"
	"github.com/khoatrankai/autoparts-backoffice/pkg/db/models"
	pkgerrors "github.com/khoatrankai/autoparts-backoffice/pkg/errors"
	"github.com/khoatrankai/autoparts-backoffice/pkg/logger"
)

type createProductRequest struct {
	SKU         string `json:"sku" validate:"required"`
	Name        string `json:"name" validate:"required"`
	Brand       string `json:"brand,omitempty"`
	Unit        string `json:"unit" validate:"required"`
	CostPrice   string `json:"cost_price" validate:"required"`
	RetailPrice string `json:"retail_price" validate:"required"`
	MinStock    int    `json:"min_stock,omitempty" validate:"omitempty,min=0"`
	IsActive    *bool  `json:"is_active,omitempty"`
}

type updateProductRequest struct {
	Name        *string `json:"name,omitempty"`
	Brand       *string `json:"brand,omitempty"`
	Unit        *string `json:"unit,omitempty"`
	CostPrice   *string `json:"cost_price,omitempty"`
	RetailPrice *string `json:"retail_price,omitempty"`
	MinStock    *int    `json:"min_stock,omitempty" validate:"omitempty,min=0"`
	IsActive    *bool   `json:"is_active,omitempty"`
}

type productResponse struct {
	ID          string    `json:"id"`
	SKU         string    `json:"sku"`
	Name        string    `json:"name"`
	Brand       string    `json:"brand,omitempty"`
	Unit        string    `json:"unit"`
	CostPrice   string    `json:"cost_price"`
	RetailPrice string    `json:"retail_price"`
	MinStock    int       `json:"min_stock"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toProductResponse(p *models.Product) productResponse {
	return productResponse{
		ID:          p.ID.String(),
		SKU:         p.SKU,
		Name:        p.Name,
		Brand:       p.Brand,
		Unit:        p.Unit,
		CostPrice:   p.CostPrice.StringFixed(2),
		RetailPrice: p.RetailPrice.StringFixed(2),
		MinStock:    p.MinStock,
		IsActive:    p.IsActive,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func parseAmount(raw, field string) (decimal.Decimal, error) {
	value, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "amount must be a decimal string").WithDetails(map[string]any{"field": field})
	}
	if value.IsNegative() {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "amount must not be negative").WithDetails(map[string]any{"field": field})
	}
	return value, nil
}

func CreateProduct(repo *products.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload createProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cost, err := parseAmount(payload.CostPrice, "cost_price")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		retail, err := parseAmount(payload.RetailPrice, "retail_price")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product := &models.Product{
			SKU:         strings.TrimSpace(payload.SKU),
			Name:        strings.TrimSpace(payload.Name),
			Brand:       strings.TrimSpace(payload.Brand),
			Unit:        strings.TrimSpace(payload.Unit),
			CostPrice:   cost,
			RetailPrice: retail,
			MinStock:    payload.MinStock,
			IsActive:    true,
		}
		if payload.IsActive != nil {
			product.IsActive = *payload.IsActive
		}

		created, err := repo.Create(r.Context(), product)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, toProductResponse(created))
	}
}

func GetProduct(repo *products.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathUUID(chi.URLParam(r, "id"), "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := repo.FindByID(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, toProductResponse(product))
	}
}

func ListProducts(repo *products.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		activeOnly := strings.EqualFold(r.URL.Query().Get("active"), "true")

		items, err := repo.List(r.Context(), activeOnly)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]productResponse, 0, len(items))
		for i := range items {
			out = append(out, toProductResponse(&items[i]))
		}
		responses.WriteSuccess(w, out)
	}
}

func UpdateProduct(repo *products.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathUUID(chi.URLParam(r, "id"), "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := repo.FindByID(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if payload.Name != nil {
			product.Name = strings.TrimSpace(*payload.Name)
		}
		if payload.Brand != nil {
			product.Brand = strings.TrimSpace(*payload.Brand)
		}
		if payload.Unit != nil {
			product.Unit = strings.TrimSpace(*payload.Unit)
		}
		if payload.CostPrice != nil {
			cost, perr := parseAmount(*payload.CostPrice, "cost_price")
			if perr != nil {
				responses.WriteError(r.Context(), logg, w, perr)
				return
			}
			product.CostPrice = cost
		}
		if payload.RetailPrice != nil {
			retail, perr := parseAmount(*payload.RetailPrice, "retail_price")
			if perr != nil {
				responses.WriteError(r.Context(), logg, w, perr)
				return
			}
			product.RetailPrice = retail
		}
		if payload.MinStock != nil {
			product.MinStock = *payload.MinStock
		}
		if payload.IsActive != nil {
			product.IsActive = *payload.IsActive
		}

		updated, err := repo.Update(r.Context(), product)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, toProductResponse(updated))
	}
}
