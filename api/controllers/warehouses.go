package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/khoatrankai/autoparts-backoffice/api/responses"
	"github.com/khoatrankai/autoparts-backoffice/api/validators"
	"github.com/khoatrankai/autoparts-backoffice/internal/stock"
	"github.com/khoatrankai/autoparts-backoffice/internal/warehouses"
	"github.com/khoatrankai/autoparts-backoffice/pkg/db/models"
	"github.com/khoatrankai/autoparts-backoffice/pkg/enums"
	pkgerrors "github.com/khoatrankai/autoparts-backoffice/pkg/errors"
	"github.com/khoatrankai/autoparts-backoffice/pkg/logger"
)

type createWarehouseRequest struct {
	Code    string `json:"code" validate:"required"`
	Name    string `json:"name" validate:"required"`
	Type    string `json:"type" validate:"required"`
	Address string `json:"address,omitempty"`
}

type warehouseResponse struct {
	ID        string    `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	Address   string    `json:"address,omitempty"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

type warehouseStockResponse struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

func toWarehouseResponse(wh *models.Warehouse) warehouseResponse {
	return warehouseResponse{
		ID:        wh.ID.String(),
		Code:      wh.Code,
		Name:      wh.Name,
		Type:      string(wh.Type),
		Address:   wh.Address,
		IsActive:  wh.IsActive,
		CreatedAt: wh.CreatedAt,
	}
}

func CreateWarehouse(repo *warehouses.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload createWarehouseRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		whType, err := enums.ParseWarehouseType(strings.TrimSpace(payload.Type))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid warehouse type"))
			return
		}

		warehouse := &models.Warehouse{
			Code:     strings.TrimSpace(payload.Code),
			Name:     strings.TrimSpace(payload.Name),
			Type:     whType,
			Address:  strings.TrimSpace(payload.Address),
			IsActive: true,
		}

		created, err := repo.Create(r.Context(), warehouse)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, toWarehouseResponse(created))
	}
}

func GetWarehouse(repo *warehouses.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathUUID(chi.URLParam(r, "id"), "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		warehouse, err := repo.FindByID(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, toWarehouseResponse(warehouse))
	}
}

func ListWarehouses(repo *warehouses.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := repo.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]warehouseResponse, 0, len(items))
		for i := range items {
			out = append(out, toWarehouseResponse(&items[i]))
		}
		responses.WriteSuccess(w, out)
	}
}

// WarehouseStock lists current on-hand quantities per product at one location.
func WarehouseStock(ledger *stock.Ledger, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathUUID(chi.URLParam(r, "id"), "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		records, err := ledger.ListByWarehouse(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]warehouseStockResponse, 0, len(records))
		for _, record := range records {
			out = append(out, warehouseStockResponse{
				ProductID: record.ProductID.String(),
				Quantity:  record.Quantity,
			})
		}
		responses.WriteSuccess(w, out)
	}
}
