package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/khoatrankai/autoparts-backoffice/api/responses"
	"github.com/khoatrankai/autoparts-backoffice/api/validators"
	"github.com/khoatrankai/autoparts-backoffice/internal/transfers"
	"github.com/khoatrankai/autoparts-backoffice/pkg/db/models"
	"github.com/khoatrankai/autoparts-backoffice/pkg/enums"
	pkgerrors "github.com/khoatrankai/autoparts-backoffice/pkg/errors"
	"github.com/khoatrankai/autoparts-backoffice/pkg/logger"
)

type transferLineRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Quantity  int    `json:"quantity" validate:"required,min=1"`
}

type createTransferRequest struct {
	FromWarehouseID string                `json:"from_warehouse_id" validate:"required,uuid"`
	ToWarehouseID   string                `json:"to_warehouse_id" validate:"required,uuid"`
	StaffID         string                `json:"staff_id" validate:"required,uuid"`
	Items           []transferLineRequest `json:"items" validate:"required,min=1,dive"`
	Note            string                `json:"note,omitempty"`
	Code            string                `json:"code,omitempty"`
}

type rejectTransferRequest struct {
	Reason string `json:"reason" validate:"required"`
}

type transferItemResponse struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	SKU       string `json:"sku,omitempty"`
	Name      string `json:"name,omitempty"`
	Price     string `json:"price,omitempty"`
	Total     string `json:"total,omitempty"`
}

type transferResponse struct {
	ID              string                 `json:"id"`
	Code            string                 `json:"code"`
	FromWarehouseID string                 `json:"from_warehouse_id"`
	ToWarehouseID   string                 `json:"to_warehouse_id"`
	StaffID         string                 `json:"staff_id"`
	Status          string                 `json:"status"`
	Note            string                 `json:"note,omitempty"`
	Items           []transferItemResponse `json:"items,omitempty"`
	TotalValue      string                 `json:"total_value,omitempty"`
	CreatedAt       time.Time              `json:"created_at"`
}

func toTransferResponse(t *models.Transfer) transferResponse {
	resp := transferResponse{
		ID:              t.ID.String(),
		Code:            t.Code,
		FromWarehouseID: t.FromWarehouseID.String(),
		ToWarehouseID:   t.ToWarehouseID.String(),
		StaffID:         t.StaffID.String(),
		Status:          t.Status.String(),
		Note:            t.Note,
		CreatedAt:       t.CreatedAt,
	}
	for _, item := range t.Items {
		resp.Items = append(resp.Items, transferItemResponse{
			ProductID: item.ProductID.String(),
			Quantity:  item.Quantity,
		})
	}
	return resp
}

func toTransferViewResponse(view *transfers.TransferView) transferResponse {
	resp := toTransferResponse(&view.Transfer)
	resp.Items = resp.Items[:0]
	for _, item := range view.ItemViews {
		resp.Items = append(resp.Items, transferItemResponse{
			ProductID: item.ProductID.String(),
			Quantity:  item.Quantity,
			SKU:       item.SKU,
			Name:      item.Name,
			Price:     item.Price.StringFixed(2),
			Total:     item.Total.StringFixed(2),
		})
	}
	resp.TotalValue = view.TotalValue.StringFixed(2)
	return resp
}

// CreateTransfer debits the source warehouse and stages a pending transfer.
func CreateTransfer(svc transfers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "transfer service unavailable"))
			return
		}

		var payload createTransferRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		fromID, _ := uuid.Parse(payload.FromWarehouseID)
		toID, _ := uuid.Parse(payload.ToWarehouseID)
		staffID, _ := uuid.Parse(payload.StaffID)

		input := transfers.CreateInput{
			FromWarehouseID: fromID,
			ToWarehouseID:   toID,
			StaffID:         staffID,
			Note:            strings.TrimSpace(payload.Note),
			Code:            strings.TrimSpace(payload.Code),
		}
		for _, line := range payload.Items {
			productID, err := uuid.Parse(line.ProductID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "item product_id must be a uuid"))
				return
			}
			input.Items = append(input.Items, transfers.LineInput{
				ProductID: productID,
				Quantity:  line.Quantity,
			})
		}

		transfer, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, toTransferResponse(transfer))
	}
}

// ReceiveTransfer confirms arrival and credits the destination warehouse.
func ReceiveTransfer(svc transfers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathUUID(chi.URLParam(r, "id"), "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		transfer, err := svc.Receive(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, toTransferResponse(transfer))
	}
}

// RejectTransfer cancels a pending transfer and restores the source stock.
func RejectTransfer(svc transfers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathUUID(chi.URLParam(r, "id"), "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload rejectTransferRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		transfer, err := svc.Reject(r.Context(), id, strings.TrimSpace(payload.Reason))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, toTransferResponse(transfer))
	}
}

func GetTransfer(svc transfers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathUUID(chi.URLParam(r, "id"), "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.FindByID(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, toTransferViewResponse(view))
	}
}

func ListTransfers(svc transfers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := strings.TrimSpace(r.URL.Query().Get("status"))
		if status != "" {
			if _, err := enums.ParseTransferStatus(status); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid transfer status"))
				return
			}
		}

		items, err := svc.List(r.Context(), status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]transferResponse, 0, len(items))
		for i := range items {
			out = append(out, toTransferResponse(&items[i]))
		}
		responses.WriteSuccess(w, out)
	}
}
