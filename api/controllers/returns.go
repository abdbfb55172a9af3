package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/khoatrankai/autoparts-backoffice/api/responses"
	"github.com/khoatrankai/autoparts-backoffice/api/validators"
	"github.com/khoatrankai/autoparts-backoffice/internal/returns"
	"github.com/khoatrankai/autoparts-backoffice/pkg/db/models"
	pkgerrors "github.com/khoatrankai/autoparts-backoffice/pkg/errors"
	"github.com/khoatrankai/autoparts-backoffice/pkg/logger"
)

type returnLineRequest struct {
	ProductID   string `json:"product_id" validate:"required,uuid"`
	Quantity    int    `json:"quantity" validate:"required,min=1"`
	RefundPrice string `json:"refund_price" validate:"required"`
}

type createReturnRequest struct {
	PartnerID   string              `json:"partner_id" validate:"required,uuid"`
	OrderID     string              `json:"order_id,omitempty" validate:"omitempty,uuid"`
	WarehouseID string              `json:"warehouse_id" validate:"required,uuid"`
	StaffID     string              `json:"staff_id" validate:"required,uuid"`
	Items       []returnLineRequest `json:"items" validate:"required,min=1,dive"`
	Reason      string              `json:"reason,omitempty"`
	Code        string              `json:"code,omitempty"`
}

type returnItemResponse struct {
	ProductID   string `json:"product_id"`
	SKU         string `json:"sku"`
	Name        string `json:"name"`
	Quantity    int    `json:"quantity"`
	RefundPrice string `json:"refund_price"`
}

type returnResponse struct {
	ID          string               `json:"id"`
	Code        string               `json:"code"`
	PartnerID   string               `json:"partner_id"`
	OrderID     string               `json:"order_id,omitempty"`
	WarehouseID string               `json:"warehouse_id"`
	TotalRefund string               `json:"total_refund"`
	Reason      string               `json:"reason,omitempty"`
	Status      string               `json:"status"`
	Items       []returnItemResponse `json:"items,omitempty"`
	CreatedAt   time.Time            `json:"created_at"`
}

func toReturnResponse(ret *models.Return) returnResponse {
	resp := returnResponse{
		ID:          ret.ID.String(),
		Code:        ret.Code,
		PartnerID:   ret.PartnerID.String(),
		WarehouseID: ret.WarehouseID.String(),
		TotalRefund: ret.TotalRefund.StringFixed(2),
		Reason:      ret.Reason,
		Status:      string(ret.Status),
		CreatedAt:   ret.CreatedAt,
	}
	if ret.OrderID != nil {
		resp.OrderID = ret.OrderID.String()
	}
	for _, item := range ret.Items {
		resp.Items = append(resp.Items, returnItemResponse{
			ProductID:   item.ProductID.String(),
			SKU:         item.SKU,
			Name:        item.Name,
			Quantity:    item.Quantity,
			RefundPrice: item.RefundPrice.StringFixed(2),
		})
	}
	return resp
}

// CreateReturn restocks returned goods and relieves the partner's debt.
func CreateReturn(svc returns.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "return service unavailable"))
			return
		}

		var payload createReturnRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		partnerID, _ := uuid.Parse(payload.PartnerID)
		warehouseID, _ := uuid.Parse(payload.WarehouseID)
		staffID, _ := uuid.Parse(payload.StaffID)

		input := returns.CreateInput{
			PartnerID:   partnerID,
			WarehouseID: warehouseID,
			StaffID:     staffID,
			Reason:      strings.TrimSpace(payload.Reason),
			Code:        strings.TrimSpace(payload.Code),
		}
		if strings.TrimSpace(payload.OrderID) != "" {
			orderID, err := uuid.Parse(payload.OrderID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "order_id must be a uuid"))
				return
			}
			input.OrderID = &orderID
		}

		for _, line := range payload.Items {
			productID, err := uuid.Parse(line.ProductID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "item product_id must be a uuid"))
				return
			}
			price, perr := parseAmount(line.RefundPrice, "refund_price")
			if perr != nil {
				responses.WriteError(r.Context(), logg, w, perr)
				return
			}
			input.Items = append(input.Items, returns.LineInput{
				ProductID:   productID,
				Quantity:    line.Quantity,
				RefundPrice: price,
			})
		}

		ret, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, toReturnResponse(ret))
	}
}

func GetReturn(svc returns.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathUUID(chi.URLParam(r, "id"), "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ret, err := svc.FindByID(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, toReturnResponse(ret))
	}
}

func ListReturns(svc returns.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		partnerID, err := validators.ParseQueryUUID(r, "partner_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items, err := svc.List(r.Context(), partnerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]returnResponse, 0, len(items))
		for i := range items {
			out = append(out, toReturnResponse(&items[i]))
		}
		responses.WriteSuccess(w, out)
	}
}
