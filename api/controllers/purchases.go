package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/khoatrankai/autoparts-backoffice/api/responses"
	"github.com/khoatrankai/autoparts-backoffice/api/validators"
	"github.com/khoatrankai/autoparts-backoffice/internal/purchases"
	"github.com/khoatrankai/autoparts-backoffice/pkg/db/models"
	"github.com/khoatrankai/autoparts-backoffice/pkg/enums"
	pkgerrors "github.com/khoatrankai/autoparts-backoffice/pkg/errors"
	"github.com/khoatrankai/autoparts-backoffice/pkg/logger"
)

type purchaseLineRequest struct {
	ProductID   string `json:"product_id" validate:"required,uuid"`
	Quantity    int    `json:"quantity" validate:"required,min=1"`
	ImportPrice string `json:"import_price" validate:"required"`
}

type createPurchaseRequest struct {
	SupplierID  string                `json:"supplier_id" validate:"required,uuid"`
	WarehouseID string                `json:"warehouse_id" validate:"required,uuid"`
	StaffID     string                `json:"staff_id" validate:"required,uuid"`
	Items       []purchaseLineRequest `json:"items" validate:"required,min=1,dive"`
	Discount    string                `json:"discount,omitempty"`
	PaidAmount  string                `json:"paid_amount,omitempty"`
	Status      string                `json:"status" validate:"required"`
	Note        string                `json:"note,omitempty"`
	Code        string                `json:"code,omitempty"`
}

type purchaseItemResponse struct {
	ProductID   string `json:"product_id"`
	SKU         string `json:"sku"`
	Name        string `json:"name"`
	Quantity    int    `json:"quantity"`
	ImportPrice string `json:"import_price"`
}

type purchaseResponse struct {
	ID          string                 `json:"id"`
	Code        string                 `json:"code"`
	SupplierID  string                 `json:"supplier_id"`
	WarehouseID string                 `json:"warehouse_id"`
	StaffID     string                 `json:"staff_id"`
	TotalAmount string                 `json:"total_amount"`
	Discount    string                 `json:"discount"`
	FinalAmount string                 `json:"final_amount"`
	PaidAmount  string                 `json:"paid_amount"`
	Status      string                 `json:"status"`
	Note        string                 `json:"note,omitempty"`
	Items       []purchaseItemResponse `json:"items,omitempty"`
	CreatedAt   time.Time              `json:"created_at"`
}

func toPurchaseResponse(p *models.PurchaseOrder) purchaseResponse {
	resp := purchaseResponse{
		ID:          p.ID.String(),
		Code:        p.Code,
		SupplierID:  p.SupplierID.String(),
		WarehouseID: p.WarehouseID.String(),
		StaffID:     p.StaffID.String(),
		TotalAmount: p.TotalAmount.StringFixed(2),
		Discount:    p.Discount.StringFixed(2),
		FinalAmount: p.FinalAmount.StringFixed(2),
		PaidAmount:  p.PaidAmount.StringFixed(2),
		Status:      string(p.Status),
		Note:        p.Note,
		CreatedAt:   p.CreatedAt,
	}
	for _, item := range p.Items {
		resp.Items = append(resp.Items, purchaseItemResponse{
			ProductID:   item.ProductID.String(),
			SKU:         item.SKU,
			Name:        item.Name,
			Quantity:    item.Quantity,
			ImportPrice: item.ImportPrice.StringFixed(2),
		})
	}
	return resp
}

// CreatePurchase records a supplier receipt; completed receipts credit stock
// in the same transaction.
func CreatePurchase(svc purchases.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "purchase service unavailable"))
			return
		}

		var payload createPurchaseRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status, err := enums.ParseDocumentStatus(strings.TrimSpace(payload.Status))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid purchase status"))
			return
		}

		supplierID, _ := uuid.Parse(payload.SupplierID)
		warehouseID, _ := uuid.Parse(payload.WarehouseID)
		staffID, _ := uuid.Parse(payload.StaffID)

		input := purchases.CreateInput{
			SupplierID:  supplierID,
			WarehouseID: warehouseID,
			StaffID:     staffID,
			Discount:    decimal.Zero,
			PaidAmount:  decimal.Zero,
			Status:      status,
			Note:        strings.TrimSpace(payload.Note),
			Code:        strings.TrimSpace(payload.Code),
		}

		if strings.TrimSpace(payload.Discount) != "" {
			discount, perr := parseAmount(payload.Discount, "discount")
			if perr != nil {
				responses.WriteError(r.Context(), logg, w, perr)
				return
			}
			input.Discount = discount
		}
		if strings.TrimSpace(payload.PaidAmount) != "" {
			paid, perr := parseAmount(payload.PaidAmount, "paid_amount")
			if perr != nil {
				responses.WriteError(r.Context(), logg, w, perr)
				return
			}
			input.PaidAmount = paid
		}

		for _, line := range payload.Items {
			productID, perr := uuid.Parse(line.ProductID)
			if perr != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "item product_id must be a uuid"))
				return
			}
			price, perr2 := parseAmount(line.ImportPrice, "import_price")
			if perr2 != nil {
				responses.WriteError(r.Context(), logg, w, perr2)
				return
			}
			input.Items = append(input.Items, purchases.LineInput{
				ProductID:   productID,
				Quantity:    line.Quantity,
				ImportPrice: price,
			})
		}

		purchase, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, toPurchaseResponse(purchase))
	}
}

// CompletePurchase finalizes a draft receipt, crediting stock exactly once.
func CompletePurchase(svc purchases.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathUUID(chi.URLParam(r, "id"), "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		purchase, err := svc.Complete(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, toPurchaseResponse(purchase))
	}
}

func GetPurchase(svc purchases.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathUUID(chi.URLParam(r, "id"), "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		purchase, err := svc.FindByID(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, toPurchaseResponse(purchase))
	}
}

func ListPurchases(svc purchases.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := strings.TrimSpace(r.URL.Query().Get("status"))
		if status != "" {
			if _, err := enums.ParseDocumentStatus(status); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid purchase status"))
				return
			}
		}

		items, err := svc.List(r.Context(), status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]purchaseResponse, 0, len(items))
		for i := range items {
			out = append(out, toPurchaseResponse(&items[i]))
		}
		responses.WriteSuccess(w, out)
	}
}
