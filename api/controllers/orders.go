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
	"github.com/khoatrankai/autoparts-backoffice/internal/orders"
	"github.com/khoatrankai/autoparts-backoffice/pkg/db/models"
	"github.com/khoatrankai/autoparts-backoffice/pkg/enums"
	pkgerrors "github.com/khoatrankai/autoparts-backoffice/pkg/errors"
	"github.com/khoatrankai/autoparts-backoffice/pkg/logger"
	"github.com/khoatrankai/autoparts-backoffice/pkg/pagination"
)

type orderLineRequest struct {
	ProductID string  `json:"product_id" validate:"required,uuid"`
	Quantity  int     `json:"quantity" validate:"required,min=1"`
	UnitPrice *string `json:"unit_price,omitempty"`
}

type createOrderRequest struct {
	PartnerID   string             `json:"partner_id" validate:"required,uuid"`
	WarehouseID string             `json:"warehouse_id" validate:"required,uuid"`
	StaffID     string             `json:"staff_id" validate:"required,uuid"`
	Items       []orderLineRequest `json:"items" validate:"required,min=1,dive"`
	Discount    string             `json:"discount,omitempty"`
	PaidAmount  string             `json:"paid_amount,omitempty"`
	Note        string             `json:"note,omitempty"`
	Code        string             `json:"code,omitempty"`
}

type orderItemResponse struct {
	ProductID string `json:"product_id"`
	SKU       string `json:"sku"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unit_price"`
}

type orderResponse struct {
	ID          string              `json:"id"`
	Code        string              `json:"code"`
	PartnerID   string              `json:"partner_id"`
	WarehouseID string              `json:"warehouse_id"`
	StaffID     string              `json:"staff_id"`
	TotalAmount string              `json:"total_amount"`
	Discount    string              `json:"discount"`
	FinalAmount string              `json:"final_amount"`
	PaidAmount  string              `json:"paid_amount"`
	Status      string              `json:"status"`
	Note        string              `json:"note,omitempty"`
	Items       []orderItemResponse `json:"items,omitempty"`
	CreatedAt   time.Time           `json:"created_at"`
}

type orderPageResponse struct {
	Orders     []orderResponse `json:"orders"`
	NextCursor string          `json:"next_cursor,omitempty"`
}

func toOrderResponse(o *models.Order) orderResponse {
	resp := orderResponse{
		ID:          o.ID.String(),
		Code:        o.Code,
		PartnerID:   o.PartnerID.String(),
		WarehouseID: o.WarehouseID.String(),
		StaffID:     o.StaffID.String(),
		TotalAmount: o.TotalAmount.StringFixed(2),
		Discount:    o.Discount.StringFixed(2),
		FinalAmount: o.FinalAmount.StringFixed(2),
		PaidAmount:  o.PaidAmount.StringFixed(2),
		Status:      o.Status.String(),
		Note:        o.Note,
		CreatedAt:   o.CreatedAt,
	}
	for _, item := range o.Items {
		resp.Items = append(resp.Items, orderItemResponse{
			ProductID: item.ProductID.String(),
			SKU:       item.SKU,
			Name:      item.Name,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice.StringFixed(2),
		})
	}
	return resp
}

func (p createOrderRequest) toCreateInput() (orders.CreateInput, error) {
	partnerID, _ := uuid.Parse(p.PartnerID)
	warehouseID, _ := uuid.Parse(p.WarehouseID)
	staffID, _ := uuid.Parse(p.StaffID)

	input := orders.CreateInput{
		PartnerID:   partnerID,
		WarehouseID: warehouseID,
		StaffID:     staffID,
		Discount:    decimal.Zero,
		PaidAmount:  decimal.Zero,
		Note:        strings.TrimSpace(p.Note),
		Code:        strings.TrimSpace(p.Code),
	}

	if strings.TrimSpace(p.Discount) != "" {
		discount, err := parseAmount(p.Discount, "discount")
		if err != nil {
			return orders.CreateInput{}, err
		}
		input.Discount = discount
	}
	if strings.TrimSpace(p.PaidAmount) != "" {
		paid, err := parseAmount(p.PaidAmount, "paid_amount")
		if err != nil {
			return orders.CreateInput{}, err
		}
		input.PaidAmount = paid
	}

	for _, line := range p.Items {
		productID, err := uuid.Parse(line.ProductID)
		if err != nil {
			return orders.CreateInput{}, pkgerrors.New(pkgerrors.CodeValidation, "item product_id must be a uuid")
		}
		item := orders.LineInput{
			ProductID: productID,
			Quantity:  line.Quantity,
		}
		if line.UnitPrice != nil {
			price, perr := parseAmount(*line.UnitPrice, "unit_price")
			if perr != nil {
				return orders.CreateInput{}, perr
			}
			item.UnitPrice = &price
		}
		input.Items = append(input.Items, item)
	}

	return input, nil
}

// CreateOrder runs the fulfillment workflow for one sales order.
func CreateOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		var payload createOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toCreateInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, toOrderResponse(order))
	}
}

func GetOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathUUID(chi.URLParam(r, "id"), "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.FindByID(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, toOrderResponse(order))
	}
}

func ListOrders(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		partnerID, err := validators.ParseQueryUUID(r, "partner_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		warehouseID, err := validators.ParseQueryUUID(r, "warehouse_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status := strings.TrimSpace(r.URL.Query().Get("status"))
		if status != "" {
			if _, perr := enums.ParseOrderStatus(status); perr != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, perr, "invalid order status"))
				return
			}
		}

		filter := orders.ListFilter{
			PartnerID:   partnerID,
			WarehouseID: warehouseID,
			Status:      status,
			Page: pagination.Params{
				Limit:  limit,
				Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
			},
		}

		items, nextCursor, err := svc.List(r.Context(), filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page := orderPageResponse{NextCursor: nextCursor}
		page.Orders = make([]orderResponse, 0, len(items))
		for i := range items {
			page.Orders = append(page.Orders, toOrderResponse(&items[i]))
		}
		responses.WriteSuccess(w, page)
	}
}
