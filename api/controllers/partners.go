package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/khoatrankai/autoparts-backoffice/api/responses"
	"github.com/khoatrankai/autoparts-backoffice/api/validators"
	"github.com/khoatrankai/autoparts-backoffice/internal/partners"
	"github.com/khoatrankai/autoparts-backoffice/pkg/db/models"
	"github.com/khoatrankai/autoparts-backoffice/pkg/enums"
	pkgerrors "github.com/khoatrankai/autoparts-backoffice/pkg/errors"
	"github.com/khoatrankai/autoparts-backoffice/pkg/logger"
)

type createPartnerRequest struct {
	Code      string `json:"code" validate:"required"`
	Name      string `json:"name" validate:"required"`
	Type      string `json:"type" validate:"required"`
	DebtLimit string `json:"debt_limit,omitempty"`
}

type updatePartnerStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type partnerResponse struct {
	ID           string    `json:"id"`
	Code         string    `json:"code"`
	Name         string    `json:"name"`
	Type         string    `json:"type"`
	Status       string    `json:"status"`
	CurrentDebt  string    `json:"current_debt"`
	TotalRevenue string    `json:"total_revenue"`
	DebtLimit    string    `json:"debt_limit"`
	CreatedAt    time.Time `json:"created_at"`
}

func toPartnerResponse(p *models.Partner) partnerResponse {
	return partnerResponse{
		ID:           p.ID.String(),
		Code:         p.Code,
		Name:         p.Name,
		Type:         string(p.Type),
		Status:       string(p.Status),
		CurrentDebt:  p.CurrentDebt.StringFixed(2),
		TotalRevenue: p.TotalRevenue.StringFixed(2),
		DebtLimit:    p.DebtLimit.StringFixed(2),
		CreatedAt:    p.CreatedAt,
	}
}

func CreatePartner(repo *partners.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload createPartnerRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		partnerType, err := enums.ParsePartnerType(strings.TrimSpace(payload.Type))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid partner type"))
			return
		}

		debtLimit := decimal.Zero
		if strings.TrimSpace(payload.DebtLimit) != "" {
			debtLimit, err = parseAmount(payload.DebtLimit, "debt_limit")
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}

		partner := &models.Partner{
			Code:         strings.TrimSpace(payload.Code),
			Name:         strings.TrimSpace(payload.Name),
			Type:         partnerType,
			Status:       enums.PartnerStatusActive,
			CurrentDebt:  decimal.Zero,
			TotalRevenue: decimal.Zero,
			DebtLimit:    debtLimit,
		}

		created, err := repo.Create(r.Context(), partner)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, toPartnerResponse(created))
	}
}

func GetPartner(repo *partners.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathUUID(chi.URLParam(r, "id"), "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		partner, err := repo.FindByID(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, toPartnerResponse(partner))
	}
}

func ListPartners(repo *partners.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		partnerType := strings.TrimSpace(r.URL.Query().Get("type"))
		if partnerType != "" {
			if _, err := enums.ParsePartnerType(partnerType); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid partner type"))
				return
			}
		}

		items, err := repo.List(r.Context(), partnerType)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]partnerResponse, 0, len(items))
		for i := range items {
			out = append(out, toPartnerResponse(&items[i]))
		}
		responses.WriteSuccess(w, out)
	}
}

// UpdatePartnerStatus locks or unlocks a partner for new credit sales.
func UpdatePartnerStatus(repo *partners.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathUUID(chi.URLParam(r, "id"), "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updatePartnerStatusRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status, err := enums.ParsePartnerStatus(strings.TrimSpace(payload.Status))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid partner status"))
			return
		}

		if err := repo.UpdateStatus(r.Context(), id, string(status)); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		partner, err := repo.FindByID(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, toPartnerResponse(partner))
	}
}
