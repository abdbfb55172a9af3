package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/khoatrankai/autoparts-backoffice/api/responses"
	"github.com/khoatrankai/autoparts-backoffice/api/validators"
	"github.com/khoatrankai/autoparts-backoffice/internal/stock"
	"github.com/khoatrankai/autoparts-backoffice/internal/stockcard"
	"github.com/khoatrankai/autoparts-backoffice/pkg/db/models"
	pkgerrors "github.com/khoatrankai/autoparts-backoffice/pkg/errors"
	"github.com/khoatrankai/autoparts-backoffice/pkg/logger"
	"github.com/khoatrankai/autoparts-backoffice/pkg/pagination"
)

type movementResponse struct {
	EntryID       uint64    `json:"entry_id"`
	ProductID     string    `json:"product_id"`
	WarehouseID   string    `json:"warehouse_id"`
	Kind          string    `json:"kind"`
	ChangeAmount  int       `json:"change_amount"`
	BalanceAfter  int       `json:"balance_after"`
	ReferenceCode string    `json:"reference_code"`
	Note          string    `json:"note,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

type movementPageResponse struct {
	Movements  []movementResponse `json:"movements"`
	NextBefore uint64             `json:"next_before,omitempty"`
}

type stockCardRowResponse struct {
	EntryID       uint64    `json:"entry_id,omitempty"`
	WarehouseID   string    `json:"warehouse_id"`
	Kind          string    `json:"kind"`
	ChangeAmount  int       `json:"change_amount"`
	BalanceAfter  int       `json:"balance_after"`
	ReferenceCode string    `json:"reference_code,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

type stockCardResponse struct {
	ProductID  string                 `json:"product_id"`
	Source     string                 `json:"source"`
	Rows       []stockCardRowResponse `json:"rows"`
	NextBefore uint64                 `json:"next_before,omitempty"`
}

func toMovementResponse(entry *models.MovementEntry) movementResponse {
	return movementResponse{
		EntryID:       entry.ID,
		ProductID:     entry.ProductID.String(),
		WarehouseID:   entry.WarehouseID.String(),
		Kind:          entry.Kind.String(),
		ChangeAmount:  entry.ChangeAmount,
		BalanceAfter:  entry.BalanceAfter,
		ReferenceCode: entry.ReferenceCode,
		Note:          entry.Note,
		CreatedAt:     entry.CreatedAt,
	}
}

func toStockCardRow(entry stockcard.Entry) stockCardRowResponse {
	row := stockCardRowResponse{
		EntryID:       entry.EntryID,
		Kind:          entry.Kind.String(),
		ChangeAmount:  entry.ChangeAmount,
		BalanceAfter:  entry.BalanceAfter,
		ReferenceCode: entry.ReferenceCode,
		OccurredAt:    entry.OccurredAt,
	}
	if entry.WarehouseID != uuid.Nil {
		row.WarehouseID = entry.WarehouseID.String()
	}
	return row
}

// ProductMovements pages the journal for one product, newest first. An
// optional warehouse_id narrows the listing to a single pair.
func ProductMovements(journal *stock.Journal, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := validators.ParsePathUUID(chi.URLParam(r, "id"), "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		beforeID, err := validators.ParseQueryUint(r, "before_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		warehouseID, err := validators.ParseQueryUUID(r, "warehouse_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page := stock.PageQuery{Limit: limit, BeforeID: beforeID}

		var (
			entries    []models.MovementEntry
			nextBefore uint64
		)
		if warehouseID != uuid.Nil {
			entries, nextBefore, err = journal.ListByPair(r.Context(), productID, warehouseID, page)
		} else {
			entries, nextBefore, err = journal.ListByProduct(r.Context(), productID, page)
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := movementPageResponse{NextBefore: nextBefore}
		out.Movements = make([]movementResponse, 0, len(entries))
		for i := range entries {
			out.Movements = append(out.Movements, toMovementResponse(&entries[i]))
		}
		responses.WriteSuccess(w, out)
	}
}

// MovementsByReference lists every journal entry a document produced, in
// applied order.
func MovementsByReference(journal *stock.Journal, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := strings.TrimSpace(chi.URLParam(r, "code"))
		if code == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "reference code required"))
			return
		}

		entries, err := journal.ListByReference(r.Context(), code)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]movementResponse, 0, len(entries))
		for i := range entries {
			out = append(out, toMovementResponse(&entries[i]))
		}
		responses.WriteSuccess(w, out)
	}
}

// ProductStockCard reconstructs the running-balance card for one product.
// source=journal (default) reads stored balances; source=sales rebuilds the
// history by walking completed sales backward from the current total.
func ProductStockCard(rec *stockcard.Reconstructor, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := validators.ParsePathUUID(chi.URLParam(r, "id"), "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		source := strings.TrimSpace(r.URL.Query().Get("source"))
		if source == "" {
			source = "journal"
		}

		switch source {
		case "journal":
			limit, qerr := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
			if qerr != nil {
				responses.WriteError(r.Context(), logg, w, qerr)
				return
			}
			beforeID, qerr := validators.ParseQueryUint(r, "before_id")
			if qerr != nil {
				responses.WriteError(r.Context(), logg, w, qerr)
				return
			}

			rows, nextBefore, cerr := rec.FromJournal(r.Context(), productID, stock.PageQuery{Limit: limit, BeforeID: beforeID})
			if cerr != nil {
				responses.WriteError(r.Context(), logg, w, cerr)
				return
			}
			writeStockCard(w, productID, source, rows, nextBefore)
		case "sales":
			rows, cerr := rec.BackCalculate(r.Context(), productID)
			if cerr != nil {
				responses.WriteError(r.Context(), logg, w, cerr)
				return
			}
			writeStockCard(w, productID, source, rows, 0)
		default:
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "source must be journal or sales"))
		}
	}
}

func writeStockCard(w http.ResponseWriter, productID uuid.UUID, source string, rows []stockcard.Entry, nextBefore uint64) {
	out := stockCardResponse{
		ProductID:  productID.String(),
		Source:     source,
		NextBefore: nextBefore,
	}
	out.Rows = make([]stockCardRowResponse, 0, len(rows))
	for _, row := range rows {
		out.Rows = append(out.Rows, toStockCardRow(row))
	}
	responses.WriteSuccess(w, out)
}
