package controllers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/khoatrankai/autoparts-backoffice/api/responses"
	"github.com/khoatrankai/autoparts-backoffice/internal/audit"
	pkgerrors "github.com/khoatrankai/autoparts-backoffice/pkg/errors"
	"github.com/khoatrankai/autoparts-backoffice/pkg/logger"
)

type auditLogResponse struct {
	ID        string          `json:"id"`
	ActorID   string          `json:"actor_id"`
	Action    string          `json:"action"`
	Entity    string          `json:"entity"`
	EntityID  string          `json:"entity_id"`
	Details   json.RawMessage `json:"details,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// AuditHistory lists the audit trail for one entity, newest first.
func AuditHistory(svc audit.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entity := strings.TrimSpace(chi.URLParam(r, "entity"))
		entityID := strings.TrimSpace(chi.URLParam(r, "entityID"))
		if entity == "" || entityID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "entity and entity id required"))
			return
		}

		logs, err := svc.History(r.Context(), entity, entityID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]auditLogResponse, 0, len(logs))
		for _, entry := range logs {
			out = append(out, auditLogResponse{
				ID:        entry.ID.String(),
				ActorID:   entry.ActorID.String(),
				Action:    entry.Action,
				Entity:    entry.Entity,
				EntityID:  entry.EntityID,
				Details:   entry.Details,
				CreatedAt: entry.CreatedAt,
			})
		}
		responses.WriteSuccess(w, out)
	}
}
