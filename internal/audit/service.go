package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/khoatrankai/autoparts-backoffice/pkg/db/models"
)

// Service defines operations that record audit events.
type Service interface {
	Record(ctx context.Context, input RecordInput) (*models.AuditLog, error)
	History(ctx context.Context, entity, entityID string) ([]models.AuditLog, error)
	WithTx(repo Repository) Service
}

type service struct {
	repo Repository
}

// RecordInput captures the immutable data an audit entry requires.
type RecordInput struct {
	ActorID  uuid.UUID       `json:"actor_id"`
	Action   string          `json:"action"`
	Entity   string          `json:"entity"`
	EntityID string          `json:"entity_id"`
	Details  json.RawMessage `json:"details"`
}

// NewService wires an audit service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("audit repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Record(ctx context.Context, input RecordInput) (*models.AuditLog, error) {
	if input.ActorID == uuid.Nil {
		return nil, fmt.Errorf("actor id is required")
	}
	if input.Action == "" {
		return nil, fmt.Errorf("action is required")
	}
	if input.Entity == "" {
		return nil, fmt.Errorf("entity is required")
	}

	entry := &models.AuditLog{
		ActorID:  input.ActorID,
		Action:   input.Action,
		Entity:   input.Entity,
		EntityID: input.EntityID,
		Details:  input.Details,
	}

	if err := s.repo.Create(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *service) History(ctx context.Context, entity, entityID string) ([]models.AuditLog, error) {
	if entity == "" {
		return nil, fmt.Errorf("entity is required")
	}
	return s.repo.ListByEntity(ctx, entity, entityID)
}

// WithTx returns a service writing through the transactional repository.
func (s *service) WithTx(repo Repository) Service {
	if repo == nil {
		return s
	}
	return &service{repo: repo}
}
