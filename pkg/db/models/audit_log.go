package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AuditLog captures who did what to which entity. Rows are written inside the
// same transaction as the mutation they describe, so the log only ever
// reflects committed events.
type AuditLog struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	ActorID   uuid.UUID       `gorm:"column:actor_id;type:uuid;not null"`
	Action    string          `gorm:"column:action;not null"`
	Entity    string          `gorm:"column:entity;not null"`
	EntityID  string          `gorm:"column:entity_id;not null;index"`
	Details   json.RawMessage `gorm:"column:details;type:jsonb"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
}

func (a *AuditLog) BeforeCreate(_ *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
