package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/khoatrankai/autoparts-backoffice/pkg/enums"
)

// Warehouse is a physical stock location.
type Warehouse struct {
	ID        uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	Code      string              `gorm:"column:code;not null;uniqueIndex"`
	Name      string              `gorm:"column:name;not null"`
	Type      enums.WarehouseType `gorm:"column:type;not null;default:branch"`
	Address   string              `gorm:"column:address"`
	IsActive  bool                `gorm:"column:is_active;not null;default:true"`
	CreatedAt time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (w *Warehouse) BeforeCreate(_ *gorm.DB) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	return nil
}
