package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/khoatrankai/autoparts-backoffice/pkg/enums"
)

// Partner is a customer or supplier. CurrentDebt and TotalRevenue are owned by
// the fulfillment and receiving workflows; nothing else writes them.
type Partner struct {
	ID           uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	Code         string              `gorm:"column:code;not null;uniqueIndex"`
	Name         string              `gorm:"column:name;not null"`
	Type         enums.PartnerType   `gorm:"column:type;not null"`
	Status       enums.PartnerStatus `gorm:"column:status;not null;default:active"`
	CurrentDebt  decimal.Decimal     `gorm:"column:current_debt;type:numeric(14,2);not null"`
	TotalRevenue decimal.Decimal     `gorm:"column:total_revenue;type:numeric(14,2);not null"`
	DebtLimit    decimal.Decimal     `gorm:"column:debt_limit;type:numeric(14,2);not null"`
	CreatedAt    time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Partner) BeforeCreate(_ *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
