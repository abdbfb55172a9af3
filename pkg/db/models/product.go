package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product is a catalog entry for one auto part. Identity and SKU are
// immutable; pricing and the minimum-stock threshold may change, but
// historical line items never re-read them (they carry snapshots).
type Product struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	SKU         string          `gorm:"column:sku;not null;uniqueIndex"`
	Name        string          `gorm:"column:name;not null"`
	Brand       string          `gorm:"column:brand"`
	Unit        string          `gorm:"column:unit;not null"`
	CostPrice   decimal.Decimal `gorm:"column:cost_price;type:numeric(14,2);not null"`
	RetailPrice decimal.Decimal `gorm:"column:retail_price;type:numeric(14,2);not null"`
	MinStock    int             `gorm:"column:min_stock;not null;default:0"`
	IsActive    bool            `gorm:"column:is_active;not null;default:true"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Product) BeforeCreate(_ *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
