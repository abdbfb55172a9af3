package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/khoatrankai/autoparts-backoffice/pkg/enums"
)

// Return records goods coming back from a customer (or going back to a
// supplier). OrderID links the originating sales order when known.
type Return struct {
	ID          uuid.UUID            `gorm:"column:id;type:uuid;primaryKey"`
	Code        string               `gorm:"column:code;not null;uniqueIndex"`
	PartnerID   uuid.UUID            `gorm:"column:partner_id;type:uuid;not null;index"`
	OrderID     *uuid.UUID           `gorm:"column:order_id;type:uuid;index"`
	WarehouseID uuid.UUID            `gorm:"column:warehouse_id;type:uuid;not null"`
	TotalRefund decimal.Decimal      `gorm:"column:total_refund;type:numeric(14,2);not null"`
	Reason      string               `gorm:"column:reason"`
	Status      enums.DocumentStatus `gorm:"column:status;not null"`
	Items       []ReturnItem         `gorm:"foreignKey:ReturnID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

func (r *Return) BeforeCreate(_ *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// ReturnItem snapshots the product and the refund price per unit.
type ReturnItem struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	ReturnID    uuid.UUID       `gorm:"column:return_id;type:uuid;not null;index"`
	ProductID   uuid.UUID       `gorm:"column:product_id;type:uuid;not null"`
	SKU         string          `gorm:"column:sku;not null"`
	Name        string          `gorm:"column:name;not null"`
	Quantity    int             `gorm:"column:quantity;not null"`
	RefundPrice decimal.Decimal `gorm:"column:refund_price;type:numeric(14,2);not null"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
}

func (i *ReturnItem) BeforeCreate(_ *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
