package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/khoatrankai/autoparts-backoffice/pkg/enums"
)

// Order is a completed (or returned/cancelled) sales order header.
// FinalAmount = TotalAmount - Discount, floored at zero.
type Order struct {
	ID          uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	Code        string            `gorm:"column:code;not null;uniqueIndex"`
	PartnerID   uuid.UUID         `gorm:"column:partner_id;type:uuid;not null;index"`
	WarehouseID uuid.UUID         `gorm:"column:warehouse_id;type:uuid;not null"`
	StaffID     uuid.UUID         `gorm:"column:staff_id;type:uuid;not null"`
	TotalAmount decimal.Decimal   `gorm:"column:total_amount;type:numeric(14,2);not null"`
	Discount    decimal.Decimal   `gorm:"column:discount;type:numeric(14,2);not null"`
	FinalAmount decimal.Decimal   `gorm:"column:final_amount;type:numeric(14,2);not null"`
	PaidAmount  decimal.Decimal   `gorm:"column:paid_amount;type:numeric(14,2);not null"`
	Status      enums.OrderStatus `gorm:"column:status;not null"`
	Note        string            `gorm:"column:note"`
	Items       []OrderItem       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

func (o *Order) BeforeCreate(_ *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

// OrderItem snapshots the product at sale time. SKU, name, and unit price are
// copied from the product record and never re-derived afterwards.
type OrderItem struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	OrderID   uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID uuid.UUID       `gorm:"column:product_id;type:uuid;not null"`
	SKU       string          `gorm:"column:sku;not null"`
	Name      string          `gorm:"column:name;not null"`
	Quantity  int             `gorm:"column:quantity;not null"`
	UnitPrice decimal.Decimal `gorm:"column:unit_price;type:numeric(14,2);not null"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
}

func (i *OrderItem) BeforeCreate(_ *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
