package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/khoatrankai/autoparts-backoffice/pkg/enums"
)

// PurchaseOrder is an inbound receipt from a supplier.
type PurchaseOrder struct {
	ID          uuid.UUID            `gorm:"column:id;type:uuid;primaryKey"`
	Code        string               `gorm:"column:code;not null;uniqueIndex"`
	SupplierID  uuid.UUID            `gorm:"column:supplier_id;type:uuid;not null;index"`
	WarehouseID uuid.UUID            `gorm:"column:warehouse_id;type:uuid;not null"`
	StaffID     uuid.UUID            `gorm:"column:staff_id;type:uuid;not null"`
	TotalAmount decimal.Decimal      `gorm:"column:total_amount;type:numeric(14,2);not null"`
	Discount    decimal.Decimal      `gorm:"column:discount;type:numeric(14,2);not null"`
	FinalAmount decimal.Decimal      `gorm:"column:final_amount;type:numeric(14,2);not null"`
	PaidAmount  decimal.Decimal      `gorm:"column:paid_amount;type:numeric(14,2);not null"`
	Status      enums.DocumentStatus `gorm:"column:status;not null"`
	Note        string               `gorm:"column:note"`
	Items       []PurchaseItem       `gorm:"foreignKey:PurchaseOrderID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *PurchaseOrder) BeforeCreate(_ *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// PurchaseItem snapshots the product and its import price at receipt time.
type PurchaseItem struct {
	ID              uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	PurchaseOrderID uuid.UUID       `gorm:"column:purchase_order_id;type:uuid;not null;index"`
	ProductID       uuid.UUID       `gorm:"column:product_id;type:uuid;not null"`
	SKU             string          `gorm:"column:sku;not null"`
	Name            string          `gorm:"column:name;not null"`
	Quantity        int             `gorm:"column:quantity;not null"`
	ImportPrice     decimal.Decimal `gorm:"column:import_price;type:numeric(14,2);not null"`
	CreatedAt       time.Time       `gorm:"column:created_at;autoCreateTime"`
}

func (i *PurchaseItem) BeforeCreate(_ *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
