package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/khoatrankai/autoparts-backoffice/pkg/enums"
)

// Transfer moves stock between two warehouses. Source and destination must
// differ; stock is physically debited from the source at creation time and
// credited to the destination (or back to the source) on receive/reject.
type Transfer struct {
	ID              uuid.UUID            `gorm:"column:id;type:uuid;primaryKey"`
	Code            string               `gorm:"column:code;not null;uniqueIndex"`
	FromWarehouseID uuid.UUID            `gorm:"column:from_warehouse_id;type:uuid;not null;index"`
	ToWarehouseID   uuid.UUID            `gorm:"column:to_warehouse_id;type:uuid;not null;index"`
	StaffID         uuid.UUID            `gorm:"column:staff_id;type:uuid;not null"`
	Status          enums.TransferStatus `gorm:"column:status;not null"`
	Note            string               `gorm:"column:note"`
	Items           []TransferItem       `gorm:"foreignKey:TransferID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

func (t *Transfer) BeforeCreate(_ *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// TransferItem carries no price; valuation is derived from the product's
// current cost price at read time for display only.
type TransferItem struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	TransferID uuid.UUID `gorm:"column:transfer_id;type:uuid;not null;index"`
	ProductID  uuid.UUID `gorm:"column:product_id;type:uuid;not null"`
	Quantity   int       `gorm:"column:quantity;not null"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (i *TransferItem) BeforeCreate(_ *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
