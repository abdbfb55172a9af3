package models

import (
	"time"

	"github.com/google/uuid"
)

// StockRecord holds the authoritative on-hand quantity per (product, warehouse)
// pair. Rows are created lazily on the first movement into a warehouse and are
// never deleted while movement history references them. Quantity must not go
// negative as the result of a committed sale or transfer-out.
type StockRecord struct {
	ProductID   uuid.UUID `gorm:"column:product_id;type:uuid;primaryKey"`
	WarehouseID uuid.UUID `gorm:"column:warehouse_id;type:uuid;primaryKey"`
	Quantity    int       `gorm:"column:quantity;not null;default:0"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
