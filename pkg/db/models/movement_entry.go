package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/khoatrankai/autoparts-backoffice/pkg/enums"
)

// MovementEntry is one immutable row of the append-only stock journal. The
// auto-incremented id provides the total order for entries of a
// (product, warehouse) pair; BalanceAfter is the StockRecord quantity
// immediately after this entry was applied.
type MovementEntry struct {
	ID            uint64             `gorm:"column:id;primaryKey;autoIncrement"`
	ProductID     uuid.UUID          `gorm:"column:product_id;type:uuid;not null;index:idx_movement_pair"`
	WarehouseID   uuid.UUID          `gorm:"column:warehouse_id;type:uuid;not null;index:idx_movement_pair"`
	ChangeAmount  int                `gorm:"column:change_amount;not null"`
	BalanceAfter  int                `gorm:"column:balance_after;not null"`
	Kind          enums.MovementKind `gorm:"column:kind;not null"`
	ReferenceCode string             `gorm:"column:reference_code;not null"`
	Note          string             `gorm:"column:note"`
	CreatedAt     time.Time          `gorm:"column:created_at;autoCreateTime"`
}
