package enums

import "fmt"

// WarehouseType distinguishes the main warehouse from branch stores.
type WarehouseType string

const (
	WarehouseTypeMain   WarehouseType = "main"
	WarehouseTypeBranch WarehouseType = "branch"
)

// IsValid reports whether the value is a known WarehouseType.
func (w WarehouseType) IsValid() bool {
	return w == WarehouseTypeMain || w == WarehouseTypeBranch
}

// ParseWarehouseType converts raw input into a WarehouseType.
func ParseWarehouseType(value string) (WarehouseType, error) {
	switch WarehouseType(value) {
	case WarehouseTypeMain, WarehouseTypeBranch:
		return WarehouseType(value), nil
	}
	return "", fmt.Errorf("invalid warehouse type %q", value)
}
