package enums

import "fmt"

// MovementKind classifies an entry in the stock movement journal.
type MovementKind string

const (
	MovementKindSale           MovementKind = "sale"
	MovementKindPurchase       MovementKind = "purchase"
	MovementKindReturn         MovementKind = "return"
	MovementKindTransferOut    MovementKind = "transfer_out"
	MovementKindTransferIn     MovementKind = "transfer_in"
	MovementKindTransferReturn MovementKind = "transfer_return"
)

var validMovementKinds = []MovementKind{
	MovementKindSale,
	MovementKindPurchase,
	MovementKindReturn,
	MovementKindTransferOut,
	MovementKindTransferIn,
	MovementKindTransferReturn,
}

// String implements fmt.Stringer.
func (m MovementKind) String() string {
	return string(m)
}

// IsValid reports whether the value is a known MovementKind.
func (m MovementKind) IsValid() bool {
	for _, candidate := range validMovementKinds {
		if candidate == m {
			return true
		}
	}
	return false
}

// IsDebit reports whether entries of this kind remove stock from a warehouse.
func (m MovementKind) IsDebit() bool {
	return m == MovementKindSale || m == MovementKindTransferOut
}

// ParseMovementKind converts raw input into a MovementKind.
func ParseMovementKind(value string) (MovementKind, error) {
	for _, candidate := range validMovementKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid movement kind %q", value)
}
