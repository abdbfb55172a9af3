package enums

import "fmt"

// PartnerStatus gates whether a partner may trade.
type PartnerStatus string

const (
	PartnerStatusActive PartnerStatus = "active"
	PartnerStatusLocked PartnerStatus = "locked"
)

// IsValid reports whether the value is a known PartnerStatus.
func (p PartnerStatus) IsValid() bool {
	return p == PartnerStatusActive || p == PartnerStatusLocked
}

// ParsePartnerStatus converts raw input into a PartnerStatus.
func ParsePartnerStatus(value string) (PartnerStatus, error) {
	switch PartnerStatus(value) {
	case PartnerStatusActive, PartnerStatusLocked:
		return PartnerStatus(value), nil
	}
	return "", fmt.Errorf("invalid partner status %q", value)
}

// PartnerType distinguishes customers from suppliers.
type PartnerType string

const (
	PartnerTypeCustomer PartnerType = "customer"
	PartnerTypeSupplier PartnerType = "supplier"
)

// IsValid reports whether the value is a known PartnerType.
func (p PartnerType) IsValid() bool {
	return p == PartnerTypeCustomer || p == PartnerTypeSupplier
}

// ParsePartnerType converts raw input into a PartnerType.
func ParsePartnerType(value string) (PartnerType, error) {
	switch PartnerType(value) {
	case PartnerTypeCustomer, PartnerTypeSupplier:
		return PartnerType(value), nil
	}
	return "", fmt.Errorf("invalid partner type %q", value)
}
