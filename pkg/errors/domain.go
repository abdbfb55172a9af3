package errors

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// NotFound builds the standard missing-entity error for the given entity kind.
func NotFound(entity string, id uuid.UUID) *Error {
	return New(CodeNotFound, fmt.Sprintf("%s not found", entity)).
		WithDetails(map[string]any{"entity": entity, "id": id.String()})
}

// InsufficientStock reports a debit that exceeds the quantity on hand at one warehouse.
func InsufficientStock(productID, warehouseID uuid.UUID, available, requested int) *Error {
	return New(CodeInsufficientStock,
		fmt.Sprintf("insufficient stock: available %d, requested %d", available, requested)).
		WithDetails(map[string]any{
			"product_id":   productID.String(),
			"warehouse_id": warehouseID.String(),
			"available":    available,
			"requested":    requested,
		})
}

// DebtLimitExceeded reports a sale whose debt delta would breach the partner ceiling.
func DebtLimitExceeded(partnerID uuid.UUID, currentDebt, debtLimit, debtDelta decimal.Decimal) *Error {
	return New(CodeDebtLimit, "partner debt limit exceeded").
		WithDetails(map[string]any{
			"partner_id":   partnerID.String(),
			"current_debt": currentDebt.String(),
			"debt_limit":   debtLimit.String(),
			"debt_delta":   debtDelta.String(),
		})
}
