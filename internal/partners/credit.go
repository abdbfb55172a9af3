package partners

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/khoatrankai/autoparts-backoffice/pkg/db/models"
	"github.com/khoatrankai/autoparts-backoffice/pkg/enums"
	pkgerrors "github.com/khoatrankai/autoparts-backoffice/pkg/errors"
)

// CheckCredit decides whether a partner may take on debtDelta of additional
// debt. A locked partner may not trade at all. A zero debt limit means the
// partner has no credit line, so any positive delta is rejected; a negative or
// zero delta (full prepayment, refunds) always passes for active partners.
func CheckCredit(partner *models.Partner, debtDelta decimal.Decimal) error {
	if partner == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "partner is required")
	}

	if partner.Status == enums.PartnerStatusLocked {
		return pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("partner %s is locked from trading", partner.Code))
	}

	if debtDelta.LessThanOrEqual(decimal.Zero) {
		return nil
	}

	projected := partner.CurrentDebt.Add(debtDelta)
	if projected.GreaterThan(partner.DebtLimit) {
		return pkgerrors.DebtLimitExceeded(partner.ID, partner.CurrentDebt, partner.DebtLimit, debtDelta)
	}
	return nil
}
