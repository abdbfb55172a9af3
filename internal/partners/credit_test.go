package partners

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/khoatrankai/autoparts-backoffice/pkg/db/models"
	"github.com/khoatrankai/autoparts-backoffice/pkg/enums"
	pkgerrors "github.com/khoatrankai/autoparts-backoffice/pkg/errors"
)

func TestCheckCredit(t *testing.T) {
	t.Parallel()

	active := func(debt, limit string) *models.Partner {
		return &models.Partner{
			ID:          uuid.New(),
			Code:        "KH001",
			Status:      enums.PartnerStatusActive,
			CurrentDebt: decimal.RequireFromString(debt),
			DebtLimit:   decimal.RequireFromString(limit),
		}
	}

	cases := []struct {
		name     string
		partner  *models.Partner
		delta    string
		wantCode pkgerrors.Code
	}{
		{"within limit", active("100", "500"), "200", ""},
		{"exactly at limit", active("100", "500"), "400", ""},
		{"over limit", active("100", "500"), "401", pkgerrors.CodeDebtLimit},
		{"no credit line", active("0", "0"), "1", pkgerrors.CodeDebtLimit},
		{"prepaid passes with no credit line", active("0", "0"), "0", ""},
		{"refund always passes", active("499", "500"), "-50", ""},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			err := CheckCredit(tc.partner, decimal.RequireFromString(tc.delta))
			if tc.wantCode == "" {
				if err != nil {
					t.Fatalf("expected pass, got %v", err)
				}
				return
			}
			typed := pkgerrors.As(err)
			if typed == nil || typed.Code() != tc.wantCode {
				t.Fatalf("expected code %s, got %v", tc.wantCode, err)
			}
		})
	}
}

func TestCheckCreditLockedPartner(t *testing.T) {
	t.Parallel()

	partner := &models.Partner{
		ID:     uuid.New(),
		Code:   "KH002",
		Status: enums.PartnerStatusLocked,
	}

	err := CheckCredit(partner, decimal.Zero)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict for locked partner, got %v", err)
	}
}

func TestCheckCreditNilPartner(t *testing.T) {
	t.Parallel()

	err := CheckCredit(nil, decimal.Zero)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}
