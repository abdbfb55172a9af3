package cron

import (
	"context"
	"fmt"

	"go.uber.org/multierr"

	"github.com/khoatrankai/autoparts-backoffice/internal/stock"
	"github.com/khoatrankai/autoparts-backoffice/internal/stockcard"
	"github.com/khoatrankai/autoparts-backoffice/pkg/logger"
)

// ReconcileJob sweeps every journaled (product, warehouse) pair and verifies
// the stock record still matches the latest journal balance. Mismatches are
// collected and reported together; the job never repairs silently.
type ReconcileJob struct {
	journal *stock.Journal
	rec     *stockcard.Reconstructor
	logg    *logger.Logger
}

// NewReconcileJob builds the journal reconciliation job.
func NewReconcileJob(journal *stock.Journal, rec *stockcard.Reconstructor, logg *logger.Logger) (*ReconcileJob, error) {
	if journal == nil {
		return nil, fmt.Errorf("movement journal required")
	}
	if rec == nil {
		return nil, fmt.Errorf("reconstructor required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &ReconcileJob{journal: journal, rec: rec, logg: logg}, nil
}

// Name implements Job.
func (j *ReconcileJob) Name() string { return "journal_reconcile" }

// Run implements Job. Every pair is checked even when earlier pairs fail; the
// aggregate error carries one entry per drifted or unreadable pair.
func (j *ReconcileJob) Run(ctx context.Context) error {
	pairs, err := j.journal.Pairs(ctx)
	if err != nil {
		return fmt.Errorf("listing journal pairs: %w", err)
	}

	var failures error
	drifted := 0
	for _, pair := range pairs {
		check, err := j.rec.VerifyPair(ctx, pair.ProductID, pair.WarehouseID)
		if err != nil {
			failures = multierr.Append(failures, fmt.Errorf("verify pair %s/%s: %w", pair.ProductID, pair.WarehouseID, err))
			continue
		}
		if !check.Consistent {
			drifted++
			failures = multierr.Append(failures, fmt.Errorf(
				"pair %s/%s drifted: ledger=%d journal=%d",
				pair.ProductID, pair.WarehouseID, check.LedgerQty, check.JournalQty))
		}
	}

	ctx = j.logg.WithFields(ctx, map[string]any{
		"pairs_checked": len(pairs),
		"pairs_drifted": drifted,
	})
	if failures != nil {
		j.logg.Warn(ctx, "journal reconciliation found mismatches")
		return failures
	}
	j.logg.Info(ctx, "journal reconciliation clean")
	return nil
}
