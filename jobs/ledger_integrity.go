package jobs

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	jobmetrics "github.com/meridian-erp/meridian-erp/internal/jobs"
)

// LedgerIntegrityHandler scans the journal for entries whose lines do
// not balance. A healthy system never produces one; a hit means data
// was mutated outside the posting workflows and needs investigation.
type LedgerIntegrityHandler struct {
	pool    *pgxpool.Pool
	logger  *slog.Logger
	alerter Alerter
	metrics *jobmetrics.Metrics
}

// Alerter receives integrity findings. Logging is the default sink.
type Alerter interface {
	Alert(ctx context.Context, kind string, detail map[string]any)
}

func NewLedgerIntegrityHandler(pool *pgxpool.Pool, logger *slog.Logger, alerter Alerter, metrics *jobmetrics.Metrics) *LedgerIntegrityHandler {
	return &LedgerIntegrityHandler{pool: pool, logger: logger, alerter: alerter, metrics: metrics}
}

// ProcessTask runs the scan.
func (h *LedgerIntegrityHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	tracker := h.metrics.Track("ledger_integrity")
	return tracker.End(h.run(ctx))
}

func (h *LedgerIntegrityHandler) run(ctx context.Context) error {
	unbalanced, err := h.scanUnbalanced(ctx)
	if err != nil {
		return err
	}
	orphans, err := h.scanDanglingReversals(ctx)
	if err != nil {
		return err
	}
	h.metrics.AddFindings("unbalanced_entry", len(unbalanced))
	h.metrics.AddFindings("dangling_reversal", len(orphans))
	if len(unbalanced) == 0 && len(orphans) == 0 {
		h.logger.Info("ledger integrity scan clean", slog.String("job", TaskLedgerIntegrity))
		return nil
	}
	for _, finding := range unbalanced {
		h.logger.Error("unbalanced journal entry",
			slog.Int64("entry_id", finding.EntryID),
			slog.String("difference", finding.Difference.String()))
		if h.alerter != nil {
			h.alerter.Alert(ctx, "ledger.unbalanced", map[string]any{
				"entry_id":   finding.EntryID,
				"difference": finding.Difference.String(),
			})
		}
	}
	for _, id := range orphans {
		h.logger.Error("reversed entry without compensating entry", slog.Int64("entry_id", id))
		if h.alerter != nil {
			h.alerter.Alert(ctx, "ledger.dangling_reversal", map[string]any{"entry_id": id})
		}
	}
	return nil
}

type integrityFinding struct {
	EntryID    int64
	Difference decimal.Decimal
}

func (h *LedgerIntegrityHandler) scanUnbalanced(ctx context.Context) ([]integrityFinding, error) {
	rows, err := h.pool.Query(ctx, `SELECT entry_id, SUM(debit) - SUM(credit) AS diff
FROM journal_lines GROUP BY entry_id HAVING SUM(debit) <> SUM(credit)`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var findings []integrityFinding
	for rows.Next() {
		var f integrityFinding
		if err := rows.Scan(&f.EntryID, &f.Difference); err != nil {
			return nil, err
		}
		findings = append(findings, f)
	}
	return findings, rows.Err()
}

// scanDanglingReversals finds REVERSED entries whose reversed_by link
// points nowhere or is missing entirely.
func (h *LedgerIntegrityHandler) scanDanglingReversals(ctx context.Context) ([]int64, error) {
	rows, err := h.pool.Query(ctx, `SELECT e.id FROM journal_entries e
LEFT JOIN journal_entries r ON r.id = e.reversed_by
WHERE e.status = 'REVERSED' AND (e.reversed_by IS NULL OR r.id IS NULL)`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
