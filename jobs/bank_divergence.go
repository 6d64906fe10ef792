package jobs

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/meridian-erp/meridian-erp/internal/banks"
	jobmetrics "github.com/meridian-erp/meridian-erp/internal/jobs"
)

// BankDivergenceHandler compares each bank's stored balance against the
// balance calculated from the journal. Differences are surfaced, never
// corrected.
type BankDivergenceHandler struct {
	service *banks.Service
	logger  *slog.Logger
	alerter Alerter
	metrics *jobmetrics.Metrics
}

func NewBankDivergenceHandler(service *banks.Service, logger *slog.Logger, alerter Alerter, metrics *jobmetrics.Metrics) *BankDivergenceHandler {
	return &BankDivergenceHandler{service: service, logger: logger, alerter: alerter, metrics: metrics}
}

// ProcessTask runs the scan.
func (h *BankDivergenceHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	tracker := h.metrics.Track("bank_divergence")
	return tracker.End(h.run(ctx))
}

func (h *BankDivergenceHandler) run(ctx context.Context) error {
	divergences, err := h.service.Divergences(ctx)
	if err != nil {
		return err
	}
	diverged := 0
	for _, d := range divergences {
		if !d.Diverged() {
			continue
		}
		diverged++
		h.logger.Warn("bank balance divergence",
			slog.Int64("bank_id", d.Bank.ID),
			slog.String("stored", d.Bank.StoredBalance.String()),
			slog.String("calculated", d.CalculatedBalance.String()),
			slog.String("difference", d.Difference.String()))
		if h.alerter != nil {
			h.alerter.Alert(ctx, "banks.divergence", map[string]any{
				"bank_id":    d.Bank.ID,
				"difference": d.Difference.String(),
			})
		}
	}
	h.metrics.AddFindings("bank_divergence", diverged)
	if diverged == 0 {
		h.logger.Info("bank divergence scan clean", slog.String("job", TaskBankDivergence))
	}
	return nil
}
