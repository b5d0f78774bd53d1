package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/lokroom/settlement/internal/application/services"
)

// PayoutReleaseWorker releases pending payouts once their eligibility
// time passes. Held payouts are skipped until their dispute settles.
type PayoutReleaseWorker struct {
	payoutService *services.PayoutService
	interval      time.Duration
	batchSize     int
	logger        *slog.Logger
}

func NewPayoutReleaseWorker(
	payoutService *services.PayoutService,
	interval time.Duration,
	batchSize int,
	logger *slog.Logger,
) *PayoutReleaseWorker {
	return &PayoutReleaseWorker{
		payoutService: payoutService,
		interval:      interval,
		batchSize:     batchSize,
		logger:        logger,
	}
}

func (w *PayoutReleaseWorker) Start(ctx context.Context) {
	w.logger.Info("payout release worker started", "interval", w.interval)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("payout release worker stopping")
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *PayoutReleaseWorker) sweep(ctx context.Context) {
	released, err := w.payoutService.ReleaseEligible(ctx, w.batchSize)
	if err != nil {
		w.logger.Error("payout release sweep failed", "error", err)
		return
	}

	if released > 0 {
		w.logger.Info("released eligible payouts", "count", released)
	}
}
