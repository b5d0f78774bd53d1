// Package worker runs the periodic settlement sweeps: escalating
// disputes whose response window lapsed and releasing payouts that
// became eligible.
package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/lokroom/settlement/internal/application/services"
)

// DisputeDeadlineWorker escalates disputes still awaiting a response
// after the deadline, so they reach review without either party acting.
type DisputeDeadlineWorker struct {
	disputeService *services.DisputeService
	interval       time.Duration
	batchSize      int
	logger         *slog.Logger
}

func NewDisputeDeadlineWorker(
	disputeService *services.DisputeService,
	interval time.Duration,
	batchSize int,
	logger *slog.Logger,
) *DisputeDeadlineWorker {
	return &DisputeDeadlineWorker{
		disputeService: disputeService,
		interval:       interval,
		batchSize:      batchSize,
		logger:         logger,
	}
}

func (w *DisputeDeadlineWorker) Start(ctx context.Context) {
	w.logger.Info("dispute deadline worker started", "interval", w.interval)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("dispute deadline worker stopping")
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *DisputeDeadlineWorker) sweep(ctx context.Context) {
	escalated, err := w.disputeService.EscalateOverdue(ctx, w.batchSize)
	if err != nil {
		w.logger.Error("dispute deadline sweep failed", "error", err)
		return
	}

	if escalated > 0 {
		w.logger.Info("escalated overdue disputes", "count", escalated)
	}
}
