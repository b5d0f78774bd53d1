package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lokroom/settlement/internal/application"
	"github.com/lokroom/settlement/internal/domain"
)

// PayoutService releases host payouts once their eligibility timer has
// elapsed. Held payouts are skipped; they only move through dispute
// resolution.
type PayoutService struct {
	payoutRepo application.PayoutRepository
	locker     application.BookingLocker
	notifier   application.Notifier
	db         *pgxpool.Pool
	logger     *slog.Logger
}

func NewPayoutService(
	payoutRepo application.PayoutRepository,
	locker application.BookingLocker,
	notifier application.Notifier,
	db *pgxpool.Pool,
	logger *slog.Logger,
) *PayoutService {
	return &PayoutService{
		payoutRepo: payoutRepo,
		locker:     locker,
		notifier:   notifier,
		db:         db,
		logger:     logger,
	}
}

// Release pays out a single booking's payout if it is eligible.
func (s *PayoutService) Release(ctx context.Context, bookingID string) (*domain.Payout, error) {
	release, err := s.locker.Acquire(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	defer release(ctx)

	now := time.Now()

	var payout *domain.Payout
	err = withTx(ctx, s.db, func(tx txExecutor) error {
		var txErr error
		payout, txErr = s.payoutRepo.FindByBookingIDForUpdate(ctx, tx, bookingID)
		if txErr != nil {
			return txErr
		}
		if !payout.Eligible(now) {
			return application.NewInvalidStateError(
				domain.NewInvalidTransitionError("payout", string(payout.Status), string(domain.PayoutReleased)))
		}
		if txErr := payout.Release(now); txErr != nil {
			return txErr
		}
		return s.payoutRepo.Update(ctx, tx, payout)
	})
	if err != nil {
		return nil, err
	}

	if err := s.notifier.Publish(ctx, application.SettlementEvent{
		Type:        application.EventPayoutReleased,
		BookingID:   bookingID,
		AmountCents: payout.AmountCents,
		OccurredAt:  now,
	}); err != nil {
		s.logger.Warn("failed to publish payout event",
			"booking_id", bookingID, "error", err)
	}

	return payout, nil
}

// ReleaseEligible sweeps pending payouts past their eligibility time
// and releases them. Called by the release worker; each payout fails or
// succeeds independently.
func (s *PayoutService) ReleaseEligible(ctx context.Context, batchSize int) (int, error) {
	eligible, err := s.payoutRepo.FindReleasable(ctx, time.Now(), batchSize)
	if err != nil {
		return 0, err
	}

	released := 0
	for _, p := range eligible {
		if _, err := s.Release(ctx, p.BookingID); err != nil {
			s.logger.Warn("failed to release payout",
				"booking_id", p.BookingID, "error", err)
			continue
		}
		released++
	}
	return released, nil
}
