package services

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lokroom/settlement/internal/application"
	"github.com/lokroom/settlement/internal/domain"
	"github.com/lokroom/settlement/internal/infrastructure/persistence/postgres"
)

// CancellationService prices and executes booking cancellations. The
// provider refund is acknowledged before any booking state changes, so
// a crash mid-flight leaves the booking cancellable rather than
// cancelled-but-unrefunded.
type CancellationService struct {
	bookingRepo     application.BookingRepository
	paymentRepo     application.PaymentRepository
	payoutRepo      application.PayoutRepository
	idempotencyRepo application.IdempotencyRepository
	provider        application.PaymentProvider
	locker          application.BookingLocker
	notifier        application.Notifier
	db              *pgxpool.Pool
	logger          *slog.Logger
}

func NewCancellationService(
	bookingRepo application.BookingRepository,
	paymentRepo application.PaymentRepository,
	payoutRepo application.PayoutRepository,
	idempotencyRepo application.IdempotencyRepository,
	provider application.PaymentProvider,
	locker application.BookingLocker,
	notifier application.Notifier,
	db *pgxpool.Pool,
	logger *slog.Logger,
) *CancellationService {
	return &CancellationService{
		bookingRepo:     bookingRepo,
		paymentRepo:     paymentRepo,
		payoutRepo:      payoutRepo,
		idempotencyRepo: idempotencyRepo,
		provider:        provider,
		locker:          locker,
		notifier:        notifier,
		db:              db,
		logger:          logger,
	}
}

// CancellationResult is what a completed cancellation returns and what
// gets cached for idempotent replays.
type CancellationResult struct {
	BookingID   string                  `json:"bookingId"`
	Status      domain.BookingStatus    `json:"status"`
	CancelledAt time.Time               `json:"cancelledAt"`
	Breakdown   domain.RefundBreakdown  `json:"breakdown"`
	Settlement  domain.SettlementResult `json:"settlement"`
}

// Preview prices a cancellation without executing it. Read-only, safe
// to call repeatedly while the guest decides.
func (s *CancellationService) Preview(ctx context.Context, bookingID string, by domain.Actor, exceptional bool) (*domain.RefundBreakdown, error) {
	if !by.Valid() {
		return nil, application.NewInvalidInputError(domain.NewMissingRequiredFieldError("cancelledBy"))
	}

	booking, err := s.bookingRepo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.Status != domain.BookingConfirmed && booking.Status != domain.BookingPending {
		return nil, application.NewInvalidStateError(
			domain.NewInvalidTransitionError("booking", string(booking.Status), string(domain.BookingCancelled)))
	}

	in := booking.CancellationInputAt(time.Now(), by == domain.ActorHost, exceptional)
	breakdown, err := domain.ComputeRefund(in)
	if err != nil {
		return nil, err
	}
	return &breakdown, nil
}

// Cancel executes a cancellation end to end: price it, refund the
// captured charge, then atomically flip the booking, settle the payment
// and claw the host share back out of the payout.
func (s *CancellationService) Cancel(ctx context.Context, cmd CancelBookingCommand, idempotencyKey string) (*CancellationResult, error) {
	if !cmd.CancelledBy.Valid() {
		return nil, application.NewInvalidInputError(domain.NewMissingRequiredFieldError("cancelledBy"))
	}
	requestHash := ComputeHash(cmd)

	existingKey, err := s.idempotencyRepo.FindByKey(ctx, idempotencyKey)
	if err == nil {
		if existingKey.RequestHash != requestHash {
			return nil, application.NewIdempotencyMismatchError()
		}
		if existingKey.ResponsePayload != nil {
			return decodeCachedResult(existingKey)
		}
		return s.waitForCompletion(ctx, idempotencyKey, requestHash)
	}

	release, err := s.locker.Acquire(ctx, cmd.BookingID)
	if err != nil {
		return nil, err
	}
	defer release(ctx)

	now := time.Now()

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, application.NewInternalError(err)
	}
	defer tx.Rollback(ctx)

	booking, err := s.bookingRepo.FindByIDForUpdate(ctx, tx, cmd.BookingID)
	if err != nil {
		return nil, err
	}
	// Reject before anything reaches the provider: a booking that cannot
	// be cancelled must never trigger a refund.
	if booking.Status != domain.BookingConfirmed && booking.Status != domain.BookingPending {
		return nil, application.NewInvalidStateError(
			domain.NewInvalidTransitionError("booking", string(booking.Status), string(domain.BookingCancelled)))
	}

	if err := s.idempotencyRepo.AcquireLock(ctx, tx, idempotencyKey, cmd.BookingID, requestHash); err != nil {
		if errors.Is(err, postgres.ErrDuplicateIdempotencyKey) {
			tx.Rollback(ctx)
			return s.waitForCompletion(ctx, idempotencyKey, requestHash)
		}
		return nil, application.NewInternalError(err)
	}

	in := booking.CancellationInputAt(now, cmd.CancelledBy == domain.ActorHost, cmd.ExceptionalCircumstances)
	breakdown, err := domain.ComputeRefund(in)
	if err != nil {
		return nil, err
	}

	// A pending booking has no captured payment yet; nothing to refund.
	payment, err := s.paymentRepo.FindByBookingID(ctx, cmd.BookingID)
	if err != nil && !errors.Is(err, application.ErrNotFound) {
		return nil, err
	}
	if payment != nil && breakdown.RefundableCents > payment.RemainingCents() {
		return nil, domain.NewRefundExceedsCapturedError(breakdown.RefundableCents, payment.RemainingCents())
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, application.NewInternalError(err)
	}

	if payment != nil && breakdown.RefundableCents > 0 {
		provReq := application.ProviderRefundRequest{
			CaptureID:   payment.ProviderCaptureID,
			AmountCents: breakdown.RefundableCents,
			Currency:    payment.Currency,
			Reason:      breakdown.AppliedRule,
		}

		if _, err := s.provider.Refund(ctx, provReq, idempotencyKey); err != nil {
			s.logger.Error("provider refund failed",
				"booking_id", cmd.BookingID,
				"amount_cents", breakdown.RefundableCents,
				"category", application.CategorizeError(err),
				"error", err,
			)
			if application.CategorizeError(err) == application.CategoryPermanent {
				s.storeFailure(ctx, idempotencyKey, err)
				return nil, application.NewProviderRefundFailedError(err)
			}
			return nil, err
		}
	}

	tx, err = s.db.Begin(ctx)
	if err != nil {
		return nil, application.NewInternalError(err)
	}
	defer tx.Rollback(ctx)

	booking, err = s.bookingRepo.FindByIDForUpdate(ctx, tx, cmd.BookingID)
	if err != nil {
		return nil, err
	}
	if err := booking.Cancel(now); err != nil {
		return nil, err
	}
	if err := s.bookingRepo.Update(ctx, tx, booking); err != nil {
		return nil, application.NewInternalError(err)
	}

	var settlement domain.SettlementResult
	if payment != nil {
		payment, err = s.paymentRepo.FindByBookingIDForUpdate(ctx, tx, cmd.BookingID)
		if err != nil {
			return nil, err
		}
		settlement, err = payment.ApplyRefund(breakdown)
		if err != nil {
			return nil, err
		}
		if err := s.paymentRepo.Update(ctx, tx, payment); err != nil {
			return nil, application.NewInternalError(err)
		}

		if deduction := -settlement.HostPayoutAdjustmentCents; deduction > 0 {
			payout, err := s.payoutRepo.FindByBookingIDForUpdate(ctx, tx, cmd.BookingID)
			if err != nil && !errors.Is(err, application.ErrNotFound) {
				return nil, err
			}
			if payout != nil {
				if err := payout.Adjust(deduction); err != nil {
					return nil, err
				}
				if err := s.payoutRepo.Update(ctx, tx, payout); err != nil {
					return nil, err
				}
			}
		}
	}

	result := &CancellationResult{
		BookingID:   booking.ID,
		Status:      booking.Status,
		CancelledAt: now,
		Breakdown:   breakdown,
		Settlement:  settlement,
	}

	responsePayload, _ := json.Marshal(result)
	if err := s.idempotencyRepo.StoreResponse(ctx, tx, idempotencyKey, responsePayload, http.StatusOK); err != nil {
		return nil, application.NewInternalError(err)
	}
	if err := s.idempotencyRepo.ReleaseLock(ctx, tx, idempotencyKey); err != nil {
		return nil, application.NewInternalError(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, application.NewInternalError(err)
	}

	s.publish(ctx, application.SettlementEvent{
		Type:        application.EventBookingCancelled,
		BookingID:   booking.ID,
		AmountCents: breakdown.RefundableCents,
		Actor:       string(cmd.CancelledBy),
		OccurredAt:  now,
	})

	return result, nil
}

func (s *CancellationService) waitForCompletion(ctx context.Context, idempotencyKey, requestHash string) (*CancellationResult, error) {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	timeout := time.After(30 * time.Second)

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timeout:
			return nil, application.NewTimeoutError()
		case <-ticker.C:
			key, err := s.idempotencyRepo.FindByKey(ctx, idempotencyKey)
			if err != nil {
				return nil, application.NewInternalError(err)
			}

			if key.RequestHash != requestHash {
				return nil, application.NewIdempotencyMismatchError()
			}

			if key.LockedAt == nil {
				return decodeCachedResult(key)
			}

			if time.Since(*key.LockedAt) > 5*time.Minute {
				return nil, application.NewRequestProcessingError()
			}
		}
	}
}

func (s *CancellationService) storeFailure(ctx context.Context, idempotencyKey string, provErr error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		s.logger.Error("failed to open tx for failure record", "error", err)
		return
	}
	defer tx.Rollback(ctx)

	responsePayload, _ := json.Marshal(map[string]string{
		"error": provErr.Error(),
		"code":  application.ToErrorCode(provErr),
	})
	if err := s.idempotencyRepo.StoreResponse(ctx, tx, idempotencyKey, responsePayload, application.ToHTTPStatus(provErr)); err != nil {
		s.logger.Error("failed to store failure response", "error", err)
		return
	}
	if err := s.idempotencyRepo.ReleaseLock(ctx, tx, idempotencyKey); err != nil {
		s.logger.Error("failed to release idempotency lock", "error", err)
		return
	}
	if err := tx.Commit(ctx); err != nil {
		s.logger.Error("failed to commit failure record", "error", err)
	}
}

func (s *CancellationService) publish(ctx context.Context, event application.SettlementEvent) {
	if err := s.notifier.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to publish settlement event",
			"type", event.Type,
			"booking_id", event.BookingID,
			"error", err,
		)
	}
}

func decodeCachedResult(key *application.IdempotencyKeyInfo) (*CancellationResult, error) {
	if key.StatusCode != nil && *key.StatusCode >= 400 {
		var failure struct {
			Error string `json:"error"`
			Code  string `json:"code"`
		}
		_ = json.Unmarshal(key.ResponsePayload, &failure)
		return nil, &application.ServiceError{
			Code:       failure.Code,
			Message:    failure.Error,
			HTTPStatus: *key.StatusCode,
		}
	}

	var result CancellationResult
	if err := json.Unmarshal(key.ResponsePayload, &result); err != nil {
		return nil, application.NewInternalError(err)
	}
	return &result, nil
}
