package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lokroom/settlement/internal/application"
	"github.com/lokroom/settlement/internal/domain"
	"github.com/lokroom/settlement/internal/infrastructure/persistence/postgres"
)

// DisputeService drives the dispute lifecycle. Opening a dispute
// freezes the host payout; resolution settles the decision against the
// captured payment and the payout in one transaction.
type DisputeService struct {
	bookingRepo     application.BookingRepository
	disputeRepo     application.DisputeRepository
	paymentRepo     application.PaymentRepository
	payoutRepo      application.PayoutRepository
	idempotencyRepo application.IdempotencyRepository
	provider        application.PaymentProvider
	locker          application.BookingLocker
	notifier        application.Notifier
	db              *pgxpool.Pool
	logger          *slog.Logger
}

func NewDisputeService(
	bookingRepo application.BookingRepository,
	disputeRepo application.DisputeRepository,
	paymentRepo application.PaymentRepository,
	payoutRepo application.PayoutRepository,
	idempotencyRepo application.IdempotencyRepository,
	provider application.PaymentProvider,
	locker application.BookingLocker,
	notifier application.Notifier,
	db *pgxpool.Pool,
	logger *slog.Logger,
) *DisputeService {
	return &DisputeService{
		bookingRepo:     bookingRepo,
		disputeRepo:     disputeRepo,
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

// ResolutionResult is returned by Resolve and cached for idempotent
// replays.
type ResolutionResult struct {
	DisputeID    string                  `json:"disputeId"`
	BookingID    string                  `json:"bookingId"`
	RefundCents  int64                   `json:"refundCents"`
	Settlement   domain.SettlementResult `json:"settlement"`
	PayoutStatus domain.PayoutStatus     `json:"payoutStatus"`
}

// Open creates a dispute against a booking and freezes its payout. At
// most one active dispute may exist per booking; the partial unique
// index backstops the in-transaction check.
func (s *DisputeService) Open(ctx context.Context, cmd OpenDisputeCommand) (*domain.Dispute, error) {
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
	if booking.Status != domain.BookingConfirmed && booking.Status != domain.BookingCompleted {
		return nil, application.NewInvalidStateError(
			fmt.Errorf("cannot dispute a booking in status %s", booking.Status))
	}

	if active, err := s.disputeRepo.FindActiveByBookingID(ctx, cmd.BookingID); err == nil && active != nil {
		return nil, domain.NewDisputeAlreadyExistsError(cmd.BookingID)
	} else if err != nil && !errors.Is(err, application.ErrNotFound) {
		return nil, err
	}

	dispute, err := domain.OpenDispute(
		uuid.New().String(),
		cmd.BookingID,
		cmd.OpenedBy,
		cmd.Reason,
		cmd.Description,
		cmd.ClaimedAmountCents,
		booking.TotalPriceCents,
		now,
	)
	if err != nil {
		return nil, err
	}

	payout, err := s.payoutRepo.FindByBookingIDForUpdate(ctx, tx, cmd.BookingID)
	if err != nil && !errors.Is(err, application.ErrNotFound) {
		return nil, err
	}
	if payout != nil && payout.Status == domain.PayoutPending {
		if err := payout.Hold("dispute " + dispute.ID); err != nil {
			return nil, err
		}
		if err := s.payoutRepo.Update(ctx, tx, payout); err != nil {
			return nil, err
		}
	}

	if err := s.disputeRepo.Create(ctx, tx, dispute); err != nil {
		if postgres.IsUniqueViolation(err) {
			return nil, domain.NewDisputeAlreadyExistsError(cmd.BookingID)
		}
		return nil, application.NewInternalError(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, application.NewInternalError(err)
	}

	s.publish(ctx, application.SettlementEvent{
		Type:       application.EventDisputeOpened,
		BookingID:  cmd.BookingID,
		DisputeID:  dispute.ID,
		Actor:      string(cmd.OpenedBy),
		OccurredAt: now,
	})

	// The counterparty has been notified; start the response clock.
	if err := s.markAwaitingResponse(ctx, dispute.ID); err != nil {
		s.logger.Warn("failed to mark dispute awaiting response",
			"dispute_id", dispute.ID, "error", err)
		return dispute, nil
	}
	dispute.Status = domain.DisputeAwaitingResponse

	return dispute, nil
}

// Respond records a party's message on the dispute. Once both sides
// have spoken the dispute moves to UNDER_REVIEW automatically.
func (s *DisputeService) Respond(ctx context.Context, cmd RespondDisputeCommand) (*domain.Dispute, error) {
	var dispute *domain.Dispute
	err := withTx(ctx, s.db, func(tx txExecutor) error {
		var txErr error
		dispute, txErr = s.disputeRepo.FindByIDForUpdate(ctx, tx, cmd.DisputeID)
		if txErr != nil {
			return txErr
		}
		if txErr := dispute.RecordResponse(cmd.Responder); txErr != nil {
			return txErr
		}
		return s.disputeRepo.Update(ctx, tx, dispute)
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, application.SettlementEvent{
		Type:       application.EventDisputeResponse,
		BookingID:  dispute.BookingID,
		DisputeID:  dispute.ID,
		Actor:      string(cmd.Responder),
		OccurredAt: time.Now(),
	})
	return dispute, nil
}

// Escalate moves a dispute to UNDER_REVIEW by staff action, bypassing
// the response exchange.
func (s *DisputeService) Escalate(ctx context.Context, disputeID string) (*domain.Dispute, error) {
	var dispute *domain.Dispute
	err := withTx(ctx, s.db, func(tx txExecutor) error {
		var txErr error
		dispute, txErr = s.disputeRepo.FindByIDForUpdate(ctx, tx, disputeID)
		if txErr != nil {
			return txErr
		}
		if txErr := dispute.Escalate(); txErr != nil {
			return txErr
		}
		return s.disputeRepo.Update(ctx, tx, dispute)
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, application.SettlementEvent{
		Type:       application.EventDisputeEscalated,
		BookingID:  dispute.BookingID,
		DisputeID:  dispute.ID,
		OccurredAt: time.Now(),
	})
	return dispute, nil
}

// Resolve records the staff decision and settles it: the decided
// amount is refunded to the guest from the captured charge and deducted
// from the held payout, which is then released.
func (s *DisputeService) Resolve(ctx context.Context, cmd ResolveDisputeCommand, idempotencyKey string) (*ResolutionResult, error) {
	requestHash := ComputeHash(cmd)

	existingKey, err := s.idempotencyRepo.FindByKey(ctx, idempotencyKey)
	if err == nil {
		if existingKey.RequestHash != requestHash {
			return nil, application.NewIdempotencyMismatchError()
		}
		if existingKey.ResponsePayload != nil {
			return decodeCachedResolution(existingKey)
		}
		return s.waitForResolution(ctx, idempotencyKey, requestHash)
	}

	dispute, err := s.disputeRepo.FindByID(ctx, cmd.DisputeID)
	if err != nil {
		return nil, err
	}

	release, err := s.locker.Acquire(ctx, dispute.BookingID)
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

	dispute, err = s.disputeRepo.FindByIDForUpdate(ctx, tx, cmd.DisputeID)
	if err != nil {
		return nil, err
	}
	booking, err := s.bookingRepo.FindByID(ctx, dispute.BookingID)
	if err != nil {
		return nil, err
	}
	if dispute.Status == domain.DisputeClosed {
		return nil, domain.NewDisputeClosedError(dispute.ID)
	}
	if dispute.Status != domain.DisputeUnderReview {
		return nil, domain.NewInvalidTransitionError("dispute", string(dispute.Status), string(domain.DisputeResolved))
	}
	if cmd.RefundCents < 0 {
		return nil, domain.NewInvalidAmountError(cmd.RefundCents)
	}
	if cmd.RefundCents > booking.TotalPriceCents {
		return nil, domain.NewRefundExceedsBookingTotalError(cmd.RefundCents, booking.TotalPriceCents)
	}

	if err := s.idempotencyRepo.AcquireLock(ctx, tx, idempotencyKey, dispute.BookingID, requestHash); err != nil {
		if errors.Is(err, postgres.ErrDuplicateIdempotencyKey) {
			tx.Rollback(ctx)
			return s.waitForResolution(ctx, idempotencyKey, requestHash)
		}
		return nil, application.NewInternalError(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, application.NewInternalError(err)
	}

	var payment *domain.Payment
	if cmd.RefundCents > 0 {
		payment, err = s.paymentRepo.FindByBookingID(ctx, dispute.BookingID)
		if err != nil {
			return nil, err
		}

		provReq := application.ProviderRefundRequest{
			CaptureID:   payment.ProviderCaptureID,
			AmountCents: cmd.RefundCents,
			Currency:    payment.Currency,
			Reason:      "dispute " + dispute.ID,
		}
		if _, err := s.provider.Refund(ctx, provReq, idempotencyKey); err != nil {
			s.logger.Error("provider refund failed for dispute resolution",
				"dispute_id", dispute.ID,
				"amount_cents", cmd.RefundCents,
				"category", application.CategorizeError(err),
				"error", err,
			)
			if application.CategorizeError(err) == application.CategoryPermanent {
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

	dispute, err = s.disputeRepo.FindByIDForUpdate(ctx, tx, cmd.DisputeID)
	if err != nil {
		return nil, err
	}
	decision := domain.DisputeDecision{RefundCents: cmd.RefundCents, Rationale: cmd.Rationale}
	if err := dispute.Resolve(decision, booking.TotalPriceCents, now); err != nil {
		return nil, err
	}
	if err := s.disputeRepo.Update(ctx, tx, dispute); err != nil {
		return nil, err
	}

	var settlement domain.SettlementResult
	if cmd.RefundCents > 0 {
		payment, err = s.paymentRepo.FindByBookingIDForUpdate(ctx, tx, dispute.BookingID)
		if err != nil {
			return nil, err
		}
		settlement, err = payment.ApplyRefund(domain.RefundBreakdown{
			RefundableCents: cmd.RefundCents,
			AppliedRule:     "DISPUTE_RESOLUTION",
		})
		if err != nil {
			return nil, err
		}
		if err := s.paymentRepo.Update(ctx, tx, payment); err != nil {
			return nil, err
		}
	}

	payoutStatus, err := s.settlePayout(ctx, tx, dispute.BookingID, cmd.RefundCents, now)
	if err != nil {
		return nil, err
	}

	result := &ResolutionResult{
		DisputeID:    dispute.ID,
		BookingID:    dispute.BookingID,
		RefundCents:  cmd.RefundCents,
		Settlement:   settlement,
		PayoutStatus: payoutStatus,
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
		Type:        application.EventDisputeResolved,
		BookingID:   dispute.BookingID,
		DisputeID:   dispute.ID,
		AmountCents: cmd.RefundCents,
		OccurredAt:  now,
	})
	if payoutStatus == domain.PayoutReleased {
		s.publish(ctx, application.SettlementEvent{
			Type:       application.EventPayoutReleased,
			BookingID:  dispute.BookingID,
			OccurredAt: now,
		})
	}

	return result, nil
}

// Close archives a resolved dispute or withdraws an unresolved one. A
// withdrawal returns the held payout to the normal release schedule.
func (s *DisputeService) Close(ctx context.Context, cmd CloseDisputeCommand) (*domain.Dispute, error) {
	now := time.Now()

	var dispute *domain.Dispute
	err := withTx(ctx, s.db, func(tx txExecutor) error {
		var txErr error
		dispute, txErr = s.disputeRepo.FindByIDForUpdate(ctx, tx, cmd.DisputeID)
		if txErr != nil {
			return txErr
		}

		wasResolved := dispute.Status == domain.DisputeResolved
		if txErr := dispute.Close(now); txErr != nil {
			return txErr
		}
		if txErr := s.disputeRepo.Update(ctx, tx, dispute); txErr != nil {
			return txErr
		}

		if !wasResolved {
			payout, txErr := s.payoutRepo.FindByBookingIDForUpdate(ctx, tx, dispute.BookingID)
			if txErr != nil && !errors.Is(txErr, application.ErrNotFound) {
				return txErr
			}
			if payout != nil && payout.Status == domain.PayoutHeld {
				if txErr := payout.Unhold(); txErr != nil {
					return txErr
				}
				if txErr := s.payoutRepo.Update(ctx, tx, payout); txErr != nil {
					return txErr
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, application.SettlementEvent{
		Type:       application.EventDisputeClosed,
		BookingID:  dispute.BookingID,
		DisputeID:  dispute.ID,
		OccurredAt: now,
	})
	return dispute, nil
}

// EscalateOverdue escalates disputes whose response window lapsed
// without the counterparty answering. Called by the deadline worker.
func (s *DisputeService) EscalateOverdue(ctx context.Context, batchSize int) (int, error) {
	overdue, err := s.disputeRepo.FindPastResponseDeadline(ctx, time.Now(), batchSize)
	if err != nil {
		return 0, err
	}

	escalated := 0
	for _, d := range overdue {
		if _, err := s.Escalate(ctx, d.ID); err != nil {
			s.logger.Warn("failed to escalate overdue dispute",
				"dispute_id", d.ID, "error", err)
			continue
		}
		escalated++
	}
	return escalated, nil
}

func (s *DisputeService) settlePayout(ctx context.Context, tx txExecutor, bookingID string, refundCents int64, now time.Time) (domain.PayoutStatus, error) {
	payout, err := s.payoutRepo.FindByBookingIDForUpdate(ctx, tx, bookingID)
	if err != nil {
		if errors.Is(err, application.ErrNotFound) {
			return "", nil
		}
		return "", err
	}

	switch payout.Status {
	case domain.PayoutHeld:
		if err := payout.ReleaseAfterResolution(refundCents, now); err != nil {
			return "", err
		}
	case domain.PayoutPending:
		if refundCents > 0 {
			if err := payout.Adjust(refundCents); err != nil {
				return "", err
			}
		}
	case domain.PayoutReleased:
		// Post-release decision against the host: the money already
		// left, recover it.
		if refundCents > 0 {
			if err := payout.ClawBack(); err != nil {
				return "", err
			}
		}
	}

	if err := s.payoutRepo.Update(ctx, tx, payout); err != nil {
		return "", err
	}
	return payout.Status, nil
}

func (s *DisputeService) markAwaitingResponse(ctx context.Context, disputeID string) error {
	return withTx(ctx, s.db, func(tx txExecutor) error {
		dispute, err := s.disputeRepo.FindByIDForUpdate(ctx, tx, disputeID)
		if err != nil {
			return err
		}
		if err := dispute.MarkAwaitingResponse(); err != nil {
			return err
		}
		return s.disputeRepo.Update(ctx, tx, dispute)
	})
}

func (s *DisputeService) waitForResolution(ctx context.Context, idempotencyKey, requestHash string) (*ResolutionResult, error) {
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
				return decodeCachedResolution(key)
			}

			if time.Since(*key.LockedAt) > 5*time.Minute {
				return nil, application.NewRequestProcessingError()
			}
		}
	}
}

func (s *DisputeService) publish(ctx context.Context, event application.SettlementEvent) {
	if err := s.notifier.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to publish settlement event",
			"type", event.Type,
			"booking_id", event.BookingID,
			"error", err,
		)
	}
}

func decodeCachedResolution(key *application.IdempotencyKeyInfo) (*ResolutionResult, error) {
	var result ResolutionResult
	if err := json.Unmarshal(key.ResponsePayload, &result); err != nil {
		return nil, application.NewInternalError(err)
	}
	return &result, nil
}
