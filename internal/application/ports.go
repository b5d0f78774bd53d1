package application

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/lokroom/settlement/internal/domain"
)

// PaymentProvider is the port for the external payment service provider
// that captured the booking charge and executes refunds against it.
type PaymentProvider interface {
	Refund(ctx context.Context, req ProviderRefundRequest, idempotencyKey string) (*ProviderRefundResponse, error)
}

type ProviderRefundRequest struct {
	CaptureID   string
	AmountCents int64
	Currency    string
	Reason      string
}

type ProviderRefundResponse struct {
	RefundID    string
	CaptureID   string
	AmountCents int64
	Currency    string
	Status      string
	RefundedAt  time.Time
}

// Notifier publishes settlement events for downstream consumers
// (email, in-app notifications, analytics). Delivery is best-effort;
// a failed publish never rolls back a settlement.
type Notifier interface {
	Publish(ctx context.Context, event SettlementEvent) error
}

type SettlementEvent struct {
	Type        string    `json:"type"`
	BookingID   string    `json:"bookingId"`
	DisputeID   string    `json:"disputeId,omitempty"`
	AmountCents int64     `json:"amountCents,omitempty"`
	Actor       string    `json:"actor,omitempty"`
	OccurredAt  time.Time `json:"occurredAt"`
}

// Event types carried on the settlement topic.
const (
	EventBookingCancelled = "booking.cancelled"
	EventDisputeOpened    = "dispute.opened"
	EventDisputeResponse  = "dispute.response"
	EventDisputeEscalated = "dispute.escalated"
	EventDisputeResolved  = "dispute.resolved"
	EventDisputeClosed    = "dispute.closed"
	EventPayoutReleased   = "payout.released"
)

// BookingLocker serializes mutations per booking across service
// instances. Acquire returns a release function; a held lock means
// another mutation on the same booking is in flight.
type BookingLocker interface {
	Acquire(ctx context.Context, bookingID string) (release func(context.Context), err error)
}

// BookingRepository is the port for booking persistence.
type BookingRepository interface {
	Create(ctx context.Context, tx pgx.Tx, booking *domain.Booking) error
	FindByID(ctx context.Context, id string) (*domain.Booking, error)
	FindByIDForUpdate(ctx context.Context, tx pgx.Tx, id string) (*domain.Booking, error)
	Update(ctx context.Context, tx pgx.Tx, booking *domain.Booking) error
}

// PaymentRepository stores the captured charges backing bookings.
type PaymentRepository interface {
	Create(ctx context.Context, tx pgx.Tx, payment *domain.Payment) error
	FindByBookingID(ctx context.Context, bookingID string) (*domain.Payment, error)
	FindByBookingIDForUpdate(ctx context.Context, tx pgx.Tx, bookingID string) (*domain.Payment, error)
	Update(ctx context.Context, tx pgx.Tx, payment *domain.Payment) error
}

type DisputeRepository interface {
	Create(ctx context.Context, tx pgx.Tx, dispute *domain.Dispute) error
	FindByID(ctx context.Context, id string) (*domain.Dispute, error)
	FindByIDForUpdate(ctx context.Context, tx pgx.Tx, id string) (*domain.Dispute, error)
	FindActiveByBookingID(ctx context.Context, bookingID string) (*domain.Dispute, error)
	FindByBookingID(ctx context.Context, bookingID string) ([]*domain.Dispute, error)
	FindPastResponseDeadline(ctx context.Context, cutoff time.Time, limit int) ([]*domain.Dispute, error)
	Update(ctx context.Context, tx pgx.Tx, dispute *domain.Dispute) error
}

type PayoutRepository interface {
	Create(ctx context.Context, tx pgx.Tx, payout *domain.Payout) error
	FindByBookingID(ctx context.Context, bookingID string) (*domain.Payout, error)
	FindByBookingIDForUpdate(ctx context.Context, tx pgx.Tx, bookingID string) (*domain.Payout, error)
	FindByHostID(ctx context.Context, hostID string, limit, offset int) ([]*domain.Payout, error)
	FindReleasable(ctx context.Context, now time.Time, limit int) ([]*domain.Payout, error)
	// Update enforces the optimistic version check and returns a
	// CONCURRENT_MODIFICATION domain error on a stale write.
	Update(ctx context.Context, tx pgx.Tx, payout *domain.Payout) error
}

// IdempotencyRepository guards money-moving operations against replays.
type IdempotencyRepository interface {
	AcquireLock(ctx context.Context, tx pgx.Tx, key, bookingID, requestHash string) error
	FindByKey(ctx context.Context, key string) (*IdempotencyKeyInfo, error)
	StoreResponse(ctx context.Context, tx pgx.Tx, key string, responsePayload []byte, statusCode int) error
	ReleaseLock(ctx context.Context, tx pgx.Tx, key string) error
}

type IdempotencyKeyInfo struct {
	Key             string
	BookingID       string
	RequestHash     string
	LockedAt        *time.Time
	ResponsePayload []byte
	StatusCode      *int
}
