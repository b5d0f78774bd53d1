package testhelpers

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lokroom/settlement/internal/domain"
	"github.com/lokroom/settlement/internal/infrastructure/persistence/postgres"
	"github.com/stretchr/testify/require"
)

// BookingParams describes the booking a test wants on disk. Zero values
// get sensible defaults from DefaultBookingParams.
type BookingParams struct {
	Policy     domain.CancellationPolicy
	Status     domain.BookingStatus
	StartIn    time.Duration
	Nights     int
	TotalCents int64
	GuestFee   int64
	HostFee    int64
}

// DefaultBookingParams is a confirmed 4-night flexible booking starting
// in a week: 10000 cents base, 1000 guest fee, 300 host fee.
func DefaultBookingParams() BookingParams {
	return BookingParams{
		Policy:     domain.PolicyFlexible,
		Status:     domain.BookingConfirmed,
		StartIn:    7 * 24 * time.Hour,
		Nights:     4,
		TotalCents: 10000,
		GuestFee:   1000,
		HostFee:    300,
	}
}

func InsertBooking(t *testing.T, ctx context.Context, db *postgres.DB, p BookingParams) *domain.Booking {
	t.Helper()

	now := time.Now().UTC().Truncate(time.Millisecond)
	start := now.Add(p.StartIn)
	end := start.Add(time.Duration(p.Nights) * 24 * time.Hour)
	paidAt := now

	booking := domain.ReconstituteBooking(
		uuid.New().String(),
		uuid.New().String(),
		uuid.New().String(),
		uuid.New().String(),
		start, end,
		p.TotalCents, p.GuestFee, p.HostFee,
		"EUR",
		p.Policy,
		p.Status,
		now,
		&paidAt, nil, nil,
	)

	repo := postgres.NewBookingRepository(db.Pool)
	require.NoError(t, repo.Create(ctx, nil, booking))
	return booking
}

// InsertPayment records the captured charge backing the booking: base
// price plus the guest fee.
func InsertPayment(t *testing.T, ctx context.Context, db *postgres.DB, booking *domain.Booking) *domain.Payment {
	t.Helper()

	captured := domain.Money{
		AmountCents: booking.TotalPriceCents + booking.GuestFeeCents,
		Currency:    booking.Currency,
	}
	payment, err := domain.NewPayment(booking.ID, "cap_"+uuid.New().String(), captured, booking.CreatedAt)
	require.NoError(t, err)

	repo := postgres.NewPaymentRepository(db.Pool)
	require.NoError(t, repo.Create(ctx, nil, payment))
	return payment
}

// InsertPayout creates the pending host payout for the booking: base
// price minus the host fee, eligible 24h after check-in.
func InsertPayout(t *testing.T, ctx context.Context, db *postgres.DB, booking *domain.Booking) *domain.Payout {
	t.Helper()

	amount := domain.Money{
		AmountCents: booking.TotalPriceCents - booking.HostFeeCents,
		Currency:    booking.Currency,
	}
	payout, err := domain.NewPayout(booking.ID, booking.HostID, amount, booking.ReleaseEligibleAt())
	require.NoError(t, err)

	repo := postgres.NewPayoutRepository(db.Pool)
	require.NoError(t, repo.Create(ctx, nil, payout))
	return payout
}
