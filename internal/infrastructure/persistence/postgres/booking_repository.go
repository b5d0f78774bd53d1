package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lokroom/settlement/internal/application"
	"github.com/lokroom/settlement/internal/domain"
)

const bookingColumns = `
	id, listing_id, guest_id, host_id, start_date, end_date,
	total_price_cents, guest_fee_cents, host_fee_cents, currency,
	cancellation_policy, status, created_at, paid_at, check_in_at, cancelled_at
`

type BookingRepository struct {
	db *pgxpool.Pool
}

func NewBookingRepository(db *pgxpool.Pool) *BookingRepository {
	return &BookingRepository{db: db}
}

func (r *BookingRepository) Create(ctx context.Context, tx pgx.Tx, booking *domain.Booking) error {
	query := `
		INSERT INTO bookings (` + bookingColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`

	m := toBookingModel(booking)
	_, err := r.executor(tx).Exec(ctx, query,
		m.ID, m.ListingID, m.GuestID, m.HostID, m.StartDate, m.EndDate,
		m.TotalPriceCents, m.GuestFeeCents, m.HostFeeCents, m.Currency,
		m.CancellationPolicy, m.Status, m.CreatedAt, m.PaidAt, m.CheckInAt, m.CancelledAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}
	return nil
}

func (r *BookingRepository) FindByID(ctx context.Context, id string) (*domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`

	row := r.db.QueryRow(ctx, query, id)
	return scanBooking(row)
}

// FindByIDForUpdate retrieves a booking with a row-level lock.
func (r *BookingRepository) FindByIDForUpdate(ctx context.Context, tx pgx.Tx, id string) (*domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1 FOR UPDATE`

	row := r.executor(tx).QueryRow(ctx, query, id)
	return scanBooking(row)
}

func (r *BookingRepository) Update(ctx context.Context, tx pgx.Tx, booking *domain.Booking) error {
	query := `
		UPDATE bookings
		SET status = $1, paid_at = $2, check_in_at = $3, cancelled_at = $4
		WHERE id = $5
	`

	m := toBookingModel(booking)
	result, err := r.executor(tx).Exec(ctx, query,
		m.Status, m.PaidAt, m.CheckInAt, m.CancelledAt, m.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update booking: %w", err)
	}
	if result.RowsAffected() == 0 {
		return application.ErrNotFound
	}
	return nil
}

func (r *BookingRepository) executor(tx pgx.Tx) Executor {
	if tx != nil {
		return tx
	}
	return r.db
}

func scanBooking(row pgx.Row) (*domain.Booking, error) {
	var m BookingModel
	err := row.Scan(
		&m.ID, &m.ListingID, &m.GuestID, &m.HostID, &m.StartDate, &m.EndDate,
		&m.TotalPriceCents, &m.GuestFeeCents, &m.HostFeeCents, &m.Currency,
		&m.CancellationPolicy, &m.Status, &m.CreatedAt, &m.PaidAt, &m.CheckInAt, &m.CancelledAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, application.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan booking: %w", err)
	}
	return toBookingDomain(m), nil
}
