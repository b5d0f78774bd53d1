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

const paymentColumns = `
	booking_id, provider_capture_id, captured_cents, already_refunded_cents,
	currency, captured_at, refunded_at
`

type PaymentRepository struct {
	db *pgxpool.Pool
}

func NewPaymentRepository(db *pgxpool.Pool) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) Create(ctx context.Context, tx pgx.Tx, payment *domain.Payment) error {
	query := `
		INSERT INTO payments (` + paymentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	m := toPaymentModel(payment)
	_, err := r.executor(tx).Exec(ctx, query,
		m.BookingID, m.ProviderCaptureID, m.CapturedCents, m.AlreadyRefundedCents,
		m.Currency, m.CapturedAt, m.RefundedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create payment: %w", err)
	}
	return nil
}

func (r *PaymentRepository) FindByBookingID(ctx context.Context, bookingID string) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE booking_id = $1`

	row := r.db.QueryRow(ctx, query, bookingID)
	return scanPayment(row)
}

// FindByBookingIDForUpdate retrieves a payment with a row-level lock.
func (r *PaymentRepository) FindByBookingIDForUpdate(ctx context.Context, tx pgx.Tx, bookingID string) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE booking_id = $1 FOR UPDATE`

	row := r.executor(tx).QueryRow(ctx, query, bookingID)
	return scanPayment(row)
}

func (r *PaymentRepository) Update(ctx context.Context, tx pgx.Tx, payment *domain.Payment) error {
	query := `
		UPDATE payments
		SET already_refunded_cents = $1, refunded_at = $2
		WHERE booking_id = $3
	`

	m := toPaymentModel(payment)
	result, err := r.executor(tx).Exec(ctx, query,
		m.AlreadyRefundedCents, m.RefundedAt, m.BookingID,
	)
	if err != nil {
		return fmt.Errorf("failed to update payment: %w", err)
	}
	if result.RowsAffected() == 0 {
		return application.ErrNotFound
	}
	return nil
}

func (r *PaymentRepository) executor(tx pgx.Tx) Executor {
	if tx != nil {
		return tx
	}
	return r.db
}

func scanPayment(row pgx.Row) (*domain.Payment, error) {
	var m PaymentModel
	err := row.Scan(
		&m.BookingID, &m.ProviderCaptureID, &m.CapturedCents, &m.AlreadyRefundedCents,
		&m.Currency, &m.CapturedAt, &m.RefundedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, application.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan payment: %w", err)
	}
	return toPaymentDomain(m), nil
}
