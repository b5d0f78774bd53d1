package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lokroom/settlement/internal/application"
	"github.com/lokroom/settlement/internal/domain"
)

const payoutColumns = `
	booking_id, host_id, amount_cents, deficit_cents, currency,
	status, release_eligible_at, held_reason, released_at, version
`

type PayoutRepository struct {
	db *pgxpool.Pool
}

func NewPayoutRepository(db *pgxpool.Pool) *PayoutRepository {
	return &PayoutRepository{db: db}
}

func (r *PayoutRepository) Create(ctx context.Context, tx pgx.Tx, payout *domain.Payout) error {
	query := `
		INSERT INTO payouts (` + payoutColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	m := toPayoutModel(payout)
	_, err := r.executor(tx).Exec(ctx, query,
		m.BookingID, m.HostID, m.AmountCents, m.DeficitCents, m.Currency,
		m.Status, m.ReleaseEligibleAt, m.HeldReason, m.ReleasedAt, m.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to create payout: %w", err)
	}
	return nil
}

func (r *PayoutRepository) FindByBookingID(ctx context.Context, bookingID string) (*domain.Payout, error) {
	query := `SELECT ` + payoutColumns + ` FROM payouts WHERE booking_id = $1`

	row := r.db.QueryRow(ctx, query, bookingID)
	return scanPayout(row)
}

// FindByBookingIDForUpdate retrieves a payout with a row-level lock.
func (r *PayoutRepository) FindByBookingIDForUpdate(ctx context.Context, tx pgx.Tx, bookingID string) (*domain.Payout, error) {
	query := `SELECT ` + payoutColumns + ` FROM payouts WHERE booking_id = $1 FOR UPDATE`

	row := r.executor(tx).QueryRow(ctx, query, bookingID)
	return scanPayout(row)
}

func (r *PayoutRepository) FindByHostID(ctx context.Context, hostID string, limit, offset int) ([]*domain.Payout, error) {
	query := `
		SELECT ` + payoutColumns + `
		FROM payouts
		WHERE host_id = $1
		ORDER BY release_eligible_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Query(ctx, query, hostID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("query payouts by host_id: %w", err)
	}
	return collectPayouts(rows)
}

// FindReleasable returns pending payouts whose eligibility time has
// passed. Held payouts are excluded; they wait for dispute resolution.
func (r *PayoutRepository) FindReleasable(ctx context.Context, now time.Time, limit int) ([]*domain.Payout, error) {
	query := `
		SELECT ` + payoutColumns + `
		FROM payouts
		WHERE status = 'PENDING'
		  AND release_eligible_at <= $1
		ORDER BY release_eligible_at ASC
		LIMIT $2
	`

	rows, err := r.db.Query(ctx, query, now, limit)
	if err != nil {
		return nil, fmt.Errorf("query releasable payouts: %w", err)
	}
	return collectPayouts(rows)
}

// Update writes the payout back with an optimistic version check. A
// stale write surfaces as CONCURRENT_MODIFICATION so the caller can
// retry on a fresh read.
func (r *PayoutRepository) Update(ctx context.Context, tx pgx.Tx, payout *domain.Payout) error {
	query := `
		UPDATE payouts
		SET amount_cents = $1, deficit_cents = $2, status = $3,
			held_reason = $4, released_at = $5, version = version + 1
		WHERE booking_id = $6 AND version = $7
	`

	m := toPayoutModel(payout)
	result, err := r.executor(tx).Exec(ctx, query,
		m.AmountCents, m.DeficitCents, m.Status,
		m.HeldReason, m.ReleasedAt,
		m.BookingID, m.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to update payout: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.NewConcurrentModificationError("payout")
	}
	payout.Version++
	return nil
}

func (r *PayoutRepository) executor(tx pgx.Tx) Executor {
	if tx != nil {
		return tx
	}
	return r.db
}

func scanPayout(row pgx.Row) (*domain.Payout, error) {
	var m PayoutModel
	err := row.Scan(
		&m.BookingID, &m.HostID, &m.AmountCents, &m.DeficitCents, &m.Currency,
		&m.Status, &m.ReleaseEligibleAt, &m.HeldReason, &m.ReleasedAt, &m.Version,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, application.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan payout: %w", err)
	}
	return toPayoutDomain(m), nil
}

func collectPayouts(rows pgx.Rows) ([]*domain.Payout, error) {
	results, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*domain.Payout, error) {
		var m PayoutModel
		err := row.Scan(
			&m.BookingID, &m.HostID, &m.AmountCents, &m.DeficitCents, &m.Currency,
			&m.Status, &m.ReleaseEligibleAt, &m.HeldReason, &m.ReleasedAt, &m.Version,
		)
		return toPayoutDomain(m), err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan payouts: %w", err)
	}
	return results, nil
}
