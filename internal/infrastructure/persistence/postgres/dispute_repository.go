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

const disputeColumns = `
	id, booking_id, opened_by, reason, description, claimed_amount_cents,
	status, opened_at, response_deadline, resolved_at, closed_at,
	decision_refund_cents, decision_rationale, guest_responded, host_responded
`

// Active statuses, used with the partial unique index on booking_id.
const activeDisputeStatuses = `('OPEN', 'AWAITING_RESPONSE', 'UNDER_REVIEW')`

type DisputeRepository struct {
	db *pgxpool.Pool
}

func NewDisputeRepository(db *pgxpool.Pool) *DisputeRepository {
	return &DisputeRepository{db: db}
}

func (r *DisputeRepository) Create(ctx context.Context, tx pgx.Tx, dispute *domain.Dispute) error {
	query := `
		INSERT INTO disputes (` + disputeColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	m := toDisputeModel(dispute)
	_, err := r.executor(tx).Exec(ctx, query,
		m.ID, m.BookingID, m.OpenedBy, m.Reason, m.Description, m.ClaimedAmountCents,
		m.Status, m.OpenedAt, m.ResponseDeadline, m.ResolvedAt, m.ClosedAt,
		m.DecisionRefundCents, m.DecisionRationale, m.GuestResponded, m.HostResponded,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return err
		}
		return fmt.Errorf("failed to create dispute: %w", err)
	}
	return nil
}

func (r *DisputeRepository) FindByID(ctx context.Context, id string) (*domain.Dispute, error) {
	query := `SELECT ` + disputeColumns + ` FROM disputes WHERE id = $1`

	row := r.db.QueryRow(ctx, query, id)
	return scanDispute(row)
}

// FindByIDForUpdate retrieves a dispute with a row-level lock.
func (r *DisputeRepository) FindByIDForUpdate(ctx context.Context, tx pgx.Tx, id string) (*domain.Dispute, error) {
	query := `SELECT ` + disputeColumns + ` FROM disputes WHERE id = $1 FOR UPDATE`

	row := r.executor(tx).QueryRow(ctx, query, id)
	return scanDispute(row)
}

// FindActiveByBookingID returns the booking's single active dispute, if
// one exists.
func (r *DisputeRepository) FindActiveByBookingID(ctx context.Context, bookingID string) (*domain.Dispute, error) {
	query := `
		SELECT ` + disputeColumns + `
		FROM disputes
		WHERE booking_id = $1 AND status IN ` + activeDisputeStatuses + `
	`

	row := r.db.QueryRow(ctx, query, bookingID)
	return scanDispute(row)
}

func (r *DisputeRepository) FindByBookingID(ctx context.Context, bookingID string) ([]*domain.Dispute, error) {
	query := `
		SELECT ` + disputeColumns + `
		FROM disputes
		WHERE booking_id = $1
		ORDER BY opened_at DESC
	`

	rows, err := r.db.Query(ctx, query, bookingID)
	if err != nil {
		return nil, fmt.Errorf("query disputes by booking_id: %w", err)
	}
	return collectDisputes(rows)
}

// FindPastResponseDeadline returns disputes still waiting on a
// response whose window lapsed before the cutoff. OPEN is included so
// a dispute that never reached AWAITING_RESPONSE does not hold its
// payout forever.
func (r *DisputeRepository) FindPastResponseDeadline(ctx context.Context, cutoff time.Time, limit int) ([]*domain.Dispute, error) {
	query := `
		SELECT ` + disputeColumns + `
		FROM disputes
		WHERE status IN ('OPEN', 'AWAITING_RESPONSE')
		  AND response_deadline < $1
		ORDER BY response_deadline ASC
		LIMIT $2
	`

	rows, err := r.db.Query(ctx, query, cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("query overdue disputes: %w", err)
	}
	return collectDisputes(rows)
}

func (r *DisputeRepository) Update(ctx context.Context, tx pgx.Tx, dispute *domain.Dispute) error {
	query := `
		UPDATE disputes
		SET status = $1, resolved_at = $2, closed_at = $3,
			decision_refund_cents = $4, decision_rationale = $5,
			guest_responded = $6, host_responded = $7
		WHERE id = $8
	`

	m := toDisputeModel(dispute)
	result, err := r.executor(tx).Exec(ctx, query,
		m.Status, m.ResolvedAt, m.ClosedAt,
		m.DecisionRefundCents, m.DecisionRationale,
		m.GuestResponded, m.HostResponded,
		m.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update dispute: %w", err)
	}
	if result.RowsAffected() == 0 {
		return application.ErrNotFound
	}
	return nil
}

func (r *DisputeRepository) executor(tx pgx.Tx) Executor {
	if tx != nil {
		return tx
	}
	return r.db
}

func scanDispute(row pgx.Row) (*domain.Dispute, error) {
	var m DisputeModel
	err := row.Scan(
		&m.ID, &m.BookingID, &m.OpenedBy, &m.Reason, &m.Description, &m.ClaimedAmountCents,
		&m.Status, &m.OpenedAt, &m.ResponseDeadline, &m.ResolvedAt, &m.ClosedAt,
		&m.DecisionRefundCents, &m.DecisionRationale, &m.GuestResponded, &m.HostResponded,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, application.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan dispute: %w", err)
	}
	return toDisputeDomain(m), nil
}

func collectDisputes(rows pgx.Rows) ([]*domain.Dispute, error) {
	results, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*domain.Dispute, error) {
		var m DisputeModel
		err := row.Scan(
			&m.ID, &m.BookingID, &m.OpenedBy, &m.Reason, &m.Description, &m.ClaimedAmountCents,
			&m.Status, &m.OpenedAt, &m.ResponseDeadline, &m.ResolvedAt, &m.ClosedAt,
			&m.DecisionRefundCents, &m.DecisionRationale, &m.GuestResponded, &m.HostResponded,
		)
		return toDisputeDomain(m), err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan disputes: %w", err)
	}
	return results, nil
}
