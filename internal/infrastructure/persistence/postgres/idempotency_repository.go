package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lokroom/settlement/internal/application"
)

var ErrDuplicateIdempotencyKey = errors.New("idempotency key already locked")

type IdempotencyRepository struct {
	db *pgxpool.Pool
}

func NewIdempotencyRepository(db *pgxpool.Pool) *IdempotencyRepository {
	return &IdempotencyRepository{db: db}
}

// AcquireLock claims the key via unique insert. A second caller with
// the same key gets ErrDuplicateIdempotencyKey and should wait for the
// first to finish.
func (r *IdempotencyRepository) AcquireLock(ctx context.Context, tx pgx.Tx, key, bookingID, requestHash string) error {
	query := `
		INSERT INTO idempotency_keys (key, booking_id, request_hash, locked_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := r.executor(tx).Exec(ctx, query, key, bookingID, requestHash, time.Now())
	if err != nil {
		if IsUniqueViolation(err) {
			return ErrDuplicateIdempotencyKey
		}
		return fmt.Errorf("failed to acquire idempotency lock: %w", err)
	}
	return nil
}

func (r *IdempotencyRepository) FindByKey(ctx context.Context, key string) (*application.IdempotencyKeyInfo, error) {
	query := `
		SELECT key, booking_id, request_hash, locked_at, response_payload, status_code
		FROM idempotency_keys
		WHERE key = $1
	`

	var i application.IdempotencyKeyInfo
	err := r.db.QueryRow(ctx, query, key).Scan(
		&i.Key,
		&i.BookingID,
		&i.RequestHash,
		&i.LockedAt,
		&i.ResponsePayload,
		&i.StatusCode,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, application.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load idempotency key: %w", err)
	}
	return &i, nil
}

func (r *IdempotencyRepository) StoreResponse(ctx context.Context, tx pgx.Tx, key string, responsePayload []byte, statusCode int) error {
	query := `
		UPDATE idempotency_keys
		SET response_payload = $1, status_code = $2
		WHERE key = $3
	`

	_, err := r.executor(tx).Exec(ctx, query, responsePayload, statusCode, key)
	if err != nil {
		return fmt.Errorf("failed to store idempotency response: %w", err)
	}
	return nil
}

func (r *IdempotencyRepository) ReleaseLock(ctx context.Context, tx pgx.Tx, key string) error {
	query := `
		UPDATE idempotency_keys
		SET locked_at = NULL
		WHERE key = $1
	`

	_, err := r.executor(tx).Exec(ctx, query, key)
	if err != nil {
		return fmt.Errorf("failed to release idempotency lock: %w", err)
	}
	return nil
}

func (r *IdempotencyRepository) executor(tx pgx.Tx) Executor {
	if tx != nil {
		return tx
	}
	return r.db
}
