// Package locker serializes settlement mutations per booking across
// service instances with a redis SetNX lease.
package locker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lokroom/settlement/internal/application"
	"github.com/lokroom/settlement/internal/config"
	"github.com/redis/go-redis/v9"
)

type RedisBookingLocker struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewRedisBookingLocker(cfg config.RedisConfig, logger *slog.Logger) *RedisBookingLocker {
	ttl := cfg.LockTTL
	if ttl == 0 {
		ttl = 30 * time.Second
	}
	return &RedisBookingLocker{
		client: redis.NewClient(&redis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		}),
		ttl:    ttl,
		logger: logger,
	}
}

// Acquire claims the booking's mutation lock. A contended lock means
// another cancellation, dispute or payout operation on the same booking
// is in flight; the caller should surface a retryable conflict rather
// than wait. The TTL bounds how long a crashed holder blocks the
// booking.
func (l *RedisBookingLocker) Acquire(ctx context.Context, bookingID string) (func(context.Context), error) {
	key := bookingLockKey(bookingID)

	ok, err := l.client.SetNX(ctx, key, "locked", l.ttl).Result()
	if err != nil {
		return nil, application.NewInternalError(err)
	}
	if !ok {
		return nil, application.NewBookingLockedError(bookingID)
	}

	release := func(ctx context.Context) {
		if err := l.client.Del(ctx, key).Err(); err != nil {
			l.logger.Warn("failed to release booking lock",
				"booking_id", bookingID, "error", err)
		}
	}
	return release, nil
}

func (l *RedisBookingLocker) Ping(ctx context.Context) error {
	return l.client.Ping(ctx).Err()
}

func (l *RedisBookingLocker) Close() error {
	return l.client.Close()
}

func bookingLockKey(bookingID string) string {
	return fmt.Sprintf("lock:booking:%s", bookingID)
}
