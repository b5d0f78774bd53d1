package provider

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/lokroom/settlement/internal/application"
	"github.com/lokroom/settlement/internal/config"
)

// RetryProviderClient decorates a PaymentProvider with exponential
// backoff on transient failures. Permanent provider rejections fail
// fast; the idempotency key makes the replayed calls safe.
type RetryProviderClient struct {
	inner      application.PaymentProvider
	baseDelay  time.Duration
	maxRetries int
}

func NewRetryProviderClient(inner application.PaymentProvider, cfg config.RetryConfig) application.PaymentProvider {
	return &RetryProviderClient{
		inner:      inner,
		baseDelay:  time.Duration(cfg.BaseDelay) * time.Second,
		maxRetries: int(cfg.MaxRetries),
	}
}

func (r *RetryProviderClient) Refund(ctx context.Context, req application.ProviderRefundRequest, idempotencyKey string) (*application.ProviderRefundResponse, error) {
	return retry(
		r,
		ctx,
		func(ctx context.Context) (*application.ProviderRefundResponse, error) {
			return r.inner.Refund(ctx, req, idempotencyKey)
		},
	)
}

// Generic retry helper
func retry[T any](r *RetryProviderClient, ctx context.Context, operation func(ctx context.Context) (*T, error)) (*T, error) {
	var lastErr error

	for attempt := 0; attempt < r.maxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		resp, err := operation(ctx)
		if err == nil {
			return resp, nil
		}

		lastErr = err

		if !isRetryable(err) {
			return nil, err
		}

		if attempt < r.maxRetries-1 {
			time.Sleep(r.backoff(attempt))
		}
	}

	return nil, fmt.Errorf("maximum retries exceeded: %w", lastErr)
}

// Helper: to check retryable errors
func isRetryable(err error) bool {
	if provErr, ok := application.IsProviderError(err); ok {
		if provErr.StatusCode >= 500 {
			return true
		}
		if provErr.Code == "internal_error" || provErr.Code == "rate_limited" {
			return true
		}
		return false
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	return true
}

// Backoff calculation with exponential delay and jitter
func (r *RetryProviderClient) backoff(attempt int) time.Duration {
	base := r.baseDelay * time.Duration(1<<attempt)

	jitter := time.Duration(rand.Intn(1000)) * time.Millisecond

	return base + jitter
}
