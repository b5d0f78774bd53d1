package domain_test

import (
	"testing"
	"time"

	"github.com/lokroom/settlement/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPayout(t *testing.T) {
	t.Run("creates payout successfully", func(t *testing.T) {
		money, err := domain.NewMoney(8500, "EUR")
		require.NoError(t, err)
		eligibleAt := time.Now().Add(48 * time.Hour)

		p, err := domain.NewPayout("bkg-1", "host-1", money, eligibleAt)

		require.NoError(t, err)
		assert.Equal(t, domain.PayoutPending, p.Status)
		assert.Equal(t, int64(8500), p.AmountCents)
		assert.Equal(t, int64(0), p.DeficitCents)
		assert.Equal(t, eligibleAt, p.ReleaseEligibleAt)
		assert.Equal(t, int64(1), p.Version)
	})

	t.Run("rejects empty booking ID", func(t *testing.T) {
		money, _ := domain.NewMoney(8500, "EUR")

		_, err := domain.NewPayout("", "host-1", money, time.Now())

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "booking ID is required")
	})
}

func TestPayout_Release(t *testing.T) {
	now := time.Now()

	t.Run("releases a pending payout", func(t *testing.T) {
		p := createPendingPayout(t)

		err := p.Release(now)

		require.NoError(t, err)
		assert.Equal(t, domain.PayoutReleased, p.Status)
		assert.NotNil(t, p.ReleasedAt)
	})

	t.Run("held payout cannot be released directly", func(t *testing.T) {
		p := createHeldPayout(t)

		err := p.Release(now)

		assert.True(t, domain.IsErrorCode(err, domain.ErrCodePayoutHeld))
		assert.Equal(t, domain.PayoutHeld, p.Status)
	})

	t.Run("cannot release twice", func(t *testing.T) {
		p := createPendingPayout(t)
		require.NoError(t, p.Release(now))

		err := p.Release(now)

		assert.True(t, domain.IsErrorCode(err, domain.ErrCodeInvalidTransition))
	})
}

func TestPayout_Hold(t *testing.T) {
	t.Run("holds a pending payout with a reason", func(t *testing.T) {
		p := createPendingPayout(t)

		err := p.Hold("dispute dsp-1 opened")

		require.NoError(t, err)
		assert.Equal(t, domain.PayoutHeld, p.Status)
		assert.Equal(t, "dispute dsp-1 opened", *p.HeldReason)
	})

	t.Run("unhold returns the payout to the release schedule", func(t *testing.T) {
		p := createHeldPayout(t)

		err := p.Unhold()

		require.NoError(t, err)
		assert.Equal(t, domain.PayoutPending, p.Status)
		assert.Nil(t, p.HeldReason)
	})

	t.Run("cannot hold a released payout", func(t *testing.T) {
		p := createPendingPayout(t)
		require.NoError(t, p.Release(time.Now()))

		err := p.Hold("late dispute")

		assert.True(t, domain.IsErrorCode(err, domain.ErrCodeInvalidTransition))
	})
}

func TestPayout_ReleaseAfterResolution(t *testing.T) {
	now := time.Now()

	t.Run("deducts the decision and releases the remainder", func(t *testing.T) {
		p := createHeldPayout(t)

		err := p.ReleaseAfterResolution(3000, now)

		require.NoError(t, err)
		assert.Equal(t, domain.PayoutReleased, p.Status)
		assert.Equal(t, int64(5500), p.AmountCents)
		assert.Equal(t, int64(0), p.DeficitCents)
		assert.Nil(t, p.HeldReason)
	})

	t.Run("decision above the payout floors at zero and records the deficit", func(t *testing.T) {
		p := createHeldPayout(t)

		err := p.ReleaseAfterResolution(9000, now)

		require.NoError(t, err)
		assert.Equal(t, int64(0), p.AmountCents)
		assert.Equal(t, int64(500), p.DeficitCents)
	})

	t.Run("only a held payout can be resolved", func(t *testing.T) {
		p := createPendingPayout(t)

		err := p.ReleaseAfterResolution(3000, now)

		assert.True(t, domain.IsErrorCode(err, domain.ErrCodeInvalidTransition))
	})
}

func TestPayout_Adjust(t *testing.T) {
	t.Run("deducts the host share of a cancellation refund", func(t *testing.T) {
		p := createPendingPayout(t)

		err := p.Adjust(2000)

		require.NoError(t, err)
		assert.Equal(t, int64(6500), p.AmountCents)
		assert.Equal(t, domain.PayoutPending, p.Status)
	})

	t.Run("floors at zero with a deficit", func(t *testing.T) {
		p := createPendingPayout(t)

		err := p.Adjust(10000)

		require.NoError(t, err)
		assert.Equal(t, int64(0), p.AmountCents)
		assert.Equal(t, int64(1500), p.DeficitCents)
	})

	t.Run("cannot adjust a released payout", func(t *testing.T) {
		p := createPendingPayout(t)
		require.NoError(t, p.Release(time.Now()))

		err := p.Adjust(2000)

		assert.True(t, domain.IsErrorCode(err, domain.ErrCodeInvalidTransition))
	})
}

func TestPayout_ClawBack(t *testing.T) {
	t.Run("claws back a released payout", func(t *testing.T) {
		p := createPendingPayout(t)
		require.NoError(t, p.Release(time.Now()))

		err := p.ClawBack()

		require.NoError(t, err)
		assert.Equal(t, domain.PayoutClawedBack, p.Status)
	})

	t.Run("cannot claw back a pending payout", func(t *testing.T) {
		p := createPendingPayout(t)

		err := p.ClawBack()

		assert.True(t, domain.IsErrorCode(err, domain.ErrCodeInvalidTransition))
	})
}

func TestPayout_Eligible(t *testing.T) {
	eligibleAt := time.Date(2026, 3, 2, 15, 0, 0, 0, time.UTC)
	money, _ := domain.NewMoney(8500, "EUR")
	p, err := domain.NewPayout("bkg-1", "host-1", money, eligibleAt)
	require.NoError(t, err)

	assert.False(t, p.Eligible(eligibleAt.Add(-time.Minute)))
	assert.True(t, p.Eligible(eligibleAt))
	assert.True(t, p.Eligible(eligibleAt.Add(time.Hour)))
}

func createPendingPayout(t *testing.T) *domain.Payout {
	t.Helper()
	money, err := domain.NewMoney(8500, "EUR")
	require.NoError(t, err)
	p, err := domain.NewPayout("bkg-1", "host-1", money, time.Now().Add(48*time.Hour))
	require.NoError(t, err)
	return p
}

func createHeldPayout(t *testing.T) *domain.Payout {
	t.Helper()
	p := createPendingPayout(t)
	require.NoError(t, p.Hold("dispute opened"))
	return p
}
