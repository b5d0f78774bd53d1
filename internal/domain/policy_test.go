package domain_test

import (
	"testing"

	"github.com/lokroom/settlement/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeRefund_PolicyTiers(t *testing.T) {
	tests := []struct {
		name               string
		in                 domain.CancellationInput
		wantRefundable     int64
		wantNonRefundable  int64
		wantGuestFeeRefund int64
		wantRule           string
	}{
		{
			name: "moderate six days out refunds everything including guest fee",
			in: domain.CancellationInput{
				Policy:             domain.PolicyModerate,
				TotalPriceCents:    10000,
				GuestFeeCents:      1200,
				Nights:             4,
				HoursBeforeCheckIn: 6 * 24,
			},
			wantRefundable:     11200,
			wantNonRefundable:  0,
			wantGuestFeeRefund: 1200,
			wantRule:           domain.RuleModerateFull,
		},
		{
			name: "moderate two days out refunds half the base and no fee",
			in: domain.CancellationInput{
				Policy:             domain.PolicyModerate,
				TotalPriceCents:    10000,
				GuestFeeCents:      1200,
				Nights:             4,
				HoursBeforeCheckIn: 2 * 24,
			},
			wantRefundable:    5000,
			wantNonRefundable: 6200,
			wantRule:          domain.RuleModerateHalf,
		},
		{
			name: "strict three days out refunds nothing",
			in: domain.CancellationInput{
				Policy:             domain.PolicyStrict,
				TotalPriceCents:    10000,
				GuestFeeCents:      1200,
				Nights:             4,
				HoursBeforeCheckIn: 3 * 24,
			},
			wantRefundable:    0,
			wantNonRefundable: 11200,
			wantRule:          domain.RuleStrictNoRefund,
		},
		{
			name: "non-refundable with exceptional circumstances refunds everything",
			in: domain.CancellationInput{
				Policy:                   domain.PolicyNonRefundable,
				TotalPriceCents:          10000,
				GuestFeeCents:            1200,
				Nights:                   4,
				HoursBeforeCheckIn:       2 * 24,
				ExceptionalCircumstances: true,
			},
			wantRefundable:     11200,
			wantNonRefundable:  0,
			wantGuestFeeRefund: 1200,
			wantRule:           domain.RuleExceptional,
		},
		{
			name: "flexible more than 24h out refunds everything",
			in: domain.CancellationInput{
				Policy:             domain.PolicyFlexible,
				TotalPriceCents:    10000,
				GuestFeeCents:      1200,
				Nights:             4,
				HoursBeforeCheckIn: 36,
			},
			wantRefundable:     11200,
			wantNonRefundable:  0,
			wantGuestFeeRefund: 1200,
			wantRule:           domain.RuleFlexibleFull,
		},
		{
			name: "flexible under 24h forfeits the first night",
			in: domain.CancellationInput{
				Policy:             domain.PolicyFlexible,
				TotalPriceCents:    10000,
				GuestFeeCents:      1200,
				Nights:             4,
				HoursBeforeCheckIn: 10,
			},
			wantRefundable:    7500,
			wantNonRefundable: 3700,
			wantRule:          domain.RuleFlexibleFirstNight,
		},
		{
			name: "flexible mid-stay refunds remaining nights in full",
			in: domain.CancellationInput{
				Policy:             domain.PolicyFlexible,
				TotalPriceCents:    10000,
				GuestFeeCents:      1200,
				Nights:             4,
				NightsElapsed:      2,
				HoursBeforeCheckIn: -30,
				Started:            true,
			},
			wantRefundable:    5000,
			wantNonRefundable: 6200,
			wantRule:          domain.RuleFlexibleRemaining,
		},
		{
			name: "moderate mid-stay refunds half the remaining nights",
			in: domain.CancellationInput{
				Policy:             domain.PolicyModerate,
				TotalPriceCents:    10000,
				GuestFeeCents:      1200,
				Nights:             4,
				NightsElapsed:      2,
				HoursBeforeCheckIn: -30,
				Started:            true,
			},
			wantRefundable:    2500,
			wantNonRefundable: 8700,
			wantRule:          domain.RuleModerateRemaining,
		},
		{
			name: "strict more than 7 days out refunds half the base",
			in: domain.CancellationInput{
				Policy:             domain.PolicyStrict,
				TotalPriceCents:    10000,
				GuestFeeCents:      1200,
				Nights:             4,
				HoursBeforeCheckIn: 8 * 24,
			},
			wantRefundable:    5000,
			wantNonRefundable: 6200,
			wantRule:          domain.RuleStrictHalf,
		},
		{
			name: "non-refundable without override refunds nothing",
			in: domain.CancellationInput{
				Policy:             domain.PolicyNonRefundable,
				TotalPriceCents:    10000,
				GuestFeeCents:      1200,
				Nights:             4,
				HoursBeforeCheckIn: 30 * 24,
			},
			wantRefundable:    0,
			wantNonRefundable: 11200,
			wantRule:          domain.RuleNonRefundable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := domain.ComputeRefund(tt.in)

			require.NoError(t, err)
			assert.Equal(t, tt.wantRefundable, got.RefundableCents)
			assert.Equal(t, tt.wantNonRefundable, got.NonRefundableCents)
			assert.Equal(t, tt.wantGuestFeeRefund, got.GuestFeeRefundCents)
			assert.Equal(t, tt.wantRule, got.AppliedRule)
		})
	}
}

func TestComputeRefund_HostCancellation(t *testing.T) {
	t.Run("host cancellation refunds everything regardless of policy", func(t *testing.T) {
		for _, policy := range []domain.CancellationPolicy{
			domain.PolicyFlexible,
			domain.PolicyModerate,
			domain.PolicyStrict,
			domain.PolicyNonRefundable,
		} {
			got, err := domain.ComputeRefund(domain.CancellationInput{
				Policy:             policy,
				TotalPriceCents:    10000,
				GuestFeeCents:      1200,
				HostFeeCents:       300,
				Nights:             4,
				HoursBeforeCheckIn: 1,
				CancelledByHost:    true,
			})

			require.NoError(t, err)
			assert.Equal(t, int64(11200), got.RefundableCents, "policy %s", policy)
			assert.Equal(t, int64(0), got.NonRefundableCents, "policy %s", policy)
			assert.Equal(t, int64(1200), got.GuestFeeRefundCents, "policy %s", policy)
			assert.Equal(t, int64(300), got.HostFeeRefundCents, "policy %s", policy)
			assert.Equal(t, domain.RuleHostCancelled, got.AppliedRule, "policy %s", policy)
		}
	})

	t.Run("host cancellation trumps exceptional circumstances", func(t *testing.T) {
		got, err := domain.ComputeRefund(domain.CancellationInput{
			Policy:                   domain.PolicyStrict,
			TotalPriceCents:          10000,
			GuestFeeCents:            1200,
			Nights:                   4,
			CancelledByHost:          true,
			ExceptionalCircumstances: true,
		})

		require.NoError(t, err)
		assert.Equal(t, domain.RuleHostCancelled, got.AppliedRule)
	})
}

func TestComputeRefund_Conservation(t *testing.T) {
	// Every breakdown must account for the full amount charged to the
	// guest: refundable + non-refundable == total + guest fee.
	inputs := []domain.CancellationInput{
		{Policy: domain.PolicyFlexible, TotalPriceCents: 9999, GuestFeeCents: 1201, Nights: 3, HoursBeforeCheckIn: 10},
		{Policy: domain.PolicyFlexible, TotalPriceCents: 10001, GuestFeeCents: 0, Nights: 7, NightsElapsed: 3, Started: true},
		{Policy: domain.PolicyModerate, TotalPriceCents: 10001, GuestFeeCents: 1200, Nights: 4, HoursBeforeCheckIn: 48},
		{Policy: domain.PolicyModerate, TotalPriceCents: 7777, GuestFeeCents: 933, Nights: 5, NightsElapsed: 2, Started: true},
		{Policy: domain.PolicyStrict, TotalPriceCents: 10001, GuestFeeCents: 1200, Nights: 4, HoursBeforeCheckIn: 200},
		{Policy: domain.PolicyNonRefundable, TotalPriceCents: 10000, GuestFeeCents: 1200, Nights: 4, HoursBeforeCheckIn: 500},
		{Policy: domain.PolicyStrict, TotalPriceCents: 10000, GuestFeeCents: 1200, Nights: 4, CancelledByHost: true},
	}

	for _, in := range inputs {
		got, err := domain.ComputeRefund(in)

		require.NoError(t, err)
		assert.Equal(t, in.TotalPriceCents+in.GuestFeeCents, got.RefundableCents+got.NonRefundableCents,
			"policy=%s total=%d", in.Policy, in.TotalPriceCents)
		assert.GreaterOrEqual(t, got.RefundableCents, int64(0))
		assert.GreaterOrEqual(t, got.NonRefundableCents, int64(0))
	}
}

func TestComputeRefund_Rounding(t *testing.T) {
	t.Run("odd cent on a half refund goes to the guest", func(t *testing.T) {
		got, err := domain.ComputeRefund(domain.CancellationInput{
			Policy:             domain.PolicyModerate,
			TotalPriceCents:    10001,
			GuestFeeCents:      0,
			Nights:             4,
			HoursBeforeCheckIn: 48,
		})

		require.NoError(t, err)
		assert.Equal(t, int64(5001), got.RefundableCents)
		assert.Equal(t, int64(5000), got.NonRefundableCents)
	})

	t.Run("uneven nightly split leaves the residual cent refundable", func(t *testing.T) {
		// 10000 / 3 nights = 3333.33; the forfeited first night floors
		// to 3333 so the guest keeps the extra cent.
		got, err := domain.ComputeRefund(domain.CancellationInput{
			Policy:             domain.PolicyFlexible,
			TotalPriceCents:    10000,
			GuestFeeCents:      0,
			Nights:             3,
			HoursBeforeCheckIn: 10,
		})

		require.NoError(t, err)
		assert.Equal(t, int64(6667), got.RefundableCents)
		assert.Equal(t, int64(3333), got.NonRefundableCents)
	})
}

func TestComputeRefund_Validation(t *testing.T) {
	t.Run("rejects unknown policy tag", func(t *testing.T) {
		_, err := domain.ComputeRefund(domain.CancellationInput{
			Policy:          "SUPER_FLEXIBLE",
			TotalPriceCents: 10000,
			Nights:          2,
		})

		assert.Error(t, err)
		assert.True(t, domain.IsErrorCode(err, domain.ErrCodeInvalidPolicyTag))
	})

	t.Run("rejects negative total", func(t *testing.T) {
		_, err := domain.ComputeRefund(domain.CancellationInput{
			Policy:          domain.PolicyFlexible,
			TotalPriceCents: -1,
			Nights:          2,
		})

		assert.Error(t, err)
		assert.True(t, domain.IsErrorCode(err, domain.ErrCodeInvalidAmount))
	})

	t.Run("clamps elapsed nights to the stay length", func(t *testing.T) {
		got, err := domain.ComputeRefund(domain.CancellationInput{
			Policy:          domain.PolicyFlexible,
			TotalPriceCents: 10000,
			Nights:          2,
			NightsElapsed:   10,
			Started:         true,
		})

		require.NoError(t, err)
		assert.Equal(t, int64(0), got.RefundableCents)
	})

	t.Run("hourly booking counts as one night", func(t *testing.T) {
		got, err := domain.ComputeRefund(domain.CancellationInput{
			Policy:          domain.PolicyFlexible,
			TotalPriceCents: 4000,
			Nights:          0,
			Started:         true,
		})

		require.NoError(t, err)
		assert.Equal(t, int64(0), got.RefundableCents)
		assert.Equal(t, domain.RuleFlexibleRemaining, got.AppliedRule)
	})
}
