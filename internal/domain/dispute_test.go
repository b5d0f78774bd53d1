package domain_test

import (
	"testing"
	"time"

	"github.com/lokroom/settlement/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenDispute(t *testing.T) {
	now := time.Now()

	t.Run("opens dispute successfully", func(t *testing.T) {
		claim := int64(4000)

		d, err := domain.OpenDispute("dsp-1", "bkg-1", domain.ActorGuest,
			domain.ReasonCleanlinessIssue, "apartment was not cleaned", &claim, 10000, now)

		require.NoError(t, err)
		assert.Equal(t, domain.DisputeOpen, d.Status)
		assert.Equal(t, now.Add(domain.ResponseWindow), d.ResponseDeadline)
		assert.True(t, d.GuestResponded)
		assert.False(t, d.HostResponded)
		assert.True(t, d.IsActive())
	})

	t.Run("rejects claim above the booking total", func(t *testing.T) {
		claim := int64(10001)

		_, err := domain.OpenDispute("dsp-1", "bkg-1", domain.ActorGuest,
			domain.ReasonGuestDamage, "broken furniture", &claim, 10000, now)

		assert.Error(t, err)
		assert.True(t, domain.IsErrorCode(err, domain.ErrCodeClaimExceedsBookingTotal))
	})

	t.Run("rejects a zero claim", func(t *testing.T) {
		claim := int64(0)

		_, err := domain.OpenDispute("dsp-1", "bkg-1", domain.ActorGuest,
			domain.ReasonPaymentIssue, "charged twice", &claim, 10000, now)

		assert.Error(t, err)
		assert.True(t, domain.IsErrorCode(err, domain.ErrCodeInvalidAmount))
	})

	t.Run("rejects unknown reason", func(t *testing.T) {
		_, err := domain.OpenDispute("dsp-1", "bkg-1", domain.ActorHost,
			"BAD_VIBES", "something felt off", nil, 10000, now)

		assert.Error(t, err)
		assert.True(t, domain.IsErrorCode(err, domain.ErrCodeInvalidReason))
	})

	t.Run("rejects empty description", func(t *testing.T) {
		_, err := domain.OpenDispute("dsp-1", "bkg-1", domain.ActorGuest,
			domain.ReasonOther, "", nil, 10000, now)

		assert.Error(t, err)
		assert.True(t, domain.IsErrorCode(err, domain.ErrCodeMissingRequiredField))
	})

	t.Run("claim is optional", func(t *testing.T) {
		d, err := domain.OpenDispute("dsp-1", "bkg-1", domain.ActorHost,
			domain.ReasonGuestViolation, "smoking indoors", nil, 10000, now)

		require.NoError(t, err)
		assert.Nil(t, d.ClaimedAmountCents)
	})
}

func TestDispute_Lifecycle(t *testing.T) {
	now := time.Now()

	t.Run("full path from open to closed", func(t *testing.T) {
		d := createOpenDispute(t)

		require.NoError(t, d.MarkAwaitingResponse())
		assert.Equal(t, domain.DisputeAwaitingResponse, d.Status)

		require.NoError(t, d.RecordResponse(domain.ActorHost))
		assert.Equal(t, domain.DisputeUnderReview, d.Status)

		decision := domain.DisputeDecision{RefundCents: 3000, Rationale: "partial cleaning refund"}
		require.NoError(t, d.Resolve(decision, 10000, now))
		assert.Equal(t, domain.DisputeResolved, d.Status)
		assert.Equal(t, decision, *d.Decision)
		assert.NotNil(t, d.ResolvedAt)

		require.NoError(t, d.Close(now))
		assert.Equal(t, domain.DisputeClosed, d.Status)
		assert.NotNil(t, d.ClosedAt)
		assert.False(t, d.IsActive())
	})

	t.Run("withdrawal from open", func(t *testing.T) {
		d := createOpenDispute(t)

		require.NoError(t, d.Close(now))

		assert.Equal(t, domain.DisputeClosed, d.Status)
		assert.Nil(t, d.Decision)
	})

	t.Run("withdrawal from awaiting response", func(t *testing.T) {
		d := createOpenDispute(t)
		require.NoError(t, d.MarkAwaitingResponse())

		require.NoError(t, d.Close(now))

		assert.Equal(t, domain.DisputeClosed, d.Status)
	})

	t.Run("staff escalation skips the response exchange", func(t *testing.T) {
		d := createOpenDispute(t)

		require.NoError(t, d.Escalate())

		assert.Equal(t, domain.DisputeUnderReview, d.Status)
	})

	t.Run("repeat response from the same party does not advance", func(t *testing.T) {
		d := createOpenDispute(t)
		require.NoError(t, d.MarkAwaitingResponse())

		require.NoError(t, d.RecordResponse(domain.ActorGuest))

		assert.Equal(t, domain.DisputeAwaitingResponse, d.Status)
	})
}

func TestDispute_ClosedIsTerminal(t *testing.T) {
	now := time.Now()

	d := createOpenDispute(t)
	require.NoError(t, d.Close(now))

	t.Run("cannot reopen", func(t *testing.T) {
		err := d.MarkAwaitingResponse()
		assert.True(t, domain.IsErrorCode(err, domain.ErrCodeDisputeClosed))
	})

	t.Run("cannot escalate", func(t *testing.T) {
		err := d.Escalate()
		assert.True(t, domain.IsErrorCode(err, domain.ErrCodeDisputeClosed))
	})

	t.Run("cannot resolve", func(t *testing.T) {
		err := d.Resolve(domain.DisputeDecision{RefundCents: 100}, 10000, now)
		assert.True(t, domain.IsErrorCode(err, domain.ErrCodeDisputeClosed))
	})

	t.Run("cannot record responses", func(t *testing.T) {
		err := d.RecordResponse(domain.ActorHost)
		assert.True(t, domain.IsErrorCode(err, domain.ErrCodeDisputeClosed))
	})

	t.Run("cannot close twice", func(t *testing.T) {
		err := d.Close(now)
		assert.True(t, domain.IsErrorCode(err, domain.ErrCodeDisputeClosed))
	})
}

func TestDispute_Resolve(t *testing.T) {
	now := time.Now()

	t.Run("cannot resolve before review", func(t *testing.T) {
		d := createOpenDispute(t)

		err := d.Resolve(domain.DisputeDecision{RefundCents: 100}, 10000, now)

		assert.True(t, domain.IsErrorCode(err, domain.ErrCodeInvalidTransition))
	})

	t.Run("decision refund cannot exceed booking total", func(t *testing.T) {
		d := createUnderReviewDispute(t)

		err := d.Resolve(domain.DisputeDecision{RefundCents: 10001}, 10000, now)

		assert.True(t, domain.IsErrorCode(err, domain.ErrCodeRefundExceedsBookingTotal))
		assert.Equal(t, domain.DisputeUnderReview, d.Status)
	})

	t.Run("zero refund decision is valid", func(t *testing.T) {
		d := createUnderReviewDispute(t)

		err := d.Resolve(domain.DisputeDecision{RefundCents: 0, Rationale: "claim unfounded"}, 10000, now)

		require.NoError(t, err)
		assert.Equal(t, int64(0), d.Decision.RefundCents)
	})
}

func TestDispute_ResponseDeadline(t *testing.T) {
	openedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	d, err := domain.OpenDispute("dsp-1", "bkg-1", domain.ActorGuest,
		domain.ReasonHostUnresponsive, "no reply for days", nil, 10000, openedAt)
	require.NoError(t, err)

	assert.False(t, d.PastResponseDeadline(openedAt.Add(71*time.Hour)))
	assert.False(t, d.PastResponseDeadline(openedAt.Add(72*time.Hour)))
	assert.True(t, d.PastResponseDeadline(openedAt.Add(72*time.Hour+time.Second)))
}

func createOpenDispute(t *testing.T) *domain.Dispute {
	t.Helper()
	d, err := domain.OpenDispute("dsp-1", "bkg-1", domain.ActorGuest,
		domain.ReasonCleanlinessIssue, "apartment was not cleaned", nil, 10000, time.Now())
	require.NoError(t, err)
	return d
}

func createUnderReviewDispute(t *testing.T) *domain.Dispute {
	t.Helper()
	d := createOpenDispute(t)
	require.NoError(t, d.Escalate())
	return d
}
