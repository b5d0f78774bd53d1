package domain

// CancellationPolicy is the refund tier a host attaches to a listing.
type CancellationPolicy string

const (
	PolicyFlexible      CancellationPolicy = "FLEXIBLE"
	PolicyModerate      CancellationPolicy = "MODERATE"
	PolicyStrict        CancellationPolicy = "STRICT"
	PolicyNonRefundable CancellationPolicy = "NON_REFUNDABLE"
)

func (p CancellationPolicy) Valid() bool {
	switch p {
	case PolicyFlexible, PolicyModerate, PolicyStrict, PolicyNonRefundable:
		return true
	}
	return false
}

// Full-refund thresholds, in hours before check-in.
const (
	flexibleFullRefundHours = 24
	moderateFullRefundHours = 5 * 24
	strictHalfRefundHours   = 7 * 24
)

// CancellationInput carries everything the policy engine needs to price
// a cancellation. ExceptionalCircumstances is a staff-set override, not
// derived from timing.
type CancellationInput struct {
	Policy             CancellationPolicy
	TotalPriceCents    int64
	GuestFeeCents      int64
	HostFeeCents       int64
	Nights             int
	NightsElapsed      int
	HoursBeforeCheckIn float64
	Started            bool
	CancelledByHost    bool

	ExceptionalCircumstances bool
}

// RefundBreakdown is the engine's verdict. Conservation invariant:
// RefundableCents + NonRefundableCents == TotalPriceCents + GuestFeeCents.
type RefundBreakdown struct {
	RefundableCents     int64  `json:"refundableCents"`
	NonRefundableCents  int64  `json:"nonRefundableCents"`
	GuestFeeRefundCents int64  `json:"guestFeeRefundCents"`
	HostFeeRefundCents  int64  `json:"hostFeeRefundCents"`
	AppliedRule         string `json:"appliedRule"`
}

// Applied-rule identifiers, stored on refund records for audit.
const (
	RuleHostCancelled      = "HOST_CANCELLED_FULL_REFUND"
	RuleExceptional        = "EXCEPTIONAL_CIRCUMSTANCES"
	RuleFlexibleFull       = "FLEXIBLE_FULL_REFUND"
	RuleFlexibleFirstNight = "FLEXIBLE_FIRST_NIGHT_FORFEITED"
	RuleFlexibleRemaining  = "FLEXIBLE_REMAINING_NIGHTS"
	RuleModerateFull       = "MODERATE_FULL_REFUND"
	RuleModerateHalf       = "MODERATE_HALF_REFUND"
	RuleModerateRemaining  = "MODERATE_REMAINING_NIGHTS_HALF"
	RuleStrictHalf         = "STRICT_HALF_REFUND"
	RuleStrictNoRefund     = "STRICT_NO_REFUND"
	RuleNonRefundable      = "NON_REFUNDABLE"
)

// ComputeRefund deterministically maps a cancellation event to a refund
// breakdown. It is pure: same input, same output, and it only raises
// validation errors.
//
// Rounding is half-up at the cent level; the forfeited side is computed
// with floor division so any residual cent lands on the refundable
// (guest-favorable) side.
func ComputeRefund(in CancellationInput) (RefundBreakdown, error) {
	if !in.Policy.Valid() {
		return RefundBreakdown{}, NewInvalidPolicyTagError(string(in.Policy))
	}
	if in.TotalPriceCents < 0 {
		return RefundBreakdown{}, NewInvalidAmountError(in.TotalPriceCents)
	}
	if in.GuestFeeCents < 0 {
		return RefundBreakdown{}, NewInvalidAmountError(in.GuestFeeCents)
	}
	if in.HostFeeCents < 0 {
		return RefundBreakdown{}, NewInvalidAmountError(in.HostFeeCents)
	}

	nights := in.Nights
	if nights < 1 {
		nights = 1
	}
	elapsed := in.NightsElapsed
	if in.Started && elapsed < 1 {
		elapsed = 1
	}
	if elapsed > nights {
		elapsed = nights
	}

	// Host-initiated cancellation and the staff override both trump
	// every tier: full refund of base price and guest fee.
	if in.CancelledByHost {
		return fullRefund(in, RuleHostCancelled), nil
	}
	if in.ExceptionalCircumstances {
		return fullRefund(in, RuleExceptional), nil
	}

	var (
		baseRefund int64
		feeRefund  int64
		rule       string
	)

	switch in.Policy {
	case PolicyFlexible:
		switch {
		case !in.Started && in.HoursBeforeCheckIn >= flexibleFullRefundHours:
			baseRefund = in.TotalPriceCents
			feeRefund = in.GuestFeeCents
			rule = RuleFlexibleFull
		case !in.Started:
			// First night forfeited, remainder refunded in full.
			baseRefund = in.TotalPriceCents - nightlyForfeit(in.TotalPriceCents, nights, 1)
			rule = RuleFlexibleFirstNight
		default:
			baseRefund = in.TotalPriceCents - nightlyForfeit(in.TotalPriceCents, nights, elapsed)
			rule = RuleFlexibleRemaining
		}

	case PolicyModerate:
		switch {
		case !in.Started && in.HoursBeforeCheckIn >= moderateFullRefundHours:
			baseRefund = in.TotalPriceCents
			feeRefund = in.GuestFeeCents
			rule = RuleModerateFull
		case !in.Started:
			baseRefund = halfRoundedUp(in.TotalPriceCents)
			rule = RuleModerateHalf
		default:
			remaining := in.TotalPriceCents - nightlyForfeit(in.TotalPriceCents, nights, elapsed)
			baseRefund = halfRoundedUp(remaining)
			rule = RuleModerateRemaining
		}

	case PolicyStrict:
		if !in.Started && in.HoursBeforeCheckIn >= strictHalfRefundHours {
			baseRefund = halfRoundedUp(in.TotalPriceCents)
			rule = RuleStrictHalf
		} else {
			rule = RuleStrictNoRefund
		}

	case PolicyNonRefundable:
		rule = RuleNonRefundable
	}

	return assemble(in, baseRefund, feeRefund, 0, rule), nil
}

func fullRefund(in CancellationInput, rule string) RefundBreakdown {
	return assemble(in, in.TotalPriceCents, in.GuestFeeCents, in.HostFeeCents, rule)
}

func assemble(in CancellationInput, baseRefund, guestFeeRefund, hostFeeRefund int64, rule string) RefundBreakdown {
	grand := in.TotalPriceCents + in.GuestFeeCents
	refundable := baseRefund + guestFeeRefund
	return RefundBreakdown{
		RefundableCents:     refundable,
		NonRefundableCents:  grand - refundable,
		GuestFeeRefundCents: guestFeeRefund,
		HostFeeRefundCents:  hostFeeRefund,
		AppliedRule:         rule,
	}
}

// nightlyForfeit is the value of the given number of nights, floored so
// the residual cent of an uneven split stays refundable.
func nightlyForfeit(total int64, nights, forfeitedNights int) int64 {
	return total * int64(forfeitedNights) / int64(nights)
}

// halfRoundedUp returns 50% of the amount rounded half-up, which is the
// guest-favorable side of an odd-cent split.
func halfRoundedUp(amount int64) int64 {
	return amount - amount/2
}
