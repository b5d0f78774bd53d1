package domain

import (
	"slices"
	"time"
)

// PayoutStatus represents the current state of a host payout
type PayoutStatus string

const (
	PayoutPending    PayoutStatus = "PENDING"
	PayoutHeld       PayoutStatus = "HELD"
	PayoutReleased   PayoutStatus = "RELEASED"
	PayoutClawedBack PayoutStatus = "CLAWED_BACK"
)

// Payout is the host-side settlement for one booking. It is the shared
// record that both the cancellation flow and the dispute flow mutate,
// so every update goes through the optimistic Version check.
type Payout struct {
	BookingID string
	HostID    string

	AmountCents int64
	// DeficitCents tracks the part of a dispute decision that exceeded
	// the payout; it becomes a claim against the host's future payouts.
	DeficitCents int64
	Currency     string

	Status            PayoutStatus
	ReleaseEligibleAt time.Time
	HeldReason        *string

	ReleasedAt *time.Time

	Version int64
}

func NewPayout(bookingID, hostID string, amount Money, releaseEligibleAt time.Time) (*Payout, error) {
	if bookingID == "" {
		return nil, NewMissingRequiredFieldError("booking ID")
	}
	if hostID == "" {
		return nil, NewMissingRequiredFieldError("host ID")
	}
	return &Payout{
		BookingID:         bookingID,
		HostID:            hostID,
		AmountCents:       amount.AmountCents,
		Currency:          amount.Currency,
		Status:            PayoutPending,
		ReleaseEligibleAt: releaseEligibleAt,
		Version:           1,
	}, nil
}

// Hold freezes a pending payout while a dispute references its booking.
func (p *Payout) Hold(reason string) error {
	if err := p.transition(PayoutHeld); err != nil {
		return err
	}
	p.HeldReason = &reason
	return nil
}

// Release pays the host out. A held payout cannot be released directly;
// it must go through ReleaseAfterResolution.
func (p *Payout) Release(now time.Time) error {
	if p.Status == PayoutHeld {
		return NewPayoutHeldError(p.BookingID)
	}
	if err := p.transition(PayoutReleased); err != nil {
		return err
	}
	p.ReleasedAt = &now
	return nil
}

// Unhold returns a held payout to the normal release schedule, used
// when a dispute is withdrawn without a decision.
func (p *Payout) Unhold() error {
	if err := p.transition(PayoutPending); err != nil {
		return err
	}
	p.HeldReason = nil
	return nil
}

// ReleaseAfterResolution deducts the dispute decision from the payout
// and releases the remainder. The payout can go to zero but never
// negative; any excess is recorded as a deficit against the host.
func (p *Payout) ReleaseAfterResolution(refundCents int64, now time.Time) error {
	if refundCents < 0 {
		return NewInvalidAmountError(refundCents)
	}
	if p.Status != PayoutHeld {
		return NewInvalidTransitionError("payout", string(p.Status), string(PayoutReleased))
	}

	if refundCents >= p.AmountCents {
		p.DeficitCents = refundCents - p.AmountCents
		p.AmountCents = 0
	} else {
		p.AmountCents -= refundCents
	}

	p.Status = PayoutReleased
	p.HeldReason = nil
	p.ReleasedAt = &now
	return nil
}

// Adjust reduces the payout by a settlement adjustment (cancellation
// refund of the host's share). Floors at zero, excess tracked as deficit.
func (p *Payout) Adjust(deductionCents int64) error {
	if deductionCents < 0 {
		return NewInvalidAmountError(deductionCents)
	}
	if p.Status != PayoutPending && p.Status != PayoutHeld {
		return NewInvalidTransitionError("payout", string(p.Status), string(p.Status))
	}
	if deductionCents >= p.AmountCents {
		p.DeficitCents += deductionCents - p.AmountCents
		p.AmountCents = 0
	} else {
		p.AmountCents -= deductionCents
	}
	return nil
}

// ClawBack reverses an already-released payout after a post-release
// decision against the host.
func (p *Payout) ClawBack() error {
	return p.transition(PayoutClawedBack)
}

// Eligible reports whether the advisory release timer has elapsed. The
// actual release additionally requires the payout not to be held.
func (p *Payout) Eligible(now time.Time) bool {
	return !now.Before(p.ReleaseEligibleAt)
}

func (p *Payout) transition(target PayoutStatus) error {
	if err := p.canTransitionTo(target); err != nil {
		return err
	}
	p.Status = target
	return nil
}

// defines the payout statuses that can be transitioned to
func (p *Payout) canTransitionTo(target PayoutStatus) error {
	switch p.Status {
	case PayoutPending:
		return p.allow(target, PayoutHeld, PayoutReleased)
	case PayoutHeld:
		return p.allow(target, PayoutPending, PayoutReleased)
	case PayoutReleased:
		return p.allow(target, PayoutClawedBack)
	}
	return NewInvalidTransitionError("payout", string(p.Status), string(target))
}

func (p *Payout) allow(target PayoutStatus, allowed ...PayoutStatus) error {
	if slices.Contains(allowed, target) {
		return nil
	}
	return NewInvalidTransitionError("payout", string(p.Status), string(target))
}

// ReconstitutePayout - special constructor for loading from DB
func ReconstitutePayout(
	bookingID, hostID string,
	amountCents, deficitCents int64,
	currency string,
	status PayoutStatus,
	releaseEligibleAt time.Time,
	heldReason *string,
	releasedAt *time.Time,
	version int64,
) *Payout {
	return &Payout{
		BookingID:         bookingID,
		HostID:            hostID,
		AmountCents:       amountCents,
		DeficitCents:      deficitCents,
		Currency:          currency,
		Status:            status,
		ReleaseEligibleAt: releaseEligibleAt,
		HeldReason:        heldReason,
		ReleasedAt:        releasedAt,
		Version:           version,
	}
}
