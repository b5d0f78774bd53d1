package domain

import (
	"slices"
	"time"
)

// DisputeStatus represents the current state of a dispute in its lifecycle
type DisputeStatus string

const (
	DisputeOpen             DisputeStatus = "OPEN"
	DisputeAwaitingResponse DisputeStatus = "AWAITING_RESPONSE"
	DisputeUnderReview      DisputeStatus = "UNDER_REVIEW"
	DisputeResolved         DisputeStatus = "RESOLVED"
	DisputeClosed           DisputeStatus = "CLOSED"
)

// ResponseWindow is how long the counterparty has to answer before the
// deadline worker escalates the dispute. Fixed at creation, never mutated.
const ResponseWindow = 72 * time.Hour

type DisputeReason string

const (
	ReasonPropertyNotAsDescribed DisputeReason = "PROPERTY_NOT_AS_DESCRIBED"
	ReasonCleanlinessIssue       DisputeReason = "CLEANLINESS_ISSUE"
	ReasonAmenitiesMissing       DisputeReason = "AMENITIES_MISSING"
	ReasonHostUnresponsive       DisputeReason = "HOST_UNRESPONSIVE"
	ReasonGuestDamage            DisputeReason = "GUEST_DAMAGE"
	ReasonGuestViolation         DisputeReason = "GUEST_VIOLATION"
	ReasonPaymentIssue           DisputeReason = "PAYMENT_ISSUE"
	ReasonCancellationDispute    DisputeReason = "CANCELLATION_DISPUTE"
	ReasonSafetyConcern          DisputeReason = "SAFETY_CONCERN"
	ReasonNoiseComplaint         DisputeReason = "NOISE_COMPLAINT"
	ReasonUnauthorizedGuests     DisputeReason = "UNAUTHORIZED_GUESTS"
	ReasonOther                  DisputeReason = "OTHER"
)

func (r DisputeReason) Valid() bool {
	switch r {
	case ReasonPropertyNotAsDescribed, ReasonCleanlinessIssue, ReasonAmenitiesMissing,
		ReasonHostUnresponsive, ReasonGuestDamage, ReasonGuestViolation,
		ReasonPaymentIssue, ReasonCancellationDispute, ReasonSafetyConcern,
		ReasonNoiseComplaint, ReasonUnauthorizedGuests, ReasonOther:
		return true
	}
	return false
}

// DisputeDecision is the staff verdict. Immutable once the dispute is
// resolved.
type DisputeDecision struct {
	RefundCents int64  `json:"refundCents"`
	Rationale   string `json:"rationale"`
}

type Dispute struct {
	ID        string
	BookingID string
	OpenedBy  Actor
	Reason    DisputeReason

	Description        string
	ClaimedAmountCents *int64

	Status DisputeStatus

	OpenedAt         time.Time
	ResponseDeadline time.Time
	ResolvedAt       *time.Time
	ClosedAt         *time.Time

	Decision *DisputeDecision

	// Message-exchange tracking: the dispute moves to UNDER_REVIEW once
	// both parties have responded at least once, or staff escalate.
	GuestResponded bool
	HostResponded  bool
}

// OpenDispute validates and creates a dispute in state OPEN. The claim,
// when present, must not exceed the booking total.
func OpenDispute(
	id string,
	bookingID string,
	openedBy Actor,
	reason DisputeReason,
	description string,
	claimedAmountCents *int64,
	bookingTotalCents int64,
	now time.Time,
) (*Dispute, error) {
	if id == "" {
		return nil, NewMissingRequiredFieldError("dispute ID")
	}
	if bookingID == "" {
		return nil, NewMissingRequiredFieldError("booking ID")
	}
	if !openedBy.Valid() {
		return nil, NewMissingRequiredFieldError("openedBy")
	}
	if !reason.Valid() {
		return nil, NewInvalidReasonError(string(reason))
	}
	if description == "" {
		return nil, NewMissingRequiredFieldError("description")
	}
	if claimedAmountCents != nil {
		// A zero claim means no claim; callers pass nil for that.
		if *claimedAmountCents <= 0 {
			return nil, NewInvalidAmountError(*claimedAmountCents)
		}
		if *claimedAmountCents > bookingTotalCents {
			return nil, NewClaimExceedsBookingTotalError(*claimedAmountCents, bookingTotalCents)
		}
	}

	d := &Dispute{
		ID:                 id,
		BookingID:          bookingID,
		OpenedBy:           openedBy,
		Reason:             reason,
		Description:        description,
		ClaimedAmountCents: claimedAmountCents,
		Status:             DisputeOpen,
		OpenedAt:           now,
		ResponseDeadline:   now.Add(ResponseWindow),
	}
	// The opening statement counts as the opener's first message.
	d.markResponded(openedBy)
	return d, nil
}

// MarkAwaitingResponse moves a fresh dispute to AWAITING_RESPONSE once
// the counterparty has been notified.
func (d *Dispute) MarkAwaitingResponse() error {
	return d.transition(DisputeAwaitingResponse)
}

// RecordResponse registers a party's message. It never changes state by
// itself except that the dispute moves to UNDER_REVIEW once both sides
// have responded at least once.
func (d *Dispute) RecordResponse(responder Actor) error {
	if d.Status == DisputeClosed {
		return NewDisputeClosedError(d.ID)
	}
	if d.Status != DisputeOpen && d.Status != DisputeAwaitingResponse {
		return NewInvalidTransitionError("dispute", string(d.Status), string(DisputeUnderReview))
	}
	if !responder.Valid() {
		return NewMissingRequiredFieldError("responder")
	}

	d.markResponded(responder)
	if d.GuestResponded && d.HostResponded {
		return d.transition(DisputeUnderReview)
	}
	return nil
}

// Escalate is a manual staff action, allowed any time before the
// dispute is resolved or closed.
func (d *Dispute) Escalate() error {
	return d.transition(DisputeUnderReview)
}

// Resolve records the staff decision. Only an UNDER_REVIEW dispute can
// be resolved, and the decision is immutable afterwards.
func (d *Dispute) Resolve(decision DisputeDecision, bookingTotalCents int64, now time.Time) error {
	if decision.RefundCents < 0 {
		return NewInvalidAmountError(decision.RefundCents)
	}
	if decision.RefundCents > bookingTotalCents {
		return NewRefundExceedsBookingTotalError(decision.RefundCents, bookingTotalCents)
	}
	if err := d.transition(DisputeResolved); err != nil {
		return err
	}
	d.Decision = &decision
	d.ResolvedAt = &now
	return nil
}

// Close terminates the dispute: RESOLVED disputes archive, OPEN or
// AWAITING_RESPONSE disputes are withdrawn with no money moving.
func (d *Dispute) Close(now time.Time) error {
	if err := d.transition(DisputeClosed); err != nil {
		return err
	}
	d.ClosedAt = &now
	return nil
}

func (d *Dispute) IsActive() bool {
	switch d.Status {
	case DisputeOpen, DisputeAwaitingResponse, DisputeUnderReview:
		return true
	default:
		return false
	}
}

func (d *Dispute) PastResponseDeadline(now time.Time) bool {
	return now.After(d.ResponseDeadline)
}

func (d *Dispute) markResponded(actor Actor) {
	switch actor {
	case ActorGuest:
		d.GuestResponded = true
	case ActorHost:
		d.HostResponded = true
	}
}

func (d *Dispute) transition(target DisputeStatus) error {
	if err := d.canTransitionTo(target); err != nil {
		return err
	}
	d.Status = target
	return nil
}

// defines the dispute statuses that can be transitioned to. CLOSED is
// terminal; every transition out of it fails with DisputeClosed.
func (d *Dispute) canTransitionTo(target DisputeStatus) error {
	switch d.Status {
	case DisputeOpen:
		return d.allow(target, DisputeAwaitingResponse, DisputeUnderReview, DisputeClosed)
	case DisputeAwaitingResponse:
		return d.allow(target, DisputeUnderReview, DisputeClosed)
	case DisputeUnderReview:
		return d.allow(target, DisputeResolved)
	case DisputeResolved:
		return d.allow(target, DisputeClosed)
	case DisputeClosed:
		return NewDisputeClosedError(d.ID)
	}
	return NewInvalidTransitionError("dispute", string(d.Status), string(target))
}

func (d *Dispute) allow(target DisputeStatus, allowed ...DisputeStatus) error {
	if slices.Contains(allowed, target) {
		return nil
	}
	return NewInvalidTransitionError("dispute", string(d.Status), string(target))
}

// ReconstituteDispute - special constructor for loading from DB
func ReconstituteDispute(
	id, bookingID string,
	openedBy Actor,
	reason DisputeReason,
	description string,
	claimedAmountCents *int64,
	status DisputeStatus,
	openedAt, responseDeadline time.Time,
	resolvedAt, closedAt *time.Time,
	decision *DisputeDecision,
	guestResponded, hostResponded bool,
) *Dispute {
	return &Dispute{
		ID:                 id,
		BookingID:          bookingID,
		OpenedBy:           openedBy,
		Reason:             reason,
		Description:        description,
		ClaimedAmountCents: claimedAmountCents,
		Status:             status,
		OpenedAt:           openedAt,
		ResponseDeadline:   responseDeadline,
		ResolvedAt:         resolvedAt,
		ClosedAt:           closedAt,
		Decision:           decision,
		GuestResponded:     guestResponded,
		HostResponded:      hostResponded,
	}
}
