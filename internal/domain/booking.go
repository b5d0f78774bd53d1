// Package domain encodes the booking, dispute, payout and settlement
// entities and the cancellation policy engine.
package domain

import (
	"slices"
	"time"
)

// BookingStatus represents the current state of a booking in its lifecycle
type BookingStatus string

const (
	BookingPending   BookingStatus = "PENDING"
	BookingConfirmed BookingStatus = "CONFIRMED"
	BookingCancelled BookingStatus = "CANCELLED"
	BookingCompleted BookingStatus = "COMPLETED"
)

// PayoutReleaseDelay is how long after check-in a payout becomes eligible
// for release.
const PayoutReleaseDelay = 24 * time.Hour

type Booking struct {
	ID        string
	ListingID string
	GuestID   string
	HostID    string

	StartDate time.Time
	EndDate   time.Time

	TotalPriceCents int64
	GuestFeeCents   int64
	HostFeeCents    int64
	Currency        string

	// CancellationPolicy is snapshotted from the listing at booking time.
	// Later listing edits never change an existing booking.
	CancellationPolicy CancellationPolicy

	Status BookingStatus

	CreatedAt   time.Time
	PaidAt      *time.Time
	CheckInAt   *time.Time
	CancelledAt *time.Time
}

func NewBooking(
	id string,
	listingID string,
	guestID string,
	hostID string,
	startDate, endDate time.Time,
	total Money,
	guestFeeCents, hostFeeCents int64,
	policy CancellationPolicy,
) (*Booking, error) {
	if id == "" {
		return nil, NewMissingRequiredFieldError("booking ID")
	}
	if listingID == "" {
		return nil, NewMissingRequiredFieldError("listing ID")
	}
	if guestID == "" {
		return nil, NewMissingRequiredFieldError("guest ID")
	}
	if hostID == "" {
		return nil, NewMissingRequiredFieldError("host ID")
	}
	if !startDate.Before(endDate) {
		return nil, NewInvalidDateRangeError()
	}
	if guestFeeCents < 0 {
		return nil, NewInvalidAmountError(guestFeeCents)
	}
	if hostFeeCents < 0 {
		return nil, NewInvalidAmountError(hostFeeCents)
	}
	if !policy.Valid() {
		return nil, NewInvalidPolicyTagError(string(policy))
	}

	return &Booking{
		ID:                 id,
		ListingID:          listingID,
		GuestID:            guestID,
		HostID:             hostID,
		StartDate:          startDate,
		EndDate:            endDate,
		TotalPriceCents:    total.AmountCents,
		GuestFeeCents:      guestFeeCents,
		HostFeeCents:       hostFeeCents,
		Currency:           total.Currency,
		CancellationPolicy: policy,
		Status:             BookingPending,
		CreatedAt:          time.Now(),
	}, nil
}

// Confirm records payment capture and the scheduled check-in time.
func (b *Booking) Confirm(paidAt, checkInAt time.Time) error {
	if err := b.transition(BookingConfirmed); err != nil {
		return err
	}
	b.PaidAt = &paidAt
	b.CheckInAt = &checkInAt
	return nil
}

func (b *Booking) Cancel(at time.Time) error {
	if err := b.transition(BookingCancelled); err != nil {
		return err
	}
	b.CancelledAt = &at
	return nil
}

func (b *Booking) Complete() error {
	return b.transition(BookingCompleted)
}

func (b *Booking) transition(target BookingStatus) error {
	if err := b.canTransitionTo(target); err != nil {
		return err
	}
	b.Status = target
	return nil
}

// defines the booking statuses that can be transitioned to
func (b *Booking) canTransitionTo(target BookingStatus) error {
	switch b.Status {
	case BookingPending:
		return b.allow(target, BookingConfirmed, BookingCancelled)
	case BookingConfirmed:
		return b.allow(target, BookingCancelled, BookingCompleted)
	}
	return NewInvalidTransitionError("booking", string(b.Status), string(target))
}

func (b *Booking) allow(target BookingStatus, allowed ...BookingStatus) error {
	if slices.Contains(allowed, target) {
		return nil
	}
	return NewInvalidTransitionError("booking", string(b.Status), string(target))
}

// Nights returns the number of calendar nights in the stay. Hourly and
// same-day bookings count as a single night for policy purposes.
func (b *Booking) Nights() int {
	nights := int(b.EndDate.Sub(b.StartDate).Hours() / 24)
	if nights < 1 {
		return 1
	}
	return nights
}

// NightsElapsed returns how many nights of the stay have begun at the
// given instant, clamped to [0, Nights]. Once the stay has started the
// first night counts as elapsed.
func (b *Booking) NightsElapsed(now time.Time) int {
	if !b.Started(now) {
		return 0
	}
	elapsed := int(now.Sub(b.StartDate).Hours()/24) + 1
	if n := b.Nights(); elapsed > n {
		return n
	}
	return elapsed
}

func (b *Booking) Started(now time.Time) bool {
	return !now.Before(b.StartDate)
}

func (b *Booking) HoursBeforeCheckIn(now time.Time) float64 {
	return b.StartDate.Sub(now).Hours()
}

// ReleaseEligibleAt is the advisory payout release time: check-in + 24h.
// Falls back to the booking start date when check-in was never recorded.
func (b *Booking) ReleaseEligibleAt() time.Time {
	checkIn := b.StartDate
	if b.CheckInAt != nil {
		checkIn = *b.CheckInAt
	}
	return checkIn.Add(PayoutReleaseDelay)
}

// CancellationInputAt assembles the policy engine input for a
// cancellation requested at the given instant.
func (b *Booking) CancellationInputAt(now time.Time, byHost, exceptional bool) CancellationInput {
	return CancellationInput{
		Policy:                   b.CancellationPolicy,
		TotalPriceCents:          b.TotalPriceCents,
		GuestFeeCents:            b.GuestFeeCents,
		HostFeeCents:             b.HostFeeCents,
		Nights:                   b.Nights(),
		NightsElapsed:            b.NightsElapsed(now),
		HoursBeforeCheckIn:       b.HoursBeforeCheckIn(now),
		Started:                  b.Started(now),
		CancelledByHost:          byHost,
		ExceptionalCircumstances: exceptional,
	}
}

// ReconstituteBooking - special constructor for loading from DB
func ReconstituteBooking(
	id, listingID, guestID, hostID string,
	startDate, endDate time.Time,
	totalPriceCents, guestFeeCents, hostFeeCents int64,
	currency string,
	policy CancellationPolicy,
	status BookingStatus,
	createdAt time.Time,
	paidAt, checkInAt, cancelledAt *time.Time,
) *Booking {
	return &Booking{
		ID:                 id,
		ListingID:          listingID,
		GuestID:            guestID,
		HostID:             hostID,
		StartDate:          startDate,
		EndDate:            endDate,
		TotalPriceCents:    totalPriceCents,
		GuestFeeCents:      guestFeeCents,
		HostFeeCents:       hostFeeCents,
		Currency:           currency,
		CancellationPolicy: policy,
		Status:             status,
		CreatedAt:          createdAt,
		PaidAt:             paidAt,
		CheckInAt:          checkInAt,
		CancelledAt:        cancelledAt,
	}
}
