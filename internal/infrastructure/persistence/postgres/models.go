package postgres

import "time"

// Database models mirror the table layouts; mapping to and from domain
// entities lives in mappers.go.

type BookingModel struct {
	ID                 string
	ListingID          string
	GuestID            string
	HostID             string
	StartDate          time.Time
	EndDate            time.Time
	TotalPriceCents    int64
	GuestFeeCents      int64
	HostFeeCents       int64
	Currency           string
	CancellationPolicy string
	Status             string
	CreatedAt          time.Time
	PaidAt             *time.Time
	CheckInAt          *time.Time
	CancelledAt        *time.Time
}

type PaymentModel struct {
	BookingID            string
	ProviderCaptureID    string
	CapturedCents        int64
	AlreadyRefundedCents int64
	Currency             string
	CapturedAt           time.Time
	RefundedAt           *time.Time
}

type DisputeModel struct {
	ID                  string
	BookingID           string
	OpenedBy            string
	Reason              string
	Description         string
	ClaimedAmountCents  *int64
	Status              string
	OpenedAt            time.Time
	ResponseDeadline    time.Time
	ResolvedAt          *time.Time
	ClosedAt            *time.Time
	DecisionRefundCents *int64
	DecisionRationale   *string
	GuestResponded      bool
	HostResponded       bool
}

type PayoutModel struct {
	BookingID         string
	HostID            string
	AmountCents       int64
	DeficitCents      int64
	Currency          string
	Status            string
	ReleaseEligibleAt time.Time
	HeldReason        *string
	ReleasedAt        *time.Time
	Version           int64
}
