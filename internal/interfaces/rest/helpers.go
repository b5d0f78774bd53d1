package rest

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/lokroom/settlement/internal/domain"
)

type SuccessResponse struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

// WriteJSON writes a success envelope around the payload.
func WriteJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(SuccessResponse{Success: true, Data: data})
}

// API representations of the domain entities.

type APIBooking struct {
	ID                 string     `json:"id"`
	ListingID          string     `json:"listingId"`
	GuestID            string     `json:"guestId"`
	HostID             string     `json:"hostId"`
	StartDate          time.Time  `json:"startDate"`
	EndDate            time.Time  `json:"endDate"`
	TotalPriceCents    int64      `json:"totalPriceCents"`
	GuestFeeCents      int64      `json:"guestFeeCents"`
	HostFeeCents       int64      `json:"hostFeeCents"`
	Currency           string     `json:"currency"`
	CancellationPolicy string     `json:"cancellationPolicy"`
	Status             string     `json:"status"`
	CancelledAt        *time.Time `json:"cancelledAt,omitempty"`
}

type APIDispute struct {
	ID                 string                  `json:"id"`
	BookingID          string                  `json:"bookingId"`
	OpenedBy           string                  `json:"openedBy"`
	Reason             string                  `json:"reason"`
	Description        string                  `json:"description"`
	ClaimedAmountCents *int64                  `json:"claimedAmountCents,omitempty"`
	Status             string                  `json:"status"`
	OpenedAt           time.Time               `json:"openedAt"`
	ResponseDeadline   time.Time               `json:"responseDeadline"`
	ResolvedAt         *time.Time              `json:"resolvedAt,omitempty"`
	ClosedAt           *time.Time              `json:"closedAt,omitempty"`
	Decision           *domain.DisputeDecision `json:"decision,omitempty"`
}

type APIPayout struct {
	BookingID         string     `json:"bookingId"`
	HostID            string     `json:"hostId"`
	AmountCents       int64      `json:"amountCents"`
	DeficitCents      int64      `json:"deficitCents"`
	Currency          string     `json:"currency"`
	Status            string     `json:"status"`
	ReleaseEligibleAt time.Time  `json:"releaseEligibleAt"`
	HeldReason        *string    `json:"heldReason,omitempty"`
	ReleasedAt        *time.Time `json:"releasedAt,omitempty"`
}

func ToAPIBooking(b *domain.Booking) APIBooking {
	return APIBooking{
		ID:                 b.ID,
		ListingID:          b.ListingID,
		GuestID:            b.GuestID,
		HostID:             b.HostID,
		StartDate:          b.StartDate,
		EndDate:            b.EndDate,
		TotalPriceCents:    b.TotalPriceCents,
		GuestFeeCents:      b.GuestFeeCents,
		HostFeeCents:       b.HostFeeCents,
		Currency:           b.Currency,
		CancellationPolicy: string(b.CancellationPolicy),
		Status:             string(b.Status),
		CancelledAt:        b.CancelledAt,
	}
}

func ToAPIDispute(d *domain.Dispute) APIDispute {
	return APIDispute{
		ID:                 d.ID,
		BookingID:          d.BookingID,
		OpenedBy:           string(d.OpenedBy),
		Reason:             string(d.Reason),
		Description:        d.Description,
		ClaimedAmountCents: d.ClaimedAmountCents,
		Status:             string(d.Status),
		OpenedAt:           d.OpenedAt,
		ResponseDeadline:   d.ResponseDeadline,
		ResolvedAt:         d.ResolvedAt,
		ClosedAt:           d.ClosedAt,
		Decision:           d.Decision,
	}
}

func ToAPIPayout(p *domain.Payout) APIPayout {
	return APIPayout{
		BookingID:         p.BookingID,
		HostID:            p.HostID,
		AmountCents:       p.AmountCents,
		DeficitCents:      p.DeficitCents,
		Currency:          p.Currency,
		Status:            string(p.Status),
		ReleaseEligibleAt: p.ReleaseEligibleAt,
		HeldReason:        p.HeldReason,
		ReleasedAt:        p.ReleasedAt,
	}
}
