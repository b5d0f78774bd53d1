package handlers

import (
	"net/http"

	"github.com/lokroom/settlement/internal/application/services"
	"github.com/lokroom/settlement/internal/domain"
	"github.com/lokroom/settlement/internal/interfaces/rest"
)

type cancelBookingRequest struct {
	CancelledBy              string `json:"cancelledBy"`
	Reason                   string `json:"reason"`
	ExceptionalCircumstances bool   `json:"exceptionalCircumstances"`
}

// PreviewCancellation prices a cancellation as of now without executing
// it.
func (h *Handlers) PreviewCancellation(w http.ResponseWriter, r *http.Request) {
	bookingID := r.PathValue("id")
	by := domain.Actor(r.URL.Query().Get("cancelledBy"))
	exceptional := r.URL.Query().Get("exceptional") == "true"

	breakdown, err := h.cancellationService.Preview(r.Context(), bookingID, by, exceptional)
	if err != nil {
		rest.WriteError(w, err)
		return
	}

	rest.WriteJSON(w, http.StatusOK, breakdown)
}

func (h *Handlers) CancelBooking(w http.ResponseWriter, r *http.Request) {
	key, err := idempotencyKey(r)
	if err != nil {
		rest.WriteError(w, err)
		return
	}

	var req cancelBookingRequest
	if err := decodeBody(r, &req); err != nil {
		rest.WriteError(w, err)
		return
	}

	cmd := services.CancelBookingCommand{
		BookingID:                r.PathValue("id"),
		CancelledBy:              domain.Actor(req.CancelledBy),
		Reason:                   req.Reason,
		ExceptionalCircumstances: req.ExceptionalCircumstances,
	}

	result, err := h.cancellationService.Cancel(r.Context(), cmd, key)
	if err != nil {
		rest.WriteError(w, err)
		return
	}

	rest.WriteJSON(w, http.StatusOK, result)
}
