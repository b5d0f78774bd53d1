package handlers

import (
	"net/http"

	"github.com/lokroom/settlement/internal/interfaces/rest"
)

func (h *Handlers) GetBooking(w http.ResponseWriter, r *http.Request) {
	booking, err := h.queryService.FindBookingByID(r.Context(), r.PathValue("id"))
	if err != nil {
		rest.WriteError(w, err)
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.ToAPIBooking(booking))
}
