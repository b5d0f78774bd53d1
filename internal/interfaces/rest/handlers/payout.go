package handlers

import (
	"net/http"
	"strconv"

	"github.com/lokroom/settlement/internal/interfaces/rest"
)

func (h *Handlers) GetBookingPayout(w http.ResponseWriter, r *http.Request) {
	payout, err := h.queryService.FindPayoutByBookingID(r.Context(), r.PathValue("id"))
	if err != nil {
		rest.WriteError(w, err)
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.ToAPIPayout(payout))
}

func (h *Handlers) ReleasePayout(w http.ResponseWriter, r *http.Request) {
	payout, err := h.payoutService.Release(r.Context(), r.PathValue("id"))
	if err != nil {
		rest.WriteError(w, err)
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.ToAPIPayout(payout))
}

func (h *Handlers) ListHostPayouts(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 50)
	offset := queryInt(r, "offset", 0)

	payouts, err := h.queryService.FindPayoutsByHostID(r.Context(), r.PathValue("id"), limit, offset)
	if err != nil {
		rest.WriteError(w, err)
		return
	}

	out := make([]rest.APIPayout, 0, len(payouts))
	for _, p := range payouts {
		out = append(out, rest.ToAPIPayout(p))
	}
	rest.WriteJSON(w, http.StatusOK, out)
}

func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return fallback
	}
	return v
}
