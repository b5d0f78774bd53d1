package handlers

import (
	"net/http"

	"github.com/lokroom/settlement/internal/application/services"
	"github.com/lokroom/settlement/internal/domain"
	"github.com/lokroom/settlement/internal/interfaces/rest"
)

type openDisputeRequest struct {
	BookingID          string `json:"bookingId"`
	OpenedBy           string `json:"openedBy"`
	Reason             string `json:"reason"`
	Description        string `json:"description"`
	ClaimedAmountCents *int64 `json:"claimedAmountCents"`
}

type respondDisputeRequest struct {
	Responder string `json:"responder"`
	Message   string `json:"message"`
}

type resolveDisputeRequest struct {
	RefundCents int64  `json:"refundCents"`
	Rationale   string `json:"rationale"`
}

func (h *Handlers) OpenDispute(w http.ResponseWriter, r *http.Request) {
	var req openDisputeRequest
	if err := decodeBody(r, &req); err != nil {
		rest.WriteError(w, err)
		return
	}

	cmd := services.OpenDisputeCommand{
		BookingID:          req.BookingID,
		OpenedBy:           domain.Actor(req.OpenedBy),
		Reason:             domain.DisputeReason(req.Reason),
		Description:        req.Description,
		ClaimedAmountCents: req.ClaimedAmountCents,
	}

	dispute, err := h.disputeService.Open(r.Context(), cmd)
	if err != nil {
		rest.WriteError(w, err)
		return
	}

	rest.WriteJSON(w, http.StatusCreated, rest.ToAPIDispute(dispute))
}

func (h *Handlers) GetDispute(w http.ResponseWriter, r *http.Request) {
	dispute, err := h.queryService.FindDisputeByID(r.Context(), r.PathValue("id"))
	if err != nil {
		rest.WriteError(w, err)
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.ToAPIDispute(dispute))
}

func (h *Handlers) ListBookingDisputes(w http.ResponseWriter, r *http.Request) {
	disputes, err := h.queryService.FindDisputesByBookingID(r.Context(), r.PathValue("id"))
	if err != nil {
		rest.WriteError(w, err)
		return
	}

	out := make([]rest.APIDispute, 0, len(disputes))
	for _, d := range disputes {
		out = append(out, rest.ToAPIDispute(d))
	}
	rest.WriteJSON(w, http.StatusOK, out)
}

func (h *Handlers) RespondDispute(w http.ResponseWriter, r *http.Request) {
	var req respondDisputeRequest
	if err := decodeBody(r, &req); err != nil {
		rest.WriteError(w, err)
		return
	}

	cmd := services.RespondDisputeCommand{
		DisputeID: r.PathValue("id"),
		Responder: domain.Actor(req.Responder),
		Message:   req.Message,
	}

	dispute, err := h.disputeService.Respond(r.Context(), cmd)
	if err != nil {
		rest.WriteError(w, err)
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.ToAPIDispute(dispute))
}

func (h *Handlers) EscalateDispute(w http.ResponseWriter, r *http.Request) {
	dispute, err := h.disputeService.Escalate(r.Context(), r.PathValue("id"))
	if err != nil {
		rest.WriteError(w, err)
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.ToAPIDispute(dispute))
}

func (h *Handlers) ResolveDispute(w http.ResponseWriter, r *http.Request) {
	key, err := idempotencyKey(r)
	if err != nil {
		rest.WriteError(w, err)
		return
	}

	var req resolveDisputeRequest
	if err := decodeBody(r, &req); err != nil {
		rest.WriteError(w, err)
		return
	}

	cmd := services.ResolveDisputeCommand{
		DisputeID:   r.PathValue("id"),
		RefundCents: req.RefundCents,
		Rationale:   req.Rationale,
	}

	result, err := h.disputeService.Resolve(r.Context(), cmd, key)
	if err != nil {
		rest.WriteError(w, err)
		return
	}

	rest.WriteJSON(w, http.StatusOK, result)
}

func (h *Handlers) CloseDispute(w http.ResponseWriter, r *http.Request) {
	cmd := services.CloseDisputeCommand{DisputeID: r.PathValue("id")}

	dispute, err := h.disputeService.Close(r.Context(), cmd)
	if err != nil {
		rest.WriteError(w, err)
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.ToAPIDispute(dispute))
}
