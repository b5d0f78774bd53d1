package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/lokroom/settlement/internal/application"
	"github.com/lokroom/settlement/internal/application/services"
	"github.com/lokroom/settlement/internal/interfaces/rest"
)

type Handlers struct {
	cancellationService *services.CancellationService
	disputeService      *services.DisputeService
	payoutService       *services.PayoutService
	queryService        *services.QueryService
	logger              *slog.Logger
}

func NewHandlers(
	cancellationService *services.CancellationService,
	disputeService *services.DisputeService,
	payoutService *services.PayoutService,
	queryService *services.QueryService,
	logger *slog.Logger,
) *Handlers {
	return &Handlers{
		cancellationService: cancellationService,
		disputeService:      disputeService,
		payoutService:       payoutService,
		queryService:        queryService,
		logger:              logger,
	}
}

// Routes registers all endpoints on the mux.
func (h *Handlers) Routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/bookings/{id}", h.GetBooking)
	mux.HandleFunc("GET /api/v1/bookings/{id}/cancellation-preview", h.PreviewCancellation)
	mux.HandleFunc("POST /api/v1/bookings/{id}/cancel", h.CancelBooking)
	mux.HandleFunc("GET /api/v1/bookings/{id}/disputes", h.ListBookingDisputes)
	mux.HandleFunc("GET /api/v1/bookings/{id}/payout", h.GetBookingPayout)
	mux.HandleFunc("POST /api/v1/bookings/{id}/payout/release", h.ReleasePayout)

	mux.HandleFunc("POST /api/v1/disputes", h.OpenDispute)
	mux.HandleFunc("GET /api/v1/disputes/{id}", h.GetDispute)
	mux.HandleFunc("POST /api/v1/disputes/{id}/respond", h.RespondDispute)
	mux.HandleFunc("POST /api/v1/disputes/{id}/escalate", h.EscalateDispute)
	mux.HandleFunc("POST /api/v1/disputes/{id}/resolve", h.ResolveDispute)
	mux.HandleFunc("POST /api/v1/disputes/{id}/close", h.CloseDispute)

	mux.HandleFunc("GET /api/v1/hosts/{id}/payouts", h.ListHostPayouts)

	mux.HandleFunc("GET /healthz", h.Health)
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	rest.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// decodeBody parses the JSON request body into dst.
func decodeBody(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return application.NewInvalidInputError(err)
	}
	return nil
}

// idempotencyKey pulls the Idempotency-Key header, required on
// endpoints that move money.
func idempotencyKey(r *http.Request) (string, error) {
	key := r.Header.Get("Idempotency-Key")
	if key == "" {
		return "", application.NewInvalidInputError(
			errors.New("Idempotency-Key header is required"))
	}
	return key, nil
}
