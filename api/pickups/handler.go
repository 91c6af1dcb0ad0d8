// Package pickups exposes the allocation engine over HTTP: the polling
// endpoints donors and receivers use to learn about new requests and
// decisions, and the request, decision and scoring operations.
package pickups

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/kilianp07/zerowaste/core/allocation"
	"github.com/kilianp07/zerowaste/core/logger"
	"github.com/kilianp07/zerowaste/core/model"
	"github.com/kilianp07/zerowaste/core/notify"
	"github.com/kilianp07/zerowaste/core/scoring"
)

// Engine is the part of allocation.Engine used by the handlers.
type Engine interface {
	ModelVersion() string
	RequestPickup(ctx context.Context, donationID, receiverID string, now time.Time) (allocation.PickupRequestView, error)
	DecidePickup(ctx context.Context, requestID string, decision model.Decision) error
	CompletePickup(ctx context.Context, donationID string) error
	Score(ctx context.Context, donationID, receiverID string, now time.Time) (float64, error)
	RecomputePriority(ctx context.Context, donationID, receiverID string, now time.Time) (float64, error)
	RefreshAvailable(ctx context.Context, receiverID string, now time.Time) ([]allocation.ScoredDonation, error)
	PendingForDonor(ctx context.Context, donorID string) ([]model.PickupRequest, error)
	RequestsForReceiver(ctx context.Context, receiverID string) ([]model.PickupRequest, error)
}

// Message is the polling payload. Message is empty when there is nothing
// to report.
type Message struct {
	Message string                `json:"message"`
	Pending []model.PickupRequest `json:"pending,omitempty"`
}

// ScoreResponse is returned by the scoring endpoints.
type ScoreResponse struct {
	DonationID   string  `json:"donation_id"`
	ReceiverID   string  `json:"receiver_id"`
	Score        float64 `json:"score"`
	DisplayScore float64 `json:"display_score"`
	ModelVersion string  `json:"model_version"`
}

// RankedDonation is one entry of GET /api/receivers/{id}/donations.
type RankedDonation struct {
	allocation.ScoredDonation
	Error string `json:"error,omitempty"`
}

type requestBody struct {
	DonationID string `json:"donation_id"`
	ReceiverID string `json:"receiver_id"`
}

type decisionBody struct {
	Decision model.Decision `json:"decision"`
}

type handler struct {
	engine Engine
	log    logger.Logger
	now    func() time.Time
}

// Option customizes the handler.
type Option func(*handler)

// WithClock overrides the time used for scoring.
func WithClock(now func() time.Time) Option {
	return func(h *handler) { h.now = now }
}

// NewHandler returns the pickup API routes.
func NewHandler(engine Engine, log logger.Logger, opts ...Option) http.Handler {
	h := &handler{engine: engine, log: log, now: time.Now}
	for _, opt := range opts {
		opt(h)
	}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/donors/{id}/requests", h.donorRequests)
	mux.HandleFunc("GET /api/receivers/{id}/notifications", h.receiverNotifications)
	mux.HandleFunc("GET /api/receivers/{id}/donations", h.rankedDonations)
	mux.HandleFunc("POST /api/pickups", h.requestPickup)
	mux.HandleFunc("POST /api/pickups/{id}/decision", h.decide)
	mux.HandleFunc("POST /api/donations/{id}/complete", h.complete)
	mux.HandleFunc("GET /api/donations/{id}/score", h.score)
	mux.HandleFunc("POST /api/donations/{id}/priority", h.recompute)
	return mux
}

func (h *handler) donorRequests(w http.ResponseWriter, r *http.Request) {
	pending, err := h.engine.PendingForDonor(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Message{Message: notify.DonorMessage(pending), Pending: pending})
}

func (h *handler) receiverNotifications(w http.ResponseWriter, r *http.Request) {
	reqs, err := h.engine.RequestsForReceiver(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Message{Message: notify.ReceiverMessage(reqs)})
}

func (h *handler) rankedDonations(w http.ResponseWriter, r *http.Request) {
	scored, err := h.engine.RefreshAvailable(r.Context(), r.PathValue("id"), h.now())
	if err != nil {
		h.writeError(w, err)
		return
	}
	out := make([]RankedDonation, len(scored))
	for i, s := range scored {
		out[i] = RankedDonation{ScoredDonation: s}
		if s.Err != nil {
			out[i].Error = s.Err.Error()
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *handler) requestPickup(w http.ResponseWriter, r *http.Request) {
	var body requestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid body: " + err.Error()})
		return
	}
	if body.DonationID == "" || body.ReceiverID == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "donation_id and receiver_id are required"})
		return
	}
	view, err := h.engine.RequestPickup(r.Context(), body.DonationID, body.ReceiverID, h.now())
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

func (h *handler) decide(w http.ResponseWriter, r *http.Request) {
	var body decisionBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid body: " + err.Error()})
		return
	}
	if !body.Decision.Valid() {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: fmt.Sprintf("decision must be %q or %q", model.DecisionAccept, model.DecisionReject)})
		return
	}
	if err := h.engine.DecidePickup(r.Context(), r.PathValue("id"), body.Decision); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) complete(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.CompletePickup(r.Context(), r.PathValue("id")); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) score(w http.ResponseWriter, r *http.Request) {
	h.scoreWith(w, r, h.engine.Score)
}

func (h *handler) recompute(w http.ResponseWriter, r *http.Request) {
	h.scoreWith(w, r, h.engine.RecomputePriority)
}

func (h *handler) scoreWith(w http.ResponseWriter, r *http.Request, fn func(context.Context, string, string, time.Time) (float64, error)) {
	donationID := r.PathValue("id")
	receiverID := r.URL.Query().Get("receiver_id")
	if receiverID == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "receiver_id is required"})
		return
	}
	score, err := fn(r.Context(), donationID, receiverID, h.now())
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ScoreResponse{
		DonationID:   donationID,
		ReceiverID:   receiverID,
		Score:        score,
		DisplayScore: scoring.Clamp01(score),
		ModelVersion: h.engine.ModelVersion(),
	})
}

type errorBody struct {
	Error string `json:"error"`
}

// StatusFor maps engine errors to HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrDonationNotAvailable), errors.Is(err, model.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, model.ErrUnknownCategory):
		return http.StatusUnprocessableEntity
	case errors.Is(err, model.ErrScoringUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (h *handler) writeError(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		h.log.Errorf("pickups api: %v", err)
		msg = "internal error"
	}
	writeJSON(w, status, errorBody{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
