package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chat-api/internal/application/signal"
	"github.com/go-chat-api/internal/domain"
	"github.com/go-chat-api/internal/pkg/validate"
	"github.com/go-chat-api/internal/transport/http/middleware"
)

// signalAction is the dispatch key for POST /v1/signaling.
type signalAction string

const (
	actionOffer        signalAction = "offer"
	actionAnswer       signalAction = "answer"
	actionICECandidate signalAction = "ice_candidate"
)

// signalTypeByAction maps wire actions onto stored signal categories.
var signalTypeByAction = map[signalAction]string{
	actionOffer:        domain.SignalTypeOffer,
	actionAnswer:       domain.SignalTypeAnswer,
	actionICECandidate: domain.SignalTypeICE,
}

type signalRequest struct {
	Action       signalAction    `json:"action"`
	TargetUserID string          `json:"target_user_id"`
	Payload      json.RawMessage `json:"payload"`
}

// signalView is the wire shape of a delivered signal: the stored payload
// string is emitted as raw JSON, not re-quoted.
type signalView struct {
	SignalID   string          `json:"id"`
	FromUserID string          `json:"from_user_id"`
	SignalType string          `json:"signal_type"`
	Payload    json.RawMessage `json:"payload"`
	CreatedAt  string          `json:"created_at"`
}

// SignalListEnvelope wraps poll responses.
type SignalListEnvelope struct {
	Success bool         `json:"success"`
	Signals []signalView `json:"signals"`
}

// SignalEnvelope wraps dispatch responses.
type SignalEnvelope struct {
	Success  bool   `json:"success"`
	SignalID string `json:"signal_id"`
}

// SignalingHandler handles store-and-forward call signaling.
type SignalingHandler struct {
	svc signal.Service
}

func NewSignalingHandler(svc signal.Service) *SignalingHandler {
	return &SignalingHandler{svc: svc}
}

func (h *SignalingHandler) Action(w http.ResponseWriter, r *http.Request) {
	u, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req signalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	sigType, ok := signalTypeByAction[req.Action]
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown action")
		return
	}
	in := signal.SendSignalRequest{
		TargetUserID: req.TargetUserID,
		SignalType:   sigType,
		SignalData:   string(req.Payload),
	}
	if err := validate.Struct(in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	sig, err := h.svc.SendSignal(r.Context(), u.UserID, in)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, SignalEnvelope{Success: true, SignalID: sig.SignalID})
}

// Poll drains the caller's pending signals. Each signal is delivered exactly
// once; an empty list is a normal response.
func (h *SignalingHandler) Poll(w http.ResponseWriter, r *http.Request) {
	u, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	sigs, err := h.svc.PollSignals(r.Context(), u.UserID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	views := make([]signalView, 0, len(sigs))
	for _, sig := range sigs {
		views = append(views, signalView{
			SignalID:   sig.SignalID,
			FromUserID: sig.FromUserID,
			SignalType: sig.SignalType,
			Payload:    json.RawMessage(sig.SignalData),
			CreatedAt:  sig.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, SignalListEnvelope{Success: true, Signals: views})
}
