package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chat-api/internal/application/auth"
	"github.com/go-chat-api/internal/pkg/validate"
	"github.com/go-chat-api/internal/transport/http/middleware"
)

// authAction is the dispatch key for POST /v1/auth.
type authAction string

const (
	actionSendCode   authAction = "send_code"
	actionVerifyCode authAction = "verify_code"
)

type authRequest struct {
	Action      authAction `json:"action"`
	PhoneNumber string     `json:"phone_number"`
	Code        string     `json:"code"`
}

// AuthHandler handles code dispatch, verification and the current-user lookup.
type AuthHandler struct {
	svc auth.Service
}

func NewAuthHandler(svc auth.Service) *AuthHandler {
	return &AuthHandler{svc: svc}
}

func (h *AuthHandler) Action(w http.ResponseWriter, r *http.Request) {
	var req authRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	switch req.Action {
	case actionSendCode:
		h.sendCode(w, r, req)
	case actionVerifyCode:
		h.verifyCode(w, r, req)
	default:
		writeError(w, http.StatusBadRequest, "unknown action")
	}
}

func (h *AuthHandler) sendCode(w http.ResponseWriter, r *http.Request, req authRequest) {
	in := auth.SendCodeRequest{PhoneNumber: req.PhoneNumber}
	if err := validate.Struct(in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	result, err := h.svc.SendCode(r.Context(), in.PhoneNumber)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	resp := SendCodeEnvelope{Success: true, Message: "verification code sent"}
	if !result.Delivered {
		resp.Code = result.Code
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *AuthHandler) verifyCode(w http.ResponseWriter, r *http.Request, req authRequest) {
	in := auth.VerifyCodeRequest{PhoneNumber: req.PhoneNumber, Code: req.Code}
	if err := validate.Struct(in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	result, err := h.svc.VerifyCode(r.Context(), in.PhoneNumber, in.Code)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, AuthEnvelope{
		Success:      true,
		SessionToken: result.SessionToken,
		User:         result.User,
	})
}

// Me returns the user attached to the presented session token.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	u, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	writeJSON(w, http.StatusOK, UserEnvelope{Success: true, User: u})
}
