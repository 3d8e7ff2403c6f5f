package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chat-api/internal/domain"
)

// StatusEnvelope is the generic response wrapper. Every response carries the
// success flag so clients can branch without inspecting the HTTP status.
type StatusEnvelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// SendCodeEnvelope wraps send_code responses. Code is only present when no
// SMS sender is configured and the code is echoed back for development.
type SendCodeEnvelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// AuthEnvelope wraps verify_code responses.
type AuthEnvelope struct {
	Success      bool         `json:"success"`
	SessionToken string       `json:"session_token"`
	User         *domain.User `json:"user"`
}

// UserEnvelope wraps single-user responses.
type UserEnvelope struct {
	Success bool         `json:"success"`
	User    *domain.User `json:"user"`
}

// ChatEnvelope wraps create_chat responses.
type ChatEnvelope struct {
	Success bool   `json:"success"`
	ChatID  string `json:"chat_id"`
}

// ChatListEnvelope wraps chat listing responses.
type ChatListEnvelope struct {
	Success bool                 `json:"success"`
	Chats   []domain.ChatSummary `json:"chats"`
}

// MessageEnvelope wraps send responses.
type MessageEnvelope struct {
	Success bool            `json:"success"`
	Message *domain.Message `json:"message"`
}

// MessageListEnvelope wraps message history responses.
type MessageListEnvelope struct {
	Success  bool             `json:"success"`
	ChatID   string           `json:"chat_id"`
	Messages []domain.Message `json:"messages"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, StatusEnvelope{Error: msg})
}

// httpStatus maps domain sentinels onto HTTP statuses.
func httpStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrBadRequest), errors.Is(err, domain.ErrInvalidCode):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthorized), errors.Is(err, domain.ErrInvalidSession):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeDomainError(w http.ResponseWriter, err error) {
	writeError(w, httpStatus(err), err.Error())
}
