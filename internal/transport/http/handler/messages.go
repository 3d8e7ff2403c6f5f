package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chat-api/internal/application/chat"
	"github.com/go-chat-api/internal/pkg/validate"
	"github.com/go-chat-api/internal/transport/http/middleware"
)

// messageAction is the dispatch key for POST /v1/messages.
type messageAction string

const (
	actionSend       messageAction = "send"
	actionCreateChat messageAction = "create_chat"
)

type messageRequest struct {
	Action           messageAction `json:"action"`
	ChatID           string        `json:"chat_id"`
	Content          string        `json:"content"`
	Type             string        `json:"type"`
	ParticipantPhone string        `json:"participant_phone"`
}

// MessageHandler handles chat creation, message dispatch and listings.
type MessageHandler struct {
	svc chat.Service
}

func NewMessageHandler(svc chat.Service) *MessageHandler {
	return &MessageHandler{svc: svc}
}

func (h *MessageHandler) Action(w http.ResponseWriter, r *http.Request) {
	u, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req messageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	switch req.Action {
	case actionSend:
		h.send(w, r, u.UserID, req)
	case actionCreateChat:
		h.createChat(w, r, u.UserID, req)
	default:
		writeError(w, http.StatusBadRequest, "unknown action")
	}
}

func (h *MessageHandler) send(w http.ResponseWriter, r *http.Request, callerID string, req messageRequest) {
	in := chat.SendMessageRequest{ChatID: req.ChatID, Content: req.Content, Type: req.Type}
	if err := validate.Struct(in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	m, err := h.svc.SendMessage(r.Context(), callerID, in)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Success: true, Message: m})
}

func (h *MessageHandler) createChat(w http.ResponseWriter, r *http.Request, callerID string, req messageRequest) {
	in := chat.CreateChatRequest{ParticipantPhone: req.ParticipantPhone}
	if err := validate.Struct(in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	chatID, err := h.svc.CreateOrGetPrivateChat(r.Context(), callerID, in.ParticipantPhone)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ChatEnvelope{Success: true, ChatID: chatID})
}

// List serves GET /v1/messages: with a chat_id query parameter it returns
// that chat's history, without one it returns the caller's chat list.
func (h *MessageHandler) List(w http.ResponseWriter, r *http.Request) {
	u, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	chatID := r.URL.Query().Get("chat_id")
	if chatID == "" {
		chats, err := h.svc.ListChats(r.Context(), u.UserID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, ChatListEnvelope{Success: true, Chats: chats})
		return
	}
	msgs, err := h.svc.ListMessages(r.Context(), u.UserID, chatID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageListEnvelope{Success: true, ChatID: chatID, Messages: msgs})
}
