package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/go-chat-api/internal/domain"
	"github.com/go-chat-api/internal/pkg/id"
	pkgphone "github.com/go-chat-api/internal/pkg/phone"
)

type ChatStore interface {
	CreatePrivate(ctx context.Context, c *domain.Chat) error
	PairChatID(ctx context.Context, userA, userB string) (string, error)
	Get(ctx context.Context, chatID string) (*domain.Chat, error)
	IsMember(ctx context.Context, userID, chatID string) (bool, error)
	ListMemberships(ctx context.Context, userID string) ([]domain.ChatMember, error)
	Touch(ctx context.Context, chatID string, at time.Time) error
}

type MessageStore interface {
	Put(ctx context.Context, m *domain.Message) error
	ListByChat(ctx context.Context, chatID string) ([]domain.Message, error)
	Latest(ctx context.Context, chatID string) (*domain.Message, error)
	CountUnread(ctx context.Context, chatID, excludeSenderID string) (int, error)
}

type UserStore interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
	GetByPhone(ctx context.Context, phoneNumber string) (*domain.User, error)
}

type SendMessageRequest struct {
	ChatID  string `json:"chat_id" validate:"required"`
	Content string `json:"content" validate:"required"`
	Type    string `json:"type"`
}

type CreateChatRequest struct {
	ParticipantPhone string `json:"participant_phone" validate:"required"`
}

type Service interface {
	CreateOrGetPrivateChat(ctx context.Context, callerID, participantPhone string) (string, error)
	SendMessage(ctx context.Context, callerID string, req SendMessageRequest) (*domain.Message, error)
	ListMessages(ctx context.Context, callerID, chatID string) ([]domain.Message, error)
	ListChats(ctx context.Context, callerID string) ([]domain.ChatSummary, error)
}

type ServiceDeps struct {
	ChatRepo    ChatStore
	MessageRepo MessageStore
	UserRepo    UserStore
}

type service struct {
	chatRepo    ChatStore
	messageRepo MessageStore
	userRepo    UserStore
}

func NewService(deps ServiceDeps) Service {
	return &service{
		chatRepo:    deps.ChatRepo,
		messageRepo: deps.MessageRepo,
		userRepo:    deps.UserRepo,
	}
}

// CreateOrGetPrivateChat finds or creates the single private chat between the
// caller and the user owning participantPhone. Two concurrent calls for the
// same pair always converge on one chat id: creation is conditioned on the
// pair constraint, and the loser re-reads the winner's chat.
func (s *service) CreateOrGetPrivateChat(ctx context.Context, callerID, participantPhone string) (string, error) {
	phone := pkgphone.Normalize(participantPhone)
	participant, err := s.userRepo.GetByPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", fmt.Errorf("user not found: %w", domain.ErrNotFound)
		}
		return "", err
	}
	if participant.UserID == callerID {
		return "", fmt.Errorf("cannot open a chat with yourself: %w", domain.ErrBadRequest)
	}

	chatID, err := s.chatRepo.PairChatID(ctx, callerID, participant.UserID)
	if err == nil {
		return chatID, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return "", err
	}

	now := time.Now().UTC()
	c := &domain.Chat{
		ChatID:    id.New(),
		Type:      domain.ChatTypePrivate,
		MemberA:   callerID,
		MemberB:   participant.UserID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.chatRepo.CreatePrivate(ctx, c); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return s.chatRepo.PairChatID(ctx, callerID, participant.UserID)
		}
		return "", err
	}
	return c.ChatID, nil
}

func (s *service) SendMessage(ctx context.Context, callerID string, req SendMessageRequest) (*domain.Message, error) {
	ok, err := s.chatRepo.IsMember(ctx, callerID, req.ChatID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("not a participant of chat %s: %w", req.ChatID, domain.ErrForbidden)
	}

	msgType := req.Type
	if msgType == "" {
		msgType = domain.MessageTypeText
	}
	now := time.Now().UTC()
	m := &domain.Message{
		ChatID:    req.ChatID,
		MessageID: id.New(),
		SenderID:  callerID,
		Content:   req.Content,
		Type:      msgType,
		CreatedAt: now,
	}
	if err := s.messageRepo.Put(ctx, m); err != nil {
		return nil, err
	}
	if err := s.chatRepo.Touch(ctx, req.ChatID, now); err != nil {
		return nil, err
	}
	return m, nil
}

// ListMessages returns the full history of a chat in ascending created_at
// order, with sender display info joined onto each message.
func (s *service) ListMessages(ctx context.Context, callerID, chatID string) ([]domain.Message, error) {
	ok, err := s.chatRepo.IsMember(ctx, callerID, chatID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("not a participant of chat %s: %w", chatID, domain.ErrForbidden)
	}

	msgs, err := s.messageRepo.ListByChat(ctx, chatID)
	if err != nil {
		return nil, err
	}

	senders := make(map[string]*domain.MessageSender)
	for i := range msgs {
		info, ok := senders[msgs[i].SenderID]
		if !ok {
			u, err := s.userRepo.Get(ctx, msgs[i].SenderID)
			if err != nil {
				slog.Warn("message sender missing", "sender_id", msgs[i].SenderID, "err", err)
				senders[msgs[i].SenderID] = nil
				continue
			}
			info = &domain.MessageSender{Username: u.Username, AvatarURL: u.AvatarURL}
			senders[msgs[i].SenderID] = info
		}
		msgs[i].Sender = info
	}
	return msgs, nil
}

// ListChats returns one summary per chat the caller participates in, ordered
// by chat recency (most recently active first).
func (s *service) ListChats(ctx context.Context, callerID string) ([]domain.ChatSummary, error) {
	members, err := s.chatRepo.ListMemberships(ctx, callerID)
	if err != nil {
		return nil, err
	}

	summaries := make([]domain.ChatSummary, 0, len(members))
	for _, m := range members {
		c, err := s.chatRepo.Get(ctx, m.ChatID)
		if err != nil {
			slog.Warn("membership points at missing chat", "chat_id", m.ChatID, "err", err)
			continue
		}
		sum := domain.ChatSummary{Chat: *c}

		if sum.Name == "" || sum.AvatarURL == "" {
			if peer, err := s.userRepo.Get(ctx, m.PeerID); err == nil {
				if sum.Name == "" {
					sum.Name = peer.Username
				}
				if sum.AvatarURL == "" {
					sum.AvatarURL = peer.AvatarURL
				}
			}
		}

		unread, err := s.messageRepo.CountUnread(ctx, m.ChatID, callerID)
		if err != nil {
			return nil, err
		}
		sum.UnreadCount = unread

		last, err := s.messageRepo.Latest(ctx, m.ChatID)
		switch {
		case err == nil:
			sum.LastMessage = last.Content
			t := last.CreatedAt
			sum.LastMessageTime = &t
		case !errors.Is(err, domain.ErrNotFound):
			return nil, err
		}

		summaries = append(summaries, sum)
	}

	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].UpdatedAt.After(summaries[j].UpdatedAt)
	})
	return summaries, nil
}
