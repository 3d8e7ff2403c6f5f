package domain

import "time"

const ChatTypePrivate = "private"

// Chat is a message thread. UpdatedAt is bumped on every new message and
// drives the chat-list ordering.
type Chat struct {
	ChatID    string    `json:"id" dynamodbav:"chat_id"`
	Type      string    `json:"type" dynamodbav:"type"`
	Name      string    `json:"name" dynamodbav:"name"`
	AvatarURL string    `json:"avatar_url" dynamodbav:"avatar_url"`
	MemberA   string    `json:"-" dynamodbav:"member_a"`
	MemberB   string    `json:"-" dynamodbav:"member_b"`
	CreatedAt time.Time `json:"created" dynamodbav:"created_at"`
	UpdatedAt time.Time `json:"updated" dynamodbav:"updated_at"`
}

// ChatMember is the membership relation between one user and one chat.
// A private chat has exactly two of these.
type ChatMember struct {
	UserID string `json:"user_id" dynamodbav:"member_user_id"`
	ChatID string `json:"chat_id" dynamodbav:"ref_chat_id"`
	PeerID string `json:"peer_id" dynamodbav:"peer_user_id"`
}

// ChatSummary is one row of the chat list: the chat plus its unread count and
// most recent message.
type ChatSummary struct {
	Chat
	UnreadCount     int        `json:"unread_count"`
	LastMessage     string     `json:"last_message"`
	LastMessageTime *time.Time `json:"last_message_time"`
}
