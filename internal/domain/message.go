package domain

import "time"

const MessageTypeText = "text"

// Message is immutable once created except for is_read flips.
// PK: chat_id, SK: message_id (ULID — ascending key order is ascending
// created_at order).
type Message struct {
	ChatID    string    `json:"chat_id" dynamodbav:"chat_id"`
	MessageID string    `json:"id" dynamodbav:"message_id"`
	SenderID  string    `json:"sender_id" dynamodbav:"sender_id"`
	Content   string    `json:"content" dynamodbav:"content"`
	Type      string    `json:"type" dynamodbav:"type"`
	IsRead    bool      `json:"is_read" dynamodbav:"is_read"`
	CreatedAt time.Time `json:"created_at" dynamodbav:"created_at"`

	Sender *MessageSender `json:"sender,omitempty" dynamodbav:"-"`
}

// MessageSender is the sender display info joined onto retrieved messages.
type MessageSender struct {
	Username  string `json:"username"`
	AvatarURL string `json:"avatar_url"`
}
