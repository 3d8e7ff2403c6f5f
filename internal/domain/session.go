package domain

import "time"

// Session is a long-lived bearer credential. Validity is evaluated at query
// time against ExpiresAt; there is no revocation path besides expiry.
type Session struct {
	SessionID string    `json:"id" dynamodbav:"session_id"`
	UserID    string    `json:"user_id" dynamodbav:"user_id"`
	Token     string    `json:"-" dynamodbav:"session_token"`
	ExpiresAt int64     `json:"expires_at" dynamodbav:"expires_at"` // Unix seconds
	CreatedAt time.Time `json:"created" dynamodbav:"created_at"`
}
