package domain

import "time"

// VerificationCode is a short-lived one-time login code.
// PK: phone_number, SK: code_id (ULID — sorts by creation time, so the newest
// candidate for a phone number is the last item in key order).
// ExpiresAt is a Unix timestamp used as DynamoDB TTL; expiry is also checked
// at match time since TTL deletion is lazy.
type VerificationCode struct {
	PhoneNumber string    `json:"phone_number" dynamodbav:"phone_number"`
	CodeID      string    `json:"id" dynamodbav:"code_id"`
	Code        string    `json:"-" dynamodbav:"code"`
	IsUsed      bool      `json:"is_used" dynamodbav:"is_used"`
	ExpiresAt   int64     `json:"expires_at" dynamodbav:"expires_at"` // TTL (Unix seconds)
	CreatedAt   time.Time `json:"created" dynamodbav:"created_at"`
}
