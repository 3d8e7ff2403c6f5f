package domain

import "time"

// Call-signal categories. Opaque markers only; the payload is never
// interpreted by this system.
const (
	SignalTypeOffer  = "offer"
	SignalTypeAnswer = "answer"
	SignalTypeICE    = "ice"
)

// ValidSignalType reports whether t is one of the known signal categories.
func ValidSignalType(t string) bool {
	return t == SignalTypeOffer || t == SignalTypeAnswer || t == SignalTypeICE
}

// CallSignal is one store-and-forward signaling payload. Consumed in bulk
// when the recipient polls; once read it is never redelivered.
// PK: to_user_id, SK: signal_id (ULID, so ascending key order is ascending
// created_at order). SignalData is stored serialized and passed through
// verbatim.
type CallSignal struct {
	ToUserID   string    `json:"to_user_id" dynamodbav:"to_user_id"`
	SignalID   string    `json:"id" dynamodbav:"signal_id"`
	FromUserID string    `json:"from_user_id" dynamodbav:"from_user_id"`
	SignalType string    `json:"signal_type" dynamodbav:"signal_type"`
	SignalData string    `json:"-" dynamodbav:"signal_data"`
	IsRead     bool      `json:"is_read" dynamodbav:"is_read"`
	ExpiresAt  int64     `json:"-" dynamodbav:"expires_at"` // TTL (Unix seconds)
	CreatedAt  time.Time `json:"created_at" dynamodbav:"created_at"`
}
