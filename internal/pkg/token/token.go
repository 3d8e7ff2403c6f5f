package token

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const (
	alphabet     = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	SessionLen   = 64
	CodeDigits   = 4
)

// NewSessionToken generates a cryptographically random 64-character
// alphanumeric session token.
func NewSessionToken() (string, error) {
	b := make([]byte, SessionLen)
	for i := range b {
		idx, err := rand.Int(rand.Reader, big.NewInt(int64(len(alphabet))))
		if err != nil {
			return "", fmt.Errorf("generate session token: %w", err)
		}
		b[i] = alphabet[idx.Int64()]
	}
	return string(b), nil
}

// NewVerificationCode generates a random 4-digit numeric code.
func NewVerificationCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(10000))
	if err != nil {
		return "", fmt.Errorf("generate verification code: %w", err)
	}
	return fmt.Sprintf("%04d", n.Int64()), nil
}
