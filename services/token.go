package services

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
)

// sessionTokenSize is the raw entropy of a session token in bytes.
// 32 bytes is well above the 128-bit floor required for unguessability.
const sessionTokenSize = 32

// NewSessionToken generates an opaque, cryptographically random bearer
// token. Tokens are independent: observing any number of prior tokens
// gives no advantage in guessing the next one.
func NewSessionToken() (string, error) {
	raw := make([]byte, sessionTokenSize)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("session token generation failed: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

// HashToken derives the cache key for a token. Raw tokens never sit in the
// validation cache map.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
