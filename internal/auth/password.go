package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	ckerrors "go.pilab.hu/casekit/errors"
	"go.pilab.hu/casekit/services"
)

// BcryptPasswordHasher implements the services.PasswordHasher interface
// using bcrypt. Records migrated from the legacy database hold unsalted
// hex SHA-256 digests; Verify accepts those too, compared in constant time.
type BcryptPasswordHasher struct {
	Cost int
}

// NewBcryptPasswordHasher creates a new BcryptPasswordHasher.
// Default cost is bcrypt.DefaultCost if cost <= 0.
func NewBcryptPasswordHasher(cost int) *BcryptPasswordHasher {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	return &BcryptPasswordHasher{Cost: cost}
}

// Hash generates a bcrypt hash for the given password.
func (h *BcryptPasswordHasher) Hash(password string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), h.Cost)
	if err != nil {
		return "", fmt.Errorf("bcrypt hash generation failed: %w", err)
	}
	return string(hashedBytes), nil
}

// Verify compares a stored hash with its possible plaintext equivalent.
func (h *BcryptPasswordHasher) Verify(storedHash, password string) error {
	if strings.HasPrefix(storedHash, "$2") {
		if err := bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(password)); err != nil {
			return ckerrors.ErrInvalidCredentials
		}
		return nil
	}
	return verifyLegacy(storedHash, password)
}

// verifyLegacy checks a hex-encoded SHA-256 digest. The comparison must be
// constant-time even though the digest itself is unsalted legacy data.
func verifyLegacy(storedHash, password string) error {
	digest := sha256.Sum256([]byte(password))
	stored, err := hex.DecodeString(storedHash)
	if err != nil || len(stored) != sha256.Size {
		return ckerrors.ErrInvalidCredentials
	}
	if subtle.ConstantTimeCompare(stored, digest[:]) != 1 {
		return ckerrors.ErrInvalidCredentials
	}
	return nil
}

// Ensure it implements the interface
var _ services.PasswordHasher = (*BcryptPasswordHasher)(nil)
