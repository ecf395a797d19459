package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSessionValidAt(t *testing.T) {
	now := time.Now()
	s := &Session{ExpiresAt: now.Add(time.Hour)}

	assert.True(t, s.ValidAt(now))
	// The expiry instant itself is already invalid.
	assert.False(t, s.ValidAt(s.ExpiresAt))
	assert.False(t, s.ValidAt(now.Add(2*time.Hour)))

	s.Revoked = true
	assert.False(t, s.ValidAt(now))
}
