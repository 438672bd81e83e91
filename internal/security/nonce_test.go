package security

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestNonces_VerifyWithinTwoTicks(t *testing.T) {
	start := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	nonces := NewNonces("secret", 24*time.Hour)
	nonces.now = fixedClock(start)

	token := nonces.Create("user-1", "save_model:7")
	assert.True(t, nonces.Verify(token, "user-1", "save_model:7"))

	nonces.now = fixedClock(start.Add(13 * time.Hour))
	assert.True(t, nonces.Verify(token, "user-1", "save_model:7"))

	nonces.now = fixedClock(start.Add(25 * time.Hour))
	assert.False(t, nonces.Verify(token, "user-1", "save_model:7"))
}

func TestNonces_BoundToUserAndAction(t *testing.T) {
	nonces := NewNonces("secret", time.Hour)
	token := nonces.Create("user-1", "save_model:7")

	assert.False(t, nonces.Verify(token, "user-2", "save_model:7"))
	assert.False(t, nonces.Verify(token, "user-1", "save_model:8"))
	assert.False(t, nonces.Verify("", "user-1", "save_model:7"))
	assert.False(t, NewNonces("other", time.Hour).Verify(token, "user-1", "save_model:7"))
}
