package security

import (
	"crypto/hmac"
	"strconv"
	"time"
)

// Nonces issues per-user, per-action form tokens. A token is bound to a tick
// of half the configured lifetime and verifies during its own tick and the
// next one.
type Nonces struct {
	secret   string
	lifetime time.Duration
	now      func() time.Time
}

func NewNonces(secret string, lifetime time.Duration) *Nonces {
	if lifetime <= 0 {
		lifetime = 24 * time.Hour
	}
	return &Nonces{secret: secret, lifetime: lifetime, now: time.Now}
}

func (n *Nonces) tick() int64 {
	half := int64(n.lifetime / 2)
	return n.now().UnixNano()/half + 1
}

func (n *Nonces) sign(userID, action string, tick int64) string {
	return string(SignResource(n.secret, strconv.FormatInt(tick, 10), action, userID))
}

func (n *Nonces) Create(userID, action string) string {
	return n.sign(userID, action, n.tick())
}

// Verify reports whether token was issued to userID for action within the
// last two ticks.
func (n *Nonces) Verify(token, userID, action string) bool {
	if token == "" {
		return false
	}
	tick := n.tick()
	for _, candidate := range []int64{tick, tick - 1} {
		if hmac.Equal([]byte(token), []byte(n.sign(userID, action, candidate))) {
			return true
		}
	}
	return false
}
