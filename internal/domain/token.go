package domain

import "time"

// DeviceBoundToken ties a session to a device and the game state observed at
// issuance. Single-use: Used flips false->true exactly once, and the
// check-and-flip must happen atomically in the store.
//
// The token string itself is an unsigned opaque payload; its integrity comes
// entirely from the server-side lookup. That is a known protocol gap kept
// on purpose (see DESIGN.md), not something to fix by signing.
type DeviceBoundToken struct {
	Token         string
	SessionID     string
	DeviceID      string
	ExpectedState GameStateSnapshot
	CreatedAt     time.Time
	ExpiresAt     time.Time
	Used          bool
}

// Expired reports whether the token's fixed TTL has elapsed at the given time.
func (t *DeviceBoundToken) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}
