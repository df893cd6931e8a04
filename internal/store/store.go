package store

import (
	"context"
	"errors"
	"time"

	"wizardguard/internal/domain"
)

var (
	// ErrTokenNotFound, ErrTokenExpired, ErrTokenUsed and ErrSessionMismatch
	// are returned by TokenStore.Consume in that check order; the first
	// failing check wins.
	ErrTokenNotFound   = errors.New("token not found")
	ErrTokenExpired    = errors.New("token expired")
	ErrTokenUsed       = errors.New("token already used")
	ErrSessionMismatch = errors.New("session mismatch")

	ErrNotFound = errors.New("record not found")
)

// TokenStore holds issued device-bound tokens.
// Implementations must be safe for concurrent use.
type TokenStore interface {
	// Save persists a token keyed by its opaque token string.
	Save(token *domain.DeviceBoundToken) error

	// Consume runs the ordered liveness checks and, on success, marks the
	// token used. The whole operation is a single atomic step; a token can
	// never be consumed twice even under concurrent calls.
	Consume(token, sessionID string, now time.Time) (*domain.DeviceBoundToken, error)

	// SweepExpired removes tokens whose TTL elapsed before now and returns
	// how many were removed. Expiry is already checked lazily at Consume
	// time; sweeping only bounds memory.
	SweepExpired(now time.Time) int

	Close() error
}

// FingerprintStore is the device-fingerprint cache. Records live for the
// process lifetime (or the backend's retention); each permission request
// overwrites the record for its device id.
// Implementations must be safe for concurrent use.
type FingerprintStore interface {
	Save(ctx context.Context, rec *domain.DeviceRecord) error
	Get(ctx context.Context, deviceID string) (*domain.DeviceRecord, error)
	Close() error
}

// SessionStore holds per-session trust state.
// Implementations must be safe for concurrent use.
type SessionStore interface {
	// GetOrCreate returns the session, creating an Active one with full
	// trust on first contact.
	GetOrCreate(sessionID string, now time.Time) (*domain.GameSession, error)

	// Get returns the session or ErrNotFound.
	Get(sessionID string) (*domain.GameSession, error)

	// Update applies fn to the session under the store's lock. Returns
	// ErrNotFound if the session does not exist.
	Update(sessionID string, fn func(*domain.GameSession)) error

	Close() error
}
