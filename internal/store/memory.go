package store

import (
	"context"
	"sync"
	"time"

	"wizardguard/internal/domain"
)

// MemoryTokenStore implements TokenStore with an in-process map. State is
// session-scoped and lost on restart, which is the intended lifecycle.
type MemoryTokenStore struct {
	mu     sync.Mutex
	tokens map[string]*domain.DeviceBoundToken
}

var _ TokenStore = (*MemoryTokenStore)(nil)

// NewMemoryTokenStore creates an empty token store.
func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{tokens: make(map[string]*domain.DeviceBoundToken)}
}

// Save persists a token keyed by its opaque string.
func (s *MemoryTokenStore) Save(token *domain.DeviceBoundToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tokens[token.Token] = token
	return nil
}

// Consume performs the ordered checks and flips Used under a single lock.
// Splitting the read and the write would allow a double-spend race.
func (s *MemoryTokenStore) Consume(token, sessionID string, now time.Time) (*domain.DeviceBoundToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tokens[token]
	if !ok {
		return nil, ErrTokenNotFound
	}
	if t.Expired(now) {
		return nil, ErrTokenExpired
	}
	if t.Used {
		return nil, ErrTokenUsed
	}
	if t.SessionID != sessionID {
		return nil, ErrSessionMismatch
	}

	t.Used = true
	return t, nil
}

// SweepExpired drops tokens past their TTL.
func (s *MemoryTokenStore) SweepExpired(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, t := range s.tokens {
		if t.Expired(now) {
			delete(s.tokens, key)
			removed++
		}
	}
	return removed
}

// Close is a no-op for the memory store.
func (s *MemoryTokenStore) Close() error { return nil }

// MemoryFingerprintStore implements FingerprintStore with an in-process map.
// Records live for the process lifetime; each permission request overwrites
// the record for its device id.
type MemoryFingerprintStore struct {
	mu      sync.RWMutex
	records map[string]*domain.DeviceRecord
}

var _ FingerprintStore = (*MemoryFingerprintStore)(nil)

// NewMemoryFingerprintStore creates an empty fingerprint cache.
func NewMemoryFingerprintStore() *MemoryFingerprintStore {
	return &MemoryFingerprintStore{records: make(map[string]*domain.DeviceRecord)}
}

// Save overwrites the record for its device id. The context is unused by the
// memory backend; it is part of the interface for the Redis backend.
func (s *MemoryFingerprintStore) Save(ctx context.Context, rec *domain.DeviceRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[rec.DeviceID] = rec
	return nil
}

// Get returns the record or ErrNotFound.
func (s *MemoryFingerprintStore) Get(ctx context.Context, deviceID string) (*domain.DeviceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[deviceID]
	if !ok {
		return nil, ErrNotFound
	}
	return rec, nil
}

// Close is a no-op for the memory store.
func (s *MemoryFingerprintStore) Close() error { return nil }

// MemorySessionStore implements SessionStore with an in-process map.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*domain.GameSession
}

var _ SessionStore = (*MemorySessionStore)(nil)

// NewMemorySessionStore creates an empty session store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[string]*domain.GameSession)}
}

// GetOrCreate returns the session, creating an Active one with full trust on
// first contact.
func (s *MemorySessionStore) GetOrCreate(sessionID string, now time.Time) (*domain.GameSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.sessions[sessionID]; ok {
		cp := *sess
		return &cp, nil
	}
	sess := &domain.GameSession{
		SessionID:  sessionID,
		State:      domain.SessionActive,
		TrustScore: 100,
		StartedAt:  now,
	}
	s.sessions[sessionID] = sess
	cp := *sess
	return &cp, nil
}

// Get returns the session or ErrNotFound.
func (s *MemorySessionStore) Get(sessionID string) (*domain.GameSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *sess
	return &cp, nil
}

// Update applies fn under the store lock.
func (s *MemorySessionStore) Update(sessionID string, fn func(*domain.GameSession)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return ErrNotFound
	}
	fn(sess)
	return nil
}

// Close is a no-op for the memory store.
func (s *MemorySessionStore) Close() error { return nil }
