package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"wizardguard/internal/domain"
)

func testToken(token, sessionID string, now time.Time) *domain.DeviceBoundToken {
	return &domain.DeviceBoundToken{
		Token:     token,
		SessionID: sessionID,
		DeviceID:  "device-1",
		CreatedAt: now,
		ExpiresAt: now.Add(2 * time.Minute),
	}
}

func TestConsumeOrderedChecks(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	s := NewMemoryTokenStore()
	if _, err := s.Consume("missing", "sess-1", now); !errors.Is(err, ErrTokenNotFound) {
		t.Fatalf("expected ErrTokenNotFound, got %v", err)
	}

	if err := s.Save(testToken("tok-1", "sess-1", now)); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := s.Consume("tok-1", "sess-1", now.Add(3*time.Minute)); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}

	if _, err := s.Consume("tok-1", "other-session", now); !errors.Is(err, ErrSessionMismatch) {
		t.Fatalf("expected ErrSessionMismatch, got %v", err)
	}

	got, err := s.Consume("tok-1", "sess-1", now)
	if err != nil {
		t.Fatalf("consume: %v", err)
	}
	if !got.Used {
		t.Fatal("consumed token not marked used")
	}

	if _, err := s.Consume("tok-1", "sess-1", now); !errors.Is(err, ErrTokenUsed) {
		t.Fatalf("expected ErrTokenUsed, got %v", err)
	}
}

func TestConsumeExpiredBeforeUsed(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	s := NewMemoryTokenStore()
	tok := testToken("tok-1", "sess-1", now)
	tok.Used = true
	if err := s.Save(tok); err != nil {
		t.Fatalf("save: %v", err)
	}

	// Expiry outranks the used flag in the check order.
	if _, err := s.Consume("tok-1", "sess-1", now.Add(3*time.Minute)); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestConsumeSingleWinner(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	s := NewMemoryTokenStore()
	if err := s.Save(testToken("tok-1", "sess-1", now)); err != nil {
		t.Fatalf("save: %v", err)
	}

	const workers = 32
	var wg sync.WaitGroup
	wins := make(chan struct{}, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.Consume("tok-1", "sess-1", now); err == nil {
				wins <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(wins)

	won := 0
	for range wins {
		won++
	}
	if won != 1 {
		t.Fatalf("expected exactly one successful consume, got %d", won)
	}
}

func TestSweepExpired(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	s := NewMemoryTokenStore()
	for _, tok := range []*domain.DeviceBoundToken{
		testToken("tok-live", "sess-1", now),
		testToken("tok-old-1", "sess-1", now.Add(-5*time.Minute)),
		testToken("tok-old-2", "sess-1", now.Add(-10*time.Minute)),
	} {
		if err := s.Save(tok); err != nil {
			t.Fatalf("save: %v", err)
		}
	}

	if removed := s.SweepExpired(now); removed != 2 {
		t.Fatalf("expected 2 removed, got %d", removed)
	}
	if _, err := s.Consume("tok-live", "sess-1", now); err != nil {
		t.Fatalf("live token should survive sweep: %v", err)
	}
	if _, err := s.Consume("tok-old-1", "sess-1", now); !errors.Is(err, ErrTokenNotFound) {
		t.Fatalf("swept token should be gone, got %v", err)
	}
}

func TestFingerprintStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryFingerprintStore()

	if _, err := s.Get(ctx, "dev-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	rec := &domain.DeviceRecord{DeviceID: "dev-1", Browser: "Firefox 127", SessionID: "sess-1"}
	if err := s.Save(ctx, rec); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := s.Get(ctx, "dev-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Browser != "Firefox 127" || got.SessionID != "sess-1" {
		t.Fatalf("unexpected record %+v", got)
	}
}

func TestSessionStoreLifecycle(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s := NewMemorySessionStore()

	if _, err := s.Get("sess-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	sess, err := s.GetOrCreate("sess-1", now)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if sess.State != domain.SessionActive || sess.TrustScore != 100 {
		t.Fatalf("fresh session should be active at full trust, got %+v", sess)
	}

	again, err := s.GetOrCreate("sess-1", now.Add(time.Minute))
	if err != nil {
		t.Fatalf("get or create: %v", err)
	}
	if !again.StartedAt.Equal(now) {
		t.Fatalf("second GetOrCreate must not recreate: started at %v", again.StartedAt)
	}

	if err := s.Update("sess-1", func(sess *domain.GameSession) {
		sess.TrustScore = 70
		sess.State = domain.SessionWarned
	}); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err := s.Get("sess-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.TrustScore != 70 || got.State != domain.SessionWarned {
		t.Fatalf("update not applied: %+v", got)
	}

	if err := s.Update("nope", func(*domain.GameSession) {}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSessionStoreReturnsCopies(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s := NewMemorySessionStore()

	sess, err := s.GetOrCreate("sess-1", now)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	sess.TrustScore = 5

	got, err := s.Get("sess-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.TrustScore != 100 {
		t.Fatalf("mutating a returned session must not affect the store, got trust %d", got.TrustScore)
	}
}
