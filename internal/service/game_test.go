package service

import (
	"errors"
	"testing"
	"time"

	"wizardguard/internal/domain"
	"wizardguard/internal/store"
)

func newTestGame() (*GameService, *store.MemorySessionStore) {
	sessions := store.NewMemorySessionStore()
	g := NewGameService(sessions, discardLogger())
	g.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
	return g, sessions
}

func TestRecordItemHit(t *testing.T) {
	g, _ := newTestGame()

	isVictory, err := g.RecordItemHit("sess-1", 40)
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if isVictory {
		t.Fatal("40 points should not be a victory")
	}

	isVictory, err = g.RecordItemHit("sess-1", VictoryScore)
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if !isVictory {
		t.Fatalf("%d points should reach victory", VictoryScore)
	}

	sess, err := g.Session("sess-1")
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	if sess.TotalScore != VictoryScore {
		t.Fatalf("total score = %d, want %d", sess.TotalScore, VictoryScore)
	}
}

func TestRecordItemHitBounds(t *testing.T) {
	g, _ := newTestGame()

	for _, score := range []int{-1, MaxItemScore + 1} {
		if _, err := g.RecordItemHit("sess-1", score); !errors.Is(err, domain.ErrInvalidScore) {
			t.Fatalf("score %d: expected ErrInvalidScore, got %v", score, err)
		}
	}
	if _, err := g.RecordItemHit("sess-1", MaxItemScore); err != nil {
		t.Fatalf("score at bound rejected: %v", err)
	}
}

func TestRecordBombHit(t *testing.T) {
	g, _ := newTestGame()

	isGameOver, err := g.RecordBombHit("sess-1", 2)
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if isGameOver {
		t.Fatal("2 hearts left should not end the game")
	}

	isGameOver, err = g.RecordBombHit("sess-1", 0)
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if !isGameOver {
		t.Fatal("0 hearts left should end the game")
	}

	for _, hearts := range []int{-1, 4} {
		if _, err := g.RecordBombHit("sess-1", hearts); !errors.Is(err, domain.ErrInvalidHearts) {
			t.Fatalf("hearts %d: expected ErrInvalidHearts, got %v", hearts, err)
		}
	}
}

func TestApplyVerdictTrustOnlyDecreases(t *testing.T) {
	g, _ := newTestGame()

	if err := g.ApplyVerdict("sess-1", domain.TrustVerdict{Accepted: true, TrustScore: 80}); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if err := g.ApplyVerdict("sess-1", domain.TrustVerdict{Accepted: true, TrustScore: 95}); err != nil {
		t.Fatalf("apply: %v", err)
	}

	sess, err := g.Session("sess-1")
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	if sess.TrustScore != 80 {
		t.Fatalf("trust score = %d, want 80 (higher score must not raise it)", sess.TrustScore)
	}
}

func TestApplyVerdictTerminates(t *testing.T) {
	g, _ := newTestGame()

	verdict := domain.TrustVerdict{
		Reason:           "Score too fast",
		CheatProbability: 95,
		Action:           domain.ActionTerminateSession,
	}
	if err := g.ApplyVerdict("sess-1", verdict); err != nil {
		t.Fatalf("apply: %v", err)
	}

	sess, err := g.Session("sess-1")
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	if !sess.Terminated() {
		t.Fatalf("session not terminated: %+v", sess)
	}

	// A later acceptance must not revive a terminated session.
	if err := g.ApplyVerdict("sess-1", domain.TrustVerdict{Accepted: true, TrustScore: 100}); err != nil {
		t.Fatalf("apply: %v", err)
	}
	sess, _ = g.Session("sess-1")
	if !sess.Terminated() {
		t.Fatal("terminated session was revived")
	}
}

func TestSessionNotFound(t *testing.T) {
	g, _ := newTestGame()

	if _, err := g.Session("missing"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}
