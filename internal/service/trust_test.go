package service

import (
	"testing"

	"wizardguard/internal/domain"
)

func TestValidateHardRejects(t *testing.T) {
	v := NewTrustValidator()

	cases := []struct {
		name        string
		snapshot    domain.GameStateSnapshot
		reason      string
		probability int
	}{
		{
			name:        "score rate above cap",
			snapshot:    domain.GameStateSnapshot{Score: 1000, Hearts: 3, ItemsHit: 100, ElapsedSeconds: 10},
			reason:      "Score too fast",
			probability: 95,
		},
		{
			name:        "hearts above bound",
			snapshot:    domain.GameStateSnapshot{Score: 100, Hearts: 5, ItemsHit: 10, ElapsedSeconds: 60},
			reason:      "Invalid hearts count",
			probability: 99,
		},
		{
			name:        "negative hearts",
			snapshot:    domain.GameStateSnapshot{Score: 100, Hearts: -1, ItemsHit: 10, ElapsedSeconds: 60},
			reason:      "Invalid hearts count",
			probability: 99,
		},
		{
			name:        "score inconsistent with items",
			snapshot:    domain.GameStateSnapshot{Score: 200, Hearts: 2, ItemsHit: 2, BombsHit: 2, ElapsedSeconds: 60},
			reason:      "Score/items mismatch",
			probability: 90,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			verdict := v.Validate(tc.snapshot)
			if verdict.Accepted {
				t.Fatal("expected rejection")
			}
			if verdict.Reason != tc.reason {
				t.Fatalf("reason = %q, want %q", verdict.Reason, tc.reason)
			}
			if verdict.CheatProbability != tc.probability {
				t.Fatalf("cheat probability = %d, want %d", verdict.CheatProbability, tc.probability)
			}
			if verdict.Action != domain.ActionTerminateSession {
				t.Fatalf("action = %q, want terminate", verdict.Action)
			}
		})
	}
}

func TestValidateRateCheckOrderedFirst(t *testing.T) {
	v := NewTrustValidator()

	// Both the rate cap and the hearts bound are violated; the rate check
	// runs first and wins.
	verdict := v.Validate(domain.GameStateSnapshot{Score: 1000, Hearts: 9, ItemsHit: 100, ElapsedSeconds: 10})
	if verdict.Accepted {
		t.Fatal("expected rejection")
	}
	if verdict.Reason != "Score too fast" {
		t.Fatalf("reason = %q, want score rate rejection", verdict.Reason)
	}
}

func TestValidateZeroElapsedSkipsRate(t *testing.T) {
	v := NewTrustValidator()

	// With no elapsed time there is no rate; the snapshot passes on the
	// remaining checks alone.
	verdict := v.Validate(domain.GameStateSnapshot{Score: 40, Hearts: 3, ItemsHit: 4})
	if !verdict.Accepted {
		t.Fatalf("expected acceptance, got %q", verdict.Reason)
	}
	if verdict.TrustScore != 100 {
		t.Fatalf("trust score = %d, want 100", verdict.TrustScore)
	}
}

func TestTrustScorePenalties(t *testing.T) {
	v := NewTrustValidator()

	cases := []struct {
		name     string
		snapshot domain.GameStateSnapshot
		want     int
	}{
		{
			name:     "clean run keeps full trust",
			snapshot: domain.GameStateSnapshot{Score: 100, Hearts: 3, ItemsHit: 10, ElapsedSeconds: 60},
			want:     100,
		},
		{
			name:     "soft consistency drift",
			snapshot: domain.GameStateSnapshot{Score: 130, Hearts: 3, ItemsHit: 10, ElapsedSeconds: 60},
			want:     90,
		},
		{
			name: "rate above both soft thresholds",
			// 180 points in 10s: 18/s trips the 15/s and 10/s penalties.
			snapshot: domain.GameStateSnapshot{Score: 180, Hearts: 3, ItemsHit: 18, ElapsedSeconds: 10},
			want:     80,
		},
		{
			name: "rate above low threshold only",
			// 120 points in 10s: 12/s trips only the 10/s penalty.
			snapshot: domain.GameStateSnapshot{Score: 120, Hearts: 3, ItemsHit: 12, ElapsedSeconds: 10},
			want:     95,
		},
		{
			name: "all penalties stack",
			// 190 vs 16 items: drift 30 exceeds the soft slack but stays
			// within the hard one; 19/s trips both rate penalties.
			snapshot: domain.GameStateSnapshot{Score: 190, Hearts: 3, ItemsHit: 16, ElapsedSeconds: 10},
			want:     70,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			verdict := v.Validate(tc.snapshot)
			if !verdict.Accepted {
				t.Fatalf("expected acceptance, got %q", verdict.Reason)
			}
			if verdict.TrustScore != tc.want {
				t.Fatalf("trust score = %d, want %d", verdict.TrustScore, tc.want)
			}
		})
	}
}
