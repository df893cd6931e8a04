package service

import (
	"wizardguard/internal/domain"
)

// Score-rate and consistency constants. The hard cap rejects outright; the
// soft thresholds only shave the trust score.
const (
	maxScorePerSecond     = 20.0
	softScorePerSecond    = 15.0
	lowScorePerSecond     = 10.0
	scoreConsistencySlack = 50
	softConsistencySlack  = 20
	pointsPerItem         = 10
	maxHearts             = 3
	trustFloor            = 0
)

// TrustValidator runs the authoritative statistical checks on a reported
// game-state snapshot. It is pure: no stores, no clock.
type TrustValidator struct{}

// NewTrustValidator returns a validator.
func NewTrustValidator() *TrustValidator { return &TrustValidator{} }

// Validate applies the hard rejects in order (score rate, hearts bounds,
// score/hit consistency), then computes the soft trust score for a snapshot
// that passed them all.
func (v *TrustValidator) Validate(s domain.GameStateSnapshot) domain.TrustVerdict {
	if s.ElapsedSeconds > 0 {
		if float64(s.Score)/s.ElapsedSeconds > maxScorePerSecond {
			return reject("Score too fast", 95)
		}
	}

	if s.Hearts < 0 || s.Hearts > maxHearts {
		return reject("Invalid hearts count", 99)
	}

	if diff := abs(s.Score - s.ItemsHit*pointsPerItem); diff > scoreConsistencySlack {
		return reject("Score/items mismatch", 90)
	}

	return domain.TrustVerdict{
		Accepted:   true,
		TrustScore: v.trustScore(s),
	}
}

// trustScore starts at 100 and applies the soft penalties; floored at 0.
func (v *TrustValidator) trustScore(s domain.GameStateSnapshot) int {
	score := 100

	if abs(s.Score-s.ItemsHit*pointsPerItem) > softConsistencySlack {
		score -= 10
	}

	if s.ElapsedSeconds > 0 {
		rate := float64(s.Score) / s.ElapsedSeconds
		if rate > softScorePerSecond {
			score -= 15
		}
		if rate > lowScorePerSecond {
			score -= 5
		}
	}

	if score < trustFloor {
		score = trustFloor
	}
	return score
}

func reject(reason string, probability int) domain.TrustVerdict {
	return domain.TrustVerdict{
		Reason:           reason,
		CheatProbability: probability,
		Action:           domain.ActionTerminateSession,
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
