package service

import (
	"fmt"
	"log/slog"
	"time"

	"wizardguard/internal/domain"
	"wizardguard/internal/store"
)

// Game-layer constants, handed to clients via the config endpoint and used
// for discrete-action validation.
const (
	VictoryScore      = 500
	MaxItemScore      = 10000
	ItemSpawnInterval = 2000
	BombSpawnInterval = 5000
	GameWidth         = 1536
	GameHeight        = 1024
	PlayerStartX      = 250
	PlayerStartY      = 512
)

// GameService owns the session registry and the discrete action records
// (arrow shots, item hits, bomb hits). It also applies verdicts from the
// validators to session state.
type GameService struct {
	sessions store.SessionStore
	now      func() time.Time
	logger   *slog.Logger
}

// NewGameService wires the service over the session store.
func NewGameService(sessions store.SessionStore, logger *slog.Logger) *GameService {
	return &GameService{
		sessions: sessions,
		now: func() time.Time {
			return time.Now().UTC()
		},
		logger: logger,
	}
}

// EnsureSession creates the session on first contact.
func (g *GameService) EnsureSession(sessionID string) (*domain.GameSession, error) {
	return g.sessions.GetOrCreate(sessionID, g.now())
}

// RecordArrowShot logs a projectile shot. The velocities are recorded for
// observability only; shot-rate enforcement happens client-side.
func (g *GameService) RecordArrowShot(sessionID string, velocityX, velocityY float64) error {
	if _, err := g.EnsureSession(sessionID); err != nil {
		return err
	}
	g.logger.Info("arrow shot recorded",
		"session_id", sessionID,
		"velocity_x", velocityX,
		"velocity_y", velocityY,
	)
	return nil
}

// RecordItemHit validates the reported score and returns whether it reaches
// the victory threshold.
func (g *GameService) RecordItemHit(sessionID string, newScore int) (isVictory bool, err error) {
	if newScore < 0 || newScore > MaxItemScore {
		return false, domain.ErrInvalidScore
	}
	if _, err := g.EnsureSession(sessionID); err != nil {
		return false, err
	}
	if err := g.sessions.Update(sessionID, func(s *domain.GameSession) {
		s.TotalScore = newScore
	}); err != nil {
		return false, fmt.Errorf("update session: %w", err)
	}
	return newScore >= VictoryScore, nil
}

// RecordBombHit validates the reported hearts and returns whether the game
// is over.
func (g *GameService) RecordBombHit(sessionID string, remainingHearts int) (isGameOver bool, err error) {
	if remainingHearts < 0 || remainingHearts > maxHearts {
		return false, domain.ErrInvalidHearts
	}
	if _, err := g.EnsureSession(sessionID); err != nil {
		return false, err
	}
	return remainingHearts <= 0, nil
}

// ApplyVerdict folds a real-time validation result into session state:
// trust score on acceptance, termination on a terminate directive. Repeated
// termination requests are no-ops once the session is terminated.
func (g *GameService) ApplyVerdict(sessionID string, verdict domain.TrustVerdict) error {
	now := g.now()
	if _, err := g.sessions.GetOrCreate(sessionID, now); err != nil {
		return err
	}
	return g.sessions.Update(sessionID, func(s *domain.GameSession) {
		s.LastValidation = now
		if s.Terminated() {
			return
		}
		if verdict.Accepted {
			if verdict.TrustScore < s.TrustScore {
				s.TrustScore = verdict.TrustScore
			}
			return
		}
		if verdict.Action == domain.ActionTerminateSession {
			s.State = domain.SessionTerminated
			g.logger.Warn("session terminated",
				"session_id", sessionID,
				"reason", verdict.Reason,
				"cheat_probability", verdict.CheatProbability,
			)
		}
	})
}

// Session returns the current session record.
func (g *GameService) Session(sessionID string) (*domain.GameSession, error) {
	s, err := g.sessions.Get(sessionID)
	if err != nil {
		return nil, domain.ErrSessionNotFound
	}
	return s, nil
}
