package domain

import "time"

// SessionState is the enforcement state of a game session. Transitions are
// one-directional: Active -> Warned -> Terminated, or Active -> Terminated
// directly on a critical violation. Terminated is terminal.
type SessionState string

const (
	SessionActive     SessionState = "active"
	SessionWarned     SessionState = "warned"
	SessionTerminated SessionState = "terminated"
)

// GameSession is the server-side record for one play session. Trust starts
// at 100 and only decreases, barring an explicit reset.
type GameSession struct {
	SessionID      string
	State          SessionState
	TrustScore     int
	TotalScore     int
	StartedAt      time.Time
	LastValidation time.Time
}

// Terminated reports whether the session has reached its terminal state.
func (s *GameSession) Terminated() bool {
	return s.State == SessionTerminated
}
