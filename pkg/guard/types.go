// Package guard is the client-side half of the trust-validation pipeline:
// a set of independently scheduled detectors that watch the running game,
// call the validation server, and drive the session toward warning or
// termination when something does not add up.
package guard

import (
	"context"
	"time"
)

// Snapshot is a point-in-time copy of the observable game state.
type Snapshot struct {
	Score    int
	Hearts   int
	ItemsHit int
	BombsHit int
	Elapsed  time.Duration
}

// Position is a 2D entity position in playfield pixels.
type Position struct {
	X float64
	Y float64
}

// Rect is an axis-aligned playfield rectangle.
type Rect struct {
	MinX, MinY float64
	MaxX, MaxY float64
}

// Server directive strings, mirrored from the validation API.
const (
	ActionMonitor            = "monitor"
	ActionFlagPlayer         = "flag_player"
	ActionIncreaseMonitoring = "increase_monitoring"
	ActionTerminateSession   = "terminate_session"
)

// ServerVerdict is the server's answer to a secure-action or real-time
// validation call.
type ServerVerdict struct {
	Success          bool
	TrustScore       int
	Reason           string
	CheatProbability int
	Action           string
}

// ActivityResponse is the server's classification of a reported activity.
type ActivityResponse struct {
	Success          bool
	Message          string
	Action           string
	CheatProbability int
}

// Backend is the server the detectors talk to. A call error is a transport
// fault: the detector logs it and waits for its next cycle; there are no
// retries.
type Backend interface {
	RequestDevicePermission(ctx context.Context, s Snapshot) error
	ValidateSecureAction(ctx context.Context, s Snapshot) (ServerVerdict, error)
	ValidateRealTime(ctx context.Context, s Snapshot) (ServerVerdict, error)
	ReportActivity(ctx context.Context, activityType, details string, severity int) (ActivityResponse, error)
}
