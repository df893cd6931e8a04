package guard

import (
	"log/slog"
	"sync"
	"time"
)

// State is the enforcement state of the client session.
type State string

const (
	StateActive     State = "active"
	StateWarned     State = "warned"
	StateTerminated State = "terminated"
)

// Hooks are the game layer's reactions to verdicts. Any hook may be nil.
// Hooks are called without the enforcer lock held and may be invoked from
// any detector goroutine.
type Hooks struct {
	// OnWarn surfaces a transient warning; play continues.
	OnWarn func(v Violation)

	// OnFreeze halts gameplay while a detection message is shown.
	OnFreeze func(reason string, cheatProbability int)

	// OnSnapBack force-resets the named entity to a known-good position
	// with zero velocity. The controlled entity is named "player";
	// immovable entities carry the name they were registered under.
	OnSnapBack func(entity string, p Position)

	// OnTerminate ends the session. Called exactly once.
	OnTerminate func(reason string, cheatProbability int)
}

// Enforcer owns the Active -> Warned -> Terminated state machine. Multiple
// detectors race to feed it verdicts; once Terminated, every further request
// is an idempotent no-op.
type Enforcer struct {
	mu    sync.Mutex
	state State
	trust int

	hooks  Hooks
	log    *ViolationLog
	now    func() time.Time
	logger *slog.Logger

	// stopAll stops every detector together; set by the Guard.
	stopAll func()
}

// NewEnforcer starts in Active with full trust.
func NewEnforcer(hooks Hooks, logger *slog.Logger) *Enforcer {
	return &Enforcer{
		state: StateActive,
		trust: 100,
		hooks: hooks,
		log:   NewViolationLog(),
		now: func() time.Time {
			return time.Now()
		},
		logger: logger,
	}
}

// State returns the current enforcement state.
func (e *Enforcer) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// TrustScore returns the current client-side trust score.
func (e *Enforcer) TrustScore() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.trust
}

// Violations exposes the rolling log.
func (e *Enforcer) Violations() *ViolationLog {
	return e.log
}

// Terminated reports whether the terminal state has been reached.
func (e *Enforcer) Terminated() bool {
	return e.State() == StateTerminated
}

// DecayTrust lowers the trust score by the given points, floored at zero,
// and returns the new score. Decay never terminates by itself; termination
// is driven by discrete severity thresholds.
func (e *Enforcer) DecayTrust(points int) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == StateTerminated {
		return e.trust
	}
	e.trust -= points
	if e.trust < 0 {
		e.trust = 0
	}
	return e.trust
}

// Record appends a violation stamped with the current time and trust score.
func (e *Enforcer) Record(v Violation) Violation {
	v.At = e.now()
	v.TrustScore = e.TrustScore()
	e.log.Append(v)
	return v
}

// Warn records the violation and surfaces a transient warning. Moves
// Active -> Warned; a no-op once terminated.
func (e *Enforcer) Warn(v Violation) {
	e.mu.Lock()
	if e.state == StateTerminated {
		e.mu.Unlock()
		return
	}
	if e.state == StateActive {
		e.state = StateWarned
	}
	e.mu.Unlock()

	v = e.Record(v)
	e.logger.Warn("violation warning",
		"kind", v.Kind,
		"severity", v.Severity,
		"details", v.Details,
		"trust_score", v.TrustScore,
	)
	if e.hooks.OnWarn != nil {
		e.hooks.OnWarn(v)
	}
}

// Freeze halts gameplay while a detection is displayed. No state change;
// the caller follows up with Terminate.
func (e *Enforcer) Freeze(reason string, cheatProbability int) {
	if e.Terminated() {
		return
	}
	e.logger.Warn("gameplay frozen", "reason", reason, "cheat_probability", cheatProbability)
	if e.hooks.OnFreeze != nil {
		e.hooks.OnFreeze(reason, cheatProbability)
	}
}

// SnapBack resets the named entity to a known-good position.
func (e *Enforcer) SnapBack(entity string, p Position) {
	if e.Terminated() {
		return
	}
	if e.hooks.OnSnapBack != nil {
		e.hooks.OnSnapBack(entity, p)
	}
}

// Terminate moves the session to its terminal state, stops all detectors
// and fires OnTerminate. Exactly one caller wins; the rest are no-ops.
func (e *Enforcer) Terminate(reason string, cheatProbability int) {
	e.mu.Lock()
	if e.state == StateTerminated {
		e.mu.Unlock()
		return
	}
	e.state = StateTerminated
	stop := e.stopAll
	e.mu.Unlock()

	e.logger.Warn("session terminated", "reason", reason, "cheat_probability", cheatProbability)

	if stop != nil {
		stop()
	}
	if e.hooks.OnTerminate != nil {
		e.hooks.OnTerminate(reason, cheatProbability)
	}
}

func (e *Enforcer) setStopAll(fn func()) {
	e.mu.Lock()
	e.stopAll = fn
	e.mu.Unlock()
}
