package guard

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"
)

// Movement thresholds.
const (
	teleportDistancePx = 100.0
	teleportWindow     = 200 * time.Millisecond
	maxSpeedPxPerSec   = 500.0
	boundaryTolerance  = 10.0
	immovableDriftPx   = 50.0

	movementInterval = 100 * time.Millisecond
	movementGrace    = 2500 * time.Millisecond
	sampleRetention  = 3 * time.Second

	controlledEntity = "player"
)

// PositionSample is one observed entity position.
type PositionSample struct {
	Position
	At time.Time
}

type immovableEntity struct {
	name   string
	source func() Position
	last   Position
	seeded bool
}

// MovementValidator samples the controlled entity's position every 100ms
// after a startup grace period, checking for teleports, impossible speed,
// boundary escapes and displacement of entities flagged immovable.
//
// Severity >= 9 terminates; 7-8 warns and snaps the entity back to its last
// valid sample with zero velocity.
type MovementValidator struct {
	source   func() Position
	bounds   Rect
	enforcer *Enforcer
	now      func() time.Time
	logger   *slog.Logger

	interval time.Duration
	grace    time.Duration

	mu         sync.Mutex
	samples    []PositionSample
	lastValid  *PositionSample
	immovables []*immovableEntity
}

// NewMovementValidator samples against the given playfield bounds.
func NewMovementValidator(source func() Position, bounds Rect, enforcer *Enforcer, logger *slog.Logger) *MovementValidator {
	return &MovementValidator{
		source:   source,
		bounds:   bounds,
		enforcer: enforcer,
		now: func() time.Time {
			return time.Now()
		},
		logger:   logger,
		interval: movementInterval,
		grace:    movementGrace,
	}
}

// TrackImmovable registers an entity that must not move. Displacement
// beyond the drift threshold from its last sample is a violation.
func (v *MovementValidator) TrackImmovable(name string, source func() Position) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.immovables = append(v.immovables, &immovableEntity{name: name, source: source})
}

// Serve implements suture.Service.
func (v *MovementValidator) Serve(ctx context.Context) error {
	delay := time.NewTimer(v.grace)
	defer delay.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-delay.C:
	}

	ticker := time.NewTicker(v.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			v.sample()
		}
	}
}

func (v *MovementValidator) String() string { return "movement-validator" }

// sample takes one position reading and runs the checks against the
// previous one.
func (v *MovementValidator) sample() {
	if v.enforcer.Terminated() {
		return
	}
	now := v.now()
	pos := v.source()

	v.mu.Lock()
	var prev *PositionSample
	if len(v.samples) > 0 {
		prev = &v.samples[len(v.samples)-1]
	}

	kind, details, severity := v.checkMovement(prev, pos, now)

	if severity == 0 {
		sample := PositionSample{Position: pos, At: now}
		v.samples = appendSample(v.samples, sample, now)
		v.lastValid = &sample
	}
	snapTo := v.lastValid
	drifts := v.checkImmovables()
	v.mu.Unlock()

	if severity >= 9 {
		v.enforcer.Record(Violation{Kind: kind, Details: details, Severity: severity})
		v.enforcer.Terminate(details, 0)
		return
	}
	if severity >= 7 {
		v.enforcer.Warn(Violation{Kind: kind, Details: details, Severity: severity})
		if snapTo != nil {
			v.enforcer.SnapBack(controlledEntity, snapTo.Position)
		}
	}

	for _, d := range drifts {
		v.enforcer.Warn(d.violation)
		v.enforcer.SnapBack(d.name, d.resetTo)
	}
}

// checkMovement returns the first violated rule, or severity 0 when the
// move is clean. Caller holds the lock.
func (v *MovementValidator) checkMovement(prev *PositionSample, pos Position, now time.Time) (kind, details string, severity int) {
	if prev != nil {
		dist := math.Hypot(pos.X-prev.X, pos.Y-prev.Y)
		dt := now.Sub(prev.At)

		if dist > teleportDistancePx && dt < teleportWindow {
			return "teleport",
				fmt.Sprintf("%.0fpx in %s", dist, dt), 9
		}
		if dt > 0 && dist/dt.Seconds() > maxSpeedPxPerSec {
			return "impossible_speed",
				fmt.Sprintf("%.0fpx/s", dist/dt.Seconds()), 8
		}
	}

	if pos.X < v.bounds.MinX-boundaryTolerance || pos.X > v.bounds.MaxX+boundaryTolerance ||
		pos.Y < v.bounds.MinY-boundaryTolerance || pos.Y > v.bounds.MaxY+boundaryTolerance {
		return "boundary_violation",
			fmt.Sprintf("position (%.0f, %.0f) outside playfield", pos.X, pos.Y), 7
	}

	return "", "", 0
}

type immovableDrift struct {
	violation Violation
	name      string
	resetTo   Position
}

// checkImmovables returns drifted entities with the position each must be
// reset to. The previous sample stays authoritative. Caller holds the lock.
func (v *MovementValidator) checkImmovables() []immovableDrift {
	var out []immovableDrift
	for _, e := range v.immovables {
		pos := e.source()
		if e.seeded {
			if dist := math.Hypot(pos.X-e.last.X, pos.Y-e.last.Y); dist > immovableDriftPx {
				out = append(out, immovableDrift{
					violation: Violation{
						Kind:     "immovable_displacement",
						Details:  fmt.Sprintf("%s moved %.0fpx", e.name, dist),
						Severity: 8,
					},
					name:    e.name,
					resetTo: e.last,
				})
				continue
			}
		}
		e.last = pos
		e.seeded = true
	}
	return out
}

func appendSample(samples []PositionSample, s PositionSample, now time.Time) []PositionSample {
	samples = append(samples, s)
	cutoff := now.Add(-sampleRetention)
	i := 0
	for i < len(samples) && samples[i].At.Before(cutoff) {
		i++
	}
	return samples[i:]
}
