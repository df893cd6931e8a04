package guard

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/thejerf/suture/v4"
	"github.com/thejerf/sutureslog"
)

// Config wires a Guard to the game layer and the validation server.
type Config struct {
	// Backend is the validation server. Required.
	Backend Backend

	// State returns the current observable game state. Required.
	State func() Snapshot

	// Active reports whether gameplay is running. Required.
	Active func() bool

	// PlayerPosition returns the controlled entity's position. Required.
	PlayerPosition func() Position

	// Bounds is the playfield rectangle for the movement validator.
	Bounds Rect

	// Hooks are the game layer's verdict reactions.
	Hooks Hooks

	// Specs overrides the protected-variable set. Defaults to
	// DefaultSpecs(State, Active).
	Specs []*VariableSpec

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Guard runs the client detector set under one supervisor. Each detector is
// independently scheduled; stopping the Guard stops them all together, and
// a termination verdict from any one of them does the same.
type Guard struct {
	enforcer *Enforcer

	Snapshots  *SnapshotAuditor
	Timing     *TimingAnomalyMonitor
	Invariants *VariableInvariantGuard
	RateLimit  *ActionRateLimiter
	Movement   *MovementValidator
	Honeypots  *HoneypotField

	sup    *suture.Supervisor
	logger *slog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	errCh  <-chan error
}

// New builds a Guard. It does not start anything; call Start.
func New(cfg Config) (*Guard, error) {
	if cfg.Backend == nil {
		return nil, errors.New("guard: Backend is required")
	}
	if cfg.State == nil {
		return nil, errors.New("guard: State is required")
	}
	if cfg.Active == nil {
		return nil, errors.New("guard: Active is required")
	}
	if cfg.PlayerPosition == nil {
		return nil, errors.New("guard: PlayerPosition is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	specs := cfg.Specs
	if specs == nil {
		specs = DefaultSpecs(cfg.State, cfg.Active)
	}

	enforcer := NewEnforcer(cfg.Hooks, logger)

	g := &Guard{
		enforcer:   enforcer,
		Snapshots:  NewSnapshotAuditor(cfg.Backend, enforcer, cfg.State, logger),
		Timing:     NewTimingAnomalyMonitor(cfg.Backend, enforcer, cfg.State, logger),
		Invariants: NewVariableInvariantGuard(cfg.Backend, enforcer, specs, logger),
		RateLimit:  NewActionRateLimiter(enforcer, logger),
		Movement:   NewMovementValidator(cfg.PlayerPosition, cfg.Bounds, enforcer, logger),
		Honeypots:  NewHoneypotField(cfg.Backend, enforcer, logger),
		logger:     logger,
	}

	hook := (&sutureslog.Handler{Logger: logger}).MustHook()
	g.sup = suture.New("guard", suture.Spec{
		EventHook:        hook,
		FailureThreshold: 5,
		FailureDecay:     30,
		FailureBackoff:   15 * time.Second,
		Timeout:          10 * time.Second,
	})
	g.sup.Add(g.Snapshots)
	g.sup.Add(g.Timing)
	g.sup.Add(g.Invariants)
	g.sup.Add(g.Movement)

	enforcer.setStopAll(g.Stop)
	return g, nil
}

// Start launches the detector loops in the background.
func (g *Guard) Start(ctx context.Context) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.cancel != nil {
		return
	}
	runCtx, cancel := context.WithCancel(ctx)
	g.cancel = cancel
	g.errCh = g.sup.ServeBackground(runCtx)
}

// Stop cancels every detector together. Cancellation is cooperative: an
// in-flight cycle may complete before its loop notices.
func (g *Guard) Stop() {
	g.mu.Lock()
	cancel := g.cancel
	g.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Wait blocks until the supervisor has stopped.
func (g *Guard) Wait() {
	g.mu.Lock()
	errCh := g.errCh
	g.mu.Unlock()
	if errCh != nil {
		<-errCh
	}
}

// State returns the enforcement state.
func (g *Guard) State() State { return g.enforcer.State() }

// TrustScore returns the client-side trust score.
func (g *Guard) TrustScore() int { return g.enforcer.TrustScore() }

// Violations exposes the rolling violation log.
func (g *Guard) Violations() *ViolationLog { return g.enforcer.Violations() }

// RecordAction forwards a generic game action to the rate limiter.
func (g *Guard) RecordAction() { g.RateLimit.RecordAction() }

// RecordClick forwards a pointer click.
func (g *Guard) RecordClick(x, y float64) { g.RateLimit.RecordClick(x, y) }

// RecordShot forwards a projectile shot.
func (g *Guard) RecordShot(velocityX, velocityY float64) {
	g.RateLimit.RecordShot(velocityX, velocityY)
}

// ReportHoneypotCollision forwards a trap collision.
func (g *Guard) ReportHoneypotCollision(ctx context.Context, trapID string) {
	g.Honeypots.ReportCollision(ctx, trapID)
}
