package guard

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// Trap is an invisible collision volume placed among visible obstacles.
// It is never rendered, so a fair player cannot target it through normal
// play feedback; any projectile collision with it is illegitimate by
// construction.
type Trap struct {
	ID     string
	X, Y   float64
	Width  float64
	Height float64
}

// HoneypotField holds the active traps. Collisions are advisory: logged,
// reported upstream, and the tripped trap removed. They never terminate a
// session on their own.
type HoneypotField struct {
	mu    sync.Mutex
	traps map[string]Trap

	backend  Backend
	enforcer *Enforcer
	logger   *slog.Logger
}

// NewHoneypotField returns an empty field.
func NewHoneypotField(backend Backend, enforcer *Enforcer, logger *slog.Logger) *HoneypotField {
	return &HoneypotField{
		traps:    make(map[string]Trap),
		backend:  backend,
		enforcer: enforcer,
		logger:   logger,
	}
}

// Place registers a trap. The game layer is responsible for adding the
// matching (invisible) collision volume.
func (f *HoneypotField) Place(t Trap) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.traps[t.ID] = t
}

// Traps returns the active traps.
func (f *HoneypotField) Traps() []Trap {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Trap, 0, len(f.traps))
	for _, t := range f.traps {
		out = append(out, t)
	}
	return out
}

// ReportCollision handles a projectile hitting a trap: log, remove that
// trap, record the violation, report upstream. Unknown trap ids are
// ignored (the trap was already tripped).
func (f *HoneypotField) ReportCollision(ctx context.Context, trapID string) {
	f.mu.Lock()
	trap, ok := f.traps[trapID]
	if ok {
		delete(f.traps, trapID)
	}
	f.mu.Unlock()

	if !ok || f.enforcer.Terminated() {
		return
	}

	details := fmt.Sprintf("honeypot trap %s hit at (%.0f, %.0f)", trap.ID, trap.X, trap.Y)
	f.logger.Warn("honeypot collision", "trap_id", trap.ID, "x", trap.X, "y", trap.Y)
	f.enforcer.Record(Violation{
		Kind:     "honeypot_collision",
		Details:  details,
		Severity: 6,
	})

	if _, err := f.backend.ReportActivity(ctx, "honeypot_collision", details, 6); err != nil {
		f.logger.Error("activity report failed", "kind", "honeypot_collision", "error", err)
	}
}
