package guard

import (
	"context"
	"log/slog"
	"time"

	"github.com/thejerf/suture/v4"
)

// SnapshotAuditor periodically captures a game-state snapshot, requests a
// device permission token and immediately validates it through the
// secure-action path. Any non-success answer counts as detected cheating:
// the loop stops, gameplay freezes, and the session terminates after the
// display delay.
type SnapshotAuditor struct {
	backend  Backend
	enforcer *Enforcer
	source   func() Snapshot
	logger   *slog.Logger

	initialDelay time.Duration
	interval     time.Duration
	displayDelay time.Duration

	audits         int
	pendingVerdict ServerVerdict
}

// NewSnapshotAuditor uses the default 5s initial delay, 10s cadence and 3s
// detection display delay.
func NewSnapshotAuditor(backend Backend, enforcer *Enforcer, source func() Snapshot, logger *slog.Logger) *SnapshotAuditor {
	return &SnapshotAuditor{
		backend:      backend,
		enforcer:     enforcer,
		source:       source,
		logger:       logger,
		initialDelay: 5 * time.Second,
		interval:     10 * time.Second,
		displayDelay: 3 * time.Second,
	}
}

// Serve implements suture.Service. It returns ErrDoNotRestart after a
// detection so the supervisor leaves the stopped loop alone.
func (a *SnapshotAuditor) Serve(ctx context.Context) error {
	delay := time.NewTimer(a.initialDelay)
	defer delay.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-delay.C:
	}

	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		if detected := a.audit(ctx); detected {
			a.finish(ctx)
			return suture.ErrDoNotRestart
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (a *SnapshotAuditor) String() string { return "snapshot-auditor" }

// audit runs one permission+validation round trip. Transport faults are
// soft: log and let the next tick try again.
func (a *SnapshotAuditor) audit(ctx context.Context) (detected bool) {
	if a.enforcer.Terminated() {
		return false
	}
	a.audits++
	snapshot := a.source()

	if err := a.backend.RequestDevicePermission(ctx, snapshot); err != nil {
		a.logger.Error("snapshot permission request failed", "audit", a.audits, "error", err)
		return false
	}

	verdict, err := a.backend.ValidateSecureAction(ctx, snapshot)
	if err != nil {
		a.logger.Error("snapshot validation failed", "audit", a.audits, "error", err)
		return false
	}

	if verdict.Success {
		a.logger.Debug("snapshot validated", "audit", a.audits)
		return false
	}

	a.enforcer.Record(Violation{
		Kind:     "snapshot_rejected",
		Details:  verdict.Reason,
		Severity: 10,
	})
	a.enforcer.Freeze(verdict.Reason, verdict.CheatProbability)
	a.pendingVerdict = verdict
	return true
}

// finish waits out the display delay, then terminates.
func (a *SnapshotAuditor) finish(ctx context.Context) {
	if a.displayDelay > 0 {
		t := time.NewTimer(a.displayDelay)
		defer t.Stop()
		select {
		case <-ctx.Done():
		case <-t.C:
		}
	}
	a.enforcer.Terminate(a.pendingVerdict.Reason, a.pendingVerdict.CheatProbability)
}
