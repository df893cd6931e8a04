package guard

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// VariableSpec declares one protected variable: an accessor, its legal
// domain (range or enumerated set), and the change rules that apply to it.
// Declared once at session start; only the guard touches the bookkeeping.
type VariableSpec struct {
	Name string
	Get  func() float64

	// Range domain. Used when Allowed is nil.
	Min, Max float64

	// Allowed is an enumerated domain; overrides Min/Max when set.
	Allowed []float64

	// DisallowDecrease flags variables that may only grow (score).
	DisallowDecrease bool

	// DisallowIncrease flags variables that may only shrink (hearts).
	DisallowIncrease bool

	// SpikeLimit flags increases faster than SpikeLimit per SpikeWindow.
	// The check is rate-based so it catches spikes even when the poll
	// interval is longer than the window. Zero disables the rule.
	SpikeLimit  float64
	SpikeWindow time.Duration

	lastValue     float64
	lastChangedAt time.Time
	seeded        bool
}

func (s *VariableSpec) inDomain(v float64) bool {
	if s.Allowed != nil {
		for _, a := range s.Allowed {
			if v == a {
				return true
			}
		}
		return false
	}
	return v >= s.Min && v <= s.Max
}

// DefaultSpecs declares the standard protected set: score, hearts, items
// hit, bombs hit, and the gameplay active flag.
func DefaultSpecs(state func() Snapshot, active func() bool) []*VariableSpec {
	return []*VariableSpec{
		{
			Name:             "score",
			Get:              func() float64 { return float64(state().Score) },
			Min:              0,
			Max:              1_000_000,
			DisallowDecrease: true,
			SpikeLimit:       50,
			SpikeWindow:      time.Second,
		},
		{
			Name:             "hearts",
			Get:              func() float64 { return float64(state().Hearts) },
			Min:              0,
			Max:              3,
			DisallowIncrease: true,
		},
		{
			Name: "itemsHit",
			Get:  func() float64 { return float64(state().ItemsHit) },
			Min:  0,
			Max:  1_000_000,
		},
		{
			Name: "bombsHit",
			Get:  func() float64 { return float64(state().BombsHit) },
			Min:  0,
			Max:  1_000_000,
		},
		{
			Name: "gameActive",
			Get: func() float64 {
				if active() {
					return 1
				}
				return 0
			},
			Allowed: []float64{0, 1},
		},
	}
}

// VariableInvariantGuard polls the protected variables every 2s against
// their declared domains and change rules. Every violation decays trust by
// severity*5 and is reported upstream; severity 10 terminates immediately.
type VariableInvariantGuard struct {
	backend  Backend
	enforcer *Enforcer
	specs    []*VariableSpec
	now      func() time.Time
	logger   *slog.Logger

	interval time.Duration
}

// NewVariableInvariantGuard polls every 2 seconds.
func NewVariableInvariantGuard(backend Backend, enforcer *Enforcer, specs []*VariableSpec, logger *slog.Logger) *VariableInvariantGuard {
	return &VariableInvariantGuard{
		backend:  backend,
		enforcer: enforcer,
		specs:    specs,
		now: func() time.Time {
			return time.Now()
		},
		logger:   logger,
		interval: 2 * time.Second,
	}
}

// Serve implements suture.Service.
func (g *VariableInvariantGuard) Serve(ctx context.Context) error {
	ticker := time.NewTicker(g.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			g.check(ctx)
		}
	}
}

func (g *VariableInvariantGuard) String() string { return "variable-invariant-guard" }

// check polls every spec once.
func (g *VariableInvariantGuard) check(ctx context.Context) {
	if g.enforcer.Terminated() {
		return
	}
	now := g.now()

	for _, spec := range g.specs {
		value := spec.Get()

		if !spec.inDomain(value) {
			g.violate(ctx, "value_out_of_range",
				fmt.Sprintf("%s=%v outside declared domain", spec.Name, value), 9)
		}

		if spec.seeded {
			switch {
			case spec.DisallowDecrease && value < spec.lastValue:
				g.violate(ctx, "score_decrease",
					fmt.Sprintf("%s dropped %v -> %v", spec.Name, spec.lastValue, value), 10)
			case spec.DisallowIncrease && value > spec.lastValue:
				g.violate(ctx, "hearts_increase",
					fmt.Sprintf("%s rose %v -> %v", spec.Name, spec.lastValue, value), 10)
			case spec.SpikeLimit > 0 && spec.SpikeWindow > 0 && value > spec.lastValue &&
				(value-spec.lastValue)*float64(spec.SpikeWindow) > spec.SpikeLimit*float64(now.Sub(spec.lastChangedAt)):
				g.violate(ctx, "score_spike",
					fmt.Sprintf("%s jumped %v -> %v in %s", spec.Name, spec.lastValue, value, now.Sub(spec.lastChangedAt)), 8)
			}
		}

		if !spec.seeded || value != spec.lastValue {
			spec.lastValue = value
			spec.lastChangedAt = now
			spec.seeded = true
		}
	}
}

// violate applies the trust decay, records the violation, reports it
// upstream, and terminates on critical severity.
func (g *VariableInvariantGuard) violate(ctx context.Context, kind, details string, severity int) {
	trust := g.enforcer.DecayTrust(severity * 5)
	g.enforcer.Record(Violation{
		Kind:     kind,
		Details:  details,
		Severity: severity,
	})
	g.logger.Warn("protected variable violation",
		"kind", kind,
		"details", details,
		"severity", severity,
		"trust_score", trust,
	)

	if _, err := g.backend.ReportActivity(ctx, kind, details, severity); err != nil {
		g.logger.Error("activity report failed", "kind", kind, "error", err)
	}

	if severity >= 10 {
		g.enforcer.Terminate(details, 0)
	}
}
