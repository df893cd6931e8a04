package guard

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// TimingAnomalyMonitor runs two interleaved schedules: a 15s real-time
// validation against the server and a 5s local pass over a rolling 10s
// score history looking for rapid increases, impossible timing, and
// repeated-delta patterns.
type TimingAnomalyMonitor struct {
	backend  Backend
	enforcer *Enforcer
	source   func() Snapshot
	now      func() time.Time
	logger   *slog.Logger

	serverInterval time.Duration
	localInterval  time.Duration
	historyWindow  time.Duration

	history []scoreSample
}

type scoreSample struct {
	score int
	at    time.Time
}

// NewTimingAnomalyMonitor uses the default 15s/5s schedules and 10s window.
func NewTimingAnomalyMonitor(backend Backend, enforcer *Enforcer, source func() Snapshot, logger *slog.Logger) *TimingAnomalyMonitor {
	return &TimingAnomalyMonitor{
		backend:  backend,
		enforcer: enforcer,
		source:   source,
		now: func() time.Time {
			return time.Now()
		},
		logger:         logger,
		serverInterval: 15 * time.Second,
		localInterval:  5 * time.Second,
		historyWindow:  10 * time.Second,
	}
}

// Serve implements suture.Service.
func (m *TimingAnomalyMonitor) Serve(ctx context.Context) error {
	server := time.NewTicker(m.serverInterval)
	defer server.Stop()
	local := time.NewTicker(m.localInterval)
	defer local.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-local.C:
			m.localCheck(ctx)
		case <-server.C:
			m.serverCheck(ctx)
		}
	}
}

func (m *TimingAnomalyMonitor) String() string { return "timing-anomaly-monitor" }

// localCheck appends a sample to the rolling history and runs the three
// local detectors over it.
func (m *TimingAnomalyMonitor) localCheck(ctx context.Context) {
	if m.enforcer.Terminated() {
		return
	}
	now := m.now()
	snapshot := m.source()

	m.history = append(m.history, scoreSample{score: snapshot.Score, at: now})
	cutoff := now.Add(-m.historyWindow)
	for len(m.history) > 0 && m.history[0].at.Before(cutoff) {
		m.history = m.history[1:]
	}

	if kind, details, severity, ok := m.detectRapidIncrease(); ok {
		m.report(ctx, kind, details, severity)
	}
	if kind, details, severity, ok := m.detectImpossibleTiming(snapshot); ok {
		m.report(ctx, kind, details, severity)
	}
	if kind, details, severity, ok := m.detectPatternAnomaly(); ok {
		m.report(ctx, kind, details, severity)
	}
}

// detectRapidIncrease compares the two most recent samples; a score rate
// above 15/s scales severity with the rate, capped at 10.
func (m *TimingAnomalyMonitor) detectRapidIncrease() (kind, details string, severity int, ok bool) {
	if len(m.history) < 2 {
		return "", "", 0, false
	}
	prev := m.history[len(m.history)-2]
	last := m.history[len(m.history)-1]
	dt := last.at.Sub(prev.at).Seconds()
	if dt <= 0 {
		return "", "", 0, false
	}
	rate := float64(last.score-prev.score) / dt
	if rate <= 15 {
		return "", "", 0, false
	}
	severity = int(rate / 5)
	if severity > 10 {
		severity = 10
	}
	return "rapid_score_increase",
		fmt.Sprintf("score rate %.1f/s over %.1fs", rate, dt),
		severity, true
}

// detectImpossibleTiming flags scores that could not have been earned in
// the elapsed play time.
func (m *TimingAnomalyMonitor) detectImpossibleTiming(s Snapshot) (kind, details string, severity int, ok bool) {
	elapsed := s.Elapsed.Seconds()
	if s.Score > 50 && elapsed < float64(s.Score)/50 {
		return "impossible_timing",
			fmt.Sprintf("score %d in %.1fs", s.Score, elapsed),
			9, true
	}
	return "", "", 0, false
}

// detectPatternAnomaly fires when the last three or more positive score
// deltas are identical and large on average: too regular for a human.
func (m *TimingAnomalyMonitor) detectPatternAnomaly() (kind, details string, severity int, ok bool) {
	var deltas []int
	for i := 1; i < len(m.history); i++ {
		if d := m.history[i].score - m.history[i-1].score; d > 0 {
			deltas = append(deltas, d)
		}
	}
	if len(deltas) < 3 {
		return "", "", 0, false
	}

	tail := deltas[len(deltas)-3:]
	if deltas[len(deltas)-1] != deltas[len(deltas)-2] || deltas[len(deltas)-2] != deltas[len(deltas)-3] {
		return "", "", 0, false
	}
	sum := 0
	for _, d := range tail {
		sum += d
	}
	if sum/len(tail) < 30 {
		return "", "", 0, false
	}
	return "pattern_anomaly",
		fmt.Sprintf("repeated score delta %d", tail[0]),
		6, true
}

// report sends a local detection to the server-side classifier and applies
// the returned directive: terminate ends the session, anything else is a
// transient warning.
func (m *TimingAnomalyMonitor) report(ctx context.Context, kind, details string, severity int) {
	resp, err := m.backend.ReportActivity(ctx, kind, details, severity)
	if err != nil {
		m.logger.Error("activity report failed", "kind", kind, "error", err)
		return
	}

	if resp.Action == ActionTerminateSession {
		m.enforcer.Terminate(resp.Message, resp.CheatProbability)
		return
	}

	m.enforcer.Warn(Violation{
		Kind:     kind,
		Details:  details,
		Severity: severity,
	})
}

// serverCheck sends the latest snapshot through real-time validation. A
// terminate directive from the server is handled like a local one.
func (m *TimingAnomalyMonitor) serverCheck(ctx context.Context) {
	if m.enforcer.Terminated() {
		return
	}
	snapshot := m.source()

	verdict, err := m.backend.ValidateRealTime(ctx, snapshot)
	if err != nil {
		m.logger.Error("real-time validation failed", "error", err)
		return
	}

	if !verdict.Success && verdict.Action == ActionTerminateSession {
		m.enforcer.Terminate(verdict.Reason, verdict.CheatProbability)
		return
	}
	if verdict.Success {
		m.logger.Debug("real-time validation passed", "trust_score", verdict.TrustScore)
	}
}
