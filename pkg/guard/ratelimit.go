package guard

import (
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"
)

// Rate thresholds. The sustained check fires when the 5s window averages
// above 80% of the per-second action limit.
const (
	maxActionsPerSecond = 10
	maxClicksPerSecond  = 15
	maxShotsPerSecond   = 8

	sustainedWindow   = 5 * time.Second
	sustainedFraction = 0.8

	retentionWindow = 30 * time.Second

	samePositionClicks   = 8
	regularitySamples    = 5
	regularityVarianceMS = 100.0
	regularityMeanMS     = 200.0
	sameVelocityShots    = 7
)

type rateEvent struct {
	at   time.Time
	x, y float64
}

// ActionRateLimiter tracks generic actions, pointer clicks and projectile
// shots in sliding windows, and checks the recent batch for bot-like
// patterns. It is event-driven: the game layer calls the Record methods and
// every record runs the checks for its kind.
//
// Trust decays by severity*3 per violation; severity >= 8 terminates
// immediately, severity 6-7 warns only.
type ActionRateLimiter struct {
	mu      sync.Mutex
	actions []rateEvent
	clicks  []rateEvent
	shots   []rateEvent

	enforcer *Enforcer
	now      func() time.Time
	logger   *slog.Logger
}

// NewActionRateLimiter returns a limiter bound to the enforcer.
func NewActionRateLimiter(enforcer *Enforcer, logger *slog.Logger) *ActionRateLimiter {
	return &ActionRateLimiter{
		enforcer: enforcer,
		now: func() time.Time {
			return time.Now()
		},
		logger: logger,
	}
}

// RecordAction counts one generic game action.
func (l *ActionRateLimiter) RecordAction() {
	if l.enforcer.Terminated() {
		return
	}
	now := l.now()

	l.mu.Lock()
	l.actions = appendTrimmed(l.actions, rateEvent{at: now}, now)
	perSecond := countSince(l.actions, now.Add(-time.Second))
	sustained := countSince(l.actions, now.Add(-sustainedWindow))
	l.mu.Unlock()

	if perSecond > maxActionsPerSecond {
		l.violate("action_rate",
			fmt.Sprintf("%d actions in 1s", perSecond), 7)
		return
	}
	if float64(sustained) > sustainedFraction*maxActionsPerSecond*sustainedWindow.Seconds() {
		l.violate("sustained_action_rate",
			fmt.Sprintf("%d actions in %s", sustained, sustainedWindow), 5)
	}
}

// RecordClick counts one pointer click at the given position.
func (l *ActionRateLimiter) RecordClick(x, y float64) {
	if l.enforcer.Terminated() {
		return
	}
	now := l.now()

	l.mu.Lock()
	l.clicks = appendTrimmed(l.clicks, rateEvent{at: now, x: x, y: y}, now)
	perSecond := countSince(l.clicks, now.Add(-time.Second))
	samePos := l.samePositionCount()
	variance, mean, samples := l.clickIntervalStats()
	l.mu.Unlock()

	if perSecond > maxClicksPerSecond {
		l.violate("click_rate",
			fmt.Sprintf("%d clicks in 1s", perSecond), 6)
		return
	}
	if samePos >= samePositionClicks {
		l.violate("click_position_pattern",
			fmt.Sprintf("%d clicks at the same position", samePos), 7)
		return
	}
	if samples >= regularitySamples && variance < regularityVarianceMS && mean < regularityMeanMS {
		l.violate("click_interval_pattern",
			fmt.Sprintf("interval variance %.1fms² mean %.1fms over %d samples", variance, mean, samples), 9)
	}
}

// RecordShot counts one projectile shot with its launch velocity.
func (l *ActionRateLimiter) RecordShot(velocityX, velocityY float64) {
	if l.enforcer.Terminated() {
		return
	}
	now := l.now()

	l.mu.Lock()
	l.shots = appendTrimmed(l.shots, rateEvent{at: now, x: velocityX, y: velocityY}, now)
	perSecond := countSince(l.shots, now.Add(-time.Second))
	sameVel := l.sameVelocityCount()
	l.mu.Unlock()

	if perSecond > maxShotsPerSecond {
		l.violate("shot_rate",
			fmt.Sprintf("%d shots in 1s", perSecond), 9)
		return
	}
	if sameVel >= sameVelocityShots {
		l.violate("shot_velocity_pattern",
			fmt.Sprintf("%d shots with identical velocity", sameVel), 6)
	}
}

// samePositionCount returns how many recent clicks share the most common
// rounded position. Caller holds the lock.
func (l *ActionRateLimiter) samePositionCount() int {
	counts := make(map[[2]int]int, len(l.clicks))
	best := 0
	for _, c := range l.clicks {
		key := [2]int{int(math.Round(c.x)), int(math.Round(c.y))}
		counts[key]++
		if counts[key] > best {
			best = counts[key]
		}
	}
	return best
}

// clickIntervalStats returns the variance (ms²) and mean (ms) of the
// inter-click intervals in the retained batch. Caller holds the lock.
func (l *ActionRateLimiter) clickIntervalStats() (variance, mean float64, samples int) {
	if len(l.clicks) < 2 {
		return 0, 0, 0
	}
	intervals := make([]float64, 0, len(l.clicks)-1)
	for i := 1; i < len(l.clicks); i++ {
		intervals = append(intervals, float64(l.clicks[i].at.Sub(l.clicks[i-1].at).Milliseconds()))
	}
	for _, d := range intervals {
		mean += d
	}
	mean /= float64(len(intervals))
	for _, d := range intervals {
		variance += (d - mean) * (d - mean)
	}
	variance /= float64(len(intervals))
	return variance, mean, len(intervals)
}

// sameVelocityCount returns how many recent shots share the most common
// rounded velocity vector. Caller holds the lock.
func (l *ActionRateLimiter) sameVelocityCount() int {
	counts := make(map[[2]int]int, len(l.shots))
	best := 0
	for _, s := range l.shots {
		key := [2]int{int(math.Round(s.x)), int(math.Round(s.y))}
		counts[key]++
		if counts[key] > best {
			best = counts[key]
		}
	}
	return best
}

func (l *ActionRateLimiter) violate(kind, details string, severity int) {
	trust := l.enforcer.DecayTrust(severity * 3)
	l.logger.Warn("rate violation",
		"kind", kind,
		"details", details,
		"severity", severity,
		"trust_score", trust,
	)

	switch {
	case severity >= 8:
		v := l.enforcer.Record(Violation{Kind: kind, Details: details, Severity: severity})
		l.enforcer.Terminate(v.Details, 0)
	case severity >= 6:
		l.enforcer.Warn(Violation{Kind: kind, Details: details, Severity: severity})
	default:
		l.enforcer.Record(Violation{Kind: kind, Details: details, Severity: severity})
	}
}

func appendTrimmed(events []rateEvent, e rateEvent, now time.Time) []rateEvent {
	events = append(events, e)
	cutoff := now.Add(-retentionWindow)
	i := 0
	for i < len(events) && events[i].at.Before(cutoff) {
		i++
	}
	return events[i:]
}

func countSince(events []rateEvent, cutoff time.Time) int {
	n := 0
	for i := len(events) - 1; i >= 0; i-- {
		if events[i].at.Before(cutoff) {
			break
		}
		n++
	}
	return n
}
