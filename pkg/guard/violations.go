package guard

import (
	"sync"
	"time"
)

// Violation is one detected incident on the client side.
type Violation struct {
	Kind       string
	Details    string
	Severity   int
	At         time.Time
	TrustScore int
}

// violationLogSize bounds the rolling log; oldest entries drop first.
const violationLogSize = 256

// ViolationLog is a bounded rolling log of violations.
// Safe for concurrent use.
type ViolationLog struct {
	mu      sync.Mutex
	entries []Violation
}

// NewViolationLog returns an empty log.
func NewViolationLog() *ViolationLog {
	return &ViolationLog{}
}

// Append records a violation, evicting the oldest entry once full.
func (l *ViolationLog) Append(v Violation) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.entries) >= violationLogSize {
		l.entries = l.entries[1:]
	}
	l.entries = append(l.entries, v)
}

// Recent returns up to n violations, newest last.
func (l *ViolationLog) Recent(n int) []Violation {
	l.mu.Lock()
	defer l.mu.Unlock()

	if n <= 0 || n > len(l.entries) {
		n = len(l.entries)
	}
	out := make([]Violation, n)
	copy(out, l.entries[len(l.entries)-n:])
	return out
}

// Len returns the number of retained violations.
func (l *ViolationLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
