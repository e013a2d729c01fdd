// Package memlimit implements the shared byte-usage ceiling that bounds how
// much memory the parser's cross-chunk buffers may hold at once.
package memlimit

import "fmt"

// ExceededError is returned by Limiter.IncreaseUsage when a requested delta
// would push current usage above the configured maximum.
type ExceededError struct {
	Current uint64
	Max     uint64
}

func (e *ExceededError) Error() string {
	return fmt.Sprintf("memory limit exceeded: current=%d max=%d", e.Current, e.Max)
}

// Limiter tracks aggregate byte usage across every Buffer charged against it.
// A zero Max means unbounded.
type Limiter struct {
	current uint64
	max     uint64
}

// New returns a Limiter capped at max bytes. max == 0 means unbounded.
func New(max uint64) *Limiter {
	return &Limiter{max: max}
}

// Current returns the current aggregate usage.
func (l *Limiter) Current() uint64 {
	return l.current
}

// Max returns the configured ceiling (0 means unbounded).
func (l *Limiter) Max() uint64 {
	return l.max
}

// Preallocate charges delta bytes without any prior usage check bypass; it is
// equivalent to IncreaseUsage but named separately so call sites can document
// intent (initial buffer sizing vs. growth under pressure).
func (l *Limiter) Preallocate(delta uint64) error {
	return l.IncreaseUsage(delta)
}

// IncreaseUsage charges delta additional bytes against the limiter. It fails
// without mutating state if doing so would exceed Max.
func (l *Limiter) IncreaseUsage(delta uint64) error {
	if delta == 0 {
		return nil
	}
	next := l.current + delta
	if l.max != 0 && next > l.max {
		return &ExceededError{Current: l.current, Max: l.max}
	}
	l.current = next
	return nil
}

// DecreaseUsage releases delta bytes previously charged. It never panics on
// under-flow protection; callers are expected to only release what they
// charged, but DecreaseUsage clamps to zero defensively.
func (l *Limiter) DecreaseUsage(delta uint64) {
	if delta >= l.current {
		l.current = 0
		return
	}
	l.current -= delta
}
