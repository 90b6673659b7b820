// Per-caller request counters for the access policy.
// Key: caller identity (client IP) → minute and day windows.

package services

import (
	"sync"
	"time"
)

// RateLimits are the ceilings enforced per caller.
type RateLimits struct {
	PerMinute int
	PerDay    int
}

// DefaultRateLimits are 10 requests a minute and 100 a day.
var DefaultRateLimits = RateLimits{PerMinute: 10, PerDay: 100}

type window struct {
	start time.Time
	count int
}

// roll resets the window when it has elapsed.
func (w *window) roll(now time.Time, length time.Duration) {
	if w.start.IsZero() || now.Sub(w.start) >= length {
		w.start = now
		w.count = 0
	}
}

type callerState struct {
	minute window
	day    window
}

// RateLimiter holds in-memory counters per caller. Nothing is persisted;
// a restart starts every caller from zero. Construct one per process (or
// per test) and inject it into the AccessPolicy.
type RateLimiter struct {
	limits RateLimits
	now    func() time.Time

	mu        sync.Mutex
	callers   map[string]*callerState
	lastSweep time.Time
}

// NewRateLimiter returns a limiter using wall-clock time. Non-positive
// limits fall back to DefaultRateLimits.
func NewRateLimiter(limits RateLimits) *RateLimiter {
	if limits.PerMinute <= 0 {
		limits.PerMinute = DefaultRateLimits.PerMinute
	}
	if limits.PerDay <= 0 {
		limits.PerDay = DefaultRateLimits.PerDay
	}
	return &RateLimiter{
		limits:  limits,
		now:     time.Now,
		callers: map[string]*callerState{},
	}
}

// WithClock replaces the time source. Intended for tests.
func (l *RateLimiter) WithClock(now func() time.Time) *RateLimiter {
	l.now = now
	return l
}

// Allow checks and counts one request for caller under a single lock, so
// concurrent requests cannot both take the last slot. A rejected request
// is not counted.
func (l *RateLimiter) Allow(caller string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.sweep(now)

	st, ok := l.callers[caller]
	if !ok {
		st = &callerState{}
		l.callers[caller] = st
	}
	st.minute.roll(now, time.Minute)
	st.day.roll(now, 24*time.Hour)

	if st.minute.count >= l.limits.PerMinute || st.day.count >= l.limits.PerDay {
		return false
	}
	st.minute.count++
	st.day.count++
	return true
}

// sweep drops callers whose day window has elapsed; their counters would
// reset on the next request anyway. Runs at most once a minute.
func (l *RateLimiter) sweep(now time.Time) {
	if now.Sub(l.lastSweep) < time.Minute {
		return
	}
	l.lastSweep = now
	for caller, st := range l.callers {
		if now.Sub(st.day.start) >= 24*time.Hour {
			delete(l.callers, caller)
		}
	}
}

// Counts returns the caller's current minute and day counters.
func (l *RateLimiter) Counts(caller string) (minute, day int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	st, ok := l.callers[caller]
	if !ok {
		return 0, 0
	}
	now := l.now()
	if now.Sub(st.minute.start) < time.Minute {
		minute = st.minute.count
	}
	if now.Sub(st.day.start) < 24*time.Hour {
		day = st.day.count
	}
	return minute, day
}
