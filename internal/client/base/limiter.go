package base

import (
	"sync"
	"time"
)

// Limiter enforces a fixed-window per-minute budget plus an optional
// per-UTC-day budget, matching free-tier provider quotas (e.g. Alpha
// Vantage: 5/minute, 25/day). The day counter resets at the UTC midnight
// boundary and never exceeds the daily quota.
type Limiter struct {
	PerMinute int
	PerDay    int

	// Now is swappable in tests. Defaults to time.Now.
	Now func() time.Time

	mu          sync.Mutex
	windowStart time.Time
	windowCount int
	day         string
	dayCount    int
}

func NewLimiter(perMinute, perDay int) *Limiter {
	return &Limiter{PerMinute: perMinute, PerDay: perDay, Now: time.Now}
}

// Allow consumes one unit of budget. It returns false with a reason when
// either window is exhausted; callers degrade to a fallback response
// instead of blocking.
func (l *Limiter) Allow() (bool, string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.nowUTC()
	l.roll(now)

	if l.PerDay > 0 && l.dayCount >= l.PerDay {
		return false, "daily quota exhausted"
	}
	if l.PerMinute > 0 && l.windowCount >= l.PerMinute {
		return false, "per-minute quota exhausted"
	}
	l.windowCount++
	l.dayCount++
	return true, ""
}

// DailyExhausted reports whether the per-day budget is dry without
// consuming anything.
func (l *Limiter) DailyExhausted() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.roll(l.nowUTC())
	return l.PerDay > 0 && l.dayCount >= l.PerDay
}

// UsedToday returns requests consumed since the last UTC day boundary.
func (l *Limiter) UsedToday() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.roll(l.nowUTC())
	return l.dayCount
}

func (l *Limiter) nowUTC() time.Time {
	if l.Now != nil {
		return l.Now().UTC()
	}
	return time.Now().UTC()
}

func (l *Limiter) roll(now time.Time) {
	if now.Sub(l.windowStart) >= time.Minute {
		l.windowStart = now
		l.windowCount = 0
	}
	day := now.Format("2006-01-02")
	if day != l.day {
		l.day = day
		l.dayCount = 0
	}
}
