package base

import (
	"testing"
	"time"
)

func fixedClock(start time.Time) (*time.Time, func() time.Time) {
	now := start
	return &now, func() time.Time { return now }
}

func TestLimiterPerMinuteWindow(t *testing.T) {
	now, clock := fixedClock(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	l := NewLimiter(2, 0)
	l.Now = clock

	if ok, _ := l.Allow(); !ok {
		t.Fatal("first call should pass")
	}
	if ok, _ := l.Allow(); !ok {
		t.Fatal("second call should pass")
	}
	if ok, reason := l.Allow(); ok || reason != "per-minute quota exhausted" {
		t.Fatalf("third call should be throttled, got ok=%v reason=%q", ok, reason)
	}

	*now = now.Add(time.Minute)
	if ok, _ := l.Allow(); !ok {
		t.Fatal("window should reset after a minute")
	}
}

func TestLimiterDailyBudget(t *testing.T) {
	now, clock := fixedClock(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	l := NewLimiter(100, 3)
	l.Now = clock

	for i := 0; i < 3; i++ {
		if ok, _ := l.Allow(); !ok {
			t.Fatalf("call %d should pass", i+1)
		}
	}
	if ok, reason := l.Allow(); ok || reason != "daily quota exhausted" {
		t.Fatalf("daily budget should be dry, got ok=%v reason=%q", ok, reason)
	}
	if !l.DailyExhausted() {
		t.Fatal("DailyExhausted should report true")
	}
	if l.UsedToday() != 3 {
		t.Fatalf("UsedToday = %d, want 3", l.UsedToday())
	}

	// Minute passing does not refill the day.
	*now = now.Add(5 * time.Minute)
	if ok, _ := l.Allow(); ok {
		t.Fatal("daily budget must not refill within the day")
	}

	// UTC midnight does.
	*now = time.Date(2024, 6, 2, 0, 0, 1, 0, time.UTC)
	if l.DailyExhausted() {
		t.Fatal("day boundary should reset the daily counter")
	}
	if ok, _ := l.Allow(); !ok {
		t.Fatal("call after day boundary should pass")
	}
}

func TestLimiterUnlimited(t *testing.T) {
	l := NewLimiter(0, 0)
	for i := 0; i < 100; i++ {
		if ok, _ := l.Allow(); !ok {
			t.Fatal("zero budgets mean no limiting")
		}
	}
	if l.DailyExhausted() {
		t.Fatal("unlimited limiter can never be exhausted")
	}
}
