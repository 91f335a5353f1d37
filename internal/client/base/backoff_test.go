package base

import (
	"context"
	"errors"
	"testing"
	"time"
)

func noSleep(delays *[]time.Duration) func(context.Context, time.Duration) error {
	return func(_ context.Context, d time.Duration) error {
		*delays = append(*delays, d)
		return nil
	}
}

func TestDoRetriesTransientAndExhausts(t *testing.T) {
	var delays []time.Duration
	b := NewBackoff(3, 100*time.Millisecond)
	b.Sleep = noSleep(&delays)

	calls := 0
	cause := errors.New("connection reset")
	err := b.Do(context.Background(), "upstream", func() error {
		calls++
		return Retryable(cause)
	})

	if calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls)
	}
	var te *TransientError
	if !errors.As(err, &te) {
		t.Fatalf("expected TransientError, got %v", err)
	}
	if te.Provider != "upstream" || te.Attempts != 3 || !errors.Is(err, cause) {
		t.Fatalf("unexpected error detail: %+v", te)
	}
	want := []time.Duration{100 * time.Millisecond, 200 * time.Millisecond}
	if len(delays) != len(want) || delays[0] != want[0] || delays[1] != want[1] {
		t.Fatalf("delays = %v, want %v", delays, want)
	}
}

func TestDoStopsOnNonRetryable(t *testing.T) {
	b := NewBackoff(3, time.Millisecond)
	b.Sleep = func(context.Context, time.Duration) error { return nil }

	calls := 0
	fatal := &ParseError{Provider: "upstream", Detail: "bad payload"}
	err := b.Do(context.Background(), "upstream", func() error {
		calls++
		return fatal
	})
	if calls != 1 {
		t.Fatalf("non-retryable error must not be retried, got %d attempts", calls)
	}
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ParseError passthrough, got %v", err)
	}
}

func TestDoSucceedsAfterRetry(t *testing.T) {
	var delays []time.Duration
	b := NewBackoff(3, time.Millisecond)
	b.Sleep = noSleep(&delays)

	calls := 0
	err := b.Do(context.Background(), "upstream", func() error {
		calls++
		if calls < 2 {
			return Retryable(errors.New("flaky"))
		}
		return nil
	})
	if err != nil || calls != 2 {
		t.Fatalf("err=%v calls=%d", err, calls)
	}
}

func TestDoHonorsCanceledContext(t *testing.T) {
	b := NewBackoff(3, time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := b.Do(ctx, "upstream", func() error {
		return Retryable(errors.New("flaky"))
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
