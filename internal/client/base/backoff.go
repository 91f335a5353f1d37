package base

import (
	"context"
	"errors"
	"time"
)

// Backoff is an explicit retry policy: max attempts, exponential delay.
// Only transient failures are retried; parse failures surface immediately.
type Backoff struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Multiplier  float64

	// Sleep is swappable in tests. Defaults to a context-aware timer.
	Sleep func(ctx context.Context, d time.Duration) error
}

func NewBackoff(maxAttempts int, baseDelay time.Duration) *Backoff {
	return &Backoff{
		MaxAttempts: maxAttempts,
		BaseDelay:   baseDelay,
		Multiplier:  2,
	}
}

// retryable marks an error as worth another attempt.
type retryable struct{ err error }

func (r retryable) Error() string { return r.err.Error() }
func (r retryable) Unwrap() error { return r.err }

// Retryable wraps an error so Do will retry it.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return retryable{err: err}
}

// Do runs fn up to MaxAttempts times, sleeping between attempts. A nil
// return or a non-retryable error ends the loop; retryable exhaustion is
// reported as a TransientError for the given provider.
func (b *Backoff) Do(ctx context.Context, provider string, fn func() error) error {
	attempts := b.MaxAttempts
	if attempts <= 0 {
		attempts = 3
	}
	delay := b.BaseDelay
	if delay <= 0 {
		delay = 500 * time.Millisecond
	}
	mult := b.Multiplier
	if mult < 1 {
		mult = 2
	}

	var last error
	for attempt := 1; attempt <= attempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		var r retryable
		if !errors.As(err, &r) {
			return err
		}
		last = r.err
		if attempt == attempts {
			break
		}
		if err := b.sleep(ctx, delay); err != nil {
			return err
		}
		delay = time.Duration(float64(delay) * mult)
	}
	return &TransientError{Provider: provider, Attempts: attempts, Err: last}
}

func (b *Backoff) sleep(ctx context.Context, d time.Duration) error {
	if b.Sleep != nil {
		return b.Sleep(ctx, d)
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
