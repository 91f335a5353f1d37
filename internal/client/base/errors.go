package base

import "fmt"

// Provider errors are normalized into this taxonomy before they reach the
// orchestrator, which recovers locally from rate limits and parse failures
// but surfaces transient exhaustion and persistence errors.

// RateLimitError signals a dry quota, either the local limiter or a
// throttle response from the provider itself.
type RateLimitError struct {
	Provider string
	Reason   string
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s rate limit exceeded: %s", e.Provider, e.Reason)
}

// TransientError wraps a network failure or 5xx that survived all retries.
type TransientError struct {
	Provider string
	Attempts int
	Err      error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("%s transient failure after %d attempts: %v", e.Provider, e.Attempts, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// ParseError signals a malformed provider response. Never retried.
type ParseError struct {
	Provider string
	Detail   string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s malformed response: %s", e.Provider, e.Detail)
}

// APIError carries a non-2xx provider status verbatim.
type APIError struct {
	Provider string
	Status   int
	Body     string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s API error (%d): %s", e.Provider, e.Status, e.Body)
}
