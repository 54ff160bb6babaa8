package server

import "time"

// Policy is the bounded retry policy for server readiness polling. It is
// injected into the Reconciler so tests can run it against a fake control
// surface without real sleeps.
type Policy struct {
	// MaxAttempts is the number of liveness probes after a start is issued.
	MaxAttempts int
	// Delay returns the wait before the given 1-based attempt.
	Delay func(attempt int) time.Duration
}

// FixedPolicy returns a Policy that probes up to maxAttempts times with a
// constant delay between probes. Server startup is fast when it works at
// all; backoff buys nothing here.
func FixedPolicy(maxAttempts int, delay time.Duration) Policy {
	return Policy{
		MaxAttempts: maxAttempts,
		Delay:       func(int) time.Duration { return delay },
	}
}

// DefaultPolicy is the stock policy: five probes, 400ms apart.
func DefaultPolicy() Policy {
	return FixedPolicy(5, 400*time.Millisecond)
}
