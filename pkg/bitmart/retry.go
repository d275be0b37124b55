package bitmart

import "time"

// ReconnectPolicy decides whether and when the session reconnects after a
// transport error. Attempt numbering restarts at 1 after every successful
// connection.
type ReconnectPolicy interface {
	// Next returns the delay before the given reconnect attempt and whether
	// the attempt should be made at all.
	Next(attempt int) (time.Duration, bool)
}

// alwaysReconnect retries immediately, forever. This mirrors the feed's
// historical behavior: every transport error is treated as transient, with no
// backoff and no retry ceiling. It is a known-naive default; use
// NewBackoffReconnect for anything production-facing.
type alwaysReconnect struct{}

// AlwaysReconnect returns the default unconditional reconnect policy.
func AlwaysReconnect() ReconnectPolicy {
	return alwaysReconnect{}
}

func (alwaysReconnect) Next(int) (time.Duration, bool) {
	return 0, true
}

// backoffReconnect applies capped exponential delay between attempts and an
// optional attempt ceiling.
type backoffReconnect struct {
	initial     time.Duration
	max         time.Duration
	maxAttempts int
}

// NewBackoffReconnect returns a reconnect policy with exponential delay
// starting at initial and capped at max. maxAttempts <= 0 means unlimited.
func NewBackoffReconnect(initial, max time.Duration, maxAttempts int) ReconnectPolicy {
	return &backoffReconnect{initial: initial, max: max, maxAttempts: maxAttempts}
}

func (p *backoffReconnect) Next(attempt int) (time.Duration, bool) {
	if p.maxAttempts > 0 && attempt > p.maxAttempts {
		return 0, false
	}
	delay := p.initial
	for i := 1; i < attempt && delay < p.max; i++ {
		delay *= 2
	}
	if delay > p.max {
		delay = p.max
	}
	return delay, true
}
