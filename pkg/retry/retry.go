package retry

import (
	"context"
	"time"
)

// Policy describes a bounded retry schedule with exponential backoff.
// External calls (market data fetch, order submission) are the only
// suspension points in a run, so the schedule is explicit and testable
// instead of being buried in call sites.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// DefaultPolicy is suitable for HTTP collaborators: 3 attempts, 500ms base.
var DefaultPolicy = Policy{
	MaxAttempts: 3,
	BaseDelay:   500 * time.Millisecond,
	MaxDelay:    5 * time.Second,
}

// Delay returns the backoff before the given attempt (1-based). The first
// attempt has no delay.
func (p Policy) Delay(attempt int) time.Duration {
	if attempt <= 1 {
		return 0
	}
	d := p.BaseDelay << (attempt - 2)
	if p.MaxDelay > 0 && d > p.MaxDelay {
		return p.MaxDelay
	}
	return d
}

// Do runs fn up to MaxAttempts times, sleeping the policy delay between
// attempts. It returns nil on the first success, the last error otherwise,
// and stops early when ctx is done.
func (p Policy) Do(ctx context.Context, fn func() error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if delay := p.Delay(attempt); delay > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		if err = fn(); err == nil {
			return nil
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return err
}
