// Package retry provides bounded exponential backoff for provider calls.
// Permanent errors stop the loop immediately; everything else is retried up
// to the policy's attempt budget.
package retry

import (
	"context"
	"errors"
	"time"

	"reelay/internal/config"
)

// Policy bounds a retry loop. Sleep is injectable; when nil the loop sleeps
// for real while honoring context cancellation.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Sleep       func(ctx context.Context, d time.Duration) error
}

// PolicyFromConfig derives a Policy from the retry config section.
func PolicyFromConfig(cfg *config.Config) Policy {
	if cfg == nil {
		return Policy{}.normalized()
	}
	return Policy{
		MaxAttempts: cfg.Retry.MaxAttempts,
		BaseDelay:   time.Duration(cfg.Retry.BaseDelay) * time.Second,
		MaxDelay:    time.Duration(cfg.Retry.MaxDelay) * time.Second,
	}.normalized()
}

func (p Policy) normalized() Policy {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 3
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = 4 * time.Second
	}
	if p.MaxDelay < p.BaseDelay {
		p.MaxDelay = 10 * time.Second
	}
	return p
}

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks an error as not worth retrying. Do unwraps the marker
// before returning, so callers still match the underlying error.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// Do runs op until it succeeds, the attempt budget is exhausted, op returns
// a Permanent error, or the context is cancelled. The delay before attempt
// n+1 is BaseDelay doubled per attempt, capped at MaxDelay.
func Do(ctx context.Context, p Policy, op func(ctx context.Context) error) error {
	p = p.normalized()

	var lastErr error
	delay := p.BaseDelay
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := op(ctx)
		if err == nil {
			return nil
		}
		var perm *permanentError
		if errors.As(err, &perm) {
			return perm.err
		}
		lastErr = err
		if attempt == p.MaxAttempts {
			break
		}
		if err := p.sleep(ctx, delay); err != nil {
			return err
		}
		delay *= 2
		if delay > p.MaxDelay {
			delay = p.MaxDelay
		}
	}
	return lastErr
}

func (p Policy) sleep(ctx context.Context, d time.Duration) error {
	if p.Sleep != nil {
		return p.Sleep(ctx, d)
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
