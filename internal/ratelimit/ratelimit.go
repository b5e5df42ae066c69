// Package ratelimit paces provider traffic. The fetch step talks to many
// source profiles in a row; the limiter spaces out profile listings and
// per-item requests so the provider sees human-scale traffic.
package ratelimit

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"reelay/internal/config"
)

// Limiter spaces provider calls with two token buckets, one for profile
// listings and one for per-item fetches.
type Limiter struct {
	sources *rate.Limiter
	items   *rate.Limiter
}

// New builds a Limiter from the provider config section. Non-positive delays
// disable pacing for that bucket; tests rely on this for zero-delay configs.
func New(cfg *config.Config) *Limiter {
	var sourceDelay, itemDelay time.Duration
	if cfg != nil {
		sourceDelay = time.Duration(cfg.Provider.SourceDelay) * time.Second
		itemDelay = time.Duration(cfg.Provider.ItemDelay) * time.Second
	}
	return NewWithDelays(sourceDelay, itemDelay)
}

// NewWithDelays builds a Limiter with explicit spacing between calls.
func NewWithDelays(sourceDelay, itemDelay time.Duration) *Limiter {
	return &Limiter{
		sources: newBucket(sourceDelay),
		items:   newBucket(itemDelay),
	}
}

func newBucket(delay time.Duration) *rate.Limiter {
	if delay <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(delay), 1)
}

// WaitSource blocks until the next profile listing is allowed.
func (l *Limiter) WaitSource(ctx context.Context) error {
	if l == nil {
		return nil
	}
	return l.sources.Wait(ctx)
}

// WaitItem blocks until the next per-item request is allowed.
func (l *Limiter) WaitItem(ctx context.Context) error {
	if l == nil {
		return nil
	}
	return l.items.Wait(ctx)
}
