// Package cadence decides when an account may post again. Each account has a
// cooldown; the timestamp it is measured from advances only when a run
// actually records a post, so failed or empty runs never push the next post
// further out.
package cadence

import (
	"context"
	"time"

	"reelay/internal/config"
	"reelay/internal/store"
)

// Controller gates posting per account against the configured cooldown.
type Controller struct {
	store *store.Store
	cfg   *config.Config
	now   func() time.Time
}

// New builds a Controller over the shared store.
func New(st *store.Store, cfg *config.Config) *Controller {
	return NewWithClock(st, cfg, time.Now)
}

// NewWithClock builds a Controller with an injectable clock.
func NewWithClock(st *store.Store, cfg *config.Config, now func() time.Time) *Controller {
	if now == nil {
		now = time.Now
	}
	return &Controller{store: st, cfg: cfg, now: now}
}

// IsDue reports whether the account's cooldown has elapsed. An account with
// no recorded post is always due. When not due, remaining holds the time
// until the next eligible post.
func (c *Controller) IsDue(ctx context.Context, account string) (due bool, remaining time.Duration, err error) {
	last, err := c.store.LastPostTime(ctx, account)
	if err != nil {
		return false, 0, err
	}
	if last == nil {
		return true, 0, nil
	}
	acct, _ := c.cfg.AccountByHandle(account)
	cooldown := c.cfg.CooldownFor(acct)
	elapsed := c.now().Sub(*last)
	if elapsed >= cooldown {
		return true, 0, nil
	}
	return false, cooldown - elapsed, nil
}

// MarkPosted advances the account's cadence timestamp to now. Call it only
// after the post has been durably recorded.
func (c *Controller) MarkPosted(ctx context.Context, account string) error {
	return c.store.SetLastPostTime(ctx, account, c.now().UTC())
}
