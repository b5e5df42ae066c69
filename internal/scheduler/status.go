package scheduler

import (
	"context"
	"time"
)

// AccountStatus is one account's view in the scheduler status report.
type AccountStatus struct {
	Handle            string
	Due               bool
	CooldownRemaining time.Duration
	LastOutcome       string
	LastRunID         string
	LastShortcode     string
	LastError         string
}

// Status is the scheduler snapshot served by the dashboard API.
type Status struct {
	Running      bool
	StartedAt    time.Time
	TickInterval time.Duration
	Accounts     []AccountStatus
}

// Status reports the scheduler and per-account state. Cadence lookups hit the
// store; a lookup failure leaves that account marked not due with the error
// attached.
func (s *Scheduler) Status(ctx context.Context) Status {
	s.mu.Lock()
	status := Status{
		Running:      s.running,
		StartedAt:    s.startedAt,
		TickInterval: time.Duration(s.cfg.Scheduler.TickInterval) * time.Second,
	}
	results := make(map[string]AccountStatus, len(s.lastResults))
	for handle, result := range s.lastResults {
		entry := AccountStatus{
			Handle:        handle,
			LastOutcome:   result.Outcome.String(),
			LastRunID:     result.RunID,
			LastShortcode: result.Shortcode,
		}
		if result.Err != nil {
			entry.LastError = result.Err.Error()
		}
		results[handle] = entry
	}
	s.mu.Unlock()

	for _, account := range s.cfg.Accounts {
		entry, ok := results[account.Handle]
		if !ok {
			entry = AccountStatus{Handle: account.Handle}
		}
		due, remaining, err := s.cadence.IsDue(ctx, account.Handle)
		if err != nil && entry.LastError == "" {
			entry.LastError = err.Error()
		}
		entry.Due = due
		entry.CooldownRemaining = remaining
		status.Accounts = append(status.Accounts, entry)
	}
	return status
}
