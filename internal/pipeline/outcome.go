package pipeline

import "time"

// Outcome classifies how a run ended.
type Outcome int

const (
	// OutcomePosted means the run published and recorded an item.
	OutcomePosted Outcome = iota
	// OutcomeNoCandidates means every fetched item was already posted.
	OutcomeNoCandidates
	// OutcomeFailed means a step failed after exhausting its retries.
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomePosted:
		return "posted"
	case OutcomeNoCandidates:
		return "no_candidates"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// RunResult summarizes one pipeline run for the scheduler and logs.
type RunResult struct {
	Account   string
	RunID     string
	Outcome   Outcome
	Shortcode string
	RemoteID  string
	Fetched   int

	// Err is set when Outcome is OutcomeFailed.
	Err error
	// AnalyticsErr is set when the post succeeded but the analytics refresh
	// did not. The run still counts as posted.
	AnalyticsErr error

	Duration time.Duration
}
