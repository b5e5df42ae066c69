package pipeline

import (
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"reelay/internal/cadence"
	"reelay/internal/config"
	"reelay/internal/logging"
	"reelay/internal/notifications"
	"reelay/internal/provider"
	"reelay/internal/ratelimit"
	"reelay/internal/retry"
	"reelay/internal/store"
)

// PublisherFactory resolves the publisher for a configured account. The
// daemon binds each account's handle and session file to a bridge publisher;
// tests supply fakes.
type PublisherFactory func(account config.Account) provider.Publisher

// Runner executes repost runs. One Runner serves all accounts; runs for
// different accounts may execute concurrently.
type Runner struct {
	cfg        *config.Config
	store      *store.Store
	cadence    *cadence.Controller
	source     provider.Source
	publishers PublisherFactory
	notifier   notifications.Service
	logger     *slog.Logger
	limiter    *ratelimit.Limiter
	policy     retry.Policy
	now        func() time.Time

	mu  sync.Mutex
	rng *rand.Rand
}

// Option configures optional Runner behavior.
type Option func(*Runner)

// WithRand injects the selection source. Tests use a seeded rand for
// deterministic picks.
func WithRand(rng *rand.Rand) Option {
	return func(r *Runner) {
		if rng != nil {
			r.rng = rng
		}
	}
}

// WithClock injects the run clock.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) {
		if now != nil {
			r.now = now
		}
	}
}

// WithRetryPolicy overrides the retry policy derived from config.
func WithRetryPolicy(policy retry.Policy) Option {
	return func(r *Runner) {
		r.policy = policy
	}
}

// WithLimiter overrides the provider pacing limiter.
func WithLimiter(limiter *ratelimit.Limiter) Option {
	return func(r *Runner) {
		r.limiter = limiter
	}
}

// New constructs a Runner over the shared store and provider adapters.
func New(
	cfg *config.Config,
	st *store.Store,
	ctrl *cadence.Controller,
	source provider.Source,
	publishers PublisherFactory,
	notifier notifications.Service,
	logger *slog.Logger,
	opts ...Option,
) *Runner {
	if logger == nil {
		logger = logging.NewNop()
	}
	r := &Runner{
		cfg:        cfg,
		store:      st,
		cadence:    ctrl,
		source:     source,
		publishers: publishers,
		notifier:   notifier,
		logger:     logger,
		limiter:    ratelimit.New(cfg),
		policy:     retry.PolicyFromConfig(cfg),
		now:        time.Now,
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Runner) intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.Intn(n)
}
