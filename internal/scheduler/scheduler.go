// Package scheduler drives the repost loop. A cron tick fans out one
// goroutine per configured account; an account whose previous run is still in
// flight is skipped for that tick, and an account inside its cooldown window
// is left alone until it is due.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"reelay/internal/cadence"
	"reelay/internal/config"
	"reelay/internal/logging"
	"reelay/internal/pipeline"
)

// Runner executes one account run. *pipeline.Runner satisfies this; tests
// substitute fakes.
type Runner interface {
	Run(ctx context.Context, account config.Account) pipeline.RunResult
}

// Scheduler owns the cron loop and per-account run state.
type Scheduler struct {
	cfg     *config.Config
	cadence *cadence.Controller
	runner  Runner
	logger  *slog.Logger

	cron *cron.Cron

	mu          sync.Mutex
	locks       map[string]*sync.Mutex
	lastResults map[string]pipeline.RunResult
	running     bool
	startedAt   time.Time
	cancel      context.CancelFunc
	wg          sync.WaitGroup
}

// New constructs a Scheduler. The runner is shared across accounts.
func New(cfg *config.Config, ctrl *cadence.Controller, runner Runner, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Scheduler{
		cfg:         cfg,
		cadence:     ctrl,
		runner:      runner,
		logger:      logger,
		locks:       make(map[string]*sync.Mutex),
		lastResults: make(map[string]pipeline.RunResult),
	}
}

// Start launches the cron loop. The first tick fires immediately so a
// restarted daemon does not wait a full interval before posting.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("scheduler already running")
	}
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.running = true
	s.startedAt = time.Now()
	s.cron = cron.New()
	s.mu.Unlock()

	spec := fmt.Sprintf("@every %ds", s.cfg.Scheduler.TickInterval)
	if _, err := s.cron.AddFunc(spec, func() { s.tick(runCtx) }); err != nil {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
		cancel()
		return fmt.Errorf("register tick: %w", err)
	}
	s.cron.Start()
	s.logger.Info("scheduler started",
		logging.Int("accounts", len(s.cfg.Accounts)),
		logging.Int("tick_interval_seconds", s.cfg.Scheduler.TickInterval),
	)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.tick(runCtx)
	}()
	return nil
}

// Stop halts the cron loop and waits for in-flight runs, bounded by ctx.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	cancel := s.cancel
	cronRunner := s.cron
	s.mu.Unlock()

	if cronRunner != nil {
		<-cronRunner.Stop().Done()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		// Give up waiting and cancel whatever is still in flight.
		cancel()
		<-done
	}
	cancel()
	s.logger.Info("scheduler stopped")
	return nil
}

// RunOnce processes every account synchronously, honoring cadence and
// per-account locks. The CLI's one-shot mode and tests use it.
func (s *Scheduler) RunOnce(ctx context.Context) {
	var wg sync.WaitGroup
	for _, account := range s.cfg.Accounts {
		wg.Add(1)
		go func(account config.Account) {
			defer wg.Done()
			s.runAccount(ctx, account)
		}(account)
	}
	wg.Wait()
}

func (s *Scheduler) tick(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	for _, account := range s.cfg.Accounts {
		s.wg.Add(1)
		go func(account config.Account) {
			defer s.wg.Done()
			s.runAccount(ctx, account)
		}(account)
	}
}

func (s *Scheduler) runAccount(ctx context.Context, account config.Account) {
	defer func() {
		if rec := recover(); rec != nil {
			s.logger.Error("run panicked",
				logging.String(logging.FieldAccount, account.Handle),
				logging.Any("panic", rec),
			)
		}
	}()

	lock := s.lockFor(account.Handle)
	if !lock.TryLock() {
		s.logger.Debug("previous run still in flight",
			logging.String(logging.FieldAccount, account.Handle),
		)
		return
	}
	defer lock.Unlock()

	due, remaining, err := s.cadence.IsDue(ctx, account.Handle)
	if err != nil {
		s.logger.Error("cadence check failed",
			logging.String(logging.FieldAccount, account.Handle),
			logging.Error(err),
		)
		return
	}
	if !due {
		s.logger.Debug("account cooling down",
			logging.String(logging.FieldAccount, account.Handle),
			logging.Duration("remaining", remaining),
		)
		return
	}

	runCtx := ctx
	if timeout := time.Duration(s.cfg.Scheduler.RunTimeout) * time.Second; timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	result := s.runner.Run(runCtx, account)

	s.mu.Lock()
	s.lastResults[account.Handle] = result
	s.mu.Unlock()
}

func (s *Scheduler) lockFor(handle string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[handle]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[handle] = lock
	}
	return lock
}
