package daemon

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"log/slog"

	"github.com/gofrs/flock"

	"reelay/internal/config"
	"reelay/internal/logging"
	"reelay/internal/notifications"
	"reelay/internal/scheduler"
	"reelay/internal/store"
	"reelay/internal/workspace"
)

// Daemon coordinates the scheduler and API server and enforces
// single-instance execution.
type Daemon struct {
	cfg       *config.Config
	logger    *slog.Logger
	store     *store.Store
	scheduler *scheduler.Scheduler
	notifier  notifications.Service

	lockPath string
	lock     *flock.Flock

	api *apiServer

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	PID          int
	DatabasePath string
	LockFilePath string
	Scheduler    scheduler.Status
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, st *store.Store, logger *slog.Logger, sched *scheduler.Scheduler, notifier notifications.Service) (*Daemon, error) {
	if cfg == nil || st == nil || logger == nil || sched == nil {
		return nil, errors.New("daemon requires config, store, logger, and scheduler")
	}
	if notifier == nil {
		notifier = notifications.NewService(cfg)
	}

	lockPath := filepath.Join(cfg.Paths.LogDir, "reelayd.lock")
	d := &Daemon{
		cfg:       cfg,
		logger:    logger,
		store:     st,
		scheduler: sched,
		notifier:  notifier,
		lockPath:  lockPath,
		lock:      flock.New(lockPath),
	}

	api, err := newAPIServer(cfg, d, logger)
	if err != nil {
		return nil, err
	}
	d.api = api
	return d, nil
}

// Start acquires the daemon lock, sweeps stale workspaces, and launches the
// scheduler and API server.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another reelay daemon instance is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)

	maxAge := time.Duration(d.cfg.Scheduler.WorkspaceMaxAge) * time.Second
	sweep := workspace.SweepStale(d.ctx, d.cfg.Paths.WorkspaceDir, maxAge, d.logger)
	if len(sweep.Removed) > 0 {
		d.logger.Info("stale workspaces removed", logging.Int("count", len(sweep.Removed)))
	}

	if err := d.scheduler.Start(d.ctx); err != nil {
		d.teardown()
		return fmt.Errorf("start scheduler: %w", err)
	}
	if err := d.api.start(d.ctx); err != nil {
		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = d.scheduler.Stop(stopCtx)
		cancel()
		d.teardown()
		return err
	}

	d.running.Store(true)
	d.logger.Info("reelay daemon started",
		logging.String("lock", d.lockPath),
		logging.Int("accounts", len(d.cfg.Accounts)),
	)
	if err := d.notifier.NotifyDaemonStarted(d.ctx, len(d.cfg.Accounts)); err != nil {
		d.logger.Warn("daemon start notification failed", logging.Error(err))
	}
	return nil
}

// Stop halts the scheduler and API server and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := d.scheduler.Stop(stopCtx); err != nil {
		d.logger.Warn("scheduler stop failed", logging.Error(err))
	}
	d.api.stop()
	if err := d.notifier.NotifyDaemonStopped(stopCtx); err != nil {
		d.logger.Warn("daemon stop notification failed", logging.Error(err))
	}

	d.teardown()
	d.running.Store(false)
	d.logger.Info("reelay daemon stopped")
}

func (d *Daemon) teardown() {
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.ctx = nil
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// APIAddr returns the API listener address, or empty when not serving.
func (d *Daemon) APIAddr() string {
	return d.api.addr()
}

// TestNotification triggers a test notification using the current configuration.
func (d *Daemon) TestNotification(ctx context.Context) (bool, string, error) {
	if strings.TrimSpace(d.cfg.Notifications.NtfyTopic) == "" {
		return false, "ntfy topic not configured", nil
	}
	if err := d.notifier.TestNotification(ctx); err != nil {
		return false, "failed to send notification", err
	}
	return true, "test notification sent", nil
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) Status {
	return Status{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		DatabasePath: d.store.Path(),
		LockFilePath: d.lockPath,
		Scheduler:    d.scheduler.Status(ctx),
	}
}
