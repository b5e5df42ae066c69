// Package daemonctl orchestrates the daemon process from the CLI: launching
// a detached reelayd, waiting for its API to come up, and stopping it by
// signalling the PID reported over the API.
package daemonctl

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"reelay/internal/api"
)

// ErrDaemonNotRunning indicates the daemon API is unreachable.
var ErrDaemonNotRunning = errors.New("daemon is not running")

type StartState string

const (
	StartStateStarted        StartState = "started"
	StartStateAlreadyRunning StartState = "already_running"
)

// StartResult captures daemon start orchestration state.
type StartResult struct {
	State    StartState
	Launched bool
	PID      int
}

// StopResult captures daemon stop orchestration state.
type StopResult struct {
	PID        int
	ForcedKill bool
}

// DaemonExecutable resolves the reelayd binary, preferring the directory of
// the current executable over PATH.
func DaemonExecutable() (string, error) {
	if exe, err := os.Executable(); err == nil {
		sibling := filepath.Join(filepath.Dir(exe), "reelayd")
		if info, statErr := os.Stat(sibling); statErr == nil && !info.IsDir() {
			return sibling, nil
		}
	}
	path, err := exec.LookPath("reelayd")
	if err != nil {
		return "", fmt.Errorf("locate reelayd: %w", err)
	}
	return path, nil
}

// Launch starts a detached reelayd process. The config path, when set, is
// passed through the REELAY_CONFIG environment variable.
func Launch(executablePath, configPath string) error {
	if strings.TrimSpace(executablePath) == "" {
		return errors.New("resolve executable: executable path is empty")
	}

	proc := exec.Command(executablePath)
	proc.Env = os.Environ()
	if cfg := strings.TrimSpace(configPath); cfg != "" {
		proc.Env = append(proc.Env, "REELAY_CONFIG="+cfg)
	}
	if err := proc.Start(); err != nil {
		return fmt.Errorf("launch daemon: %w", err)
	}
	return proc.Process.Release()
}

// WaitForAPI polls the daemon status endpoint until it responds or the
// timeout elapses.
func WaitForAPI(ctx context.Context, client *api.Client, timeout time.Duration) (api.DaemonStatus, error) {
	deadline := time.Now().Add(timeout)
	var lastErr error
	for time.Now().Before(deadline) {
		status, err := client.Status(ctx)
		if err == nil && status.Running {
			return status, nil
		}
		lastErr = err
		select {
		case <-ctx.Done():
			return api.DaemonStatus{}, ctx.Err()
		case <-time.After(200 * time.Millisecond):
		}
	}
	if lastErr == nil {
		lastErr = errors.New("timeout waiting for daemon")
	}
	return api.DaemonStatus{}, fmt.Errorf("daemon failed to start: %w", lastErr)
}

// EnsureStarted launches the daemon unless its API already responds.
func EnsureStarted(ctx context.Context, client *api.Client, executablePath, configPath string, waitTimeout time.Duration) (StartResult, error) {
	if status, err := client.Status(ctx); err == nil && status.Running {
		return StartResult{State: StartStateAlreadyRunning, PID: status.PID}, nil
	}

	if err := Launch(executablePath, configPath); err != nil {
		return StartResult{}, err
	}
	status, err := WaitForAPI(ctx, client, waitTimeout)
	if err != nil {
		return StartResult{}, err
	}
	return StartResult{State: StartStateStarted, Launched: true, PID: status.PID}, nil
}

// StopAndTerminate signals the daemon to shut down and force-kills the
// process if it is still alive after gracePeriod.
func StopAndTerminate(ctx context.Context, client *api.Client, gracePeriod time.Duration) (StopResult, error) {
	status, err := client.Status(ctx)
	if err != nil {
		return StopResult{}, ErrDaemonNotRunning
	}
	if status.PID <= 0 {
		return StopResult{}, errors.New("daemon did not report a pid")
	}

	result := StopResult{PID: status.PID}
	if err := syscall.Kill(status.PID, syscall.SIGTERM); err != nil {
		if errors.Is(err, syscall.ESRCH) {
			return result, nil
		}
		return result, fmt.Errorf("signal daemon: %w", err)
	}

	deadline := time.Now().Add(gracePeriod)
	for time.Now().Before(deadline) {
		if !processAlive(status.PID) {
			return result, nil
		}
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		case <-time.After(200 * time.Millisecond):
		}
	}

	if err := syscall.Kill(status.PID, syscall.SIGKILL); err != nil && !errors.Is(err, syscall.ESRCH) {
		return result, fmt.Errorf("force kill daemon: %w", err)
	}
	result.ForcedKill = true
	return result, nil
}

func processAlive(pid int) bool {
	// Signal 0 performs the permission and existence checks without
	// delivering anything.
	err := syscall.Kill(pid, 0)
	return err == nil || errors.Is(err, syscall.EPERM)
}
