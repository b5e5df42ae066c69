// Package workspace manages per-run scratch directories. Every pipeline run
// downloads media into its own directory and releases it when the run ends,
// on every exit path. A sweep at daemon start removes directories left behind
// by crashed runs.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"reelay/internal/textutil"
)

// Run is one run's scratch directory, named <account>-<runID> under the
// workspace root.
type Run struct {
	Account string
	RunID   string
	Dir     string
}

// Create makes the scratch directory for a run. The account handle is
// sanitized so it is always a safe path segment.
func Create(root, account, runID string) (*Run, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, fmt.Errorf("workspace root not configured")
	}
	runID = strings.TrimSpace(runID)
	if runID == "" {
		return nil, fmt.Errorf("workspace run id required")
	}
	dir := filepath.Join(root, textutil.SanitizeToken(account)+"-"+runID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create workspace %s: %w", dir, err)
	}
	return &Run{Account: account, RunID: runID, Dir: dir}, nil
}

// Release removes the run directory. Safe to call more than once.
func (r *Run) Release() error {
	if r == nil || r.Dir == "" {
		return nil
	}
	if err := os.RemoveAll(r.Dir); err != nil {
		return fmt.Errorf("remove workspace %s: %w", r.Dir, err)
	}
	return nil
}
