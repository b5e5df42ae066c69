package workspace_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"reelay/internal/logging"
	"reelay/internal/workspace"
)

func TestCreateAndRelease(t *testing.T) {
	root := t.TempDir()

	run, err := workspace.Create(root, "Main.Acct", "run-1234")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !strings.HasPrefix(filepath.Base(run.Dir), "main_acct-") {
		t.Fatalf("expected sanitized account in dir name, got %q", run.Dir)
	}
	if _, err := os.Stat(run.Dir); err != nil {
		t.Fatalf("workspace dir missing: %v", err)
	}

	if err := run.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if _, err := os.Stat(run.Dir); !os.IsNotExist(err) {
		t.Fatalf("expected dir removed, stat err %v", err)
	}
	// Second release is a no-op.
	if err := run.Release(); err != nil {
		t.Fatalf("repeat Release: %v", err)
	}
}

func TestCreateRequiresRootAndRunID(t *testing.T) {
	if _, err := workspace.Create("", "acct", "run"); err == nil {
		t.Fatal("expected error for empty root")
	}
	if _, err := workspace.Create(t.TempDir(), "acct", " "); err == nil {
		t.Fatal("expected error for empty run id")
	}
}

func TestReleaseRunsOnPanicPath(t *testing.T) {
	root := t.TempDir()
	run, err := workspace.Create(root, "acct", "run-1")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	func() {
		defer func() { recover() }()
		defer run.Release()
		panic("mid-run failure")
	}()

	if _, err := os.Stat(run.Dir); !os.IsNotExist(err) {
		t.Fatalf("expected workspace released after panic, stat err %v", err)
	}
}

func TestSweepStaleRemovesOldDirectories(t *testing.T) {
	root := t.TempDir()

	stale := filepath.Join(root, "acct-old")
	if err := os.MkdirAll(stale, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	oldTime := time.Now().Add(-48 * time.Hour)
	if err := os.Chtimes(stale, oldTime, oldTime); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	fresh := filepath.Join(root, "acct-fresh")
	if err := os.MkdirAll(fresh, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	looseFile := filepath.Join(root, "notes.txt")
	if err := os.WriteFile(looseFile, []byte("keep"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	result := workspace.SweepStale(context.Background(), root, 24*time.Hour, logging.NewNop())
	if len(result.Errors) != 0 {
		t.Fatalf("unexpected sweep errors: %v", result.Errors)
	}
	if len(result.Removed) != 1 || result.Removed[0] != stale {
		t.Fatalf("expected only stale dir removed, got %v", result.Removed)
	}
	if _, err := os.Stat(fresh); err != nil {
		t.Fatalf("fresh dir should survive: %v", err)
	}
	if _, err := os.Stat(looseFile); err != nil {
		t.Fatalf("loose file should survive: %v", err)
	}
}

func TestSweepStaleMissingRootIsQuiet(t *testing.T) {
	result := workspace.SweepStale(context.Background(), filepath.Join(t.TempDir(), "absent"), time.Hour, nil)
	if len(result.Removed) != 0 || len(result.Errors) != 0 {
		t.Fatalf("expected empty result, got %+v", result)
	}
}
