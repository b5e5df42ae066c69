package logging_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"reelay/internal/logging"
)

func TestNewConsoleWritesToFile(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console.log")

	logger, err := logging.New(logging.Options{
		Format:           "console",
		Level:            "info",
		OutputPaths:      []string{logPath},
		ErrorOutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Info("pipeline run started", logging.String(logging.FieldAccount, "mainacct"))

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), "pipeline run started") {
		t.Fatalf("expected message in log output, got %q", content)
	}
	if !strings.Contains(string(content), "mainacct") {
		t.Fatalf("expected account field in log output, got %q", content)
	}
}

func TestNewJSONFormatsLevel(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "json.log")

	logger, err := logging.New(logging.Options{
		Format:           "json",
		Level:            "info",
		OutputPaths:      []string{logPath},
		ErrorOutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Warn("publish retry exhausted")

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), `"level":"warn"`) {
		t.Fatalf("expected lowercase level key, got %q", content)
	}
	if !strings.Contains(string(content), `"msg":"publish retry exhausted"`) {
		t.Fatalf("expected short message key, got %q", content)
	}
	if !strings.Contains(string(content), `"ts":"`) {
		t.Fatalf("expected ts key, got %q", content)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestDebugSuppressedAtInfoLevel(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "levels.log")

	logger, err := logging.New(logging.Options{
		Format:           "console",
		Level:            "info",
		OutputPaths:      []string{logPath},
		ErrorOutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Debug("hidden")
	logger.Info("visible")

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if strings.Contains(string(content), "hidden") {
		t.Fatalf("expected debug output suppressed, got %q", content)
	}
	if !strings.Contains(string(content), "visible") {
		t.Fatalf("expected info output present, got %q", content)
	}
}

func TestWithContextAddsRunFields(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "context.log")

	logger, err := logging.New(logging.Options{
		Format:           "json",
		Level:            "info",
		OutputPaths:      []string{logPath},
		ErrorOutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	ctx := logging.WithRun(context.Background(), "mainacct", "run-123")
	ctx = logging.WithStep(ctx, "fetch")
	logging.WithContext(ctx, logger).Info("step started")

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	for _, want := range []string{`"account":"mainacct"`, `"run_id":"run-123"`, `"step":"fetch"`} {
		if !strings.Contains(string(content), want) {
			t.Fatalf("expected %s in output, got %q", want, content)
		}
	}
}

func TestWithContextNilLogger(t *testing.T) {
	logger := logging.WithContext(context.Background(), nil)
	if logger == nil {
		t.Fatal("expected fallback no-op logger")
	}
	logger.Info("must not panic")
}
