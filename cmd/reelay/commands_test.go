package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"reelay/internal/api"
)

// runCommand executes the CLI against the given API server and returns its
// combined output.
func runCommand(t *testing.T, server *httptest.Server, args ...string) (string, error) {
	t.Helper()

	// A config path that does not exist keeps the defaults without touching
	// the invoking user's real configuration.
	missingConfig := filepath.Join(t.TempDir(), "config.toml")
	full := append([]string{"--server", server.Listener.Addr().String(), "-c", missingConfig}, args...)

	var out bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(full)
	err := cmd.Execute()
	return out.String(), err
}

func jsonHandler(t *testing.T, payload any) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			t.Errorf("encode payload: %v", err)
		}
	}
}

func TestStatusCommandRendersAccounts(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/status", jsonHandler(t, api.DaemonStatus{
		Running:      true,
		PID:          123,
		DatabasePath: "/tmp/reelay.db",
		Scheduler: api.SchedulerStatus{
			Running:             true,
			TickIntervalSeconds: 300,
			Accounts: []api.AccountStatus{
				{Handle: "mainacct", Due: true, LastOutcome: "posted"},
			},
		},
	}))
	server := httptest.NewServer(mux)
	defer server.Close()

	out, err := runCommand(t, server, "status")
	if err != nil {
		t.Fatalf("status command: %v", err)
	}
	if !strings.Contains(out, "running") {
		t.Fatalf("expected running daemon in output:\n%s", out)
	}
	if !strings.Contains(out, "mainacct") || !strings.Contains(out, "posted") {
		t.Fatalf("expected account row in output:\n%s", out)
	}
}

func TestQueueAddCommandPostsRequest(t *testing.T) {
	var got api.EnqueueRequest
	mux := http.NewServeMux()
	mux.HandleFunc("/api/queue", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(api.QueueItemResponse{Item: api.QueueItem{
			ID:        7,
			Account:   "mainacct",
			Shortcode: "abc",
			Status:    "pending",
		}})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	out, err := runCommand(t, server, "queue", "add", "mainacct", "abc")
	if err != nil {
		t.Fatalf("queue add: %v", err)
	}
	if got.Account != "mainacct" || got.Shortcode != "abc" {
		t.Fatalf("unexpected request %+v", got)
	}
	if !strings.Contains(out, "Queued abc for mainacct (id 7)") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestQueueAddRejectsBadSchedule(t *testing.T) {
	server := httptest.NewServer(http.NewServeMux())
	defer server.Close()

	_, err := runCommand(t, server, "queue", "add", "mainacct", "abc", "--at", "tomorrow")
	if err == nil {
		t.Fatal("expected error for unparseable --at value")
	}
}

func TestQueueListEmpty(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/queue", jsonHandler(t, api.QueueListResponse{}))
	server := httptest.NewServer(mux)
	defer server.Close()

	out, err := runCommand(t, server, "queue", "list")
	if err != nil {
		t.Fatalf("queue list: %v", err)
	}
	if !strings.Contains(out, "Queue is empty") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestQueueCancelCommand(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/queue/9/status", func(w http.ResponseWriter, r *http.Request) {
		var req api.QueueStatusRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Status != "cancelled" {
			t.Errorf("unexpected status request %+v (err %v)", req, err)
		}
		jsonHandler(t, api.QueueItemResponse{Item: api.QueueItem{
			ID:        9,
			Shortcode: "xyz",
			Status:    "cancelled",
		}})(w, r)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	out, err := runCommand(t, server, "queue", "cancel", "9")
	if err != nil {
		t.Fatalf("queue cancel: %v", err)
	}
	if !strings.Contains(out, "Cancelled queue item 9 (xyz)") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestLogsCommandFormatsEntries(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/logs", jsonHandler(t, api.LogsResponse{Entries: []api.ActivityEntry{
		{
			CreatedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
			Level:     "info",
			Message:   "posted abc",
			Account:   "mainacct",
		},
	}}))
	server := httptest.NewServer(mux)
	defer server.Close()

	out, err := runCommand(t, server, "logs", "--account", "mainacct")
	if err != nil {
		t.Fatalf("logs command: %v", err)
	}
	if !strings.Contains(out, "INFO [mainacct] posted abc") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestAnalyticsCommand(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/accounts/mainacct/analytics", jsonHandler(t, api.AnalyticsResponse{
		Account:        "mainacct",
		TotalPosts:     4,
		Views:          1000,
		Likes:          80,
		Shares:         20,
		EngagementRate: 10.0,
	}))
	server := httptest.NewServer(mux)
	defer server.Close()

	out, err := runCommand(t, server, "analytics", "mainacct")
	if err != nil {
		t.Fatalf("analytics command: %v", err)
	}
	if !strings.Contains(out, "Engagement rate: 10.00%") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestServerErrorSurfacedToUser(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/accounts/ghost/analytics", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"error": `unknown account "ghost"`})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	_, err := runCommand(t, server, "analytics", "ghost")
	if err == nil || !strings.Contains(err.Error(), `unknown account "ghost"`) {
		t.Fatalf("expected daemon error to surface, got %v", err)
	}
}
