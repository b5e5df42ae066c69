package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"reelay/internal/config"
)

const userAgent = "Reelay-Go/0.1.0"

// Service defines the notification surface exposed to the scheduler and
// pipeline. Implementations must be safe for concurrent use.
type Service interface {
	NotifyPostPublished(ctx context.Context, account, shortcode, remoteID string) error
	NotifyRunFailed(ctx context.Context, account string, runErr error) error
	NotifyNoCandidates(ctx context.Context, account string) error
	NotifyDaemonStarted(ctx context.Context, accounts int) error
	NotifyDaemonStopped(ctx context.Context) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint:     topic,
		client:       &http.Client{Timeout: timeout},
		posts:        cfg.Notifications.Posts,
		failures:     cfg.Notifications.Failures,
		noCandidates: cfg.Notifications.NoCandidates,
		daemon:       cfg.Notifications.Daemon,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint     string
	client       *http.Client
	posts        bool
	failures     bool
	noCandidates bool
	daemon       bool
}

func (n *ntfyService) NotifyPostPublished(ctx context.Context, account, shortcode, remoteID string) error {
	if !n.posts {
		return nil
	}
	message := fmt.Sprintf("Posted %s to @%s", shortcode, account)
	if remoteID = strings.TrimSpace(remoteID); remoteID != "" {
		message = fmt.Sprintf("%s (id %s)", message, remoteID)
	}
	return n.send(ctx, payload{
		title:   "Reelay - Posted",
		message: message,
		tags:    []string{"reelay", "post", "published"},
	})
}

func (n *ntfyService) NotifyRunFailed(ctx context.Context, account string, runErr error) error {
	if !n.failures {
		return nil
	}
	reason := "unknown"
	if runErr != nil {
		reason = strings.TrimSpace(runErr.Error())
	}
	return n.send(ctx, payload{
		title:    "Reelay - Run Failed",
		message:  fmt.Sprintf("Run for @%s failed: %s", account, reason),
		tags:     []string{"reelay", "run", "failed"},
		priority: "high",
	})
}

func (n *ntfyService) NotifyNoCandidates(ctx context.Context, account string) error {
	if !n.noCandidates {
		return nil
	}
	return n.send(ctx, payload{
		title:   "Reelay - Nothing To Post",
		message: fmt.Sprintf("No unposted candidates for @%s; sources may be exhausted", account),
		tags:    []string{"reelay", "run", "empty"},
	})
}

func (n *ntfyService) NotifyDaemonStarted(ctx context.Context, accounts int) error {
	if !n.daemon {
		return nil
	}
	return n.send(ctx, payload{
		title:   "Reelay - Started",
		message: fmt.Sprintf("Daemon started, scheduling %d accounts", accounts),
		tags:    []string{"reelay", "daemon", "started"},
	})
}

func (n *ntfyService) NotifyDaemonStopped(ctx context.Context) error {
	if !n.daemon {
		return nil
	}
	return n.send(ctx, payload{
		title:   "Reelay - Stopped",
		message: "Daemon stopped",
		tags:    []string{"reelay", "daemon", "stopped"},
	})
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	return n.send(ctx, payload{
		title:    "Reelay - Test",
		message:  "Notification system test",
		tags:     []string{"reelay", "test"},
		priority: "low",
	})
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyPostPublished(context.Context, string, string, string) error { return nil }
func (noopService) NotifyRunFailed(context.Context, string, error) error              { return nil }
func (noopService) NotifyNoCandidates(context.Context, string) error                  { return nil }
func (noopService) NotifyDaemonStarted(context.Context, int) error                    { return nil }
func (noopService) NotifyDaemonStopped(context.Context) error                         { return nil }
func (noopService) TestNotification(context.Context) error                            { return nil }
