package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Client talks to a running daemon's dashboard API. The CLI builds one from
// the configured bind address and token.
type Client struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewClient constructs a Client for the given base URL. The token may be
// empty when the daemon runs without authentication.
func NewClient(baseURL, token string) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		baseURL = "http://" + baseURL
	}
	return &Client{
		baseURL: baseURL,
		token:   strings.TrimSpace(token),
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// Status fetches the daemon status.
func (c *Client) Status(ctx context.Context) (DaemonStatus, error) {
	var out DaemonStatus
	err := c.get(ctx, "/api/status", &out)
	return out, err
}

// Accounts fetches per-account scheduling state.
func (c *Client) Accounts(ctx context.Context) ([]AccountStatus, error) {
	var out AccountsResponse
	if err := c.get(ctx, "/api/accounts", &out); err != nil {
		return nil, err
	}
	return out.Accounts, nil
}

// AccountItems fetches an account's posted and available items.
func (c *Client) AccountItems(ctx context.Context, handle string) (AccountItemsResponse, error) {
	var out AccountItemsResponse
	err := c.get(ctx, "/api/accounts/"+url.PathEscape(handle)+"/items", &out)
	return out, err
}

// Analytics fetches an account's engagement summary.
func (c *Client) Analytics(ctx context.Context, handle string) (AnalyticsResponse, error) {
	var out AnalyticsResponse
	err := c.get(ctx, "/api/accounts/"+url.PathEscape(handle)+"/analytics", &out)
	return out, err
}

// Logs fetches recent activity entries, newest first.
func (c *Client) Logs(ctx context.Context, account string, limit int) ([]ActivityEntry, error) {
	values := url.Values{}
	if account != "" {
		values.Set("account", account)
	}
	if limit > 0 {
		values.Set("limit", strconv.Itoa(limit))
	}
	path := "/api/logs"
	if encoded := values.Encode(); encoded != "" {
		path += "?" + encoded
	}
	var out LogsResponse
	if err := c.get(ctx, path, &out); err != nil {
		return nil, err
	}
	return out.Entries, nil
}

// QueueList fetches queue items, optionally filtered by account.
func (c *Client) QueueList(ctx context.Context, account string) ([]QueueItem, error) {
	path := "/api/queue"
	if account != "" {
		path += "?account=" + url.QueryEscape(account)
	}
	var out QueueListResponse
	if err := c.get(ctx, path, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

// QueueAdd creates a pending queue item.
func (c *Client) QueueAdd(ctx context.Context, req EnqueueRequest) (QueueItem, error) {
	var out QueueItemResponse
	if err := c.post(ctx, "/api/queue", req, &out); err != nil {
		return QueueItem{}, err
	}
	return out.Item, nil
}

// QueueSetStatus transitions a queue item to posted or cancelled.
func (c *Client) QueueSetStatus(ctx context.Context, id int64, status string) (QueueItem, error) {
	var out QueueItemResponse
	path := fmt.Sprintf("/api/queue/%d/status", id)
	if err := c.post(ctx, path, QueueStatusRequest{Status: status}, &out); err != nil {
		return QueueItem{}, err
	}
	return out.Item, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, body, out)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("call daemon: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		var payload struct {
			Error string `json:"error"`
		}
		message := strings.TrimSpace(string(raw))
		if err := json.Unmarshal(raw, &payload); err == nil && payload.Error != "" {
			message = payload.Error
		}
		if message == "" {
			return fmt.Errorf("daemon returned %d", resp.StatusCode)
		}
		return fmt.Errorf("daemon returned %d: %s", resp.StatusCode, message)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
