package bridge

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"reelay/internal/config"
)

const userAgent = "Reelay-Go/0.1.0"

// HTTPDoer describes the HTTP client used by the bridge.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client is the shared HTTP plumbing for the source and publisher adapters.
type Client struct {
	baseURL string
	client  HTTPDoer
}

// NewClient builds a bridge client from the provider config section.
func NewClient(cfg *config.Config) *Client {
	if cfg == nil {
		return &Client{client: http.DefaultClient}
	}
	timeout := time.Duration(cfg.Provider.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(cfg.Provider.BaseURL), "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// NewClientWithDoer builds a bridge client around an explicit HTTP doer.
// Tests use this to point at an httptest server.
func NewClientWithDoer(baseURL string, doer HTTPDoer) *Client {
	if doer == nil {
		doer = http.DefaultClient
	}
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		client:  doer,
	}
}

func (c *Client) do(req *http.Request) (*http.Response, error) {
	req.Header.Set("User-Agent", userAgent)
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call sidecar: %w", err)
	}
	return resp, nil
}

// decodeJSON reads a 2xx response body into out and closes it. Non-2xx
// responses become errors carrying the sidecar's error body.
func decodeJSON(resp *http.Response, out any) error {
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return responseError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode sidecar response: %w", err)
	}
	return nil
}

// responseError surfaces the sidecar's {"error": ...} body when present,
// falling back to the raw text.
func responseError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	var payload struct {
		Error string `json:"error"`
	}
	message := strings.TrimSpace(string(body))
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error != "" {
		message = payload.Error
	}
	if message == "" {
		return fmt.Errorf("sidecar returned %d", resp.StatusCode)
	}
	return fmt.Errorf("sidecar returned %d: %s", resp.StatusCode, message)
}
