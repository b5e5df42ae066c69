package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"reelay/internal/provider"
)

// Publisher implements provider.Publisher for one configured account. The
// sidecar holds the account session; we pass the handle and session file on
// every upload so it can resume or re-authenticate as needed.
type Publisher struct {
	client      *Client
	handle      string
	sessionFile string
}

// NewPublisher wraps a bridge client as a provider.Publisher bound to the
// given account.
func NewPublisher(client *Client, handle, sessionFile string) *Publisher {
	return &Publisher{
		client:      client,
		handle:      strings.TrimSpace(handle),
		sessionFile: strings.TrimSpace(sessionFile),
	}
}

type uploadRequest struct {
	Handle        string `json:"handle"`
	SessionFile   string `json:"session_file,omitempty"`
	MediaPath     string `json:"media_path"`
	Caption       string `json:"caption"`
	ThumbnailPath string `json:"thumbnail_path,omitempty"`
}

func (p *Publisher) Upload(ctx context.Context, mediaPath, caption, thumbnailPath string) (provider.UploadResult, error) {
	body, err := json.Marshal(uploadRequest{
		Handle:        p.handle,
		SessionFile:   p.sessionFile,
		MediaPath:     mediaPath,
		Caption:       caption,
		ThumbnailPath: thumbnailPath,
	})
	if err != nil {
		return provider.UploadResult{}, fmt.Errorf("encode upload request: %w", err)
	}
	endpoint := p.client.baseURL + "/api/uploads"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return provider.UploadResult{}, fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.do(req)
	if err != nil {
		return provider.UploadResult{}, err
	}
	if resp.StatusCode == http.StatusNotFound {
		resp.Body.Close()
		return provider.UploadResult{}, fmt.Errorf("%w: %s", provider.ErrProfileNotFound, p.handle)
	}
	var result provider.UploadResult
	if err := decodeJSON(resp, &result); err != nil {
		return provider.UploadResult{}, err
	}
	if result.RemoteID == "" {
		return provider.UploadResult{}, fmt.Errorf("sidecar upload returned no remote id")
	}
	return result, nil
}

func (p *Publisher) GetMetrics(ctx context.Context, remoteID string) (provider.Metrics, error) {
	endpoint := p.client.baseURL + "/api/posts/" + url.PathEscape(remoteID) + "/metrics"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return provider.Metrics{}, fmt.Errorf("build metrics request: %w", err)
	}
	resp, err := p.client.do(req)
	if err != nil {
		return provider.Metrics{}, err
	}
	if resp.StatusCode == http.StatusNotFound {
		resp.Body.Close()
		return provider.Metrics{}, fmt.Errorf("%w: %s", provider.ErrItemNotFound, remoteID)
	}
	var metrics provider.Metrics
	if err := decodeJSON(resp, &metrics); err != nil {
		return provider.Metrics{}, err
	}
	return metrics, nil
}
