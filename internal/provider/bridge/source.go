package bridge

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"reelay/internal/provider"
)

// Source implements provider.Source over the sidecar's scrape endpoints.
type Source struct {
	client *Client
}

// NewSource wraps a bridge client as a provider.Source.
func NewSource(client *Client) *Source {
	return &Source{client: client}
}

func (s *Source) ListRecent(ctx context.Context, handle string, max int, window time.Duration) ([]provider.ItemSummary, error) {
	days := int(window.Hours() / 24)
	if days < 1 {
		days = 1
	}
	endpoint := fmt.Sprintf("%s/api/profiles/%s/items?max=%d&days=%d",
		s.client.baseURL, url.PathEscape(handle), max, days)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build list request: %w", err)
	}
	resp, err := s.client.do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusNotFound {
		resp.Body.Close()
		return nil, fmt.Errorf("%w: %s", provider.ErrProfileNotFound, handle)
	}
	var payload struct {
		Items []provider.ItemSummary `json:"items"`
	}
	if err := decodeJSON(resp, &payload); err != nil {
		return nil, err
	}
	return payload.Items, nil
}

func (s *Source) GetItem(ctx context.Context, shortcode string) (provider.Item, error) {
	endpoint := s.client.baseURL + "/api/items/" + url.PathEscape(shortcode)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return provider.Item{}, fmt.Errorf("build item request: %w", err)
	}
	resp, err := s.client.do(req)
	if err != nil {
		return provider.Item{}, err
	}
	if resp.StatusCode == http.StatusNotFound {
		resp.Body.Close()
		return provider.Item{}, fmt.Errorf("%w: %s", provider.ErrItemNotFound, shortcode)
	}
	var item provider.Item
	if err := decodeJSON(resp, &item); err != nil {
		return provider.Item{}, err
	}
	item.Shortcode = shortcode
	return item, nil
}

func (s *Source) Download(ctx context.Context, item provider.Item, destDir string) (provider.DownloadedMedia, error) {
	if item.MediaURL == "" {
		return provider.DownloadedMedia{}, fmt.Errorf("%w: %s has no media url", provider.ErrItemNotFound, item.Shortcode)
	}
	videoPath := filepath.Join(destDir, item.Shortcode+".mp4")
	if err := s.fetchFile(ctx, item.MediaURL, videoPath); err != nil {
		return provider.DownloadedMedia{}, fmt.Errorf("download video %s: %w", item.Shortcode, err)
	}
	media := provider.DownloadedMedia{VideoPath: videoPath}
	if item.ThumbnailURL != "" {
		thumbPath := filepath.Join(destDir, item.Shortcode+".jpg")
		if err := s.fetchFile(ctx, item.ThumbnailURL, thumbPath); err != nil {
			return provider.DownloadedMedia{}, fmt.Errorf("download thumbnail %s: %w", item.Shortcode, err)
		}
		media.ThumbnailPath = thumbPath
	}
	return media, nil
}

func (s *Source) fetchFile(ctx context.Context, rawURL, destPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("build download request: %w", err)
	}
	resp, err := s.client.do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return responseError(resp)
	}

	dest, err := os.OpenFile(destPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("create destination: %w", err)
	}
	if _, err := io.Copy(dest, resp.Body); err != nil {
		dest.Close()
		os.Remove(destPath)
		return fmt.Errorf("write media: %w", err)
	}
	if err := dest.Close(); err != nil {
		return fmt.Errorf("close destination: %w", err)
	}
	return nil
}
