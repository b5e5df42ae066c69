package provider

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors adapters must return for missing remote resources. The
// retry layer treats both as permanent.
var (
	ErrProfileNotFound = errors.New("provider: profile not found")
	ErrItemNotFound    = errors.New("provider: item not found")
)

// ItemSummary is the listing-level view of a remote item.
type ItemSummary struct {
	Shortcode   string    `json:"shortcode"`
	Owner       string    `json:"owner"`
	Caption     string    `json:"caption"`
	PublishedAt time.Time `json:"published_at"`
	IsVideo     bool      `json:"is_video"`
}

// Item carries the media locations needed to download a single item.
type Item struct {
	ItemSummary
	MediaURL     string `json:"media_url"`
	ThumbnailURL string `json:"thumbnail_url"`
}

// DownloadedMedia points at the files Download wrote into the run workspace.
// ThumbnailPath is empty when the item has no thumbnail.
type DownloadedMedia struct {
	VideoPath     string
	ThumbnailPath string
}

// UploadResult identifies a published item on the platform.
type UploadResult struct {
	RemoteID string `json:"remote_id"`
}

// Metrics holds the engagement counters reported for a published item.
type Metrics struct {
	Views    int64 `json:"views"`
	Likes    int64 `json:"likes"`
	Comments int64 `json:"comments"`
	Shares   int64 `json:"shares"`
}

// Source lists and fetches items from a profile on the platform.
type Source interface {
	// ListRecent returns video items published by handle within the given
	// window, at most max entries. Returns ErrProfileNotFound when the
	// handle does not exist.
	ListRecent(ctx context.Context, handle string, max int, window time.Duration) ([]ItemSummary, error)

	// GetItem resolves a shortcode to its media locations. Returns
	// ErrItemNotFound when the item no longer exists.
	GetItem(ctx context.Context, shortcode string) (Item, error)

	// Download fetches the item's media into destDir.
	Download(ctx context.Context, item Item, destDir string) (DownloadedMedia, error)
}

// Publisher uploads media to an account and reads back its metrics.
type Publisher interface {
	Upload(ctx context.Context, mediaPath, caption, thumbnailPath string) (UploadResult, error)
	GetMetrics(ctx context.Context, remoteID string) (Metrics, error)
}
