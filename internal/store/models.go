package store

import (
	"math"
	"strings"
	"time"
)

// AvailableItem is a scraped candidate video, keyed by (account, shortcode).
// Rows are written by the fetch step and never mutated.
type AvailableItem struct {
	ID          int64
	Account     string
	Shortcode   string
	Owner       string
	Caption     string
	PublishedAt time.Time
	FetchedAt   time.Time
}

// Analytics holds engagement metrics for a posted item.
type Analytics struct {
	Views    int64
	Likes    int64
	Comments int64
	Shares   int64
}

// PostedItem records one successful republish. Analytics are refreshed after
// the fact; rows are never deleted.
type PostedItem struct {
	ID        int64
	Account   string
	Shortcode string
	Caption   string
	RemoteID  string
	PostedAt  time.Time
	Analytics Analytics
	UpdatedAt time.Time
}

// QueueStatus represents the lifecycle of a manually scheduled queue item.
type QueueStatus string

const (
	QueuePending   QueueStatus = "pending"
	QueuePosted    QueueStatus = "posted"
	QueueCancelled QueueStatus = "cancelled"
)

var queueStatuses = map[QueueStatus]struct{}{
	QueuePending:   {},
	QueuePosted:    {},
	QueueCancelled: {},
}

// ParseQueueStatus converts a string into a known QueueStatus.
func ParseQueueStatus(value string) (QueueStatus, bool) {
	normalized := QueueStatus(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := queueStatuses[normalized]
	return normalized, ok
}

// IsTerminal reports whether a queue status admits no further transitions.
func (s QueueStatus) IsTerminal() bool {
	return s == QueuePosted || s == QueueCancelled
}

// QueueItem is a manually scheduled repost request created from the dashboard.
// Status is the only mutable field after creation.
type QueueItem struct {
	ID          int64
	Account     string
	Shortcode   string
	ScheduledAt time.Time
	Status      QueueStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ActivityEntry is one append-only audit trail record.
type ActivityEntry struct {
	ID         int64
	CreatedAt  time.Time
	Level      string
	Message    string
	Account    string
	ActionType string
}

// Activity log levels.
const (
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
)

// Alert is a dashboard-owned notification rule. The pipeline never consults
// alerts; they are stored here so the dashboard and daemon share one database.
type Alert struct {
	ID        int64
	User      string
	Condition string
	Message   string
	Enabled   bool
	CreatedAt time.Time
}

// AccountAnalytics aggregates engagement across an account's posted items.
type AccountAnalytics struct {
	Account    string
	TotalPosts int64
	Views      int64
	Likes      int64
	Comments   int64
	Shares     int64
}

// EngagementRate returns (likes+shares)/max(views,1)*100 rounded to two
// decimals.
func (a AccountAnalytics) EngagementRate() float64 {
	views := a.Views
	if views < 1 {
		views = 1
	}
	rate := float64(a.Likes+a.Shares) / float64(views) * 100
	return math.Round(rate*100) / 100
}
