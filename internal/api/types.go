package api

import "time"

// DaemonStatus is the payload for GET /api/status.
type DaemonStatus struct {
	Running      bool            `json:"running"`
	PID          int             `json:"pid"`
	DatabasePath string          `json:"database_path"`
	LockFilePath string          `json:"lock_file_path"`
	Scheduler    SchedulerStatus `json:"scheduler"`
}

// SchedulerStatus summarizes the scheduling loop.
type SchedulerStatus struct {
	Running             bool            `json:"running"`
	StartedAt           *time.Time      `json:"started_at,omitempty"`
	TickIntervalSeconds int             `json:"tick_interval_seconds"`
	Accounts            []AccountStatus `json:"accounts"`
}

// AccountStatus is one account's scheduling state.
type AccountStatus struct {
	Handle                   string     `json:"handle"`
	DisplayName              string     `json:"display_name"`
	Due                      bool       `json:"due"`
	CooldownRemainingSeconds int        `json:"cooldown_remaining_seconds"`
	LastPostAt               *time.Time `json:"last_post_at,omitempty"`
	LastOutcome              string     `json:"last_outcome,omitempty"`
	LastRunID                string     `json:"last_run_id,omitempty"`
	LastShortcode            string     `json:"last_shortcode,omitempty"`
	LastError                string     `json:"last_error,omitempty"`
}

// AccountsResponse is the payload for GET /api/accounts.
type AccountsResponse struct {
	Accounts []AccountStatus `json:"accounts"`
}

// AvailableItem is a fetched, not-necessarily-posted item.
type AvailableItem struct {
	Shortcode   string    `json:"shortcode"`
	Owner       string    `json:"owner"`
	Caption     string    `json:"caption,omitempty"`
	PublishedAt time.Time `json:"published_at"`
	FetchedAt   time.Time `json:"fetched_at"`
}

// PostedItem is a recorded repost with its latest analytics.
type PostedItem struct {
	Shortcode string    `json:"shortcode"`
	Caption   string    `json:"caption,omitempty"`
	RemoteID  string    `json:"remote_id"`
	PostedAt  time.Time `json:"posted_at"`
	Views     int64     `json:"views"`
	Likes     int64     `json:"likes"`
	Comments  int64     `json:"comments"`
	Shares    int64     `json:"shares"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AccountItemsResponse is the payload for GET /api/accounts/{handle}/items.
type AccountItemsResponse struct {
	Account   string          `json:"account"`
	Posted    []PostedItem    `json:"posted"`
	Available []AvailableItem `json:"available"`
}

// AnalyticsResponse is the payload for GET /api/accounts/{handle}/analytics.
type AnalyticsResponse struct {
	Account        string  `json:"account"`
	TotalPosts     int64   `json:"total_posts"`
	Views          int64   `json:"views"`
	Likes          int64   `json:"likes"`
	Comments       int64   `json:"comments"`
	Shares         int64   `json:"shares"`
	EngagementRate float64 `json:"engagement_rate"`
}

// ActivityEntry is one audit trail record.
type ActivityEntry struct {
	ID         int64     `json:"id"`
	CreatedAt  time.Time `json:"created_at"`
	Level      string    `json:"level"`
	Message    string    `json:"message"`
	Account    string    `json:"account,omitempty"`
	ActionType string    `json:"action_type,omitempty"`
}

// LogsResponse is the payload for GET /api/logs.
type LogsResponse struct {
	Entries []ActivityEntry `json:"entries"`
}

// QueueItem is a manually scheduled repost request.
type QueueItem struct {
	ID          int64     `json:"id"`
	Account     string    `json:"account"`
	Shortcode   string    `json:"shortcode"`
	ScheduledAt time.Time `json:"scheduled_at"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// QueueListResponse is the payload for GET /api/queue.
type QueueListResponse struct {
	Items []QueueItem `json:"items"`
}

// QueueItemResponse wraps a single queue item.
type QueueItemResponse struct {
	Item QueueItem `json:"item"`
}

// EnqueueRequest is the body for POST /api/queue.
type EnqueueRequest struct {
	Account     string     `json:"account"`
	Shortcode   string     `json:"shortcode"`
	ScheduledAt *time.Time `json:"scheduled_at,omitempty"`
}

// QueueStatusRequest is the body for POST /api/queue/{id}/status.
type QueueStatusRequest struct {
	Status string `json:"status"`
}

// Alert is a dashboard notification rule.
type Alert struct {
	ID        int64     `json:"id"`
	User      string    `json:"user,omitempty"`
	Condition string    `json:"condition"`
	Message   string    `json:"message,omitempty"`
	Enabled   bool      `json:"enabled"`
	CreatedAt time.Time `json:"created_at"`
}

// AlertsResponse is the payload for GET /api/alerts.
type AlertsResponse struct {
	Alerts []Alert `json:"alerts"`
}

// CreateAlertRequest is the body for POST /api/alerts.
type CreateAlertRequest struct {
	User      string `json:"user,omitempty"`
	Condition string `json:"condition"`
	Message   string `json:"message,omitempty"`
	Enabled   bool   `json:"enabled"`
}

// AlertEnabledRequest is the body for POST /api/alerts/{id}/enabled.
type AlertEnabledRequest struct {
	Enabled bool `json:"enabled"`
}
