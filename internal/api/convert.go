package api

import (
	"reelay/internal/scheduler"
	"reelay/internal/store"
	"reelay/internal/textutil"
)

// FromSchedulerStatus converts the scheduler snapshot into wire form.
func FromSchedulerStatus(status scheduler.Status) SchedulerStatus {
	out := SchedulerStatus{
		Running:             status.Running,
		TickIntervalSeconds: int(status.TickInterval.Seconds()),
	}
	if !status.StartedAt.IsZero() {
		started := status.StartedAt
		out.StartedAt = &started
	}
	for _, account := range status.Accounts {
		out.Accounts = append(out.Accounts, AccountStatus{
			Handle:                   account.Handle,
			DisplayName:              textutil.DisplayName(account.Handle),
			Due:                      account.Due,
			CooldownRemainingSeconds: int(account.CooldownRemaining.Seconds()),
			LastOutcome:              account.LastOutcome,
			LastRunID:                account.LastRunID,
			LastShortcode:            account.LastShortcode,
			LastError:                account.LastError,
		})
	}
	return out
}

// FromAvailableItem converts a store row into wire form.
func FromAvailableItem(item store.AvailableItem) AvailableItem {
	return AvailableItem{
		Shortcode:   item.Shortcode,
		Owner:       item.Owner,
		Caption:     item.Caption,
		PublishedAt: item.PublishedAt,
		FetchedAt:   item.FetchedAt,
	}
}

// FromPostedItem converts a store row into wire form.
func FromPostedItem(item store.PostedItem) PostedItem {
	return PostedItem{
		Shortcode: item.Shortcode,
		Caption:   item.Caption,
		RemoteID:  item.RemoteID,
		PostedAt:  item.PostedAt,
		Views:     item.Analytics.Views,
		Likes:     item.Analytics.Likes,
		Comments:  item.Analytics.Comments,
		Shares:    item.Analytics.Shares,
		UpdatedAt: item.UpdatedAt,
	}
}

// FromActivityEntry converts a store row into wire form.
func FromActivityEntry(entry store.ActivityEntry) ActivityEntry {
	return ActivityEntry{
		ID:         entry.ID,
		CreatedAt:  entry.CreatedAt,
		Level:      entry.Level,
		Message:    entry.Message,
		Account:    entry.Account,
		ActionType: entry.ActionType,
	}
}

// FromQueueItem converts a store row into wire form.
func FromQueueItem(item store.QueueItem) QueueItem {
	return QueueItem{
		ID:          item.ID,
		Account:     item.Account,
		Shortcode:   item.Shortcode,
		ScheduledAt: item.ScheduledAt,
		Status:      string(item.Status),
		CreatedAt:   item.CreatedAt,
		UpdatedAt:   item.UpdatedAt,
	}
}

// FromAlert converts a store row into wire form.
func FromAlert(alert store.Alert) Alert {
	return Alert{
		ID:        alert.ID,
		User:      alert.User,
		Condition: alert.Condition,
		Message:   alert.Message,
		Enabled:   alert.Enabled,
		CreatedAt: alert.CreatedAt,
	}
}

// FromAccountAnalytics converts the aggregate into wire form.
func FromAccountAnalytics(summary store.AccountAnalytics) AnalyticsResponse {
	return AnalyticsResponse{
		Account:        summary.Account,
		TotalPosts:     summary.TotalPosts,
		Views:          summary.Views,
		Likes:          summary.Likes,
		Comments:       summary.Comments,
		Shares:         summary.Shares,
		EngagementRate: summary.EngagementRate(),
	}
}
