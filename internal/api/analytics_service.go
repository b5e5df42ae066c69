package api

import (
	"context"
	"strings"

	"reelay/internal/store"
)

// AnalyticsService reads per-account engagement data for the dashboard.
type AnalyticsService struct {
	store *store.Store
}

// NewAnalyticsService constructs an AnalyticsService.
func NewAnalyticsService(st *store.Store) *AnalyticsService {
	return &AnalyticsService{store: st}
}

// Summary aggregates analytics across an account's posted items.
func (s *AnalyticsService) Summary(ctx context.Context, account string) (AnalyticsResponse, error) {
	summary, err := s.store.AccountAnalytics(ctx, strings.TrimSpace(account))
	if err != nil {
		return AnalyticsResponse{}, err
	}
	return FromAccountAnalytics(summary), nil
}

// Items returns an account's posted and available items.
func (s *AnalyticsService) Items(ctx context.Context, account string) (AccountItemsResponse, error) {
	account = strings.TrimSpace(account)
	out := AccountItemsResponse{Account: account}

	posted, err := s.store.ListPosted(ctx, account)
	if err != nil {
		return out, err
	}
	for _, item := range posted {
		out.Posted = append(out.Posted, FromPostedItem(item))
	}

	available, err := s.store.ListAvailable(ctx, account)
	if err != nil {
		return out, err
	}
	for _, item := range available {
		out.Available = append(out.Available, FromAvailableItem(item))
	}
	return out, nil
}

// Activity returns recent activity log entries, newest first.
func (s *AnalyticsService) Activity(ctx context.Context, account string, limit int) ([]ActivityEntry, error) {
	entries, err := s.store.RecentActivity(ctx, strings.TrimSpace(account), limit)
	if err != nil {
		return nil, err
	}
	out := make([]ActivityEntry, 0, len(entries))
	for _, entry := range entries {
		out = append(out, FromActivityEntry(entry))
	}
	return out, nil
}
