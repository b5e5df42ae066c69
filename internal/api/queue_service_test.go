package api_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"reelay/internal/api"
	"reelay/internal/store"
	"reelay/internal/testsupport"
)

func TestEnqueueValidatesInput(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	svc := api.NewQueueService(st)
	ctx := context.Background()

	if _, err := svc.Enqueue(ctx, api.EnqueueRequest{Shortcode: "abc"}); !errors.Is(err, api.ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest for missing account, got %v", err)
	}
	if _, err := svc.Enqueue(ctx, api.EnqueueRequest{Account: "mainacct"}); !errors.Is(err, api.ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest for missing shortcode, got %v", err)
	}
}

func TestEnqueueDefaultsScheduleToNow(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	svc := api.NewQueueService(st)

	before := time.Now().UTC().Add(-time.Second)
	item, err := svc.Enqueue(context.Background(), api.EnqueueRequest{Account: "MainAcct", Shortcode: "abc"})
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if item.Account != "mainacct" {
		t.Fatalf("expected normalized account, got %q", item.Account)
	}
	if item.Status != string(store.QueuePending) {
		t.Fatalf("expected pending, got %q", item.Status)
	}
	if item.ScheduledAt.Before(before) {
		t.Fatalf("expected schedule defaulted to now, got %v", item.ScheduledAt)
	}
}

func TestSetStatusRejectsUnknownStatus(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	svc := api.NewQueueService(st)

	if _, err := svc.SetStatus(context.Background(), 1, "archived"); !errors.Is(err, api.ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}
}

func TestSetStatusUnknownItemReturnsNil(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	svc := api.NewQueueService(st)

	item, err := svc.SetStatus(context.Background(), 9999, "cancelled")
	if err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	if item != nil {
		t.Fatalf("expected nil item for unknown id, got %+v", item)
	}
}

func TestSetStatusSurfacesTransitionErrors(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	svc := api.NewQueueService(st)
	ctx := context.Background()

	item, err := svc.Enqueue(ctx, api.EnqueueRequest{Account: "mainacct", Shortcode: "abc"})
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if _, err := svc.SetStatus(ctx, item.ID, "cancelled"); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	if _, err := svc.SetStatus(ctx, item.ID, "posted"); !errors.Is(err, store.ErrQueueTransition) {
		t.Fatalf("expected ErrQueueTransition from terminal item, got %v", err)
	}
}

func TestListFiltersByAccount(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	svc := api.NewQueueService(st)
	ctx := context.Background()

	if _, err := svc.Enqueue(ctx, api.EnqueueRequest{Account: "alpha", Shortcode: "a"}); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if _, err := svc.Enqueue(ctx, api.EnqueueRequest{Account: "beta", Shortcode: "b"}); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	items, err := svc.List(ctx, "alpha")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 1 || items[0].Account != "alpha" {
		t.Fatalf("unexpected filtered list %#v", items)
	}
}

func TestAnalyticsServiceSummaryAndItems(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	svc := api.NewAnalyticsService(st)
	ctx := context.Background()

	testsupport.SeedAvailable(t, st, "mainacct", "aaa", "bbb")
	testsupport.SeedPosted(t, st, "mainacct", "aaa")
	if err := st.UpdateAnalytics(ctx, "mainacct", "aaa", store.Analytics{Views: 200, Likes: 16, Shares: 4}); err != nil {
		t.Fatalf("UpdateAnalytics: %v", err)
	}

	summary, err := svc.Summary(ctx, "mainacct")
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if summary.TotalPosts != 1 || summary.EngagementRate != 10.0 {
		t.Fatalf("unexpected summary %+v", summary)
	}

	items, err := svc.Items(ctx, "mainacct")
	if err != nil {
		t.Fatalf("Items: %v", err)
	}
	if len(items.Posted) != 1 || len(items.Available) != 2 {
		t.Fatalf("unexpected items posted=%d available=%d", len(items.Posted), len(items.Available))
	}
	if items.Posted[0].Views != 200 {
		t.Fatalf("expected analytics on posted item, got %+v", items.Posted[0])
	}
}
