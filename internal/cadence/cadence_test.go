package cadence_test

import (
	"context"
	"testing"
	"time"

	"reelay/internal/cadence"
	"reelay/internal/config"
	"reelay/internal/testsupport"
)

func TestNeverPostedAccountIsDue(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	ctrl := cadence.New(st, cfg)
	due, remaining, err := ctrl.IsDue(context.Background(), "mainacct")
	if err != nil {
		t.Fatalf("IsDue: %v", err)
	}
	if !due || remaining != 0 {
		t.Fatalf("expected fresh account due, got due=%v remaining=%v", due, remaining)
	}
}

func TestCooldownGatesUntilElapsed(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithCooldown(5*60*60))
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	current := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	ctrl := cadence.NewWithClock(st, cfg, func() time.Time { return current })

	if err := ctrl.MarkPosted(ctx, "mainacct"); err != nil {
		t.Fatalf("MarkPosted: %v", err)
	}

	current = current.Add(2 * time.Hour)
	due, remaining, err := ctrl.IsDue(ctx, "mainacct")
	if err != nil {
		t.Fatalf("IsDue: %v", err)
	}
	if due {
		t.Fatal("expected account still cooling down")
	}
	if remaining != 3*time.Hour {
		t.Fatalf("expected 3h remaining, got %v", remaining)
	}

	current = current.Add(3 * time.Hour)
	due, remaining, err = ctrl.IsDue(ctx, "mainacct")
	if err != nil {
		t.Fatalf("IsDue: %v", err)
	}
	if !due || remaining != 0 {
		t.Fatalf("expected due after cooldown, got due=%v remaining=%v", due, remaining)
	}
}

func TestMarkPostedAdvancesTimestamp(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	current := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	ctrl := cadence.NewWithClock(st, cfg, func() time.Time { return current })

	if err := ctrl.MarkPosted(ctx, "mainacct"); err != nil {
		t.Fatalf("MarkPosted: %v", err)
	}
	current = current.Add(time.Hour)
	if err := ctrl.MarkPosted(ctx, "mainacct"); err != nil {
		t.Fatalf("MarkPosted again: %v", err)
	}

	last, err := st.LastPostTime(ctx, "mainacct")
	if err != nil {
		t.Fatalf("LastPostTime: %v", err)
	}
	if last == nil || !last.Equal(current) {
		t.Fatalf("expected last post at %v, got %v", current, last)
	}
}

func TestAccountsTrackCadenceIndependently(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithAccounts(
		config.Account{Handle: "alpha", Sources: []string{"srcone"}},
		config.Account{Handle: "beta", Sources: []string{"srcone"}},
	))
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	current := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	ctrl := cadence.NewWithClock(st, cfg, func() time.Time { return current })

	if err := ctrl.MarkPosted(ctx, "alpha"); err != nil {
		t.Fatalf("MarkPosted(alpha): %v", err)
	}

	due, _, err := ctrl.IsDue(ctx, "beta")
	if err != nil {
		t.Fatalf("IsDue(beta): %v", err)
	}
	if !due {
		t.Fatal("beta never posted and must be due")
	}

	due, _, err = ctrl.IsDue(ctx, "alpha")
	if err != nil {
		t.Fatalf("IsDue(alpha): %v", err)
	}
	if due {
		t.Fatal("alpha just posted and must not be due")
	}
}
