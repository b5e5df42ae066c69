package testsupport

import (
	"context"
	"testing"
	"time"

	"reelay/internal/config"
	"reelay/internal/store"
)

// MustOpenStore opens a store.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	st, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		st.Close()
	})
	return st
}

// SeedAvailable inserts available items for an account using generated owner
// and caption fields.
func SeedAvailable(t testing.TB, st *store.Store, account string, shortcodes ...string) {
	t.Helper()

	items := make([]store.AvailableItem, 0, len(shortcodes))
	for _, code := range shortcodes {
		items = append(items, store.AvailableItem{
			Account:     account,
			Shortcode:   code,
			Owner:       "owner-" + code,
			Caption:     "caption " + code,
			PublishedAt: time.Now().UTC().Add(-time.Hour),
		})
	}
	if _, err := st.InsertAvailable(context.Background(), items...); err != nil {
		t.Fatalf("InsertAvailable: %v", err)
	}
}

// SeedPosted records posted items for an account.
func SeedPosted(t testing.TB, st *store.Store, account string, shortcodes ...string) {
	t.Helper()

	for _, code := range shortcodes {
		if _, err := st.InsertPosted(context.Background(), store.PostedItem{
			Account:   account,
			Shortcode: code,
			Caption:   "caption " + code,
			RemoteID:  "remote-" + code,
		}); err != nil {
			t.Fatalf("InsertPosted(%s): %v", code, err)
		}
	}
}
