package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// LastPostTime returns the timestamp of the account's last recorded cycle, or
// nil when the account has never reached the record step.
func (s *Store) LastPostTime(ctx context.Context, account string) (*time.Time, error) {
	ctx = ensureContext(ctx)
	var raw string
	err := s.db.QueryRowContext(
		ctx,
		`SELECT last_post_at FROM account_status WHERE account = ?`,
		account,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get last post time: %w", err)
	}
	parsed, err := parseTimeString(raw)
	if err != nil {
		return nil, fmt.Errorf("parse last post time %q: %w", raw, err)
	}
	return &parsed, nil
}

// SetLastPostTime upserts the account's last-post timestamp.
func (s *Store) SetLastPostTime(ctx context.Context, account string, at time.Time) error {
	ctx = ensureContext(ctx)
	if _, err := s.execWithRetry(
		ctx,
		`INSERT INTO account_status (account, last_post_at) VALUES (?, ?)
         ON CONFLICT(account) DO UPDATE SET last_post_at = excluded.last_post_at`,
		account,
		formatTime(at.UTC()),
	); err != nil {
		return fmt.Errorf("set last post time: %w", err)
	}
	return nil
}
