package store

import (
	"context"
	"fmt"
	"time"
)

// DefaultActivityLimit bounds activity log queries when the caller does not
// specify one.
const DefaultActivityLimit = 50

// AppendActivity writes one audit trail entry. Entries are append-only; the
// core never mutates or trims them.
func (s *Store) AppendActivity(ctx context.Context, entry ActivityEntry) error {
	ctx = ensureContext(ctx)
	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	level := entry.Level
	if level == "" {
		level = LevelInfo
	}
	if _, err := s.execWithRetry(
		ctx,
		`INSERT INTO activity_log (created_at, level, message, account, action_type)
         VALUES (?, ?, ?, ?, ?)`,
		formatTime(createdAt),
		level,
		entry.Message,
		entry.Account,
		entry.ActionType,
	); err != nil {
		return fmt.Errorf("append activity: %w", err)
	}
	return nil
}

// RecentActivity returns activity entries newest first, optionally filtered by
// account, bounded by limit.
func (s *Store) RecentActivity(ctx context.Context, account string, limit int) ([]ActivityEntry, error) {
	ctx = ensureContext(ctx)
	if limit <= 0 {
		limit = DefaultActivityLimit
	}

	query := `SELECT id, created_at, level, message, account, action_type FROM activity_log`
	args := []any{}
	if account != "" {
		query += ` WHERE account = ?`
		args = append(args, account)
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query activity log: %w", err)
	}
	defer rows.Close()

	var entries []ActivityEntry
	for rows.Next() {
		var (
			entry      ActivityEntry
			createdRaw string
		)
		if err := rows.Scan(&entry.ID, &createdRaw, &entry.Level, &entry.Message, &entry.Account, &entry.ActionType); err != nil {
			return nil, fmt.Errorf("scan activity entry: %w", err)
		}
		if created, err := parseTimeString(createdRaw); err == nil {
			entry.CreatedAt = created
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
