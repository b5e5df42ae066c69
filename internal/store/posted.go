package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrAlreadyPosted indicates a shortcode was already recorded for an account.
var ErrAlreadyPosted = errors.New("shortcode already posted for account")

// InsertPosted records a successful republish. This is the moment the
// shortcode leaves the account's candidate set; a second insert for the same
// (account, shortcode) pair fails with ErrAlreadyPosted.
func (s *Store) InsertPosted(ctx context.Context, item PostedItem) (*PostedItem, error) {
	ctx = ensureContext(ctx)
	now := time.Now().UTC()
	postedAt := item.PostedAt
	if postedAt.IsZero() {
		postedAt = now
	}

	res, err := s.execWithRetry(
		ctx,
		`INSERT OR IGNORE INTO posted_items (
            account, shortcode, caption, remote_id, posted_at,
            views, likes, comments, shares, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.Account,
		item.Shortcode,
		item.Caption,
		item.RemoteID,
		formatTime(postedAt),
		item.Analytics.Views,
		item.Analytics.Likes,
		item.Analytics.Comments,
		item.Analytics.Shares,
		formatTime(now),
	)
	if err != nil {
		return nil, fmt.Errorf("insert posted item %s/%s: %w", item.Account, item.Shortcode, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return nil, fmt.Errorf("%w: %s/%s", ErrAlreadyPosted, item.Account, item.Shortcode)
	}
	return s.GetPosted(ctx, item.Account, item.Shortcode)
}

// UpdateAnalytics refreshes the engagement metrics on a posted item.
func (s *Store) UpdateAnalytics(ctx context.Context, account, shortcode string, analytics Analytics) error {
	ctx = ensureContext(ctx)
	res, err := s.execWithRetry(
		ctx,
		`UPDATE posted_items
         SET views = ?, likes = ?, comments = ?, shares = ?, updated_at = ?
         WHERE account = ? AND shortcode = ?`,
		analytics.Views,
		analytics.Likes,
		analytics.Comments,
		analytics.Shares,
		formatTime(time.Now().UTC()),
		account,
		shortcode,
	)
	if err != nil {
		return fmt.Errorf("update analytics %s/%s: %w", account, shortcode, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("update analytics: no posted item %s/%s", account, shortcode)
	}
	return nil
}

// GetPosted fetches a posted item by account and shortcode.
func (s *Store) GetPosted(ctx context.Context, account, shortcode string) (*PostedItem, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+postedColumns+` FROM posted_items WHERE account = ? AND shortcode = ?`,
		account,
		shortcode,
	)
	item, err := scanPosted(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get posted item: %w", err)
	}
	return &item, nil
}

// ListPosted returns an account's posted items, newest first.
func (s *Store) ListPosted(ctx context.Context, account string) ([]PostedItem, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+postedColumns+` FROM posted_items WHERE account = ? ORDER BY posted_at DESC, id DESC`,
		account,
	)
	if err != nil {
		return nil, fmt.Errorf("list posted items: %w", err)
	}
	defer rows.Close()

	var items []PostedItem
	for rows.Next() {
		item, err := scanPosted(rows)
		if err != nil {
			return nil, fmt.Errorf("scan posted item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// AccountAnalytics aggregates engagement totals across an account's posted items.
func (s *Store) AccountAnalytics(ctx context.Context, account string) (AccountAnalytics, error) {
	ctx = ensureContext(ctx)
	summary := AccountAnalytics{Account: account}
	err := s.db.QueryRowContext(
		ctx,
		`SELECT COUNT(1),
                COALESCE(SUM(views), 0),
                COALESCE(SUM(likes), 0),
                COALESCE(SUM(comments), 0),
                COALESCE(SUM(shares), 0)
         FROM posted_items WHERE account = ?`,
		account,
	).Scan(&summary.TotalPosts, &summary.Views, &summary.Likes, &summary.Comments, &summary.Shares)
	if err != nil {
		return AccountAnalytics{}, fmt.Errorf("aggregate analytics: %w", err)
	}
	return summary, nil
}

const postedColumns = "id, account, shortcode, caption, remote_id, posted_at, views, likes, comments, shares, updated_at"

func scanPosted(scanner interface{ Scan(dest ...any) error }) (PostedItem, error) {
	var (
		item       PostedItem
		postedRaw  string
		updatedRaw string
	)
	if err := scanner.Scan(
		&item.ID,
		&item.Account,
		&item.Shortcode,
		&item.Caption,
		&item.RemoteID,
		&postedRaw,
		&item.Analytics.Views,
		&item.Analytics.Likes,
		&item.Analytics.Comments,
		&item.Analytics.Shares,
		&updatedRaw,
	); err != nil {
		return PostedItem{}, err
	}
	if posted, err := parseTimeString(postedRaw); err == nil {
		item.PostedAt = posted
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		item.UpdatedAt = updated
	}
	return item, nil
}
