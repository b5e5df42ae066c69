package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// InsertAvailable records scraped candidate items. The insert is idempotent:
// rows already present for the same (account, shortcode) pair are left
// untouched, so re-fetching a source never duplicates candidates.
func (s *Store) InsertAvailable(ctx context.Context, items ...AvailableItem) (int64, error) {
	if len(items) == 0 {
		return 0, nil
	}
	ctx = ensureContext(ctx)
	now := time.Now().UTC()

	var inserted int64
	for _, item := range items {
		fetchedAt := item.FetchedAt
		if fetchedAt.IsZero() {
			fetchedAt = now
		}
		res, err := s.execWithRetry(
			ctx,
			`INSERT OR IGNORE INTO available_items (
                account, shortcode, owner, caption, published_at, fetched_at
            ) VALUES (?, ?, ?, ?, ?, ?)`,
			item.Account,
			item.Shortcode,
			item.Owner,
			item.Caption,
			nullableTime(item.PublishedAt),
			formatTime(fetchedAt),
		)
		if err != nil {
			return inserted, fmt.Errorf("insert available item %s/%s: %w", item.Account, item.Shortcode, err)
		}
		count, err := res.RowsAffected()
		if err != nil {
			return inserted, fmt.Errorf("rows affected: %w", err)
		}
		inserted += count
	}
	return inserted, nil
}

// ListAvailable returns the scraped items for one account, newest first.
func (s *Store) ListAvailable(ctx context.Context, account string) ([]AvailableItem, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, account, shortcode, owner, caption, published_at, fetched_at
         FROM available_items WHERE account = ? ORDER BY fetched_at DESC, id DESC`,
		account,
	)
	if err != nil {
		return nil, fmt.Errorf("list available items: %w", err)
	}
	defer rows.Close()

	var items []AvailableItem
	for rows.Next() {
		item, err := scanAvailable(rows)
		if err != nil {
			return nil, fmt.Errorf("scan available item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// CandidateShortcodes computes the candidate set for an account: available
// shortcodes minus posted shortcodes. Both sides are scoped by the account
// column, so concurrent runs for other accounts cannot perturb the result.
func (s *Store) CandidateShortcodes(ctx context.Context, account string) ([]string, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT shortcode FROM available_items WHERE account = ?
         EXCEPT
         SELECT shortcode FROM posted_items WHERE account = ?
         ORDER BY shortcode`,
		account,
		account,
	)
	if err != nil {
		return nil, fmt.Errorf("query candidate set: %w", err)
	}
	defer rows.Close()

	var shortcodes []string
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, fmt.Errorf("scan candidate: %w", err)
		}
		shortcodes = append(shortcodes, code)
	}
	return shortcodes, rows.Err()
}

// GetAvailable fetches one scraped item by account and shortcode.
func (s *Store) GetAvailable(ctx context.Context, account, shortcode string) (*AvailableItem, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(
		ctx,
		`SELECT id, account, shortcode, owner, caption, published_at, fetched_at
         FROM available_items WHERE account = ? AND shortcode = ?`,
		account,
		shortcode,
	)
	item, err := scanAvailable(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get available item: %w", err)
	}
	return &item, nil
}

func scanAvailable(scanner interface{ Scan(dest ...any) error }) (AvailableItem, error) {
	var (
		item         AvailableItem
		publishedRaw sql.NullString
		fetchedRaw   string
	)
	if err := scanner.Scan(
		&item.ID,
		&item.Account,
		&item.Shortcode,
		&item.Owner,
		&item.Caption,
		&publishedRaw,
		&fetchedRaw,
	); err != nil {
		return AvailableItem{}, err
	}
	if publishedRaw.Valid {
		if published, err := parseTimeString(publishedRaw.String); err == nil {
			item.PublishedAt = published
		}
	}
	if fetched, err := parseTimeString(fetchedRaw); err == nil {
		item.FetchedAt = fetched
	}
	return item, nil
}
