package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrQueueTransition indicates an attempt to move a queue item out of a
// terminal status.
var ErrQueueTransition = errors.New("invalid queue status transition")

// Enqueue creates a pending queue item for manual scheduling.
func (s *Store) Enqueue(ctx context.Context, account, shortcode string, scheduledAt time.Time) (*QueueItem, error) {
	ctx = ensureContext(ctx)
	if account == "" || shortcode == "" {
		return nil, errors.New("enqueue requires account and shortcode")
	}
	now := time.Now().UTC()
	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO queue_items (account, shortcode, scheduled_at, status, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?)`,
		account,
		shortcode,
		formatTime(scheduledAt.UTC()),
		QueuePending,
		formatTime(now),
		formatTime(now),
	)
	if err != nil {
		return nil, fmt.Errorf("enqueue %s/%s: %w", account, shortcode, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetQueueItem(ctx, id)
}

// GetQueueItem fetches a queue item by identifier.
func (s *Store) GetQueueItem(ctx context.Context, id int64) (*QueueItem, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx, `SELECT `+queueColumns+` FROM queue_items WHERE id = ?`, id)
	item, err := scanQueueItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get queue item: %w", err)
	}
	return &item, nil
}

// ListQueue returns queue items, optionally filtered by account, newest first.
func (s *Store) ListQueue(ctx context.Context, account string) ([]QueueItem, error) {
	ctx = ensureContext(ctx)

	query := `SELECT ` + queueColumns + ` FROM queue_items`
	args := []any{}
	if account != "" {
		query += ` WHERE account = ?`
		args = append(args, account)
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list queue items: %w", err)
	}
	defer rows.Close()

	var items []QueueItem
	for rows.Next() {
		item, err := scanQueueItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan queue item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// SetQueueStatus transitions a queue item. Only pending items may move, and
// only into a terminal status.
func (s *Store) SetQueueStatus(ctx context.Context, id int64, status QueueStatus) (*QueueItem, error) {
	ctx = ensureContext(ctx)
	if !status.IsTerminal() {
		return nil, fmt.Errorf("%w: target %q is not terminal", ErrQueueTransition, status)
	}

	item, err := s.GetQueueItem(ctx, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, nil
	}
	if item.Status != QueuePending {
		return nil, fmt.Errorf("%w: item %d is %s", ErrQueueTransition, id, item.Status)
	}

	if _, err := s.execWithRetry(
		ctx,
		`UPDATE queue_items SET status = ?, updated_at = ? WHERE id = ? AND status = ?`,
		status,
		formatTime(time.Now().UTC()),
		id,
		QueuePending,
	); err != nil {
		return nil, fmt.Errorf("update queue status: %w", err)
	}
	return s.GetQueueItem(ctx, id)
}

const queueColumns = "id, account, shortcode, scheduled_at, status, created_at, updated_at"

func scanQueueItem(scanner interface{ Scan(dest ...any) error }) (QueueItem, error) {
	var (
		item         QueueItem
		statusRaw    string
		scheduledRaw string
		createdRaw   string
		updatedRaw   string
	)
	if err := scanner.Scan(
		&item.ID,
		&item.Account,
		&item.Shortcode,
		&scheduledRaw,
		&statusRaw,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return QueueItem{}, err
	}
	item.Status = QueueStatus(statusRaw)
	if scheduled, err := parseTimeString(scheduledRaw); err == nil {
		item.ScheduledAt = scheduled
	}
	if created, err := parseTimeString(createdRaw); err == nil {
		item.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		item.UpdatedAt = updated
	}
	return item, nil
}
