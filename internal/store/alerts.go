package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// CreateAlert stores a dashboard alert rule.
func (s *Store) CreateAlert(ctx context.Context, alert Alert) (*Alert, error) {
	ctx = ensureContext(ctx)
	if alert.Condition == "" {
		return nil, errors.New("alert condition is required")
	}
	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO alerts (user, condition, message, enabled, created_at)
         VALUES (?, ?, ?, ?, ?)`,
		alert.User,
		alert.Condition,
		alert.Message,
		boolToInt(alert.Enabled),
		formatTime(time.Now().UTC()),
	)
	if err != nil {
		return nil, fmt.Errorf("insert alert: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetAlert(ctx, id)
}

// GetAlert fetches an alert by identifier.
func (s *Store) GetAlert(ctx context.Context, id int64) (*Alert, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(
		ctx,
		`SELECT id, user, condition, message, enabled, created_at FROM alerts WHERE id = ?`,
		id,
	)
	alert, err := scanAlert(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get alert: %w", err)
	}
	return &alert, nil
}

// ListAlerts returns all alert rules, newest first.
func (s *Store) ListAlerts(ctx context.Context) ([]Alert, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, user, condition, message, enabled, created_at FROM alerts ORDER BY id DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list alerts: %w", err)
	}
	defer rows.Close()

	var alerts []Alert
	for rows.Next() {
		alert, err := scanAlert(rows)
		if err != nil {
			return nil, fmt.Errorf("scan alert: %w", err)
		}
		alerts = append(alerts, alert)
	}
	return alerts, rows.Err()
}

// SetAlertEnabled toggles an alert rule.
func (s *Store) SetAlertEnabled(ctx context.Context, id int64, enabled bool) (*Alert, error) {
	ctx = ensureContext(ctx)
	if _, err := s.execWithRetry(
		ctx,
		`UPDATE alerts SET enabled = ? WHERE id = ?`,
		boolToInt(enabled),
		id,
	); err != nil {
		return nil, fmt.Errorf("update alert: %w", err)
	}
	return s.GetAlert(ctx, id)
}

func scanAlert(scanner interface{ Scan(dest ...any) error }) (Alert, error) {
	var (
		alert      Alert
		enabled    int
		createdRaw string
	)
	if err := scanner.Scan(&alert.ID, &alert.User, &alert.Condition, &alert.Message, &enabled, &createdRaw); err != nil {
		return Alert{}, err
	}
	alert.Enabled = enabled != 0
	if created, err := parseTimeString(createdRaw); err == nil {
		alert.CreatedAt = created
	}
	return alert, nil
}
