package api

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"reelay/internal/store"
)

// ErrInvalidRequest marks queue operations rejected before touching the
// store. The API layer maps it to 400.
var ErrInvalidRequest = errors.New("invalid request")

// QueueService validates and executes queue operations against the store.
type QueueService struct {
	store *store.Store
}

// NewQueueService constructs a QueueService.
func NewQueueService(st *store.Store) *QueueService {
	return &QueueService{store: st}
}

// List returns queue items, optionally filtered by account.
func (s *QueueService) List(ctx context.Context, account string) ([]QueueItem, error) {
	items, err := s.store.ListQueue(ctx, strings.TrimSpace(account))
	if err != nil {
		return nil, err
	}
	out := make([]QueueItem, 0, len(items))
	for _, item := range items {
		out = append(out, FromQueueItem(item))
	}
	return out, nil
}

// Enqueue validates and creates a pending queue item. A missing schedule
// time means "as soon as possible".
func (s *QueueService) Enqueue(ctx context.Context, req EnqueueRequest) (*QueueItem, error) {
	account := strings.TrimSpace(strings.ToLower(req.Account))
	if account == "" {
		return nil, fmt.Errorf("%w: account is required", ErrInvalidRequest)
	}
	shortcode := strings.TrimSpace(req.Shortcode)
	if shortcode == "" {
		return nil, fmt.Errorf("%w: shortcode is required", ErrInvalidRequest)
	}
	scheduledAt := time.Now().UTC()
	if req.ScheduledAt != nil {
		scheduledAt = req.ScheduledAt.UTC()
	}

	item, err := s.store.Enqueue(ctx, account, shortcode, scheduledAt)
	if err != nil {
		return nil, err
	}
	converted := FromQueueItem(*item)
	return &converted, nil
}

// SetStatus transitions a pending queue item to a terminal status.
func (s *QueueService) SetStatus(ctx context.Context, id int64, status string) (*QueueItem, error) {
	parsed, ok := store.ParseQueueStatus(status)
	if !ok {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidRequest, status)
	}
	item, err := s.store.SetQueueStatus(ctx, id, parsed)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, nil
	}
	converted := FromQueueItem(*item)
	return &converted, nil
}

// Describe returns one queue item, or nil when it does not exist.
func (s *QueueService) Describe(ctx context.Context, id int64) (*QueueItem, error) {
	item, err := s.store.GetQueueItem(ctx, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, nil
	}
	converted := FromQueueItem(*item)
	return &converted, nil
}
