package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"reelay/internal/config"
	"reelay/internal/logging"
	"reelay/internal/provider"
	"reelay/internal/retry"
	"reelay/internal/store"
	"reelay/internal/textutil"
	"reelay/internal/workspace"
)

// Run executes one full repost cycle for the account. The caller is
// responsible for cadence gating and for per-account mutual exclusion; Run
// assumes it is the only run in flight for this account.
func (r *Runner) Run(ctx context.Context, account config.Account) RunResult {
	runID := uuid.NewString()
	started := r.now()
	ctx = logging.WithRun(ctx, account.Handle, runID)
	log := logging.WithContext(ctx, r.logger)

	result := RunResult{Account: account.Handle, RunID: runID}
	defer func() {
		result.Duration = r.now().Sub(started)
	}()

	log.Info("run started", logging.Int("sources", len(account.Sources)))

	result.Fetched = r.fetch(ctx, log, account)

	candidates, err := r.store.CandidateShortcodes(ctx, account.Handle)
	if err != nil {
		return r.fail(ctx, log, result, "select", fmt.Errorf("load candidates: %w", err))
	}
	if len(candidates) == 0 {
		log.Info("no unposted candidates", logging.Int("fetched", result.Fetched))
		r.recordActivity(ctx, store.LevelInfo, "no unposted candidates", account.Handle, "select")
		if err := r.notifier.NotifyNoCandidates(ctx, account.Handle); err != nil {
			log.Warn("no-candidates notification failed", logging.Error(err))
		}
		result.Outcome = OutcomeNoCandidates
		return result
	}

	result.Shortcode = candidates[r.intn(len(candidates))]
	log.Info("candidate selected",
		logging.String(logging.FieldShortcode, result.Shortcode),
		logging.Int("candidates", len(candidates)),
	)

	ws, err := workspace.Create(r.cfg.Paths.WorkspaceDir, account.Handle, runID)
	if err != nil {
		return r.fail(ctx, log, result, "acquire", err)
	}
	defer func() {
		if err := ws.Release(); err != nil {
			log.Warn("workspace release failed", logging.Error(err))
		}
	}()

	media, item, err := r.acquire(ctx, result.Shortcode, ws.Dir)
	if err != nil {
		return r.fail(ctx, log, result, "acquire", err)
	}

	remoteID, err := r.publish(ctx, account, item, media)
	if err != nil {
		return r.fail(ctx, log, result, "publish", err)
	}
	result.RemoteID = remoteID
	log.Info("item published",
		logging.String(logging.FieldShortcode, result.Shortcode),
		logging.String("remote_id", remoteID),
	)

	if err := r.record(ctx, account.Handle, item, remoteID); err != nil {
		return r.fail(ctx, log, result, "record", err)
	}
	r.recordActivity(ctx, store.LevelInfo,
		fmt.Sprintf("posted %s", result.Shortcode), account.Handle, "post")
	if err := r.cadence.MarkPosted(ctx, account.Handle); err != nil {
		log.Error("cadence update failed", logging.Error(err))
	}
	if err := r.notifier.NotifyPostPublished(ctx, account.Handle, result.Shortcode, remoteID); err != nil {
		log.Warn("post notification failed", logging.Error(err))
	}

	if err := r.refreshAnalytics(ctx, account, result.Shortcode, remoteID); err != nil {
		log.Warn("analytics refresh failed", logging.Error(err))
		r.recordActivity(ctx, store.LevelWarn,
			fmt.Sprintf("analytics refresh failed for %s", result.Shortcode), account.Handle, "analytics")
		result.AnalyticsErr = err
	}

	result.Outcome = OutcomePosted
	return result
}

// fetch lists each source profile and stores fresh video items. A failing
// source is logged and skipped; the run continues with whatever the other
// sources produced.
func (r *Runner) fetch(ctx context.Context, log *slog.Logger, account config.Account) int {
	window := time.Duration(r.cfg.Provider.DaysCutoff) * 24 * time.Hour
	maxPosts := r.cfg.Provider.MaxPosts

	total := 0
	for _, src := range account.Sources {
		if err := r.limiter.WaitSource(ctx); err != nil {
			log.Warn("fetch pacing interrupted", logging.Error(err))
			return total
		}

		var listed []provider.ItemSummary
		err := retry.Do(ctx, r.policy, func(ctx context.Context) error {
			items, err := r.source.ListRecent(ctx, src, maxPosts, window)
			if errors.Is(err, provider.ErrProfileNotFound) {
				return retry.Permanent(err)
			}
			if err != nil {
				return err
			}
			listed = items
			return nil
		})
		if err != nil {
			log.Warn("source fetch failed",
				logging.String(logging.FieldSource, src),
				logging.Error(err),
			)
			r.recordActivity(ctx, store.LevelWarn,
				fmt.Sprintf("fetch failed for source %s", src), account.Handle, "fetch")
			continue
		}

		items := make([]store.AvailableItem, 0, len(listed))
		for _, summary := range listed {
			if !summary.IsVideo {
				continue
			}
			items = append(items, store.AvailableItem{
				Account:     account.Handle,
				Shortcode:   summary.Shortcode,
				Owner:       summary.Owner,
				Caption:     summary.Caption,
				PublishedAt: summary.PublishedAt,
			})
		}
		inserted, err := r.store.InsertAvailable(ctx, items...)
		if err != nil {
			log.Warn("storing fetched items failed",
				logging.String(logging.FieldSource, src),
				logging.Error(err),
			)
			continue
		}
		log.Info("source fetched",
			logging.String(logging.FieldSource, src),
			logging.Int("listed", len(listed)),
			logging.Int64("new", inserted),
		)
		total += len(items)
	}

	r.recordActivity(ctx, store.LevelInfo,
		fmt.Sprintf("fetched %d items from %d sources", total, len(account.Sources)),
		account.Handle, "fetch")
	return total
}

// acquire resolves the selected shortcode and downloads its media into the
// run workspace. A shortcode deleted upstream fails the run without retries.
func (r *Runner) acquire(ctx context.Context, shortcode, destDir string) (provider.DownloadedMedia, provider.Item, error) {
	var item provider.Item
	err := retry.Do(ctx, r.policy, func(ctx context.Context) error {
		if err := r.limiter.WaitItem(ctx); err != nil {
			return retry.Permanent(err)
		}
		resolved, err := r.source.GetItem(ctx, shortcode)
		if errors.Is(err, provider.ErrItemNotFound) {
			return retry.Permanent(err)
		}
		if err != nil {
			return err
		}
		item = resolved
		return nil
	})
	if err != nil {
		return provider.DownloadedMedia{}, provider.Item{}, fmt.Errorf("resolve item %s: %w", shortcode, err)
	}

	var media provider.DownloadedMedia
	err = retry.Do(ctx, r.policy, func(ctx context.Context) error {
		downloaded, err := r.source.Download(ctx, item, destDir)
		if errors.Is(err, provider.ErrItemNotFound) {
			return retry.Permanent(err)
		}
		if err != nil {
			return err
		}
		media = downloaded
		return nil
	})
	if err != nil {
		return provider.DownloadedMedia{}, provider.Item{}, fmt.Errorf("download item %s: %w", shortcode, err)
	}
	return media, item, nil
}

func (r *Runner) publish(ctx context.Context, account config.Account, item provider.Item, media provider.DownloadedMedia) (string, error) {
	caption := textutil.WithAttribution(item.Caption, item.Owner)
	publisher := r.publishers(account)

	var result provider.UploadResult
	err := retry.Do(ctx, r.policy, func(ctx context.Context) error {
		uploaded, err := publisher.Upload(ctx, media.VideoPath, caption, media.ThumbnailPath)
		if errors.Is(err, provider.ErrProfileNotFound) {
			return retry.Permanent(err)
		}
		if err != nil {
			return err
		}
		result = uploaded
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", item.Shortcode, err)
	}
	return result.RemoteID, nil
}

func (r *Runner) record(ctx context.Context, account string, item provider.Item, remoteID string) error {
	_, err := r.store.InsertPosted(ctx, store.PostedItem{
		Account:   account,
		Shortcode: item.Shortcode,
		Caption:   textutil.NormalizeCaption(item.Caption),
		RemoteID:  remoteID,
		PostedAt:  r.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("record post %s: %w", item.Shortcode, err)
	}
	return nil
}

func (r *Runner) refreshAnalytics(ctx context.Context, account config.Account, shortcode, remoteID string) error {
	publisher := r.publishers(account)

	var metrics provider.Metrics
	err := retry.Do(ctx, r.policy, func(ctx context.Context) error {
		fetched, err := publisher.GetMetrics(ctx, remoteID)
		if err != nil {
			return err
		}
		metrics = fetched
		return nil
	})
	if err != nil {
		return err
	}
	return r.store.UpdateAnalytics(ctx, account.Handle, shortcode, store.Analytics{
		Views:    metrics.Views,
		Likes:    metrics.Likes,
		Comments: metrics.Comments,
		Shares:   metrics.Shares,
	})
}

func (r *Runner) fail(ctx context.Context, log *slog.Logger, result RunResult, step string, err error) RunResult {
	result.Outcome = OutcomeFailed
	result.Err = err
	log.Error("run failed",
		logging.String(logging.FieldStep, step),
		logging.Error(err),
	)
	r.recordActivity(ctx, store.LevelError,
		fmt.Sprintf("run failed during %s: %v", step, err), result.Account, step)
	if notifyErr := r.notifier.NotifyRunFailed(ctx, result.Account, err); notifyErr != nil {
		log.Warn("failure notification failed", logging.Error(notifyErr))
	}
	return result
}

// recordActivity appends to the audit trail. Activity writes never fail a
// run; errors go to the logger only.
func (r *Runner) recordActivity(ctx context.Context, level, message, account, action string) {
	err := r.store.AppendActivity(ctx, store.ActivityEntry{
		Level:      level,
		Message:    message,
		Account:    account,
		ActionType: action,
	})
	if err != nil {
		logging.WithContext(ctx, r.logger).Warn("activity log write failed", logging.Error(err))
	}
}
