package pipeline_test

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"reelay/internal/cadence"
	"reelay/internal/config"
	"reelay/internal/pipeline"
	"reelay/internal/provider"
	"reelay/internal/ratelimit"
	"reelay/internal/retry"
	"reelay/internal/store"
	"reelay/internal/testsupport"
)

type fakeSource struct {
	mu        sync.Mutex
	items     map[string][]provider.ItemSummary
	listErr   map[string]error
	getErr    map[string]error
	getCalls  int
	downloads int
}

func (f *fakeSource) ListRecent(ctx context.Context, handle string, max int, window time.Duration) ([]provider.ItemSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.listErr[handle]; err != nil {
		return nil, err
	}
	items := f.items[handle]
	if len(items) > max {
		items = items[:max]
	}
	return items, nil
}

func (f *fakeSource) GetItem(ctx context.Context, shortcode string) (provider.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getCalls++
	if err := f.getErr[shortcode]; err != nil {
		return provider.Item{}, err
	}
	return provider.Item{
		ItemSummary: provider.ItemSummary{Shortcode: shortcode, Owner: "owner-" + shortcode, Caption: "caption " + shortcode, IsVideo: true},
		MediaURL:    "http://sidecar/media/" + shortcode + ".mp4",
	}, nil
}

func (f *fakeSource) Download(ctx context.Context, item provider.Item, destDir string) (provider.DownloadedMedia, error) {
	f.mu.Lock()
	f.downloads++
	f.mu.Unlock()
	path := filepath.Join(destDir, item.Shortcode+".mp4")
	if err := os.WriteFile(path, []byte("media"), 0o644); err != nil {
		return provider.DownloadedMedia{}, err
	}
	return provider.DownloadedMedia{VideoPath: path}, nil
}

type fakePublisher struct {
	mu            sync.Mutex
	uploadErrs    []error
	uploads       int
	lastCaption   string
	lastMediaPath string
	metrics       provider.Metrics
	metricsErrs   []error
	metricsCalls  int
}

func (f *fakePublisher) Upload(ctx context.Context, mediaPath, caption, thumbnailPath string) (provider.UploadResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads++
	f.lastCaption = caption
	f.lastMediaPath = mediaPath
	if len(f.uploadErrs) > 0 {
		err := f.uploadErrs[0]
		f.uploadErrs = f.uploadErrs[1:]
		if err != nil {
			return provider.UploadResult{}, err
		}
	}
	return provider.UploadResult{RemoteID: fmt.Sprintf("rem-%d", f.uploads)}, nil
}

func (f *fakePublisher) GetMetrics(ctx context.Context, remoteID string) (provider.Metrics, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.metricsCalls++
	if len(f.metricsErrs) > 0 {
		err := f.metricsErrs[0]
		f.metricsErrs = f.metricsErrs[1:]
		if err != nil {
			return provider.Metrics{}, err
		}
	}
	return f.metrics, nil
}

type fakeNotifier struct {
	mu           sync.Mutex
	posted       []string
	failed       []string
	noCandidates []string
}

func (f *fakeNotifier) NotifyPostPublished(ctx context.Context, account, shortcode, remoteID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.posted = append(f.posted, shortcode)
	return nil
}

func (f *fakeNotifier) NotifyRunFailed(ctx context.Context, account string, runErr error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failed = append(f.failed, account)
	return nil
}

func (f *fakeNotifier) NotifyNoCandidates(ctx context.Context, account string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.noCandidates = append(f.noCandidates, account)
	return nil
}

func (f *fakeNotifier) NotifyDaemonStarted(context.Context, int) error { return nil }
func (f *fakeNotifier) NotifyDaemonStopped(context.Context) error      { return nil }
func (f *fakeNotifier) TestNotification(context.Context) error         { return nil }

func summaries(shortcodes ...string) []provider.ItemSummary {
	items := make([]provider.ItemSummary, 0, len(shortcodes))
	for _, code := range shortcodes {
		items = append(items, provider.ItemSummary{
			Shortcode:   code,
			Owner:       "owner-" + code,
			Caption:     "caption " + code,
			PublishedAt: time.Now().Add(-2 * time.Hour),
			IsVideo:     true,
		})
	}
	return items
}

func fastPolicy() retry.Policy {
	return retry.Policy{
		MaxAttempts: 3,
		BaseDelay:   time.Millisecond,
		MaxDelay:    time.Millisecond,
		Sleep:       func(ctx context.Context, d time.Duration) error { return nil },
	}
}

type fixture struct {
	cfg       *config.Config
	store     *store.Store
	runner    *pipeline.Runner
	source    *fakeSource
	publisher *fakePublisher
	notifier  *fakeNotifier
}

func newFixture(t *testing.T, source *fakeSource) *fixture {
	t.Helper()
	return newFixtureWithRand(t, source, rand.New(rand.NewSource(1)))
}

func newFixtureWithRand(t *testing.T, source *fakeSource, rng *rand.Rand) *fixture {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	publisher := &fakePublisher{metrics: provider.Metrics{Views: 100, Likes: 9, Shares: 1}}
	notifier := &fakeNotifier{}
	runner := pipeline.New(cfg, st, cadence.New(st, cfg), source,
		func(config.Account) provider.Publisher { return publisher },
		notifier, nil,
		pipeline.WithRand(rng),
		pipeline.WithRetryPolicy(fastPolicy()),
		pipeline.WithLimiter(ratelimit.NewWithDelays(0, 0)),
	)
	return &fixture{cfg: cfg, store: st, runner: runner, source: source, publisher: publisher, notifier: notifier}
}

func (f *fixture) account() config.Account {
	return f.cfg.Accounts[0]
}

func TestRunPostsRecordsAndRefreshesAnalytics(t *testing.T) {
	f := newFixture(t, &fakeSource{items: map[string][]provider.ItemSummary{
		"srcone": summaries("aaa"),
		"srctwo": summaries("bbb"),
	}})
	ctx := context.Background()

	result := f.runner.Run(ctx, f.account())
	if result.Outcome != pipeline.OutcomePosted {
		t.Fatalf("expected posted outcome, got %s (err %v)", result.Outcome, result.Err)
	}
	if result.Fetched != 2 {
		t.Fatalf("expected 2 fetched items, got %d", result.Fetched)
	}

	posted, err := f.store.GetPosted(ctx, "mainacct", result.Shortcode)
	if err != nil {
		t.Fatalf("GetPosted: %v", err)
	}
	if posted == nil || posted.RemoteID != result.RemoteID {
		t.Fatalf("posted row missing or wrong remote id: %#v", posted)
	}
	if posted.Analytics.Views != 100 || posted.Analytics.Likes != 9 {
		t.Fatalf("analytics not refreshed: %+v", posted.Analytics)
	}

	last, err := f.store.LastPostTime(ctx, "mainacct")
	if err != nil {
		t.Fatalf("LastPostTime: %v", err)
	}
	if last == nil {
		t.Fatal("expected cadence timestamp after successful record")
	}

	if len(f.notifier.posted) != 1 || f.notifier.posted[0] != result.Shortcode {
		t.Fatalf("expected post notification, got %v", f.notifier.posted)
	}

	entries, err := f.store.RecentActivity(ctx, "mainacct", 10)
	if err != nil {
		t.Fatalf("RecentActivity: %v", err)
	}
	if len(entries) == 0 {
		t.Fatal("expected activity log entries for the run")
	}
}

func TestRunCleansWorkspaceAfterSuccess(t *testing.T) {
	f := newFixture(t, &fakeSource{items: map[string][]provider.ItemSummary{
		"srcone": summaries("aaa"),
	}})

	result := f.runner.Run(context.Background(), f.account())
	if result.Outcome != pipeline.OutcomePosted {
		t.Fatalf("expected posted outcome, got %s (err %v)", result.Outcome, result.Err)
	}

	entries, err := os.ReadDir(f.cfg.Paths.WorkspaceDir)
	if err != nil && !os.IsNotExist(err) {
		t.Fatalf("read workspace dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected empty workspace dir, found %d entries", len(entries))
	}
}

func TestRunNoCandidatesDoesNotAdvanceCadence(t *testing.T) {
	f := newFixture(t, &fakeSource{items: map[string][]provider.ItemSummary{
		"srcone": summaries("aaa"),
	}})
	ctx := context.Background()

	// Everything fetchable is already posted.
	testsupport.SeedPosted(t, f.store, "mainacct", "aaa")

	result := f.runner.Run(ctx, f.account())
	if result.Outcome != pipeline.OutcomeNoCandidates {
		t.Fatalf("expected no-candidates outcome, got %s (err %v)", result.Outcome, result.Err)
	}

	last, err := f.store.LastPostTime(ctx, "mainacct")
	if err != nil {
		t.Fatalf("LastPostTime: %v", err)
	}
	if last != nil {
		t.Fatalf("cadence must not advance on empty run, got %v", last)
	}
	if len(f.notifier.noCandidates) != 1 {
		t.Fatalf("expected no-candidates notification, got %v", f.notifier.noCandidates)
	}
}

func TestRunUploadFailureDoesNotAdvanceCadence(t *testing.T) {
	f := newFixture(t, &fakeSource{items: map[string][]provider.ItemSummary{
		"srcone": summaries("aaa"),
	}})
	f.publisher.uploadErrs = []error{
		errors.New("upload timeout"), errors.New("upload timeout"), errors.New("upload timeout"),
	}
	ctx := context.Background()

	result := f.runner.Run(ctx, f.account())
	if result.Outcome != pipeline.OutcomeFailed {
		t.Fatalf("expected failed outcome, got %s", result.Outcome)
	}
	if result.Err == nil {
		t.Fatal("expected run error")
	}
	if f.publisher.uploads != 3 {
		t.Fatalf("expected 3 upload attempts, got %d", f.publisher.uploads)
	}

	posted, err := f.store.ListPosted(ctx, "mainacct")
	if err != nil {
		t.Fatalf("ListPosted: %v", err)
	}
	if len(posted) != 0 {
		t.Fatalf("expected no posted rows, got %d", len(posted))
	}
	last, err := f.store.LastPostTime(ctx, "mainacct")
	if err != nil {
		t.Fatalf("LastPostTime: %v", err)
	}
	if last != nil {
		t.Fatal("cadence must not advance on failed run")
	}
	if len(f.notifier.failed) != 1 {
		t.Fatalf("expected failure notification, got %v", f.notifier.failed)
	}

	// The failed item stays a candidate for the next run.
	candidates, err := f.store.CandidateShortcodes(ctx, "mainacct")
	if err != nil {
		t.Fatalf("CandidateShortcodes: %v", err)
	}
	if len(candidates) != 1 || candidates[0] != "aaa" {
		t.Fatalf("expected aaa still a candidate, got %v", candidates)
	}

	entries, err := os.ReadDir(f.cfg.Paths.WorkspaceDir)
	if err != nil && !os.IsNotExist(err) {
		t.Fatalf("read workspace dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected workspace cleaned after failed run, found %d entries", len(entries))
	}
}

func TestRunAnalyticsFailureStillCountsAsPosted(t *testing.T) {
	f := newFixture(t, &fakeSource{items: map[string][]provider.ItemSummary{
		"srcone": summaries("aaa"),
	}})
	f.publisher.metricsErrs = []error{
		errors.New("metrics endpoint down"), errors.New("metrics endpoint down"), errors.New("metrics endpoint down"),
	}
	ctx := context.Background()

	result := f.runner.Run(ctx, f.account())
	if result.Outcome != pipeline.OutcomePosted {
		t.Fatalf("expected posted outcome, got %s (err %v)", result.Outcome, result.Err)
	}
	if result.AnalyticsErr == nil {
		t.Fatal("expected analytics error recorded on result")
	}
	if f.publisher.metricsCalls != 3 {
		t.Fatalf("expected 3 metrics attempts before giving up, got %d", f.publisher.metricsCalls)
	}

	posted, err := f.store.GetPosted(ctx, "mainacct", "aaa")
	if err != nil {
		t.Fatalf("GetPosted: %v", err)
	}
	if posted == nil {
		t.Fatal("expected posted row despite analytics failure")
	}
	if posted.Analytics.Views != 0 {
		t.Fatalf("expected zero analytics, got %+v", posted.Analytics)
	}
	last, err := f.store.LastPostTime(ctx, "mainacct")
	if err != nil {
		t.Fatalf("LastPostTime: %v", err)
	}
	if last == nil {
		t.Fatal("cadence must advance once the post is recorded")
	}
}

func TestRunRetriesTransientUploadFailure(t *testing.T) {
	f := newFixture(t, &fakeSource{items: map[string][]provider.ItemSummary{
		"srcone": summaries("aaa"),
	}})
	f.publisher.uploadErrs = []error{errors.New("flaky"), errors.New("flaky")}

	result := f.runner.Run(context.Background(), f.account())
	if result.Outcome != pipeline.OutcomePosted {
		t.Fatalf("expected posted after retries, got %s (err %v)", result.Outcome, result.Err)
	}
	if f.publisher.uploads != 3 {
		t.Fatalf("expected 3 upload attempts, got %d", f.publisher.uploads)
	}
}

func TestRunRetriesTransientMetricsFailure(t *testing.T) {
	f := newFixture(t, &fakeSource{items: map[string][]provider.ItemSummary{
		"srcone": summaries("aaa"),
	}})
	f.publisher.metricsErrs = []error{errors.New("flaky"), errors.New("flaky")}
	ctx := context.Background()

	result := f.runner.Run(ctx, f.account())
	if result.Outcome != pipeline.OutcomePosted {
		t.Fatalf("expected posted outcome, got %s (err %v)", result.Outcome, result.Err)
	}
	if result.AnalyticsErr != nil {
		t.Fatalf("expected analytics recorded after retries, got %v", result.AnalyticsErr)
	}
	if f.publisher.metricsCalls != 3 {
		t.Fatalf("expected 3 metrics attempts, got %d", f.publisher.metricsCalls)
	}

	posted, err := f.store.GetPosted(ctx, "mainacct", "aaa")
	if err != nil {
		t.Fatalf("GetPosted: %v", err)
	}
	if posted == nil || posted.Analytics.Views != 100 {
		t.Fatalf("expected refreshed analytics, got %#v", posted)
	}
}

func TestRunItemNotFoundFailsWithoutRetry(t *testing.T) {
	source := &fakeSource{
		items:  map[string][]provider.ItemSummary{"srcone": summaries("aaa")},
		getErr: map[string]error{"aaa": provider.ErrItemNotFound},
	}
	f := newFixture(t, source)

	result := f.runner.Run(context.Background(), f.account())
	if result.Outcome != pipeline.OutcomeFailed {
		t.Fatalf("expected failed outcome, got %s", result.Outcome)
	}
	if !errors.Is(result.Err, provider.ErrItemNotFound) {
		t.Fatalf("expected ErrItemNotFound, got %v", result.Err)
	}
	if source.getCalls != 1 {
		t.Fatalf("expected single resolve attempt, got %d", source.getCalls)
	}

	entries, err := os.ReadDir(f.cfg.Paths.WorkspaceDir)
	if err != nil && !os.IsNotExist(err) {
		t.Fatalf("read workspace dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected workspace cleaned after failed run, found %d entries", len(entries))
	}
}

func TestRunContinuesWhenOneSourceFails(t *testing.T) {
	source := &fakeSource{
		items:   map[string][]provider.ItemSummary{"srctwo": summaries("bbb")},
		listErr: map[string]error{"srcone": provider.ErrProfileNotFound},
	}
	f := newFixture(t, source)

	result := f.runner.Run(context.Background(), f.account())
	if result.Outcome != pipeline.OutcomePosted {
		t.Fatalf("expected posted from surviving source, got %s (err %v)", result.Outcome, result.Err)
	}
	if result.Shortcode != "bbb" {
		t.Fatalf("expected bbb selected, got %q", result.Shortcode)
	}
}

func TestFetchSkipsNonVideoItems(t *testing.T) {
	photo := provider.ItemSummary{Shortcode: "pic", Owner: "owner-pic", IsVideo: false}
	source := &fakeSource{items: map[string][]provider.ItemSummary{
		"srcone": append(summaries("vid"), photo),
	}}
	f := newFixture(t, source)
	ctx := context.Background()

	result := f.runner.Run(ctx, f.account())
	if result.Outcome != pipeline.OutcomePosted {
		t.Fatalf("expected posted outcome, got %s (err %v)", result.Outcome, result.Err)
	}

	available, err := f.store.ListAvailable(ctx, "mainacct")
	if err != nil {
		t.Fatalf("ListAvailable: %v", err)
	}
	if len(available) != 1 || available[0].Shortcode != "vid" {
		t.Fatalf("expected only video item stored, got %#v", available)
	}
}

func TestRunAddsAttributionToCaption(t *testing.T) {
	f := newFixture(t, &fakeSource{items: map[string][]provider.ItemSummary{
		"srcone": summaries("aaa"),
	}})

	result := f.runner.Run(context.Background(), f.account())
	if result.Outcome != pipeline.OutcomePosted {
		t.Fatalf("expected posted outcome, got %s (err %v)", result.Outcome, result.Err)
	}
	want := "caption aaa\n\nvia @owner-aaa"
	if f.publisher.lastCaption != want {
		t.Fatalf("expected caption %q, got %q", want, f.publisher.lastCaption)
	}
}

func TestRepeatedRunsExhaustCandidatesWithoutRepeats(t *testing.T) {
	f := newFixture(t, &fakeSource{items: map[string][]provider.ItemSummary{
		"srcone": summaries("aaa", "bbb", "ccc"),
	}})
	ctx := context.Background()

	seen := map[string]bool{}
	for i := 0; i < 3; i++ {
		result := f.runner.Run(ctx, f.account())
		if result.Outcome != pipeline.OutcomePosted {
			t.Fatalf("run %d: expected posted, got %s (err %v)", i, result.Outcome, result.Err)
		}
		if seen[result.Shortcode] {
			t.Fatalf("run %d: shortcode %s posted twice", i, result.Shortcode)
		}
		seen[result.Shortcode] = true
	}

	result := f.runner.Run(ctx, f.account())
	if result.Outcome != pipeline.OutcomeNoCandidates {
		t.Fatalf("expected exhaustion after 3 posts, got %s", result.Outcome)
	}
}

func TestRunSelectsCandidatesUniformly(t *testing.T) {
	// One rng shared across fresh fixtures, so each trial draws the next
	// value from the same seeded sequence.
	rng := rand.New(rand.NewSource(7))
	const trials = 30
	counts := map[string]int{}

	for i := 0; i < trials; i++ {
		f := newFixtureWithRand(t, &fakeSource{items: map[string][]provider.ItemSummary{
			"srcone": summaries("aaa", "bbb", "ccc"),
		}}, rng)
		result := f.runner.Run(context.Background(), f.account())
		if result.Outcome != pipeline.OutcomePosted {
			t.Fatalf("trial %d: expected posted, got %s (err %v)", i, result.Outcome, result.Err)
		}
		counts[result.Shortcode]++
	}

	total := 0
	for _, code := range []string{"aaa", "bbb", "ccc"} {
		if counts[code] < trials/6 {
			t.Fatalf("selection skewed toward other candidates, %s chosen %d of %d times (%v)",
				code, counts[code], trials, counts)
		}
		total += counts[code]
	}
	if total != trials {
		t.Fatalf("unexpected shortcode selected: %v", counts)
	}
}
