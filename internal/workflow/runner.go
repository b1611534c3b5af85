package workflow

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"iplayercast/internal/catalog"
	"iplayercast/internal/config"
	"iplayercast/internal/deps"
	"iplayercast/internal/downloader"
	"iplayercast/internal/history"
	"iplayercast/internal/logging"
	"iplayercast/internal/notifications"
	"iplayercast/internal/rss"
	"iplayercast/internal/services"
	"iplayercast/internal/services/getiplayer"
)

// ErrLocked reports that another run holds the output directory lock.
var ErrLocked = errors.New("another iplayercast run is in progress")

const copyrightNotice = "iplayercast downloads BBC programmes for personal use only. " +
	"Respect the BBC's terms and UK copyright law; do not redistribute the generated feeds."

// Client is the fetch tool surface the runner needs.
type Client interface {
	Refresh(ctx context.Context) error
	Search(ctx context.Context, term string) ([]catalog.Programme, error)
	Download(ctx context.Context, pid, stagingDir string, tag bool) error
}

// Option configures a Runner.
type Option func(*Runner)

// WithClient replaces the get_iplayer client (primarily for tests).
func WithClient(client Client) Option {
	return func(r *Runner) {
		if client != nil {
			r.client = client
		}
	}
}

// WithClock overrides the clock used for rendered feed dates.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) {
		if now != nil {
			r.now = now
		}
	}
}

// WithNotice redirects the start-of-run copyright notice.
func WithNotice(w io.Writer) Option {
	return func(r *Runner) {
		r.notice = w
	}
}

// WithNotifier replaces the notification service.
func WithNotifier(notifier notifications.Service) Option {
	return func(r *Runner) {
		if notifier != nil {
			r.notifier = notifier
		}
	}
}

// Runner executes runs against one configuration.
type Runner struct {
	cfg        *config.Config
	logger     *slog.Logger
	client     Client
	history    *history.Store
	renderer   *rss.Renderer
	downloader *downloader.Downloader
	now        func() time.Time
	notice     io.Writer
	notifier   notifications.Service
}

// New wires the run components from cfg.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) (*Runner, error) {
	if cfg == nil {
		return nil, errors.New("config required")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	r := &Runner{
		cfg:    cfg,
		logger: logging.NewComponentLogger(logger, "workflow"),
		now:    time.Now,
		notice: os.Stderr,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.notifier == nil {
		r.notifier = notifications.NewService(cfg)
	}
	if r.client == nil {
		client, err := getiplayer.NewFromConfig(cfg,
			getiplayer.WithLogger(logging.NewComponentLogger(logger, "get_iplayer")),
			getiplayer.WithClock(r.now),
		)
		if err != nil {
			return nil, services.Wrap(services.ErrConfiguration, "workflow", "init", "get_iplayer client", err)
		}
		r.client = client
	}
	renderer, err := rss.New(cfg.Server.BaseURL, logger, rss.WithClock(r.now))
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "workflow", "init", "renderer", err)
	}
	dl, err := downloader.New(r.client, cfg.Paths.StagingDir, logger)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "workflow", "init", "downloader", err)
	}
	r.renderer = renderer
	r.downloader = dl
	r.history = history.New(logger)
	return r, nil
}

// FeedResult summarises one feed's processing.
type FeedResult struct {
	Name       string
	Source     string
	Added      int
	Attempted  int
	Downloaded int
	Pending    int
	Items      int
	FeedPath   string
	Err        error
}

// Summary collects the results of a run.
type Summary struct {
	RunID string
	Feeds []FeedResult
}

// Failed reports how many feeds ended with an error.
func (s Summary) Failed() int {
	n := 0
	for _, f := range s.Feeds {
		if f.Err != nil {
			n++
		}
	}
	return n
}

// Run processes every configured feed, or only the feed named only when it is
// non-empty. The returned error is non-nil for run-fatal conditions; per-feed
// failures are reported in the summary.
func (r *Runner) Run(ctx context.Context, only string) (Summary, error) {
	summary := Summary{RunID: uuid.NewString()}
	ctx = services.WithRequestID(ctx, summary.RunID)
	logger := logging.WithContext(ctx, r.logger)

	if err := r.cfg.EnsureDirectories(); err != nil {
		return summary, services.Wrap(services.ErrConfiguration, "workflow", "prepare", "directories", err)
	}
	unlock, err := r.acquireLock()
	if err != nil {
		return summary, err
	}
	defer unlock()

	if r.notice != nil {
		fmt.Fprintln(r.notice, copyrightNotice)
	}
	if err := r.checkTools(logger); err != nil {
		return summary, err
	}

	feeds, err := r.selectFeeds(logger, only)
	if err != nil {
		return summary, err
	}
	if len(feeds) == 0 {
		return summary, nil
	}

	if r.cfg.Fetch.RefreshCache {
		if err := r.refresh(ctx, logger); err != nil {
			return summary, err
		}
	}

	started := time.Now()
	for _, feed := range feeds {
		result, err := r.processFeed(ctx, feed)
		summary.Feeds = append(summary.Feeds, result)
		if err == nil {
			continue
		}
		if services.IsFatal(err) {
			return summary, err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return summary, ctxErr
		}
	}
	elapsed := time.Since(started)
	logger.Info("run complete",
		logging.Int("feeds", len(summary.Feeds)),
		logging.Int("failed", summary.Failed()),
		logging.Duration("elapsed", elapsed),
	)
	r.notify(ctx, func(n notifications.Service) error {
		return n.NotifyRunCompleted(ctx, len(summary.Feeds), summary.Downloaded(), summary.Failed(), elapsed)
	})
	return summary, nil
}

// Downloaded totals the programmes fetched across all feeds.
func (s Summary) Downloaded() int {
	n := 0
	for _, f := range s.Feeds {
		n += f.Downloaded
	}
	return n
}

// notify delivers a notification; failures are logged and never affect the run.
func (r *Runner) notify(ctx context.Context, send func(notifications.Service) error) {
	if err := send(r.notifier); err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, r.logger), "notification failed", "notification_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check notifications.ntfy_topic"),
			logging.String(logging.FieldImpact, "run continues without the alert"),
		)
	}
}

func (r *Runner) acquireLock() (func(), error) {
	lock := flock.New(r.cfg.LockPath())
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w (lock %s)", ErrLocked, r.cfg.LockPath())
	}
	return func() {
		if err := lock.Unlock(); err != nil {
			r.logger.Warn("failed to release run lock", logging.Error(err))
		}
	}, nil
}

func (r *Runner) checkTools(logger *slog.Logger) error {
	statuses := deps.CheckBinaries(deps.FetchRequirements(r.cfg))
	for _, status := range statuses {
		if status.Optional && !status.Available {
			logger.Info("optional helper not found",
				logging.String("dependency", status.Name),
				logging.String("detail", status.Detail),
			)
		}
	}
	if missing := deps.MissingRequired(statuses); len(missing) > 0 {
		return services.Wrap(services.ErrToolUnavailable, "workflow", "preflight", missing[0].Detail, nil)
	}
	return nil
}

func (r *Runner) refresh(ctx context.Context, logger *slog.Logger) error {
	logger.Info("refreshing programme cache")
	err := r.client.Refresh(ctx)
	switch {
	case err == nil:
		return nil
	case services.IsFatal(err):
		return err
	case ctx.Err() != nil:
		return ctx.Err()
	}
	logging.WarnWithContext(logger, "programme cache refresh failed", "cache_refresh_failed",
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "run get_iplayer --refresh manually to inspect"),
		logging.String(logging.FieldImpact, "searches use the existing cache"),
	)
	return nil
}

// selectFeeds loads feed definitions. A missing feeds directory means there is
// nothing to do and is not an error.
func (r *Runner) selectFeeds(logger *slog.Logger, only string) ([]config.Feed, error) {
	feeds, issues, err := config.LoadFeeds(r.cfg.Paths.FeedsDir)
	if err != nil {
		if strings.TrimSpace(only) != "" {
			return nil, err
		}
		logging.WarnWithContext(logger, "no feeds loaded", "feeds_unavailable",
			logging.String("feeds_dir", r.cfg.Paths.FeedsDir),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "create feed definitions in paths.feeds_dir"),
			logging.String(logging.FieldImpact, "nothing to process"),
		)
		return nil, nil
	}
	for _, issue := range issues {
		logging.WarnWithContext(logger, "feed definition skipped", "feed_invalid",
			logging.Error(issue),
			logging.String(logging.FieldErrorHint, "fix the feed file and rerun"),
			logging.String(logging.FieldImpact, "feed not processed"),
		)
	}
	if strings.TrimSpace(only) == "" {
		return feeds, nil
	}
	feed, err := findFeed(feeds, only)
	if err != nil {
		return nil, err
	}
	return []config.Feed{feed}, nil
}

func findFeed(feeds []config.Feed, name string) (config.Feed, error) {
	name = strings.TrimSpace(name)
	for _, feed := range feeds {
		if strings.EqualFold(feed.Name, name) || strings.EqualFold(feed.OutputDir, name) {
			return feed, nil
		}
	}
	return config.Feed{}, services.Wrap(services.ErrConfiguration, "workflow", "select feed", fmt.Sprintf("no feed named %q", name), nil)
}
