package workflow

import (
	"context"
	"os"

	"iplayercast/internal/catalog"
	"iplayercast/internal/config"
	"iplayercast/internal/downloader"
	"iplayercast/internal/logging"
	"iplayercast/internal/notifications"
	"iplayercast/internal/services"
)

// processFeed runs the search, merge, download, save, render sequence for
// one feed. History and feed.xml are written even when searching or
// downloading stopped early so that completed downloads are never forgotten.
func (r *Runner) processFeed(ctx context.Context, feed config.Feed) (FeedResult, error) {
	ctx = services.WithFeed(ctx, feed.Name)
	logger := logging.WithContext(ctx, r.logger)
	result := FeedResult{Name: feed.Name, Source: feed.Source}
	feedDir := r.cfg.FeedDir(feed)

	if err := os.MkdirAll(feedDir, 0o755); err != nil {
		result.Err = services.Wrap(services.ErrConfiguration, "workflow", "create feed directory", feedDir, err)
		logging.ErrorWithContext(logger, "feed skipped", "feed_dir_unavailable",
			logging.Error(result.Err),
			logging.String(logging.FieldErrorHint, "check output_dir permissions"),
		)
		return result, result.Err
	}

	cat := r.loadCatalog(ctx, feedDir)
	before := cat.Len()
	logger.Info("processing feed",
		logging.String("feed_dir", feedDir),
		logging.Int("known", before),
	)

	feedErr := r.search(ctx, feed, cat)
	result.Added = cat.Len() - before

	if feedErr == nil {
		pending := cat.Pending()
		dl, err := r.downloader.Run(ctx, cat, feedDir, downloader.Options{Tag: r.cfg.TagFiles(feed)})
		result.Attempted = dl.Attempted
		result.Downloaded = dl.Downloaded
		feedErr = err
		r.notifyDownloads(ctx, feed, cat, pending)
	} else if !services.IsFatal(feedErr) && ctx.Err() == nil {
		logging.ErrorWithContext(logger, "search failed; downloads skipped for this run", "search_failed",
			logging.Error(feedErr),
			logging.String(logging.FieldErrorHint, "inspect get_iplayer with --log-level debug"),
		)
	}

	persistCtx := context.WithoutCancel(ctx)
	if err := r.history.Save(persistCtx, feedDir, feed.Name, cat); err != nil {
		logging.ErrorWithContext(logger, "history save failed", "history_save_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check free space and permissions in the feed directory"),
		)
		if feedErr == nil {
			feedErr = err
		}
	}
	path, err := r.renderer.WriteFile(persistCtx, feed, feedDir, cat)
	if err != nil {
		logging.ErrorWithContext(logger, "feed render failed", "render_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check permissions in the feed directory"),
		)
		if feedErr == nil {
			feedErr = err
		}
	}
	result.FeedPath = path
	result.Items = cat.Len()
	_, result.Pending = cat.Counts()
	result.Err = feedErr
	if feedErr != nil && ctx.Err() == nil {
		r.notify(ctx, func(n notifications.Service) error {
			return n.NotifyError(persistCtx, feedErr, feed.Name)
		})
	}

	logger.Info("feed processed",
		logging.Int("added", result.Added),
		logging.Int("downloaded", result.Downloaded),
		logging.Int("pending", result.Pending),
		logging.Int("items", result.Items),
	)
	return result, feedErr
}

// notifyDownloads announces every programme in before that is now downloaded.
func (r *Runner) notifyDownloads(ctx context.Context, feed config.Feed, cat *catalog.Catalog, before []catalog.Programme) {
	for _, p := range before {
		current, ok := cat.Get(p.PID)
		if !ok || !current.Downloaded {
			continue
		}
		r.notify(ctx, func(n notifications.Service) error {
			return n.NotifyDownloaded(context.WithoutCancel(ctx), feed.Name, current.Title())
		})
	}
}

func (r *Runner) search(ctx context.Context, feed config.Feed, cat *catalog.Catalog) error {
	logger := logging.WithContext(ctx, r.logger)
	for _, term := range feed.SearchTerms() {
		results, err := r.client.Search(ctx, term)
		if err != nil {
			return err
		}
		added := cat.Merge(results)
		logger.Info("search complete",
			logging.String("term", term),
			logging.Int("results", len(results)),
			logging.Int("added", added),
		)
	}
	return nil
}

// loadCatalog never fails; unreadable history starts the feed afresh.
func (r *Runner) loadCatalog(ctx context.Context, feedDir string) *catalog.Catalog {
	cat, err := r.history.Load(ctx, feedDir)
	if err != nil {
		logging.WithContext(ctx, r.logger).Info("history unreadable; starting with an empty catalog",
			logging.Error(err),
			logging.String(logging.FieldEventType, "history_load_failed"),
		)
	}
	return cat
}
