package workflow

import (
	"context"

	"iplayercast/internal/catalog"
	"iplayercast/internal/config"
	"iplayercast/internal/services"
)

// LoadCatalog returns the feed named name and its stored catalog.
func (r *Runner) LoadCatalog(ctx context.Context, name string) (config.Feed, *catalog.Catalog, error) {
	feeds, _, err := config.LoadFeeds(r.cfg.Paths.FeedsDir)
	if err != nil {
		return config.Feed{}, nil, err
	}
	feed, err := findFeed(feeds, name)
	if err != nil {
		return config.Feed{}, nil, err
	}
	ctx = services.WithFeed(ctx, feed.Name)
	cat, err := r.history.Load(ctx, r.cfg.FeedDir(feed))
	if err != nil {
		return feed, cat, err
	}
	return feed, cat, nil
}

// RenderFeed rewrites feed.xml for the named feed from stored history only.
func (r *Runner) RenderFeed(ctx context.Context, name string) (string, error) {
	feed, cat, err := r.LoadCatalog(ctx, name)
	if err != nil {
		return "", err
	}
	ctx = services.WithFeed(ctx, feed.Name)
	return r.renderer.WriteFile(ctx, feed, r.cfg.FeedDir(feed), cat)
}
