// Package feeds implements the pull-based source adapters: RSS feeds and
// the Finnhub REST endpoint. Each is an interval worker feeding the shared
// pipeline; one bad feed or tick never stops the loop.
package feeds

import (
	"context"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"golang.org/x/time/rate"

	"sentinel/internal/adapters/config"
	"sentinel/internal/domain"
	"sentinel/internal/pipeline"
	"sentinel/internal/workers"
	"sentinel/pkg/errors"
)

// Feed names one RSS source.
type Feed struct {
	Name string
	URL  string
}

// defaultFeeds is polled when no RSS_FEEDS override is configured.
var defaultFeeds = []Feed{
	{"CNBC_Top", "https://search.cnbc.com/rs/search/combinedcms/view.xml?partnerId=wrss01&id=100003114"},
	{"CNBC_Markets", "https://search.cnbc.com/rs/search/combinedcms/view.xml?partnerId=wrss01&id=20910258"},
	{"MarketWatch", "https://feeds.marketwatch.com/marketwatch/topstories"},
	{"Reuters_Biz", "https://feeds.reuters.com/reuters/businessNews"},
	{"Yahoo_Finance", "https://finance.yahoo.com/news/rssindex"},
}

// RSSWorker polls a fixed, ordered list of feeds on an interval. RSS gives
// no structured tickers, so events carry empty symbols and the classifier's
// text scan is the only ticker source.
type RSSWorker struct {
	*workers.BaseWorker
	feeds        []Feed
	parser       *gofeed.Parser
	pipe         *pipeline.Pipeline
	limiter      *rate.Limiter
	maxEntries   int
	fetchTimeout time.Duration
}

// NewRSSWorker creates the RSS polling worker.
func NewRSSWorker(cfg config.RSSConfig, pipe *pipeline.Pipeline) *RSSWorker {
	feeds := ParseFeedSpecs(cfg.Feeds)
	if len(feeds) == 0 {
		feeds = defaultFeeds
	}

	return &RSSWorker{
		BaseWorker:   workers.NewBaseWorker("rss_poller", cfg.Interval, true),
		feeds:        feeds,
		parser:       gofeed.NewParser(),
		pipe:         pipe,
		limiter:      rate.NewLimiter(rate.Limit(cfg.RequestsPerSec), 1),
		maxEntries:   cfg.MaxEntries,
		fetchTimeout: cfg.FetchTimeout,
	}
}

// Run polls every feed once. Per-feed failures are logged and the loop
// proceeds to the next feed. A pass interrupted by shutdown returns nil so
// the scheduler does not log it as a failure.
func (w *RSSWorker) Run(ctx context.Context) error {
	for _, feed := range w.feeds {
		if ctx.Err() != nil {
			return nil
		}
		if err := w.pollFeed(ctx, feed); err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				return nil
			}
			w.Log().Warnw("Feed poll failed", "feed", feed.Name, "error", err)
		}
	}

	w.pipe.FlushStores()
	w.RecordRun()
	return nil
}

func (w *RSSWorker) pollFeed(ctx context.Context, feed Feed) error {
	if err := w.limiter.Wait(ctx); err != nil {
		return err
	}

	fetchCtx, cancel := context.WithTimeout(ctx, w.fetchTimeout)
	defer cancel()

	parsed, err := w.parser.ParseURLWithContext(feed.URL, fetchCtx)
	if err != nil {
		return errors.Wrapf(errors.ErrFeedUnavailable, "%s: %v", feed.URL, err)
	}

	items := parsed.Items
	if len(items) > w.maxEntries {
		items = items[:w.maxEntries]
	}

	for _, item := range items {
		observed := time.Now().UTC()
		if item.PublishedParsed != nil {
			observed = item.PublishedParsed.UTC()
		}

		w.pipe.Process(domain.RawEvent{
			Headline:   item.Title,
			Summary:    item.Description,
			Symbols:    []string{},
			Source:     "rss:" + feed.Name,
			ObservedAt: observed,
			URL:        item.Link,
		})
	}

	return nil
}

// Feeds returns the polled feed list.
func (w *RSSWorker) Feeds() []Feed {
	return w.feeds
}

// ParseFeedSpecs turns "name=url" pairs into feeds, skipping malformed
// entries.
func ParseFeedSpecs(specs []string) []Feed {
	feeds := make([]Feed, 0, len(specs))
	for _, spec := range specs {
		name, url, ok := strings.Cut(spec, "=")
		if !ok || name == "" || url == "" {
			continue
		}
		feeds = append(feeds, Feed{Name: name, URL: url})
	}
	return feeds
}
