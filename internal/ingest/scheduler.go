// Package ingest runs the recurring sweep that pulls fresh articles from
// the live provider (and optional RSS feeds) into the store.
package ingest

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/mmcdole/gofeed"

	"coinwatch/internal/dedup"
	"coinwatch/internal/news"
	"coinwatch/internal/provider"
	"coinwatch/internal/store"
)

// Options bound the provider calls made during a sweep.
type Options struct {
	// Queries is the fixed topic set walked each sweep.
	Queries []string
	// IncludeDomains restricts provider results.
	IncludeDomains []string
	// MaxResults caps provider results per query.
	MaxResults int
	// Days is the recency window for provider calls.
	Days int
	// Feeds lists optional RSS/Atom feeds ingested after the query set.
	Feeds []string
}

// Scheduler owns the IDLE/RUNNING sweep state. A sweep requested while
// one is running is dropped, not queued.
type Scheduler struct {
	store   *store.Store
	gate    *dedup.Gate
	search  provider.SearchProvider
	opts    Options
	log     *slog.Logger
	feeds   *gofeed.Parser
	running atomic.Bool
	nowFunc func() time.Time
}

// New creates a Scheduler.
func New(s *store.Store, g *dedup.Gate, p provider.SearchProvider, opts Options, log *slog.Logger) *Scheduler {
	if log == nil {
		log = slog.Default()
	}
	return &Scheduler{
		store:   s,
		gate:    g,
		search:  p,
		opts:    opts,
		log:     log,
		feeds:   gofeed.NewParser(),
		nowFunc: time.Now,
	}
}

// Run sweeps immediately, then on every interval tick until ctx is done.
func (s *Scheduler) Run(ctx context.Context, interval time.Duration) {
	s.Sweep(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep runs one pass over the query set and feeds. Returns false
// without doing any work when a sweep is already in flight. Per-query
// failures are logged and do not abort the rest of the sweep.
func (s *Scheduler) Sweep(ctx context.Context) bool {
	if !s.running.CompareAndSwap(false, true) {
		s.log.Info("sweep already running, skipping trigger")
		return false
	}
	defer s.running.Store(false)

	now := s.nowFunc()

	prev, err := s.store.LastFetchTime(ctx)
	if err != nil {
		s.log.Warn("read last fetch time", "error", err)
	} else if prev > 0 {
		s.log.Info("starting sweep", "last_fetch", time.Unix(prev, 0).UTC().Format(time.RFC3339))
	} else {
		s.log.Info("starting first sweep")
	}

	// The marker moves at sweep start, not completion: a sweep that hangs
	// or crashes must not cause a retry storm on the next trigger.
	if err := s.store.RecordFetchTime(ctx, now.Unix()); err != nil {
		s.log.Warn("record fetch time", "error", err)
	}

	var ingested int
	for _, query := range s.opts.Queries {
		n, err := s.sweepQuery(ctx, query)
		if err != nil {
			s.log.Error("sweep query failed", "query", query, "error", err)
			continue
		}
		ingested += n
	}

	for _, feed := range s.opts.Feeds {
		n, err := s.sweepFeed(ctx, feed)
		if err != nil {
			s.log.Error("sweep feed failed", "feed", feed, "error", err)
			continue
		}
		ingested += n
	}

	s.log.Info("sweep complete", "ingested", ingested)
	return true
}

// sweepQuery fetches one query from the live provider and ingests every
// non-duplicate result.
func (s *Scheduler) sweepQuery(ctx context.Context, query string) (int, error) {
	results, err := s.search.Search(ctx, query, provider.SearchOptions{
		Depth:          provider.DepthBasic,
		MaxResults:     s.opts.MaxResults,
		IncludeDomains: s.opts.IncludeDomains,
		Days:           s.opts.Days,
	})
	if err != nil {
		return 0, err
	}

	var ingested int
	for _, r := range results {
		stored, err := s.ingest(ctx, news.Candidate{
			Title:         r.Title,
			URL:           r.URL,
			Content:       r.Content,
			Snippet:       r.Snippet,
			PublishedDate: r.PublishedDate,
			Score:         r.Score,
		})
		if err != nil {
			s.log.Warn("ingest candidate failed", "title", r.Title, "error", err)
			continue
		}
		if stored {
			ingested++
		}
	}
	return ingested, nil
}

// sweepFeed parses one RSS/Atom feed and ingests every non-duplicate
// item through the same gate and store path as provider results.
func (s *Scheduler) sweepFeed(ctx context.Context, feedURL string) (int, error) {
	feed, err := s.feeds.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return 0, err
	}

	count := min(len(feed.Items), s.opts.MaxResults)

	var ingested int
	for i := 0; i < count; i++ {
		item := feed.Items[i]

		published := ""
		if item.PublishedParsed != nil {
			published = item.PublishedParsed.UTC().Format(time.RFC3339)
		} else if item.UpdatedParsed != nil {
			published = item.UpdatedParsed.UTC().Format(time.RFC3339)
		}

		content := item.Content
		if content == "" {
			content = item.Description
		}

		stored, err := s.ingest(ctx, news.Candidate{
			Title:         item.Title,
			URL:           item.Link,
			Content:       content,
			Snippet:       item.Description,
			PublishedDate: published,
		})
		if err != nil {
			s.log.Warn("ingest feed item failed", "title", item.Title, "error", err)
			continue
		}
		if stored {
			ingested++
		}
	}
	return ingested, nil
}

// ingest runs one candidate through the dedup gate and, when it passes,
// constructs and persists the article. Returns whether it was stored.
func (s *Scheduler) ingest(ctx context.Context, c news.Candidate) (bool, error) {
	dup, err := s.gate.IsDuplicate(ctx, c.Title)
	if err != nil {
		return false, err
	}
	if dup {
		return false, nil
	}

	a, err := news.New(c, s.nowFunc())
	if err != nil {
		return false, err
	}
	if err := s.store.Put(ctx, a); err != nil {
		return false, err
	}
	return true, nil
}
