// Package resolve answers search queries from the cache first, falling
// back to the live provider when the cache is too thin.
package resolve

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"coinwatch/internal/dedup"
	"coinwatch/internal/errors"
	"coinwatch/internal/news"
	"coinwatch/internal/provider"
	"coinwatch/internal/store"
)

// Origin tags where a result set came from.
type Origin string

const (
	OriginCache Origin = "cache"
	OriginLive  Origin = "live"
)

// Result is a resolved set of articles plus its origin.
type Result struct {
	Articles []news.Article `json:"articles"`
	Origin   Origin         `json:"origin"`
}

// Resolver serves queries cache-first with a live fallback.
type Resolver struct {
	store          *store.Store
	gate           *dedup.Gate
	search         provider.SearchProvider
	includeDomains []string
	log            *slog.Logger
	nowFunc        func() time.Time
}

// New creates a Resolver. includeDomains is the full configured domain
// allow-list used on fallback calls.
func New(s *store.Store, g *dedup.Gate, p provider.SearchProvider, includeDomains []string, log *slog.Logger) *Resolver {
	if log == nil {
		log = slog.Default()
	}
	return &Resolver{
		store:          s,
		gate:           g,
		search:         p,
		includeDomains: includeDomains,
		log:            log,
		nowFunc:        time.Now,
	}
}

// Resolve searches the store for live articles matching the query. When
// at least maxResults match, the cached set is returned as-is. Otherwise
// the live provider is called, new results are persisted, and the
// provider's results (not a merge with the cache) are returned — the live
// call already reflects current relevance ranking.
func (r *Resolver) Resolve(ctx context.Context, query string, maxResults int, depth provider.SearchDepth) (*Result, error) {
	if strings.TrimSpace(query) == "" {
		return nil, errors.NewInvalidRequest("query is required")
	}
	if maxResults <= 0 {
		maxResults = 10
	}
	if depth == "" {
		depth = provider.DepthBasic
	}

	cached, err := r.searchCache(ctx, query)
	if err != nil {
		return nil, err
	}

	if len(cached) >= maxResults {
		r.log.Debug("resolved from cache", "query", query, "matches", len(cached))
		return &Result{Articles: cached[:maxResults], Origin: OriginCache}, nil
	}

	r.log.Debug("cache insufficient, falling back to provider",
		"query", query, "matches", len(cached), "max_results", maxResults)

	results, err := r.search.Search(ctx, query, provider.SearchOptions{
		Depth:          depth,
		MaxResults:     maxResults,
		IncludeDomains: r.includeDomains,
	})
	if err != nil {
		return nil, errors.NewProvider("search", err)
	}

	articles := make([]news.Article, 0, len(results))
	for _, res := range results {
		a, err := r.persistIfNew(ctx, res)
		if err != nil {
			return nil, err
		}
		articles = append(articles, *a)
	}

	return &Result{Articles: articles, Origin: OriginLive}, nil
}

// searchCache scans all live articles for a case-insensitive substring
// match on title, content, or summary. Same cost profile as the dedup
// gate: linear, bounded by the index capacity.
func (r *Resolver) searchCache(ctx context.Context, query string) ([]news.Article, error) {
	articles, err := r.store.All(ctx)
	if err != nil {
		return nil, err
	}

	q := strings.ToLower(query)
	matches := make([]news.Article, 0, len(articles))
	for _, a := range articles {
		if strings.Contains(strings.ToLower(a.Title), q) ||
			strings.Contains(strings.ToLower(a.Content), q) ||
			strings.Contains(strings.ToLower(a.Summary), q) {
			matches = append(matches, a)
		}
	}
	return matches, nil
}

// persistIfNew constructs an article from a provider result and stores it
// unless the dedup gate rejects the title. The article is returned either
// way so the response reflects the full provider result set.
func (r *Resolver) persistIfNew(ctx context.Context, res provider.SearchResult) (*news.Article, error) {
	a, err := news.New(news.Candidate{
		Title:         res.Title,
		URL:           res.URL,
		Content:       res.Content,
		Snippet:       res.Snippet,
		PublishedDate: res.PublishedDate,
		Score:         res.Score,
	}, r.nowFunc())
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	dup, err := r.gate.IsDuplicate(ctx, res.Title)
	if err != nil {
		return nil, err
	}
	if !dup {
		if err := r.store.Put(ctx, a); err != nil {
			return nil, err
		}
	}
	return a, nil
}
