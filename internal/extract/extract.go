// Package extract fetches full-page content for a single URL. It is a
// stateless passthrough to the live provider and never touches the store:
// full-page content is too large and variable to cache under the article
// TTL policy.
package extract

import (
	"context"
	"log/slog"
	"strings"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/go-shiori/go-readability"

	"coinwatch/internal/errors"
	"coinwatch/internal/provider"
)

// Extraction is the full-page content of one URL.
type Extraction struct {
	URL           string `json:"url"`
	Title         string `json:"title"`
	Content       string `json:"content"`
	PublishedDate string `json:"published_date,omitempty"`
	// Via records which path produced the content: "provider" or
	// "readability".
	Via string `json:"via"`
}

// Adapter extracts page content through the live provider, optionally
// falling back to a local readability pass when the provider fails.
type Adapter struct {
	provider      provider.ExtractProvider
	localFallback bool
	log           *slog.Logger
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithLocalFallback enables the readability fallback on provider failure.
func WithLocalFallback() Option {
	return func(a *Adapter) { a.localFallback = true }
}

// New creates an Adapter.
func New(p provider.ExtractProvider, log *slog.Logger, opts ...Option) *Adapter {
	if log == nil {
		log = slog.Default()
	}
	a := &Adapter{provider: p, log: log}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Extract fetches the full content of one URL. An empty URL is an
// invalid request; a provider call that errors or returns zero results
// is a provider error (unless the local fallback is enabled and
// succeeds).
func (a *Adapter) Extract(ctx context.Context, url string) (*Extraction, error) {
	if strings.TrimSpace(url) == "" {
		return nil, errors.NewInvalidRequest("url is required")
	}

	results, err := a.provider.Extract(ctx, []string{url})
	if err == nil && len(results) > 0 {
		r := results[0]
		return &Extraction{
			URL:           url,
			Title:         r.Title,
			Content:       r.Content,
			PublishedDate: r.PublishedDate,
			Via:           "provider",
		}, nil
	}

	if err == nil {
		err = errors.NewProvider("extract", nil)
	} else {
		err = errors.NewProvider("extract", err)
	}

	if !a.localFallback {
		return nil, err
	}

	a.log.Warn("provider extraction failed, trying readability", "url", url, "error", err)
	return a.extractLocal(url)
}

// extractLocal fetches the page directly and runs readability over it,
// converting the article HTML to markdown so downstream consumers see
// the same text shape the provider produces.
func (a *Adapter) extractLocal(url string) (*Extraction, error) {
	article, err := readability.FromURL(url, 30*time.Second)
	if err != nil {
		return nil, errors.NewProvider("readability", err)
	}

	content, err := md.NewConverter("", true, nil).ConvertString(article.Content)
	if err != nil {
		// Markdown conversion is best-effort; fall back to plain text.
		content = article.TextContent
	}

	published := ""
	if article.PublishedTime != nil {
		published = article.PublishedTime.UTC().Format(time.RFC3339)
	}

	return &Extraction{
		URL:           url,
		Title:         article.Title,
		Content:       content,
		PublishedDate: published,
		Via:           "readability",
	}, nil
}
