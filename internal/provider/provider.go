// Package provider defines the contracts for live search and extraction
// services. The engine depends only on these interfaces; concrete clients
// live in subpackages.
package provider

import "context"

// SearchDepth selects how thoroughly the provider crawls for a query.
type SearchDepth string

const (
	DepthBasic    SearchDepth = "basic"
	DepthAdvanced SearchDepth = "advanced"
)

// SearchOptions bound a single provider search call.
type SearchOptions struct {
	// Depth selects basic or advanced provider search.
	Depth SearchDepth
	// MaxResults caps the number of returned results.
	MaxResults int
	// IncludeDomains restricts results to the given hostnames.
	IncludeDomains []string
	// Days is the recency window; 0 means provider default.
	Days int
}

// SearchResult is one hit from a live search call.
type SearchResult struct {
	Title         string
	URL           string
	Content       string
	Snippet       string
	PublishedDate string
	Score         *float64
}

// ExtractResult is the full-page content of a single URL.
type ExtractResult struct {
	URL           string
	Title         string
	Content       string
	PublishedDate string
}

// SearchProvider is a live search service.
type SearchProvider interface {
	Search(ctx context.Context, query string, opts SearchOptions) ([]SearchResult, error)
}

// ExtractProvider is a live full-page extraction service.
type ExtractProvider interface {
	Extract(ctx context.Context, urls []string) ([]ExtractResult, error)
}
