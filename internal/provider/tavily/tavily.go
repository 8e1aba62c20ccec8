// Package tavily implements the provider contracts against the Tavily
// REST API.
package tavily

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"coinwatch/internal/provider"
)

const defaultBaseURL = "https://api.tavily.com"

// Client calls the Tavily search and extract endpoints.
type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API endpoint, mainly for tests.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// New creates a Tavily client.
func New(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type searchRequest struct {
	Query          string   `json:"query"`
	Topic          string   `json:"topic,omitempty"`
	SearchDepth    string   `json:"search_depth,omitempty"`
	MaxResults     int      `json:"max_results,omitempty"`
	IncludeDomains []string `json:"include_domains,omitempty"`
	Days           int      `json:"days,omitempty"`
}

type searchResponse struct {
	Results []struct {
		Title         string   `json:"title"`
		URL           string   `json:"url"`
		Content       string   `json:"content"`
		Snippet       string   `json:"snippet"`
		PublishedDate string   `json:"published_date"`
		Score         *float64 `json:"score"`
	} `json:"results"`
}

// Search implements provider.SearchProvider.
func (c *Client) Search(ctx context.Context, query string, opts provider.SearchOptions) ([]provider.SearchResult, error) {
	req := searchRequest{
		Query:          query,
		Topic:          "news",
		SearchDepth:    string(opts.Depth),
		MaxResults:     opts.MaxResults,
		IncludeDomains: opts.IncludeDomains,
		Days:           opts.Days,
	}

	var resp searchResponse
	if err := c.post(ctx, "/search", req, &resp); err != nil {
		return nil, err
	}

	results := make([]provider.SearchResult, 0, len(resp.Results))
	for _, r := range resp.Results {
		results = append(results, provider.SearchResult{
			Title:         r.Title,
			URL:           r.URL,
			Content:       r.Content,
			Snippet:       r.Snippet,
			PublishedDate: r.PublishedDate,
			Score:         r.Score,
		})
	}
	return results, nil
}

type extractRequest struct {
	URLs []string `json:"urls"`
}

type extractResponse struct {
	Results []struct {
		URL           string `json:"url"`
		Title         string `json:"title"`
		RawContent    string `json:"raw_content"`
		PublishedDate string `json:"published_date"`
	} `json:"results"`
}

// Extract implements provider.ExtractProvider.
func (c *Client) Extract(ctx context.Context, urls []string) ([]provider.ExtractResult, error) {
	var resp extractResponse
	if err := c.post(ctx, "/extract", extractRequest{URLs: urls}, &resp); err != nil {
		return nil, err
	}

	results := make([]provider.ExtractResult, 0, len(resp.Results))
	for _, r := range resp.Results {
		results = append(results, provider.ExtractResult{
			URL:           r.URL,
			Title:         r.Title,
			Content:       r.RawContent,
			PublishedDate: r.PublishedDate,
		})
	}
	return results, nil
}

// post sends a JSON request and decodes the JSON response.
func (c *Client) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("tavily %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("tavily %s: status %d: %s", path, resp.StatusCode, string(data))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
