package mcp

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"

	"coinwatch/internal/errors"
	"coinwatch/internal/extract"
	"coinwatch/internal/ingest"
	"coinwatch/internal/provider"
	"coinwatch/internal/resolve"
	"coinwatch/internal/store"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	resolver  *resolve.Resolver
	extractor *extract.Adapter
	store     *store.Store
	scheduler *ingest.Scheduler
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(r *resolve.Resolver, e *extract.Adapter, s *store.Store, sch *ingest.Scheduler) *Handlers {
	return &Handlers{resolver: r, extractor: e, store: s, scheduler: sch}
}

// Request types for each tool

// SearchRequest represents the arguments for news_search.
type SearchRequest struct {
	Query       string `json:"query"`
	MaxResults  int    `json:"max_results,omitempty"`
	SearchDepth string `json:"search_depth,omitempty"`
}

// ExtractRequest represents the arguments for news_extract.
type ExtractRequest struct {
	URL string `json:"url"`
}

// LatestRequest represents the arguments for news_latest.
type LatestRequest struct {
	Limit int `json:"limit,omitempty"`
}

// FetchNowResponse reports whether a manual trigger started a sweep.
type FetchNowResponse struct {
	Started bool   `json:"started"`
	Message string `json:"message"`
}

// HandleSearch handles the news_search tool call.
func (h *Handlers) HandleSearch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SearchRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := h.resolver.Resolve(ctx, input.Query, input.MaxResults, provider.SearchDepth(input.SearchDepth))
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleExtract handles the news_extract tool call.
func (h *Handlers) HandleExtract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ExtractRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := h.extractor.Extract(ctx, input.URL)
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleLatest handles the news_latest tool call.
func (h *Handlers) HandleLatest(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[LatestRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	limit := int64(input.Limit)
	if limit <= 0 {
		limit = 10
	}

	articles, err := h.store.List(ctx, limit, 0)
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(map[string]any{"articles": articles})
}

// HandleFetchNow handles the news_fetch_now tool call.
func (h *Handlers) HandleFetchNow(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if h.scheduler.Sweep(ctx) {
		return successResult(FetchNowResponse{
			Started: true,
			Message: "sweep completed",
		})
	}
	return successResult(FetchNowResponse{
		Started: false,
		Message: "sweep already in progress, trigger dropped",
	})
}

// Result helpers

// errorResult creates an MCP error result from any error.
// Uses IsError: true so MCP clients recognize failures properly.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	if cwErr, ok := err.(*errors.Error); ok {
		errorObj := map[string]any{
			"code":    cwErr.Code,
			"message": cwErr.Message,
			"status":  cwErr.Status,
		}
		// Internal error details stay server-side; they can carry store
		// addresses or provider payloads.
		if cwErr.Code != errors.ErrInternal && cwErr.Details != nil {
			errorObj["details"] = cwErr.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    "INTERNAL",
				"message": "an internal error occurred",
				"status":  500,
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
