package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"coinwatch/internal/extract"
	"coinwatch/internal/ingest"
	"coinwatch/internal/resolve"
	"coinwatch/internal/store"
)

// toolEntry pairs a tool definition with a handler factory.
type toolEntry struct {
	def     mcp.Tool
	handler func(*Handlers) server.ToolHandlerFunc
}

// toolRegistry maps tool names to their definitions and handler factories.
var toolRegistry = map[string]toolEntry{
	"news_search": {
		def:     searchToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSearch },
	},
	"news_extract": {
		def:     extractToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleExtract },
	},
	"news_latest": {
		def:     latestToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleLatest },
	},
	"news_fetch_now": {
		def:     fetchNowToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleFetchNow },
	},
}

var searchToolDef = mcp.NewTool("news_search",
	mcp.WithDescription("Search for news. Serves cached articles when enough match; otherwise queries the live provider and caches what it finds."),
	mcp.WithString("query",
		mcp.Required(),
		mcp.Description("Search query"),
	),
	mcp.WithNumber("max_results",
		mcp.Description("Maximum number of results (default 10)"),
	),
	mcp.WithString("search_depth",
		mcp.Description("Provider search depth: basic or advanced (default basic)"),
	),
)

var extractToolDef = mcp.NewTool("news_extract",
	mcp.WithDescription("Extract the full content of a single article URL. Not cached."),
	mcp.WithString("url",
		mcp.Required(),
		mcp.Description("Article URL to extract"),
	),
)

var latestToolDef = mcp.NewTool("news_latest",
	mcp.WithDescription("List the most recently ingested articles, newest first."),
	mcp.WithNumber("limit",
		mcp.Description("Maximum number of articles (default 10)"),
	),
)

var fetchNowToolDef = mcp.NewTool("news_fetch_now",
	mcp.WithDescription("Trigger an ingestion sweep immediately. A sweep already in progress is not interrupted or queued."),
)

// AllToolNames returns a list of all tool names.
func AllToolNames() []string {
	names := make([]string, 0, len(toolRegistry))
	for name := range toolRegistry {
		names = append(names, name)
	}
	return names
}

// NewServer creates a new MCP server with coinwatch tools registered.
func NewServer(resolver *resolve.Resolver, extractor *extract.Adapter, st *store.Store, scheduler *ingest.Scheduler, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"coinwatch",
		version,
		server.WithToolCapabilities(true),
	)

	h := NewHandlers(resolver, extractor, st, scheduler)

	for _, entry := range toolRegistry {
		s.AddTool(entry.def, entry.handler(h))
	}

	return s
}

// Run starts the MCP server using stdio transport.
func Run(resolver *resolve.Resolver, extractor *extract.Adapter, st *store.Store, scheduler *ingest.Scheduler, version string) error {
	s := NewServer(resolver, extractor, st, scheduler, version)
	return server.ServeStdio(s)
}
