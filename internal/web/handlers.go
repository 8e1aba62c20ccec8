package web

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"coinwatch/internal/errors"
	"coinwatch/internal/extract"
	"coinwatch/internal/ingest"
	"coinwatch/internal/provider"
	"coinwatch/internal/resolve"
	"coinwatch/internal/store"
)

// Handlers holds dependencies for HTTP handlers.
type Handlers struct {
	store     *store.Store
	resolver  *resolve.Resolver
	extractor *extract.Adapter
	scheduler *ingest.Scheduler
	log       *slog.Logger
}

// HandleHealth reports liveness and the last completed-or-started sweep.
// GET /healthz
func (h *Handlers) HandleHealth(c *gin.Context) {
	lastFetch, err := h.store.LastFetchTime(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "last_fetch": lastFetch})
}

// HandleListArticles returns cached articles, newest first.
// GET /api/articles?limit=10&offset=0
func (h *Handlers) HandleListArticles(c *gin.Context) {
	limit := queryInt(c, "limit", 10)
	offset := queryInt(c, "offset", 0)

	articles, err := h.store.List(c.Request.Context(), int64(limit), int64(offset))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"articles": articles})
}

// HandleGetArticle returns one cached article by ID.
// GET /api/articles/:id
func (h *Handlers) HandleGetArticle(c *gin.Context) {
	article, err := h.store.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, article)
}

// HandleSearch resolves a query cache-first.
// GET /api/search?q=ethereum&max_results=10&depth=basic
func (h *Handlers) HandleSearch(c *gin.Context) {
	result, err := h.resolver.Resolve(
		c.Request.Context(),
		c.Query("q"),
		queryInt(c, "max_results", 10),
		provider.SearchDepth(c.DefaultQuery("depth", "basic")),
	)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// HandleExtract extracts full-page content for one URL.
// GET /api/extract?url=https://...
func (h *Handlers) HandleExtract(c *gin.Context) {
	result, err := h.extractor.Extract(c.Request.Context(), c.Query("url"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// HandleFetch triggers an ingestion sweep. A sweep already in progress
// is reported, not queued.
// POST /api/fetch
func (h *Handlers) HandleFetch(c *gin.Context) {
	if h.scheduler.Sweep(c.Request.Context()) {
		c.JSON(http.StatusOK, gin.H{"started": true, "message": "sweep completed"})
		return
	}
	c.JSON(http.StatusConflict, gin.H{"started": false, "message": "sweep already in progress"})
}

// respondError maps typed errors onto their HTTP status.
func respondError(c *gin.Context, err error) {
	if cwErr, ok := err.(*errors.Error); ok {
		c.JSON(cwErr.Status, gin.H{"error": gin.H{
			"code":    cwErr.Code,
			"message": cwErr.Message,
		}})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": gin.H{
		"code":    "INTERNAL",
		"message": "an internal error occurred",
	}})
}

func queryInt(c *gin.Context, key string, fallback int) int {
	v := c.Query(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
