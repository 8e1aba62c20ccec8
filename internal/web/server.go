// Package web exposes the engine over HTTP: a small JSON API plus an
// HTML page of the latest cached articles.
package web

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"coinwatch/internal/extract"
	"coinwatch/internal/ingest"
	"coinwatch/internal/resolve"
	"coinwatch/internal/store"
)

// NewRouter constructs a Gin engine with registered routes.
func NewRouter(st *store.Store, resolver *resolve.Resolver, extractor *extract.Adapter, scheduler *ingest.Scheduler, log *slog.Logger) *gin.Engine {
	if log == nil {
		log = slog.Default()
	}

	r := gin.New()
	r.Use(gin.Recovery())

	h := &Handlers{
		store:     st,
		resolver:  resolver,
		extractor: extractor,
		scheduler: scheduler,
		log:       log,
	}

	r.GET("/healthz", h.HandleHealth)
	r.GET("/news", h.HandleNewsPage)

	api := r.Group("/api")
	{
		api.GET("/articles", h.HandleListArticles)
		api.GET("/articles/:id", h.HandleGetArticle)
		api.GET("/search", h.HandleSearch)
		api.GET("/extract", h.HandleExtract)
		api.POST("/fetch", h.HandleFetch)
	}

	return r
}
