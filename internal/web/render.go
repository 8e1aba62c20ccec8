package web

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yuin/goldmark"
)

//go:embed templates/*.html
var templateFS embed.FS

var newsTemplate = template.Must(template.ParseFS(templateFS, "templates/news.html"))

// newsPageItem is one article prepared for HTML rendering.
type newsPageItem struct {
	Title         string
	URL           string
	Source        string
	PublishedDate string
	Summary       template.HTML
}

// HandleNewsPage renders the latest cached articles as HTML. Provider
// summaries are markdown-flavored text, so they go through goldmark
// before templating.
// GET /news?limit=20
func (h *Handlers) HandleNewsPage(c *gin.Context) {
	limit := queryInt(c, "limit", 20)

	articles, err := h.store.List(c.Request.Context(), int64(limit), 0)
	if err != nil {
		respondError(c, err)
		return
	}

	items := make([]newsPageItem, 0, len(articles))
	for _, a := range articles {
		items = append(items, newsPageItem{
			Title:         a.Title,
			URL:           a.URL,
			Source:        a.Source,
			PublishedDate: a.PublishedDate,
			Summary:       renderMarkdown(a.Summary),
		})
	}

	var buf bytes.Buffer
	if err := newsTemplate.Execute(&buf, gin.H{
		"Items":       items,
		"GeneratedAt": time.Now().UTC().Format(time.RFC3339),
	}); err != nil {
		h.log.Error("render news page", "error", err)
		c.String(http.StatusInternalServerError, "render error")
		return
	}

	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

// renderMarkdown converts a markdown summary to HTML for templating.
// goldmark escapes raw HTML by default, which is what we want here.
func renderMarkdown(src string) template.HTML {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(src), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(src))
	}
	return template.HTML(buf.String())
}
