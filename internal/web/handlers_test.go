package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"coinwatch/internal/dedup"
	"coinwatch/internal/extract"
	"coinwatch/internal/ingest"
	"coinwatch/internal/news"
	"coinwatch/internal/provider"
	"coinwatch/internal/resolve"
	"coinwatch/internal/store"
)

// stubProvider implements both provider contracts for router tests.
type stubProvider struct {
	searchResults  []provider.SearchResult
	extractResults []provider.ExtractResult
}

func (s *stubProvider) Search(ctx context.Context, query string, opts provider.SearchOptions) ([]provider.SearchResult, error) {
	return s.searchResults, nil
}

func (s *stubProvider) Extract(ctx context.Context, urls []string) ([]provider.ExtractResult, error) {
	return s.extractResults, nil
}

func testRouter(t *testing.T, p *stubProvider) (*gin.Engine, *store.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	st := store.New(rdb)
	gate := dedup.NewGate(st)
	resolver := resolve.New(st, gate, p, nil, nil)
	extractor := extract.New(p, nil)
	scheduler := ingest.New(st, gate, p, ingest.Options{
		Queries:    []string{"bitcoin"},
		MaxResults: 10,
	}, nil)

	return NewRouter(st, resolver, extractor, scheduler, nil), st
}

func seedArticle(t *testing.T, st *store.Store, id, title string, ts int64) {
	t.Helper()
	err := st.Put(context.Background(), &news.Article{
		ID:        id,
		Title:     title,
		URL:       "https://example.com/" + id,
		Content:   "content about " + title,
		Summary:   "**bold** summary",
		Source:    "example.com",
		Timestamp: ts,
	})
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}
}

func doRequest(router *gin.Engine, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(method, path, nil)
	router.ServeHTTP(w, req)
	return w
}

func TestHealthz(t *testing.T) {
	router, _ := testRouter(t, &stubProvider{})

	w := doRequest(router, http.MethodGet, "/healthz")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal body: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status = %v, want ok", body["status"])
	}
	if body["last_fetch"] != float64(0) {
		t.Errorf("last_fetch = %v, want 0 when never swept", body["last_fetch"])
	}
}

func TestListArticles(t *testing.T) {
	router, st := testRouter(t, &stubProvider{})
	seedArticle(t, st, "a1", "First", 100)
	seedArticle(t, st, "a2", "Second", 200)

	w := doRequest(router, http.MethodGet, "/api/articles?limit=1")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var body struct {
		Articles []news.Article `json:"articles"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal body: %v", err)
	}
	if len(body.Articles) != 1 || body.Articles[0].ID != "a2" {
		t.Errorf("articles = %v, want only the newest", body.Articles)
	}
}

func TestGetArticle_NotFound(t *testing.T) {
	router, _ := testRouter(t, &stubProvider{})

	w := doRequest(router, http.MethodGet, "/api/articles/missing")
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestGetArticle_Found(t *testing.T) {
	router, st := testRouter(t, &stubProvider{})
	seedArticle(t, st, "a1", "First", 100)

	w := doRequest(router, http.MethodGet, "/api/articles/a1")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var a news.Article
	if err := json.Unmarshal(w.Body.Bytes(), &a); err != nil {
		t.Fatalf("unmarshal body: %v", err)
	}
	if a.Title != "First" {
		t.Errorf("Title = %q, want First", a.Title)
	}
}

func TestSearch_MissingQuery(t *testing.T) {
	router, _ := testRouter(t, &stubProvider{})

	w := doRequest(router, http.MethodGet, "/api/search")
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestSearch_CachePath(t *testing.T) {
	router, st := testRouter(t, &stubProvider{})
	seedArticle(t, st, "a1", "Ethereum upgrade", 100)

	w := doRequest(router, http.MethodGet, "/api/search?q=ethereum&max_results=1")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal body: %v", err)
	}
	if body["origin"] != "cache" {
		t.Errorf("origin = %v, want cache", body["origin"])
	}
}

func TestFetch_RunsSweep(t *testing.T) {
	router, st := testRouter(t, &stubProvider{searchResults: []provider.SearchResult{
		{Title: "Swept", URL: "https://coindesk.com/s", Content: "c"},
	}})

	w := doRequest(router, http.MethodPost, "/api/fetch")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	all, err := st.All(context.Background())
	if err != nil {
		t.Fatalf("All failed: %v", err)
	}
	if len(all) != 1 {
		t.Errorf("stored %d articles, want 1", len(all))
	}
}

func TestNewsPage_RendersMarkdownSummaries(t *testing.T) {
	router, st := testRouter(t, &stubProvider{})
	seedArticle(t, st, "a1", "Rendered story", 100)

	w := doRequest(router, http.MethodGet, "/news")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	html := w.Body.String()
	if !strings.Contains(html, "Rendered story") {
		t.Error("page missing article title")
	}
	if !strings.Contains(html, "<strong>bold</strong>") {
		t.Error("summary markdown was not rendered to HTML")
	}
}

func TestNewsPage_EmptyStore(t *testing.T) {
	router, _ := testRouter(t, &stubProvider{})

	w := doRequest(router, http.MethodGet, "/news")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), "No articles cached yet") {
		t.Error("empty page should say so")
	}
}
