// Package news defines the article model shared by the store, the
// ingestion scheduler, and the resolver.
package news

import (
	"crypto/rand"
	"net/url"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// summaryMaxRunes bounds derived summaries when the provider supplies no
// snippet.
const summaryMaxRunes = 200

// defaultScore is used when the provider reports no relevance score.
const defaultScore = 0.5

// Article is the unit of cached knowledge. Articles are immutable after
// ingestion; they disappear by TTL expiry or index eviction, never by
// update.
type Article struct {
	ID            string  `json:"id"`
	Title         string  `json:"title"`
	URL           string  `json:"url"`
	Content       string  `json:"content"`
	Summary       string  `json:"summary"`
	PublishedDate string  `json:"published_date"`
	Source        string  `json:"source"`
	Score         float64 `json:"score"`
	Timestamp     int64   `json:"timestamp"`
}

// Candidate is raw provider output before ingestion-time derivation.
type Candidate struct {
	Title         string
	URL           string
	Content       string
	Snippet       string
	PublishedDate string
	Score         *float64
}

// New builds an Article from a provider candidate, generating the ID and
// deriving summary, source, and score at ingestion time. now is the
// ingestion instant; it feeds both the ordering timestamp and the
// published-date fallback.
func New(c Candidate, now time.Time) (*Article, error) {
	id, err := generateID(now)
	if err != nil {
		return nil, err
	}

	score := defaultScore
	if c.Score != nil {
		score = *c.Score
	}

	published := c.PublishedDate
	if published == "" {
		published = now.UTC().Format(time.RFC3339)
	}

	return &Article{
		ID:            id,
		Title:         c.Title,
		URL:           c.URL,
		Content:       c.Content,
		Summary:       deriveSummary(c.Snippet, c.Content),
		PublishedDate: published,
		Source:        hostnameOf(c.URL),
		Score:         score,
		Timestamp:     now.Unix(),
	}, nil
}

// generateID generates a new ULID.
func generateID(now time.Time) (string, error) {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(now), entropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// deriveSummary prefers the provider snippet; otherwise truncates content.
func deriveSummary(snippet, content string) string {
	if s := strings.TrimSpace(snippet); s != "" {
		return s
	}
	runes := []rune(strings.TrimSpace(content))
	if len(runes) <= summaryMaxRunes {
		return string(runes)
	}
	return string(runes[:summaryMaxRunes]) + "..."
}

// hostnameOf extracts the lowercased hostname from a URL. Returns the
// input unchanged when it does not parse; a wrong source label is better
// than dropping the article.
func hostnameOf(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Hostname() == "" {
		return strings.TrimSpace(raw)
	}
	return strings.ToLower(u.Hostname())
}
