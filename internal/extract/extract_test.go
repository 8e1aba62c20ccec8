package extract

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	cwerrors "coinwatch/internal/errors"
	"coinwatch/internal/provider"
)

// stubExtract is a scriptable ExtractProvider.
type stubExtract struct {
	results []provider.ExtractResult
	err     error
	calls   int
}

func (s *stubExtract) Extract(ctx context.Context, urls []string) ([]provider.ExtractResult, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.results, nil
}

func TestExtract_EmptyURL(t *testing.T) {
	a := New(&stubExtract{}, nil)

	_, err := a.Extract(context.Background(), "")
	if !cwerrors.Is(err, cwerrors.ErrInvalidRequest) {
		t.Errorf("Extract error = %v, want INVALID_REQUEST", err)
	}
}

func TestExtract_Passthrough(t *testing.T) {
	stub := &stubExtract{results: []provider.ExtractResult{{
		URL:           "https://coindesk.com/a",
		Title:         "A headline",
		Content:       "Full body",
		PublishedDate: "2023-11-14T12:00:00Z",
	}}}
	a := New(stub, nil)

	got, err := a.Extract(context.Background(), "https://coindesk.com/a")
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if got.Title != "A headline" || got.Content != "Full body" {
		t.Errorf("Extract = %+v, want provider passthrough", got)
	}
	if got.Via != "provider" {
		t.Errorf("Via = %q, want provider", got.Via)
	}
}

func TestExtract_ZeroResultsIsProviderError(t *testing.T) {
	a := New(&stubExtract{}, nil)

	_, err := a.Extract(context.Background(), "https://coindesk.com/a")
	if !cwerrors.Is(err, cwerrors.ErrProvider) {
		t.Errorf("Extract error = %v, want PROVIDER_ERROR", err)
	}
}

func TestExtract_ProviderErrorPropagatesWithoutFallback(t *testing.T) {
	stub := &stubExtract{err: errors.New("timeout")}
	a := New(stub, nil)

	_, err := a.Extract(context.Background(), "https://coindesk.com/a")
	if !cwerrors.Is(err, cwerrors.ErrProvider) {
		t.Errorf("Extract error = %v, want PROVIDER_ERROR", err)
	}
	if stub.calls != 1 {
		t.Errorf("provider called %d times, want exactly 1 (no retry)", stub.calls)
	}
}

func TestExtract_LocalFallback(t *testing.T) {
	page := `<!DOCTYPE html><html><head><title>Local headline</title></head>
<body><article>
<h1>Local headline</h1>
` + strings.Repeat("<p>A reasonably long paragraph of article text so readability accepts the page as content.</p>\n", 10) + `
</article></body></html>`

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(page))
	}))
	defer srv.Close()

	a := New(&stubExtract{err: errors.New("provider down")}, nil, WithLocalFallback())

	got, err := a.Extract(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Extract with fallback failed: %v", err)
	}
	if got.Via != "readability" {
		t.Errorf("Via = %q, want readability", got.Via)
	}
	if !strings.Contains(got.Content, "reasonably long paragraph") {
		t.Errorf("fallback content missing article text: %q", got.Content)
	}
}
