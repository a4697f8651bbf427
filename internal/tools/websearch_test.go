package tools

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/koopa0/parley/internal/log"
	"github.com/koopa0/parley/internal/security"
)

const searchPageHTML = `<!DOCTYPE html>
<html><body>
<div class="result">
  <a class="result__a" href="//duckduckgo.com/l/?uddg=https%3A%2F%2Fgo.dev%2F">The Go Programming Language</a>
  <div class="result__snippet">Go is an open source programming language.</div>
</div>
<div class="result">
  <a class="result__a" href="https://pkg.go.dev/">Go Packages</a>
  <div class="result__snippet">Discover packages.</div>
</div>
<div class="result">
  <a class="result__a" href=""></a>
  <div class="result__snippet">broken entry without link</div>
</div>
<div class="result">
  <a class="result__a" href="https://go.dev/blog/">The Go Blog</a>
</div>
</body></html>`

func TestParseSearchResults(t *testing.T) {
	results, err := parseSearchResults(strings.NewReader(searchPageHTML), 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 3 {
		t.Fatalf("parsed %d results, want 3", len(results))
	}

	if results[0].URL != "https://go.dev/" {
		t.Errorf("redirect link not unwrapped: %q", results[0].URL)
	}
	if results[0].Title != "The Go Programming Language" {
		t.Errorf("title = %q", results[0].Title)
	}
	if results[1].Snippet != "Discover packages." {
		t.Errorf("snippet = %q", results[1].Snippet)
	}
	if results[2].Snippet != "" {
		t.Errorf("missing snippet should be empty, got %q", results[2].Snippet)
	}
}

func TestParseSearchResultsLimit(t *testing.T) {
	results, err := parseSearchResults(strings.NewReader(searchPageHTML), 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 {
		t.Errorf("parsed %d results, want 1", len(results))
	}
}

func TestCleanResultURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"//duckduckgo.com/l/?uddg=https%3A%2F%2Fexample.com%2Fpage", "https://example.com/page"},
		{"https://example.com/direct", "https://example.com/direct"},
		{"not a url at all", "not a url at all"},
	}
	for _, tt := range tests {
		if got := cleanResultURL(tt.in); got != tt.want {
			t.Errorf("cleanResultURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestWebSearchEmptyQuery(t *testing.T) {
	tool, err := NewWebSearch(WebSearchConfig{}, security.NewHTTP(), log.NewNop())
	if err != nil {
		t.Fatal(err)
	}

	payload, _ := json.Marshal(WebSearchInput{Query: "   "})
	res := tool.Call(context.Background(), payload)
	if res.Status != StatusError || res.Error.Code != ErrCodeInvalidInput {
		t.Errorf("empty query = %+v, want %s", res, ErrCodeInvalidInput)
	}
}

func TestWebSearchRejectsPrivateEndpoint(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(searchPageHTML))
	}))
	defer srv.Close()

	// httptest binds to 127.0.0.1, which the SSRF validator refuses.
	tool, err := NewWebSearch(WebSearchConfig{BaseURL: srv.URL}, security.NewHTTP(), log.NewNop())
	if err != nil {
		t.Fatal(err)
	}

	payload, _ := json.Marshal(WebSearchInput{Query: "golang"})
	res := tool.Call(context.Background(), payload)
	if res.Status != StatusError || res.Error.Code != ErrCodeSecurity {
		t.Errorf("loopback endpoint = %+v, want %s", res, ErrCodeSecurity)
	}
}
