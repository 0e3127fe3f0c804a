// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package websearch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/pdiddy/collab-engine/pkg/types"
)

func testCfg() types.WebSearchConfig {
	return types.WebSearchConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   5 * time.Second,
			UserAgent: "collab-engine-test/0.1",
		},
		MaxResults: 5,
	}
}

// --- Registry ---

func TestNewSelectsByName(t *testing.T) {
	cfg := testCfg()

	tavily, err := New("tavily", "key", cfg)
	if err != nil {
		t.Fatalf("New(tavily): %v", err)
	}
	if tavily.Name() != "tavily" {
		t.Errorf("Name() = %q, want %q", tavily.Name(), "tavily")
	}

	brave, err := New("brave", "key", cfg)
	if err != nil {
		t.Fatalf("New(brave): %v", err)
	}
	if brave.Name() != "brave" {
		t.Errorf("Name() = %q, want %q", brave.Name(), "brave")
	}
}

func TestNewUnknownTool(t *testing.T) {
	_, err := New("duckduckgo", "key", testCfg())
	if err == nil {
		t.Fatal("expected error for unknown tool name")
	}
	if !strings.Contains(err.Error(), "duckduckgo") {
		t.Errorf("error %q should name the unknown tool", err)
	}
}

// --- Tavily ---

func TestTavilySearchRequestAndResults(t *testing.T) {
	var captured tavilyRequest
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decoding request body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"results":[
			{"title":"Quantum Lab","url":"https://a.example","content":"quantum sensing group"},
			{"title":"Photonics Dept","url":"https://b.example","content":"photonics research"}
		]}`)
	}))
	defer ts.Close()

	old := tavilyAPIURL
	tavilyAPIURL = ts.URL
	defer func() { tavilyAPIURL = old }()

	tool := &TavilyTool{Client: ts.Client(), APIKey: "tvly_test"}
	results, err := tool.Search(context.Background(), "quantum sensing groups", 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	// The API key travels in the request body.
	if captured.APIKey != "tvly_test" {
		t.Errorf("api_key = %q, want %q", captured.APIKey, "tvly_test")
	}
	if captured.Query != "quantum sensing groups" {
		t.Errorf("query = %q, want %q", captured.Query, "quantum sensing groups")
	}
	if captured.MaxResults != 5 {
		t.Errorf("max_results = %d, want 5", captured.MaxResults)
	}

	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].Title != "Quantum Lab" || results[0].Content != "quantum sensing group" {
		t.Errorf("unexpected first result: %+v", results[0])
	}
}

func TestTavilySearchTruncatesToMaxResults(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		var hits []string
		for i := 0; i < 10; i++ {
			hits = append(hits, fmt.Sprintf(`{"title":"t%d","url":"u%d","content":"c%d"}`, i, i, i))
		}
		fmt.Fprintf(w, `{"results":[%s]}`, strings.Join(hits, ","))
	}))
	defer ts.Close()

	old := tavilyAPIURL
	tavilyAPIURL = ts.URL
	defer func() { tavilyAPIURL = old }()

	tool := &TavilyTool{Client: ts.Client(), APIKey: "k"}
	results, err := tool.Search(context.Background(), "q", 3)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 3 {
		t.Errorf("got %d results, want 3", len(results))
	}
}

func TestTavilySearchMissingKey(t *testing.T) {
	tool := &TavilyTool{Client: http.DefaultClient}
	if _, err := tool.Search(context.Background(), "q", 5); err == nil {
		t.Fatal("expected error for missing API key")
	}
}

func TestTavilySearchHTTPError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer ts.Close()

	old := tavilyAPIURL
	tavilyAPIURL = ts.URL
	defer func() { tavilyAPIURL = old }()

	tool := &TavilyTool{Client: ts.Client(), APIKey: "bad"}
	_, err := tool.Search(context.Background(), "q", 5)
	if err == nil || !strings.Contains(err.Error(), "401") {
		t.Errorf("err = %v, want HTTP 401 error", err)
	}
}

// --- Brave ---

func TestBraveSearchRequestAndResults(t *testing.T) {
	var capturedReq *http.Request
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedReq = r
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"web":{"results":[
			{"title":"ETH Zurich","url":"https://ethz.ch","description":"quantum engineering"}
		]}}`)
	}))
	defer ts.Close()

	old := braveAPIBase
	braveAPIBase = ts.URL
	defer func() { braveAPIBase = old }()

	tool := &BraveTool{Client: ts.Client(), APIKey: "brave_test"}
	results, err := tool.Search(context.Background(), "quantum engineering", 4)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	// The API key travels in the subscription header.
	if got := capturedReq.Header.Get("X-Subscription-Token"); got != "brave_test" {
		t.Errorf("X-Subscription-Token = %q, want %q", got, "brave_test")
	}
	q := capturedReq.URL.Query()
	if got := q.Get("q"); got != "quantum engineering" {
		t.Errorf("q param = %q, want %q", got, "quantum engineering")
	}
	if got := q.Get("count"); got != "4" {
		t.Errorf("count param = %q, want %q", got, "4")
	}

	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	if results[0].Content != "quantum engineering" {
		t.Errorf("content = %q, want description text", results[0].Content)
	}
}

// --- Result formatting ---

func TestFormatResults(t *testing.T) {
	text := FormatResults("quantum labs", []Result{
		{Title: "Lab A", URL: "https://a", Content: "does quantum"},
		{Title: "Lab B", URL: "https://b", Content: "does photonics"},
	})

	for _, want := range []string{"quantum labs", "[1] Lab A", "https://a", "[2] Lab B", "does photonics"} {
		if !strings.Contains(text, want) {
			t.Errorf("formatted text missing %q:\n%s", want, text)
		}
	}
}

func TestFormatResultsEmpty(t *testing.T) {
	text := FormatResults("nothing", nil)
	if !strings.Contains(text, "No results found") {
		t.Errorf("empty results should say so, got %q", text)
	}
}
