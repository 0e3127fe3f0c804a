// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package websearch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/pdiddy/collab-engine/internal/httputil"
)

// braveAPIBase is the Brave web-search endpoint. Package-level var for
// test substitution.
var braveAPIBase = "https://api.search.brave.com/res/v1/web/search"

// BraveTool queries the Brave Search API (R2.2). Brave enforces a
// 1 req/s limit on free keys; 429 responses are handled by the shared
// retry helper.
type BraveTool struct {
	Client    *http.Client
	APIKey    string
	UserAgent string
}

// Name returns the tool identifier.
func (b *BraveTool) Name() string { return "brave" }

type braveResponse struct {
	Web struct {
		Results []struct {
			Title       string `json:"title"`
			URL         string `json:"url"`
			Description string `json:"description"`
		} `json:"results"`
	} `json:"web"`
}

// Search queries Brave and returns up to maxResults hits (R2.2).
func (b *BraveTool) Search(ctx context.Context, query string, maxResults int) ([]Result, error) {
	if b.APIKey == "" {
		return nil, fmt.Errorf("brave API key is missing")
	}
	if maxResults <= 0 {
		maxResults = 5
	}

	params := url.Values{
		"q":     {query},
		"count": {fmt.Sprintf("%d", maxResults)},
	}
	reqURL := braveAPIBase + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Subscription-Token", b.APIKey)
	if b.UserAgent != "" {
		req.Header.Set("User-Agent", b.UserAgent)
	}

	resp, err := httputil.DoWithRetry(ctx, b.Client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("Brave API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Brave API returned HTTP %d", resp.StatusCode)
	}

	var br braveResponse
	if err := json.NewDecoder(resp.Body).Decode(&br); err != nil {
		return nil, fmt.Errorf("parsing Brave response: %w", err)
	}

	var results []Result
	for _, r := range br.Web.Results {
		results = append(results, Result{Title: r.Title, URL: r.URL, Content: r.Description})
		if len(results) >= maxResults {
			break
		}
	}
	return results, nil
}
