// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package websearch provides the external web-search tool used by models
// without native search grounding. Each backend implements the Tool
// interface per the Strategy pattern.
// Implements: prd006-websearch (R1-R3);
//
//	docs/ARCHITECTURE § Web Search.
package websearch

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/pdiddy/collab-engine/pkg/types"
)

// Result is one web-search hit in the shape fed back to the model.
type Result struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Content string `json:"content"`
}

// Tool searches the web through one external API (R1.1).
type Tool interface {
	Name() string
	Search(ctx context.Context, query string, maxResults int) ([]Result, error)
}

// New returns the named search tool. Selection is by string name so the
// model registry and CLI can configure it without touching concrete types
// (R1.3).
func New(name, apiKey string, cfg types.WebSearchConfig) (Tool, error) {
	client := &http.Client{Timeout: cfg.Timeout}
	switch name {
	case "tavily":
		return &TavilyTool{Client: client, APIKey: apiKey, UserAgent: cfg.UserAgent}, nil
	case "brave":
		return &BraveTool{Client: client, APIKey: apiKey, UserAgent: cfg.UserAgent}, nil
	default:
		return nil, fmt.Errorf("unknown search tool %q: available tools are %s", name, strings.Join(Names(), ", "))
	}
}

// Names lists the registered tool names, sorted.
func Names() []string {
	names := []string{"tavily", "brave"}
	sort.Strings(names)
	return names
}

// FormatResults renders results as the plain-text block returned to the
// model after a web_search tool call (R3.2).
func FormatResults(query string, results []Result) string {
	if len(results) == 0 {
		return fmt.Sprintf("No results found for query: %s", query)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Search results for %q:\n", query)
	for i, r := range results {
		fmt.Fprintf(&b, "\n[%d] %s\n%s\n%s\n", i+1, r.Title, r.URL, r.Content)
	}
	return b.String()
}
