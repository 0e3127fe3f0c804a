// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package agent runs the multi-phase search-and-extract loop: a
// conversation driver gathers research text from an LLM, an extraction
// engine turns it into structured records, and the orchestrator sequences
// discovery, fan-out, and aggregation.
// Implements: prd001-conversation, prd002-extraction, prd003-errors,
// prd004-orchestration;
//
//	docs/ARCHITECTURE § Conversation Driver, § Orchestration.
package agent

import (
	"context"
	"strings"

	"github.com/pdiddy/collab-engine/internal/provider"
	"github.com/pdiddy/collab-engine/internal/websearch"
	"github.com/pdiddy/collab-engine/pkg/types"
)

// stopToken ends a research loop when it appears anywhere in a response,
// any case. The system prompt instructs the model to emit it when the
// topic is exhausted.
const stopToken = "SEARCH COMPLETE"

// webSearchToolName is the function tool offered to models without native
// search grounding.
const webSearchToolName = "web_search"

// Driver executes bounded multi-turn exchanges with one LLM backend.
// It picks the turn protocol from the client's capabilities: grounded
// search when the transport has it, explicit web_search tool calls
// otherwise. Per prd001-conversation R1.1.
type Driver struct {
	Client provider.Client

	// Search executes web_search tool calls for non-grounded clients.
	// Unused when the client supports grounded search.
	Search websearch.Tool

	// SearchResults is the per-query result count for tool-based search.
	SearchResults int

	Log Logger
	Cfg types.DriverConfig
}

// ResearchParams configures one research-mode driver invocation.
type ResearchParams struct {
	System          string
	UserMessage     string
	ContinueMessage string

	// MaxTurns is the text-turn budget, not an API-call budget.
	MaxTurns int

	// Phase labels diagnostics; it carries no semantics.
	Phase string
}

// RunResearch executes one research loop and returns the accumulated
// text. fatal is true when a classified-fatal provider error aborted the
// phase; the accumulated text from earlier successful turns is still
// returned alongside it.
func (d *Driver) RunResearch(ctx context.Context, p ResearchParams) (text string, fatal bool) {
	if p.MaxTurns <= 0 {
		p.MaxTurns = d.Cfg.MaxTurns
	}
	if d.Client.SupportsGroundedSearch() {
		return d.runGrounded(ctx, p)
	}
	return d.runToolSearch(ctx, p)
}

// shouldStop evaluates the shared stop conditions after a text turn:
// the stop token anywhere in the text, or a diminishing-returns shrink
// below Cfg.DiminishingRatio of the previous turn (R3.1, R3.2).
func (d *Driver) shouldStop(text string, prevLen int) bool {
	if strings.Contains(strings.ToUpper(text), stopToken) {
		return true
	}
	ratio := d.Cfg.DiminishingRatio
	if ratio <= 0 {
		ratio = 0.3
	}
	if prevLen > 0 && float64(len(text)) < ratio*float64(prevLen) {
		return true
	}
	return false
}

// runGrounded is the grounded-search protocol: every call both searches
// and answers, so each API call is a text turn (R2.1).
func (d *Driver) runGrounded(ctx context.Context, p ResearchParams) (string, bool) {
	conv := d.Client.NewConversation(provider.ConversationOptions{
		System:         p.System,
		GroundedSearch: true,
		Temperature:    d.Cfg.Temperature,
	})

	var parts []string
	prevLen := 0
	message := p.UserMessage

	for turn := 0; turn < p.MaxTurns; turn++ {
		if ctx.Err() != nil {
			break
		}

		reply, err := conv.Send(ctx, message)
		if err != nil {
			if handleAPIError(d.Log, p.Phase, err) {
				return joinParts(parts), true
			}
			break
		}

		text := strings.TrimSpace(reply.Text)
		if text == "" {
			// Silence after accumulated text means nothing more is
			// coming; silence before any text is tolerated.
			if len(parts) > 0 {
				break
			}
			message = p.ContinueMessage
			continue
		}

		parts = append(parts, text)
		d.Log.Dim("turn %d/%d: %d chars", turn+1, p.MaxTurns, len(text))

		if d.shouldStop(text, prevLen) {
			break
		}
		prevLen = len(text)
		message = p.ContinueMessage
	}

	return joinParts(parts), false
}

// runToolSearch is the tool-based protocol: the model requests searches
// via web_search calls, which do not consume the text-turn budget. Two
// counters run independently: text turns against MaxTurns, search rounds
// against MaxTurns × RoundCeilingMultiplier (R2.2, R2.3).
func (d *Driver) runToolSearch(ctx context.Context, p ResearchParams) (string, bool) {
	conv := d.Client.NewConversation(provider.ConversationOptions{
		System:      p.System,
		Tools:       []provider.ToolDef{webSearchToolDef()},
		Temperature: d.Cfg.Temperature,
	})

	multiplier := d.Cfg.RoundCeilingMultiplier
	if multiplier <= 0 {
		multiplier = 3
	}
	maxRounds := p.MaxTurns * multiplier

	var parts []string
	prevLen := 0
	textTurns := 0
	searchRounds := 0
	emptyTurns := 0
	didSearch := false

	reply, err := conv.Send(ctx, p.UserMessage)
	for {
		if err != nil {
			if handleAPIError(d.Log, p.Phase, err) {
				return joinParts(parts), true
			}
			break
		}
		if ctx.Err() != nil {
			break
		}

		if len(reply.ToolCalls) > 0 {
			// Findings reported in the same reply as a search request are
			// kept; only pure text turns consume the budget or trigger the
			// stop checks.
			if text := strings.TrimSpace(reply.Text); text != "" {
				parts = append(parts, text)
			}
			if searchRounds >= maxRounds {
				d.Log.Warning("search round ceiling reached (%d), stopping", maxRounds)
				break
			}
			searchRounds++
			didSearch = true

			results := d.executeToolCalls(ctx, reply.ToolCalls)
			reply, err = conv.SendToolResults(ctx, results)
			continue
		}

		text := strings.TrimSpace(reply.Text)
		if text == "" {
			// Tolerated while nothing has accumulated, but bounded so a
			// backend that only ever returns silence cannot spin.
			if len(parts) > 0 {
				break
			}
			emptyTurns++
			if emptyTurns >= p.MaxTurns {
				break
			}
			reply, err = conv.Send(ctx, p.ContinueMessage)
			continue
		}

		textTurns++
		parts = append(parts, text)
		d.Log.Dim("text turn %d/%d (%d search rounds)", textTurns, p.MaxTurns, searchRounds)

		if d.shouldStop(text, prevLen) || textTurns >= p.MaxTurns {
			break
		}
		prevLen = len(text)
		reply, err = conv.Send(ctx, p.ContinueMessage)
	}

	// Searches happened but no prose accumulated: one best-effort
	// synthesis call with tools disabled. Failures here are swallowed
	// (R2.4).
	if didSearch && len(parts) == 0 && ctx.Err() == nil {
		final, ferr := conv.SendWithoutTools(ctx,
			"Based on all the search results above, write a comprehensive summary of the researchers and groups you found.")
		if ferr == nil && final != nil && strings.TrimSpace(final.Text) != "" {
			parts = append(parts, strings.TrimSpace(final.Text))
		}
	}

	return joinParts(parts), false
}

// executeToolCalls runs every tool call in a round against the search
// tool and pairs each with its result text. Unknown tool names are
// acknowledged so the conversation stays consistent (R2.5).
func (d *Driver) executeToolCalls(ctx context.Context, calls []provider.ToolCall) []provider.ToolResult {
	var results []provider.ToolResult
	for _, call := range calls {
		if call.Name != webSearchToolName {
			results = append(results, provider.ToolResult{
				Call:    call,
				Content: "Unknown tool: " + call.Name,
			})
			continue
		}

		query, _ := call.Args["query"].(string)
		if query == "" {
			results = append(results, provider.ToolResult{
				Call:    call,
				Content: "Error: web_search requires a query argument",
			})
			continue
		}

		d.Log.Dim("searching: %s", query)
		hits, err := d.Search.Search(ctx, query, d.SearchResults)
		if err != nil {
			d.Log.Warning("web search failed: %v", err)
			results = append(results, provider.ToolResult{
				Call:    call,
				Content: "Search failed: " + err.Error(),
			})
			continue
		}
		results = append(results, provider.ToolResult{
			Call:    call,
			Content: websearch.FormatResults(query, hits),
		})
	}
	return results
}

func webSearchToolDef() provider.ToolDef {
	return provider.ToolDef{
		Name:        webSearchToolName,
		Description: "Search the web for current information. Returns titles, URLs, and content snippets.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"query": map[string]any{
					"type":        "string",
					"description": "The search query",
				},
			},
			"required": []string{"query"},
		},
	}
}

func joinParts(parts []string) string {
	return strings.Join(parts, "\n\n")
}
