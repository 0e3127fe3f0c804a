// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package agent

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/collab-engine/internal/console"
	"github.com/pdiddy/collab-engine/internal/provider"
	"github.com/pdiddy/collab-engine/internal/websearch"
	"github.com/pdiddy/collab-engine/pkg/types"
)

func testDriver(client provider.Client) (*Driver, *console.Console) {
	con := console.New(&bytes.Buffer{})
	return &Driver{
		Client:        client,
		Search:        &fakeSearch{},
		SearchResults: 3,
		Log:           con,
		Cfg: types.DriverConfig{
			MaxTurns:               10,
			DiminishingRatio:       0.3,
			RoundCeilingMultiplier: 3,
		},
	}, con
}

func TestRunResearch_StopTokenEndsAfterOneCall(t *testing.T) {
	conv := newScriptConv(
		textStep("Found three strong candidates. SEARCH COMPLETE"),
		textStep("should never be requested"),
	)
	client := &mockClient{grounded: true, queue: []provider.Conversation{conv}}
	d, _ := testDriver(client)

	text, fatal := d.RunResearch(context.Background(), ResearchParams{
		UserMessage: "find collaborators", ContinueMessage: "continue", MaxTurns: 5, Phase: "research",
	})

	require.False(t, fatal)
	assert.Contains(t, text, "three strong candidates")
	assert.Equal(t, 1, conv.calls())
}

func TestRunResearch_StopTokenCaseInsensitive(t *testing.T) {
	conv := newScriptConv(textStep("Nothing further to add. Search complete."))
	client := &mockClient{grounded: true, queue: []provider.Conversation{conv}}
	d, _ := testDriver(client)

	_, fatal := d.RunResearch(context.Background(), ResearchParams{
		UserMessage: "go", ContinueMessage: "more", MaxTurns: 5,
	})

	require.False(t, fatal)
	assert.Equal(t, 1, conv.calls())
}

func TestRunResearch_DiminishingReturnsKeepsBothTurns(t *testing.T) {
	long := strings.Repeat("a", 1000)
	short := strings.Repeat("b", 200)
	conv := newScriptConv(textStep(long), textStep(short), textStep("unreachable"))
	client := &mockClient{grounded: true, queue: []provider.Conversation{conv}}
	d, _ := testDriver(client)

	text, fatal := d.RunResearch(context.Background(), ResearchParams{
		UserMessage: "go", ContinueMessage: "more", MaxTurns: 10,
	})

	require.False(t, fatal)
	assert.Equal(t, 2, conv.calls())
	// The shrinking turn is appended before the stop check fires.
	assert.Contains(t, text, long)
	assert.Contains(t, text, short)
}

func TestRunResearch_ExactTurnBudget(t *testing.T) {
	body := strings.Repeat("x", 100)
	conv := newScriptConv(textStep(body), textStep(body), textStep(body), textStep(body))
	client := &mockClient{grounded: true, queue: []provider.Conversation{conv}}
	d, _ := testDriver(client)

	text, fatal := d.RunResearch(context.Background(), ResearchParams{
		UserMessage: "go", ContinueMessage: "more", MaxTurns: 3,
	})

	require.False(t, fatal)
	assert.Equal(t, 3, conv.calls())
	assert.Len(t, strings.Split(text, "\n\n"), 3)
}

func TestRunResearch_EmptyTurnToleratedBeforeText(t *testing.T) {
	conv := newScriptConv(textStep(""), textStep("late findings SEARCH COMPLETE"))
	client := &mockClient{grounded: true, queue: []provider.Conversation{conv}}
	d, _ := testDriver(client)

	text, fatal := d.RunResearch(context.Background(), ResearchParams{
		UserMessage: "go", ContinueMessage: "keep going", MaxTurns: 5,
	})

	require.False(t, fatal)
	assert.Contains(t, text, "late findings")
	require.Len(t, conv.sendMsgs, 2)
	assert.Equal(t, "keep going", conv.sendMsgs[1])
}

func TestRunResearch_SilenceAfterTextEndsLoop(t *testing.T) {
	conv := newScriptConv(textStep("initial findings on the Delft group"), textStep(""))
	client := &mockClient{grounded: true, queue: []provider.Conversation{conv}}
	d, _ := testDriver(client)

	text, fatal := d.RunResearch(context.Background(), ResearchParams{
		UserMessage: "go", ContinueMessage: "more", MaxTurns: 5,
	})

	require.False(t, fatal)
	assert.Equal(t, "initial findings on the Delft group", text)
	// Nothing follows silence once text has accumulated.
	assert.Equal(t, 2, conv.calls())
}

func TestRunResearch_FatalErrorAbortsPhase(t *testing.T) {
	conv := newScriptConv(errStep(errors.New("openai: insufficient_quota for request")))
	client := &mockClient{grounded: true, queue: []provider.Conversation{conv}}
	d, con := testDriver(client)

	text, fatal := d.RunResearch(context.Background(), ResearchParams{
		UserMessage: "go", ContinueMessage: "more", MaxTurns: 5, Phase: "research",
	})

	assert.True(t, fatal)
	assert.Empty(t, text)
	fatals := con.Fatals()
	require.Len(t, fatals, 1)
	assert.Equal(t, "insufficient_quota", fatals[0].Code)
}

func TestRunResearch_TransientErrorKeepsPartials(t *testing.T) {
	conv := newScriptConv(
		textStep(strings.Repeat("findings ", 50)),
		errStep(errors.New("connection reset by peer")),
	)
	client := &mockClient{grounded: true, queue: []provider.Conversation{conv}}
	d, con := testDriver(client)

	text, fatal := d.RunResearch(context.Background(), ResearchParams{
		UserMessage: "go", ContinueMessage: "more", MaxTurns: 5, Phase: "research",
	})

	assert.False(t, fatal)
	assert.Contains(t, text, "findings")
	assert.Empty(t, con.Fatals())
}

func TestRunResearch_ToolRoundsDoNotConsumeTextBudget(t *testing.T) {
	conv := newScriptConv(
		callStep(toolCall(webSearchToolName, map[string]any{"query": "quantum sensing groups"})),
		callStep(toolCall(webSearchToolName, map[string]any{"query": "quantum sensing labs europe"})),
		textStep("Two groups stand out: the Berlin lab and the Delft lab."),
	)
	client := &mockClient{queue: []provider.Conversation{conv}}
	d, _ := testDriver(client)
	search := &fakeSearch{results: []websearch.Result{{Title: "hit", URL: "https://example.org", Content: "snippet"}}}
	d.Search = search

	text, fatal := d.RunResearch(context.Background(), ResearchParams{
		UserMessage: "go", ContinueMessage: "more", MaxTurns: 1,
	})

	require.False(t, fatal)
	assert.Contains(t, text, "Berlin lab")
	assert.Len(t, search.queries, 2)
	assert.Len(t, conv.toolRounds, 2)
}

func TestRunResearch_TextAlongsideToolCallsKept(t *testing.T) {
	conv := newScriptConv(
		step{reply: &provider.Reply{
			Text:      "Key finding: the Delft lab leads this field.",
			ToolCalls: []provider.ToolCall{toolCall(webSearchToolName, map[string]any{"query": "delft quantum lab"})},
		}},
		textStep("Confirmed the Delft result. SEARCH COMPLETE"),
	)
	client := &mockClient{queue: []provider.Conversation{conv}}
	d, _ := testDriver(client)

	text, fatal := d.RunResearch(context.Background(), ResearchParams{
		UserMessage: "go", ContinueMessage: "more", MaxTurns: 3,
	})

	require.False(t, fatal)
	// Findings reported in the same reply as a search request survive.
	assert.Contains(t, text, "Key finding: the Delft lab")
	assert.Contains(t, text, "Confirmed the Delft result")
	assert.Len(t, conv.toolRounds, 1)
}

func TestRunResearch_ToolSearchSilenceAfterTextEndsLoop(t *testing.T) {
	conv := newScriptConv(textStep("findings from the first pass"), textStep(""))
	client := &mockClient{queue: []provider.Conversation{conv}}
	d, _ := testDriver(client)

	text, fatal := d.RunResearch(context.Background(), ResearchParams{
		UserMessage: "go", ContinueMessage: "more", MaxTurns: 5,
	})

	require.False(t, fatal)
	assert.Equal(t, "findings from the first pass", text)
	assert.Equal(t, 2, conv.calls())
}

func TestRunResearch_SearchRoundCeiling(t *testing.T) {
	conv := newScriptConv(
		callStep(toolCall(webSearchToolName, map[string]any{"query": "q1"})),
		callStep(toolCall(webSearchToolName, map[string]any{"query": "q2"})),
		callStep(toolCall(webSearchToolName, map[string]any{"query": "q3"})),
		textStep("synthesized summary of the search results"),
	)
	client := &mockClient{queue: []provider.Conversation{conv}}
	d, _ := testDriver(client)
	d.Cfg.RoundCeilingMultiplier = 2

	text, fatal := d.RunResearch(context.Background(), ResearchParams{
		UserMessage: "go", ContinueMessage: "more", MaxTurns: 1,
	})

	require.False(t, fatal)
	assert.Len(t, conv.toolRounds, 2)
	// Ceiling hit with no prose: the no-tools synthesis call recovers it.
	require.Len(t, conv.noToolsMsgs, 1)
	assert.Equal(t, "synthesized summary of the search results", text)
}

func TestRunResearch_FinalSynthesisAfterSilentSearch(t *testing.T) {
	conv := newScriptConv(
		callStep(toolCall(webSearchToolName, map[string]any{"query": "q"})),
		textStep(""),
		textStep("summary assembled without tools"),
	)
	client := &mockClient{queue: []provider.Conversation{conv}}
	d, _ := testDriver(client)

	text, fatal := d.RunResearch(context.Background(), ResearchParams{
		UserMessage: "go", ContinueMessage: "more", MaxTurns: 1,
	})

	require.False(t, fatal)
	require.Len(t, conv.noToolsMsgs, 1)
	assert.Equal(t, "summary assembled without tools", text)
}

func TestRunResearch_SynthesisFailureSwallowed(t *testing.T) {
	conv := newScriptConv(
		callStep(toolCall(webSearchToolName, map[string]any{"query": "q"})),
		textStep(""),
		errStep(errors.New("transport closed")),
	)
	client := &mockClient{queue: []provider.Conversation{conv}}
	d, _ := testDriver(client)

	text, fatal := d.RunResearch(context.Background(), ResearchParams{
		UserMessage: "go", ContinueMessage: "more", MaxTurns: 1,
	})

	assert.False(t, fatal)
	assert.Empty(t, text)
}

func TestExecuteToolCalls(t *testing.T) {
	d, _ := testDriver(&mockClient{})

	t.Run("unknown tool acknowledged", func(t *testing.T) {
		results := d.executeToolCalls(context.Background(), []provider.ToolCall{
			toolCall("fetch_page", nil),
		})
		require.Len(t, results, 1)
		assert.Equal(t, "Unknown tool: fetch_page", results[0].Content)
	})

	t.Run("missing query", func(t *testing.T) {
		results := d.executeToolCalls(context.Background(), []provider.ToolCall{
			toolCall(webSearchToolName, nil),
		})
		require.Len(t, results, 1)
		assert.Contains(t, results[0].Content, "requires a query")
	})

	t.Run("search failure reported to model", func(t *testing.T) {
		d.Search = &fakeSearch{err: errors.New("tavily unreachable")}
		results := d.executeToolCalls(context.Background(), []provider.ToolCall{
			toolCall(webSearchToolName, map[string]any{"query": "q"}),
		})
		require.Len(t, results, 1)
		assert.Contains(t, results[0].Content, "Search failed: tavily unreachable")
	})
}
