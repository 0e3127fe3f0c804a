// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package agent

import (
	"context"
	"sync"

	"github.com/pdiddy/collab-engine/internal/provider"
	"github.com/pdiddy/collab-engine/internal/websearch"
)

// step is one scripted backend response.
type step struct {
	reply *provider.Reply
	err   error
}

func textStep(s string) step {
	return step{reply: &provider.Reply{Text: s}}
}

func callStep(calls ...provider.ToolCall) step {
	return step{reply: &provider.Reply{ToolCalls: calls}}
}

func errStep(err error) step {
	return step{err: err}
}

func toolCall(name string, args map[string]any) provider.ToolCall {
	if args == nil {
		args = map[string]any{}
	}
	return provider.ToolCall{ID: "call-" + name, Name: name, Args: args}
}

// scriptConv replays a fixed script, one step per call, regardless of
// which conversation method was used. It records everything it was sent.
// Past the end of the script it returns empty replies.
type scriptConv struct {
	mu    sync.Mutex
	opts  provider.ConversationOptions
	steps []step
	pos   int

	sendMsgs    []string
	toolRounds  [][]provider.ToolResult
	noToolsMsgs []string
}

func newScriptConv(steps ...step) *scriptConv {
	return &scriptConv{steps: steps}
}

func (c *scriptConv) next() (*provider.Reply, error) {
	if c.pos >= len(c.steps) {
		return &provider.Reply{}, nil
	}
	s := c.steps[c.pos]
	c.pos++
	if s.err != nil {
		return nil, s.err
	}
	return s.reply, nil
}

func (c *scriptConv) Send(_ context.Context, text string) (*provider.Reply, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sendMsgs = append(c.sendMsgs, text)
	return c.next()
}

func (c *scriptConv) SendToolResults(_ context.Context, results []provider.ToolResult) (*provider.Reply, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.toolRounds = append(c.toolRounds, results)
	return c.next()
}

func (c *scriptConv) SendWithoutTools(_ context.Context, text string) (*provider.Reply, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.noToolsMsgs = append(c.noToolsMsgs, text)
	return c.next()
}

func (c *scriptConv) calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sendMsgs) + len(c.toolRounds) + len(c.noToolsMsgs)
}

// mockClient hands out conversations from a queue, or from a factory
// when one is set. Safe for concurrent NewConversation calls.
type mockClient struct {
	mu       sync.Mutex
	grounded bool
	queue    []provider.Conversation
	factory  func(opts provider.ConversationOptions) provider.Conversation
	opened   []provider.ConversationOptions
}

func (m *mockClient) Provider() string             { return "mock" }
func (m *mockClient) Model() string                { return "mock-model" }
func (m *mockClient) SupportsGroundedSearch() bool { return m.grounded }

func (m *mockClient) NewConversation(opts provider.ConversationOptions) provider.Conversation {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.opened = append(m.opened, opts)
	if m.factory != nil {
		return m.factory(opts)
	}
	if len(m.queue) == 0 {
		return newScriptConv()
	}
	c := m.queue[0]
	m.queue = m.queue[1:]
	if sc, ok := c.(*scriptConv); ok {
		sc.opts = opts
	}
	return c
}

// fakeSearch is a canned websearch.Tool.
type fakeSearch struct {
	mu      sync.Mutex
	results []websearch.Result
	err     error
	queries []string
}

func (f *fakeSearch) Name() string { return "fake" }

func (f *fakeSearch) Search(_ context.Context, query string, _ int) ([]websearch.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, query)
	if f.err != nil {
		return nil, f.err
	}
	return f.results, nil
}
