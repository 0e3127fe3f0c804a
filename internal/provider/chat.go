// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package provider

import (
	"context"
	"encoding/json"
	"regexp"

	openai "github.com/sashabaranov/go-openai"
)

// ChatClient drives any Chat-Completions-compatible provider (Groq,
// OpenRouter, or OpenAI itself) through github.com/sashabaranov/go-openai.
// History is stateless on the server: the full message list is resent on
// every call (R1.3). These providers have no native search grounding, so
// research runs through the external web_search tool.
type ChatClient struct {
	client   *openai.Client
	provider string
	model    string
}

// NewChatClient creates a client for a Chat-Completions provider. baseURL
// is empty for api.openai.com and the provider's endpoint otherwise.
func NewChatClient(apiKey, baseURL, provider, model string) *ChatClient {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &ChatClient{
		client:   openai.NewClientWithConfig(cfg),
		provider: provider,
		model:    model,
	}
}

// Provider returns the provider name from the registry.
func (c *ChatClient) Provider() string { return c.provider }

// Model returns the default model identifier.
func (c *ChatClient) Model() string { return c.model }

// SupportsGroundedSearch is false for every Chat-Completions provider.
func (c *ChatClient) SupportsGroundedSearch() bool { return false }

// NewConversation starts a conversation carrying its own message history.
func (c *ChatClient) NewConversation(opts ConversationOptions) Conversation {
	model := opts.Model
	if model == "" {
		model = c.model
	}

	conv := &chatConversation{
		client:      c.client,
		model:       model,
		temperature: opts.Temperature,
	}
	if opts.System != "" {
		conv.messages = append(conv.messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: opts.System,
		})
	}
	for _, t := range opts.Tools {
		conv.tools = append(conv.tools, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters,
			},
		})
	}
	return conv
}

type chatConversation struct {
	client      *openai.Client
	model       string
	temperature float32
	tools       []openai.Tool
	messages    []openai.ChatCompletionMessage
}

// Send appends a user message and requests a completion.
func (c *chatConversation) Send(ctx context.Context, text string) (*Reply, error) {
	c.messages = append(c.messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: text,
	})
	return c.complete(ctx)
}

// SendToolResults appends tool-role messages and requests the next
// completion in the round.
func (c *chatConversation) SendToolResults(ctx context.Context, results []ToolResult) (*Reply, error) {
	for _, r := range results {
		c.messages = append(c.messages, openai.ChatCompletionMessage{
			Role:       openai.ChatMessageRoleTool,
			Content:    r.Content,
			ToolCallID: r.Call.ID,
		})
	}
	return c.complete(ctx)
}

// SendWithoutTools appends a user message and completes with tool choice
// forced to none.
func (c *chatConversation) SendWithoutTools(ctx context.Context, text string) (*Reply, error) {
	c.messages = append(c.messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: text,
	})
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    c.messages,
		Tools:       c.tools,
		ToolChoice:  "none",
		Temperature: c.temperature,
	})
	if err != nil {
		return nil, err
	}
	return c.handleResponse(resp)
}

func (c *chatConversation) complete(ctx context.Context) (*Reply, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    c.messages,
		Tools:       c.tools,
		Temperature: c.temperature,
	})
	if err != nil {
		return nil, err
	}
	return c.handleResponse(resp)
}

func (c *chatConversation) handleResponse(resp openai.ChatCompletionResponse) (*Reply, error) {
	if len(resp.Choices) == 0 {
		return &Reply{}, nil
	}

	msg := resp.Choices[0].Message
	c.messages = append(c.messages, msg)

	reply := &Reply{Text: stripThinking(msg.Content)}
	for _, tc := range msg.ToolCalls {
		reply.ToolCalls = append(reply.ToolCalls, ToolCall{
			ID:   tc.ID,
			Name: tc.Function.Name,
			Args: decodeArgs(tc.Function.Arguments),
		})
	}
	return reply, nil
}

// decodeArgs parses a function-call argument string. Malformed payloads
// become an empty object so a bad call never aborts the phase.
func decodeArgs(raw string) map[string]any {
	args := map[string]any{}
	if raw == "" {
		return args
	}
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return map[string]any{}
	}
	return args
}

// thinkingBlocks matches the <think>...</think> blocks some open-weight
// models emit before their answer.
var thinkingBlocks = regexp.MustCompile(`(?s)<think>.*?</think>\s*`)

// stripThinking removes reasoning blocks from a response so transcript
// accumulation and stop-condition checks see only the answer.
func stripThinking(text string) string {
	return thinkingBlocks.ReplaceAllString(text, "")
}
