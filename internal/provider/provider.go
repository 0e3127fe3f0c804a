// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package provider drives LLM backends through one conversation contract.
// Three transports implement it: Gemini native generation with search
// grounding, Chat-Completions-style function calling with resent history,
// and the OpenAI Responses API with server-side conversation state. The
// conversation driver and extraction engine depend only on this contract,
// never on concrete transports.
// Implements: prd005-providers (R1-R3);
//
//	docs/ARCHITECTURE § Providers.
package provider

import "context"

// ToolDef declares one function tool offered to the model. Parameters is a
// JSON-schema object; each transport converts it to its own wire shape.
type ToolDef struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// ToolCall is a structured function call parsed from a model response.
// Args is always non-nil: malformed argument payloads are coerced to an
// empty object rather than surfaced as errors.
type ToolCall struct {
	// ID is the transport's call identifier, echoed back with the result.
	// Empty on transports that match results by position.
	ID   string
	Name string
	Args map[string]any
}

// ToolResult is the outcome of executing one tool call, fed back to the
// model to continue the round.
type ToolResult struct {
	Call    ToolCall
	Content string
}

// Reply is one model response: accumulated text plus zero or more tool
// calls. Both may be empty, which the driver treats as an EMPTY turn.
type Reply struct {
	Text      string
	ToolCalls []ToolCall
}

// ConversationOptions configures one conversation.
type ConversationOptions struct {
	// System is the system instruction for every call in the conversation.
	System string

	// Tools are the function tools offered to the model.
	Tools []ToolDef

	// GroundedSearch requests the transport's native web-search grounding.
	// Ignored by transports that have none; callers consult
	// SupportsGroundedSearch before relying on it.
	GroundedSearch bool

	// Temperature is passed through on every call.
	Temperature float32

	// Model overrides the client's default model for this conversation.
	// Phases that use a cheaper processing model pass it here instead of
	// mutating client state, so concurrent conversations on one client
	// never see each other's model choice.
	Model string
}

// Client is a handle to one LLM backend.
type Client interface {
	// Provider returns the transport name (gemini, openai, or the
	// Chat-Completions provider name).
	Provider() string

	// Model returns the default model identifier.
	Model() string

	// SupportsGroundedSearch reports whether conversations can use native
	// web grounding.
	SupportsGroundedSearch() bool

	// NewConversation starts a conversation. Conversations are not safe
	// for concurrent use; concurrent tasks each create their own.
	NewConversation(opts ConversationOptions) Conversation
}

// Conversation is one multi-turn exchange. Transports hide their history
// mechanism behind it: resent messages, accumulated contents, or a
// server-side response ID.
type Conversation interface {
	// Send appends a user message and returns the model's reply.
	Send(ctx context.Context, text string) (*Reply, error)

	// SendToolResults feeds tool outcomes back and returns the model's
	// next reply in the same round.
	SendToolResults(ctx context.Context, results []ToolResult) (*Reply, error)

	// SendWithoutTools appends a user message and requests a reply with
	// tool use disabled for this one call. Used for the final synthesis
	// turn after a tool-based search gathers results but no prose.
	SendWithoutTools(ctx context.Context, text string) (*Reply, error)
}
