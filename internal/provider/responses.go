// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/pdiddy/collab-engine/internal/httputil"
)

// responsesAPIURL is the OpenAI Responses endpoint. Package-level var for
// test substitution.
var responsesAPIURL = "https://api.openai.com/v1/responses"

// ResponsesClient drives OpenAI models through the Responses API. Unlike
// the Chat-Completions transport, conversation state lives server-side:
// each call carries only the new input items plus the previous response ID
// (R1.4). Search grounding uses the built-in web_search_preview tool.
type ResponsesClient struct {
	APIKey string
	model  string
	Client *http.Client
}

// NewResponsesClient creates a Responses API client.
func NewResponsesClient(apiKey, model string) *ResponsesClient {
	return &ResponsesClient{APIKey: apiKey, model: model}
}

// Provider returns "openai".
func (c *ResponsesClient) Provider() string { return "openai" }

// Model returns the default model identifier.
func (c *ResponsesClient) Model() string { return c.model }

// SupportsGroundedSearch reports the built-in web_search_preview tool.
func (c *ResponsesClient) SupportsGroundedSearch() bool { return true }

// NewConversation starts a conversation threaded by response ID.
func (c *ResponsesClient) NewConversation(opts ConversationOptions) Conversation {
	model := opts.Model
	if model == "" {
		model = c.model
	}

	var tools []map[string]any
	if opts.GroundedSearch {
		tools = append(tools, map[string]any{"type": "web_search_preview"})
	}
	for _, t := range opts.Tools {
		tools = append(tools, map[string]any{
			"type":        "function",
			"name":        t.Name,
			"description": t.Description,
			"parameters":  t.Parameters,
		})
	}

	return &responsesConversation{
		client:      c,
		model:       model,
		system:      opts.System,
		tools:       tools,
		temperature: opts.Temperature,
	}
}

type responsesConversation struct {
	client      *ResponsesClient
	model       string
	system      string
	tools       []map[string]any
	temperature float32

	// previousID threads the server-side conversation. Empty on the
	// first call.
	previousID string
}

// responsesRequest is the request body for the Responses API.
type responsesRequest struct {
	Model              string           `json:"model"`
	Input              []map[string]any `json:"input"`
	Instructions       string           `json:"instructions,omitempty"`
	Tools              []map[string]any `json:"tools,omitempty"`
	PreviousResponseID string           `json:"previous_response_id,omitempty"`
	Temperature        *float32         `json:"temperature,omitempty"`
	Reasoning          *reasoningParams `json:"reasoning,omitempty"`
}

type reasoningParams struct {
	Effort string `json:"effort"`
}

// responsesResponse is the subset of the Responses API body we consume.
type responsesResponse struct {
	ID     string           `json:"id"`
	Output []responsesItem  `json:"output"`
	Error  *responsesAPIErr `json:"error"`
}

type responsesItem struct {
	Type      string             `json:"type"`
	Content   []responsesContent `json:"content,omitempty"`
	Name      string             `json:"name,omitempty"`
	Arguments string             `json:"arguments,omitempty"`
	CallID    string             `json:"call_id,omitempty"`
}

type responsesContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type responsesAPIErr struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Send submits a user message as the only new input item.
func (r *responsesConversation) Send(ctx context.Context, text string) (*Reply, error) {
	return r.request(ctx, []map[string]any{
		{"role": "user", "content": text},
	})
}

// SendWithoutTools submits a user message with the tool list omitted so
// the model must answer in prose.
func (r *responsesConversation) SendWithoutTools(ctx context.Context, text string) (*Reply, error) {
	saved := r.tools
	r.tools = nil
	defer func() { r.tools = saved }()
	return r.request(ctx, []map[string]any{
		{"role": "user", "content": text},
	})
}

// SendToolResults submits function_call_output items matched by call ID.
func (r *responsesConversation) SendToolResults(ctx context.Context, results []ToolResult) (*Reply, error) {
	var input []map[string]any
	for _, res := range results {
		input = append(input, map[string]any{
			"type":    "function_call_output",
			"call_id": res.Call.ID,
			"output":  res.Content,
		})
	}
	return r.request(ctx, input)
}

func (r *responsesConversation) request(ctx context.Context, input []map[string]any) (*Reply, error) {
	reqBody := responsesRequest{
		Model:              r.model,
		Input:              input,
		Instructions:       r.system,
		Tools:              r.tools,
		PreviousResponseID: r.previousID,
	}
	// Reasoning models reject sampling parameters; everything else takes
	// the configured temperature.
	if strings.HasPrefix(r.model, "gpt-5") || strings.HasPrefix(r.model, "o") {
		reqBody.Reasoning = &reasoningParams{Effort: "medium"}
	} else {
		reqBody.Temperature = &r.temperature
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, responsesAPIURL, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+r.client.APIKey)

	httpClient := r.client.Client
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	resp, err := httputil.DoWithRetry(ctx, httpClient, req, 0)
	if err != nil {
		return nil, fmt.Errorf("calling Responses API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// The body text carries the API error code; the error classifier
		// matches on it, so it must survive into the error string.
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("Responses API returned %d: %s", resp.StatusCode, string(body))
	}

	var rResp responsesResponse
	if err := json.NewDecoder(resp.Body).Decode(&rResp); err != nil {
		return nil, fmt.Errorf("decoding Responses API body: %w", err)
	}
	if rResp.Error != nil {
		return nil, fmt.Errorf("Responses API error %s: %s", rResp.Error.Code, rResp.Error.Message)
	}

	r.previousID = rResp.ID

	reply := &Reply{}
	var textParts []string
	for _, item := range rResp.Output {
		switch item.Type {
		case "message":
			for _, c := range item.Content {
				if c.Type == "output_text" && c.Text != "" {
					textParts = append(textParts, c.Text)
				}
			}
		case "function_call":
			reply.ToolCalls = append(reply.ToolCalls, ToolCall{
				ID:   item.CallID,
				Name: item.Name,
				Args: decodeArgs(item.Arguments),
			})
		}
		// web_search_call and reasoning items are the model's own
		// business; nothing to surface.
	}
	reply.Text = strings.Join(textParts, "")
	return reply, nil
}
