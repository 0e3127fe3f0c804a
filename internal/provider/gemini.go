// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package provider

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// GeminiClient drives Gemini models through the google.golang.org/genai
// SDK. Gemini is the one transport with native search grounding: a single
// call both searches and synthesizes text (R1.2).
type GeminiClient struct {
	client *genai.Client
	model  string
}

// NewGeminiClient creates a Gemini client for the given model.
func NewGeminiClient(ctx context.Context, apiKey, model string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	return &GeminiClient{client: client, model: model}, nil
}

// Provider returns "gemini".
func (c *GeminiClient) Provider() string { return "gemini" }

// Model returns the default model identifier.
func (c *GeminiClient) Model() string { return c.model }

// SupportsGroundedSearch reports native GoogleSearch grounding.
func (c *GeminiClient) SupportsGroundedSearch() bool { return true }

// NewConversation starts a conversation. History is an accumulated
// contents slice resent on every call.
func (c *GeminiClient) NewConversation(opts ConversationOptions) Conversation {
	model := opts.Model
	if model == "" {
		model = c.model
	}

	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(opts.Temperature),
	}
	if opts.System != "" {
		cfg.SystemInstruction = genai.NewContentFromText(opts.System, genai.RoleUser)
	}
	if opts.GroundedSearch {
		cfg.Tools = append(cfg.Tools, &genai.Tool{GoogleSearch: &genai.GoogleSearch{}})
	}
	if len(opts.Tools) > 0 {
		var decls []*genai.FunctionDeclaration
		for _, t := range opts.Tools {
			decls = append(decls, &genai.FunctionDeclaration{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  toGenaiSchema(t.Parameters),
			})
		}
		cfg.Tools = append(cfg.Tools, &genai.Tool{FunctionDeclarations: decls})
	}

	return &geminiConversation{
		client: c.client,
		model:  model,
		cfg:    cfg,
	}
}

type geminiConversation struct {
	client   *genai.Client
	model    string
	cfg      *genai.GenerateContentConfig
	contents []*genai.Content
}

// Send appends a user turn and generates the next model turn.
func (g *geminiConversation) Send(ctx context.Context, text string) (*Reply, error) {
	g.contents = append(g.contents, genai.NewContentFromText(text, genai.RoleUser))
	return g.generate(ctx)
}

// SendToolResults feeds function responses back as a user turn.
func (g *geminiConversation) SendToolResults(ctx context.Context, results []ToolResult) (*Reply, error) {
	var parts []*genai.Part
	for _, r := range results {
		parts = append(parts, genai.NewPartFromFunctionResponse(r.Call.Name, map[string]any{
			"result": r.Content,
		}))
	}
	g.contents = append(g.contents, genai.NewContentFromParts(parts, genai.RoleUser))
	return g.generate(ctx)
}

// SendWithoutTools appends a user turn and generates once with tools
// stripped from the call config.
func (g *geminiConversation) SendWithoutTools(ctx context.Context, text string) (*Reply, error) {
	g.contents = append(g.contents, genai.NewContentFromText(text, genai.RoleUser))

	bare := *g.cfg
	bare.Tools = nil
	return g.generateWith(ctx, &bare)
}

func (g *geminiConversation) generate(ctx context.Context) (*Reply, error) {
	return g.generateWith(ctx, g.cfg)
}

func (g *geminiConversation) generateWith(ctx context.Context, cfg *genai.GenerateContentConfig) (*Reply, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, g.contents, cfg)
	if err != nil {
		return nil, err
	}

	reply := &Reply{}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return reply, nil
	}

	content := resp.Candidates[0].Content
	var textParts []string
	for _, part := range content.Parts {
		if part.Text != "" {
			textParts = append(textParts, part.Text)
		}
		if part.FunctionCall != nil {
			args := part.FunctionCall.Args
			if args == nil {
				args = map[string]any{}
			}
			reply.ToolCalls = append(reply.ToolCalls, ToolCall{
				Name: part.FunctionCall.Name,
				Args: args,
			})
		}
	}
	reply.Text = strings.Join(textParts, "")

	// The model turn joins the history so the next call sees it.
	g.contents = append(g.contents, content)

	return reply, nil
}

// toGenaiSchema converts a JSON-schema object to the SDK's typed schema.
// Only the subset used by the save tools is handled: object, string,
// integer, number, boolean, and arrays thereof.
func toGenaiSchema(m map[string]any) *genai.Schema {
	if m == nil {
		return &genai.Schema{Type: genai.TypeObject}
	}

	s := &genai.Schema{}
	if t, ok := m["type"].(string); ok {
		s.Type = genaiType(t)
	}
	if d, ok := m["description"].(string); ok {
		s.Description = d
	}
	if props, ok := m["properties"].(map[string]any); ok {
		s.Properties = make(map[string]*genai.Schema, len(props))
		for name, raw := range props {
			if sub, ok := raw.(map[string]any); ok {
				s.Properties[name] = toGenaiSchema(sub)
			}
		}
	}
	if items, ok := m["items"].(map[string]any); ok {
		s.Items = toGenaiSchema(items)
	}
	if req, ok := m["required"].([]string); ok {
		s.Required = req
	} else if reqAny, ok := m["required"].([]any); ok {
		for _, r := range reqAny {
			if str, ok := r.(string); ok {
				s.Required = append(s.Required, str)
			}
		}
	}
	return s
}

func genaiType(t string) genai.Type {
	switch t {
	case "object":
		return genai.TypeObject
	case "string":
		return genai.TypeString
	case "integer":
		return genai.TypeInteger
	case "number":
		return genai.TypeNumber
	case "boolean":
		return genai.TypeBoolean
	case "array":
		return genai.TypeArray
	default:
		return genai.TypeString
	}
}
