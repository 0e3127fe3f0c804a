// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package agent

import (
	"context"

	"github.com/pdiddy/collab-engine/internal/provider"
)

// finishToolName is the synthetic tool that lets the model declare the
// extraction finished.
const finishToolName = "finish_extraction"

// defaultExtractionTurns is the hard round ceiling when the caller does
// not set one.
const defaultExtractionTurns = 5

// SaveAck is what a save callback returns for progress logging: the
// record's display name, its score, and a status message echoed back to
// the model.
type SaveAck struct {
	Display string
	Score   int
	Status  string
}

// ExtractionParams configures one extraction loop.
type ExtractionParams struct {
	System      string
	UserMessage string

	// SaveTool is the caller's structured-save function. Every model call
	// matching its name triggers OnSave.
	SaveTool provider.ToolDef

	// OnSave receives each save call's decoded arguments. It owns
	// appending to the right shared collection (under lock when
	// concurrent). An error is logged and acknowledged to the model with
	// an error status; it never aborts the loop.
	OnSave func(args map[string]any) (SaveAck, error)

	// MaxTurns is the hard round ceiling (default 5). Every round is a
	// tool-call round by construction.
	MaxTurns int

	// Phase labels diagnostics.
	Phase string

	// Model optionally routes extraction through a cheaper processing
	// model on the same client.
	Model string
}

// RunExtraction drives a function-calling loop until the model invokes
// finish_extraction, produces a round with no tool calls, or hits the
// round ceiling. It returns the raw argument payloads of every accepted
// save call in call order. fatal is true when a classified-fatal provider
// error aborted the phase. Per prd002-extraction R1.1-R1.4.
func (d *Driver) RunExtraction(ctx context.Context, p ExtractionParams) (items []map[string]any, fatal bool) {
	maxTurns := p.MaxTurns
	if maxTurns <= 0 {
		maxTurns = defaultExtractionTurns
	}

	conv := d.Client.NewConversation(provider.ConversationOptions{
		System:      p.System,
		Tools:       []provider.ToolDef{p.SaveTool, finishToolDef()},
		Temperature: d.Cfg.Temperature,
		Model:       p.Model,
	})

	reply, err := conv.Send(ctx, p.UserMessage)
	for round := 1; ; round++ {
		if err != nil {
			if handleAPIError(d.Log, p.Phase, err) {
				return items, true
			}
			break
		}
		if ctx.Err() != nil {
			break
		}
		if len(reply.ToolCalls) == 0 {
			break
		}

		results, finished := d.processToolCalls(reply.ToolCalls, p, &items)
		if finished {
			break
		}
		// The ceiling caps replies requested: after processing the last
		// allowed round, stop without asking for another.
		if round >= maxTurns {
			break
		}

		reply, err = conv.SendToolResults(ctx, results)
	}

	return items, false
}

// processToolCalls dispatches one round's tool calls. Save calls invoke
// the callback exactly once each and collect the arguments; unknown names
// are acknowledged without raising so the model's conversation stays
// consistent (R1.3).
func (d *Driver) processToolCalls(calls []provider.ToolCall, p ExtractionParams, items *[]map[string]any) (results []provider.ToolResult, finished bool) {
	for _, call := range calls {
		switch call.Name {
		case p.SaveTool.Name:
			ack, err := p.OnSave(call.Args)
			if err != nil {
				d.Log.Warning("save callback failed in %s: %v", p.Phase, err)
				results = append(results, provider.ToolResult{
					Call:    call,
					Content: "Error saving record: " + err.Error(),
				})
				continue
			}
			*items = append(*items, call.Args)
			d.Log.Success("Saved: %s (score %d)", ack.Display, ack.Score)
			status := ack.Status
			if status == "" {
				status = "Saved"
			}
			results = append(results, provider.ToolResult{Call: call, Content: status})

		case finishToolName:
			if summary, ok := call.Args["summary"].(string); ok && summary != "" {
				d.Log.Info("extraction finished: %s", summary)
			}
			finished = true
			results = append(results, provider.ToolResult{Call: call, Content: "Extraction complete"})

		default:
			results = append(results, provider.ToolResult{
				Call:    call,
				Content: "Unknown tool: " + call.Name,
			})
		}
	}
	return results, finished
}

func finishToolDef() provider.ToolDef {
	return provider.ToolDef{
		Name:        finishToolName,
		Description: "Call this when every relevant record has been saved.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"summary": map[string]any{
					"type":        "string",
					"description": "One-sentence summary of what was extracted",
				},
			},
		},
	}
}
