// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package provider

import (
	"context"
	"fmt"

	"github.com/pdiddy/collab-engine/internal/config"
)

// New builds the Client for a registry model. Transport selection is by
// provider name: gemini and openai have dedicated transports, everything
// else is assumed Chat-Completions-compatible and needs a base_url in the
// registry (R2.1).
func New(ctx context.Context, reg *config.Registry, spec config.ModelSpec) (Client, error) {
	prov, err := reg.Provider(spec)
	if err != nil {
		return nil, err
	}

	apiKey := reg.APIKey(spec)
	if apiKey == "" {
		return nil, fmt.Errorf("no API key for provider %s: set %s or add a .secrets/ key file", spec.Provider, prov.EnvKey)
	}

	switch spec.Provider {
	case "gemini":
		return NewGeminiClient(ctx, apiKey, spec.Model)
	case "openai":
		return NewResponsesClient(apiKey, spec.Model), nil
	default:
		if prov.BaseURL == "" {
			return nil, fmt.Errorf("provider %s has no base_url in the model registry", spec.Provider)
		}
		return NewChatClient(apiKey, prov.BaseURL, spec.Provider, spec.Model), nil
	}
}
