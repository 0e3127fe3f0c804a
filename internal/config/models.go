// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package config loads the model registry that maps model identifiers to
// provider transports and API-key environment variables.
// Implements: prd005-providers (R4);
//
//	docs/ARCHITECTURE § Model Registry.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// defaultModelsYAML is the built-in registry used when no models.yaml is
// present. A user file with the same shape replaces it entirely.
const defaultModelsYAML = `
models:
  - id: gemini-flash
    name: Gemini 2.5 Flash
    provider: gemini
    model: gemini-2.5-flash
    supports_search: true
    default: true
  - id: gemini-pro
    name: Gemini 2.5 Pro
    provider: gemini
    model: gemini-2.5-pro
    supports_search: true
  - id: gpt-5
    name: GPT-5
    provider: openai
    model: gpt-5
    supports_search: true
  - id: gpt-5-mini
    name: GPT-5 Mini
    provider: openai
    model: gpt-5-mini
    supports_search: true
  - id: groq-llama
    name: Llama 3.3 70B (Groq)
    provider: groq
    model: llama-3.3-70b-versatile
    supports_search: false
    processing_model: llama-3.3-70b-versatile
  - id: openrouter-qwen
    name: Qwen 2.5 72B (OpenRouter)
    provider: openrouter
    model: qwen/qwen-2.5-72b-instruct
    supports_search: false

providers:
  gemini:
    env_key: GEMINI_API_KEY
  openai:
    env_key: OPENAI_API_KEY
  groq:
    env_key: GROQ_API_KEY
    base_url: https://api.groq.com/openai/v1
  openrouter:
    env_key: OPENROUTER_API_KEY
    base_url: https://openrouter.ai/api/v1
`

// ModelSpec describes one registry entry.
type ModelSpec struct {
	// ID is the short identifier used on the command line.
	ID string `mapstructure:"id" yaml:"id"`

	// Name is the human-readable model name.
	Name string `mapstructure:"name" yaml:"name"`

	// Provider selects the transport: gemini, openai, or any
	// Chat-Completions-compatible provider with a base_url.
	Provider string `mapstructure:"provider" yaml:"provider"`

	// Model is the provider-side model identifier.
	Model string `mapstructure:"model" yaml:"model"`

	// SupportsSearch reports whether the model can search the web natively.
	// Models without it are driven through the external web_search tool.
	SupportsSearch bool `mapstructure:"supports_search" yaml:"supports_search"`

	// Default marks the model chosen when none is requested.
	Default bool `mapstructure:"default" yaml:"default"`

	// ProcessingModel optionally names a cheaper model used for the
	// extraction phases. Empty means extraction uses Model.
	ProcessingModel string `mapstructure:"processing_model" yaml:"processing_model"`
}

// ProviderSpec describes provider-level connection settings.
type ProviderSpec struct {
	// EnvKey is the environment variable holding the API key.
	EnvKey string `mapstructure:"env_key" yaml:"env_key"`

	// BaseURL overrides the API endpoint for OpenAI-compatible providers.
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`
}

// Registry is the loaded model registry.
type Registry struct {
	Models    []ModelSpec             `mapstructure:"models" yaml:"models"`
	Providers map[string]ProviderSpec `mapstructure:"providers" yaml:"providers"`
}

// LoadRegistry reads the registry from path. An empty path or a missing
// file falls back to the built-in defaults (R4.1).
func LoadRegistry(path string) (*Registry, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	if err := v.ReadConfig(strings.NewReader(defaultModelsYAML)); err != nil {
		return nil, fmt.Errorf("parsing built-in model registry: %w", err)
	}

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("reading model registry %s: %w", path, err)
			}
		}
	}

	var reg Registry
	if err := v.Unmarshal(&reg); err != nil {
		return nil, fmt.Errorf("decoding model registry: %w", err)
	}
	if len(reg.Models) == 0 {
		return nil, fmt.Errorf("model registry has no models")
	}
	return &reg, nil
}

// ByID returns the model with the given identifier (R4.3).
func (r *Registry) ByID(id string) (ModelSpec, error) {
	for _, m := range r.Models {
		if m.ID == id {
			return m, nil
		}
	}
	return ModelSpec{}, fmt.Errorf("unknown model %q: run 'collab-engine models' to list available models", id)
}

// Default returns the registry's default model, or the first model when
// none is marked default.
func (r *Registry) Default() ModelSpec {
	for _, m := range r.Models {
		if m.Default {
			return m
		}
	}
	return r.Models[0]
}

// Provider returns the provider settings for a model.
func (r *Registry) Provider(m ModelSpec) (ProviderSpec, error) {
	p, ok := r.Providers[m.Provider]
	if !ok {
		return ProviderSpec{}, fmt.Errorf("model %s references unknown provider %q", m.ID, m.Provider)
	}
	return p, nil
}

// APIKey returns the API key for a model from the provider's environment
// variable. An empty key is not an error here; availability filtering and
// the provider factory decide what to do about it.
func (r *Registry) APIKey(m ModelSpec) string {
	p, err := r.Provider(m)
	if err != nil || p.EnvKey == "" {
		return ""
	}
	return os.Getenv(p.EnvKey)
}

// Available returns the models whose provider API key is set in the
// environment (R4.4).
func (r *Registry) Available() []ModelSpec {
	var out []ModelSpec
	for _, m := range r.Models {
		if r.APIKey(m) != "" {
			out = append(out, m)
		}
	}
	return out
}
