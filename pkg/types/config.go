package types

import "time"

// HTTPConfig holds shared HTTP settings used by components that make
// network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "collab-engine/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// DriverConfig holds the stopping heuristics for the conversation driver.
// Per prd001-conversation R3.1-R3.4.
type DriverConfig struct {
	// MaxTurns is the text-turn budget for one driver invocation.
	MaxTurns int `json:"max_turns" yaml:"max_turns"`

	// DiminishingRatio stops a research loop when a turn's text shrinks
	// below this fraction of the previous turn's text (default 0.3).
	// Tuned empirically; kept configurable.
	DiminishingRatio float64 `json:"diminishing_ratio" yaml:"diminishing_ratio"`

	// RoundCeilingMultiplier bounds tool-call rounds at
	// MaxTurns × RoundCeilingMultiplier (default 3), an anti-runaway
	// ceiling independent of the text-turn budget.
	RoundCeilingMultiplier int `json:"round_ceiling_multiplier" yaml:"round_ceiling_multiplier"`

	// Temperature is passed through to the model on every call.
	Temperature float32 `json:"temperature" yaml:"temperature"`
}

// WebSearchConfig holds settings for the external web-search tool used by
// models without native search grounding. Per prd006-websearch R1.1-R1.3.
type WebSearchConfig struct {
	HTTPConfig `yaml:",inline"`

	// Tool selects the search backend by name: "tavily" or "brave".
	Tool string `json:"tool" yaml:"tool"`

	// MaxResults is the number of results returned per query (default 5).
	MaxResults int `json:"max_results" yaml:"max_results"`
}

// EngineConfig groups all settings for the agent engine.
type EngineConfig struct {
	Driver    DriverConfig    `json:"driver" yaml:"driver"`
	WebSearch WebSearchConfig `json:"web_search" yaml:"web_search"`

	// PoolSize bounds the number of institutions searched in parallel
	// during broad search (default 5).
	PoolSize int `json:"pool_size" yaml:"pool_size"`

	// MaxInstitutions truncates the discovered institution list (default 10).
	MaxInstitutions int `json:"max_institutions" yaml:"max_institutions"`

	// ExtractionTurns is the round ceiling for extraction loops (default 5).
	ExtractionTurns int `json:"extraction_turns" yaml:"extraction_turns"`

	// HistoryDir is the directory holding the run-history database
	// (default "history").
	HistoryDir string `json:"history_dir" yaml:"history_dir"`
}

// DefaultEngineConfig returns an EngineConfig populated with defaults.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		Driver: DriverConfig{
			MaxTurns:               10,
			DiminishingRatio:       0.3,
			RoundCeilingMultiplier: 3,
			Temperature:            0.7,
		},
		WebSearch: WebSearchConfig{
			HTTPConfig: HTTPConfig{
				Timeout:   30 * time.Second,
				UserAgent: "collab-engine/0.1",
			},
			Tool:       "tavily",
			MaxResults: 5,
		},
		PoolSize:        5,
		MaxInstitutions: 10,
		ExtractionTurns: 5,
		HistoryDir:      "history",
	}
}
