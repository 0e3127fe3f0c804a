// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// SearchMethod identifies which search entry point produced a run.
type SearchMethod string

const (
	MethodFocused SearchMethod = "focused"
	MethodBroad   SearchMethod = "broad"
)

// RunRecord summarizes one completed search invocation for the run history.
// Per prd008-history R1.1.
type RunRecord struct {
	// ID is assigned by the history store on save.
	ID int64 `json:"id" yaml:"id"`

	// StartedAt is when the search began.
	StartedAt time.Time `json:"started_at" yaml:"started_at"`

	// Profile is the researcher description the run searched for.
	Profile string `json:"profile" yaml:"profile"`

	// ModelID is the registry identifier of the model that ran the search.
	ModelID string `json:"model_id" yaml:"model_id"`

	// Method records whether this was a focused or broad search.
	Method SearchMethod `json:"method" yaml:"method"`

	Institutions  []Institution  `json:"institutions,omitempty" yaml:"institutions,omitempty"`
	Collaborators []Collaborator `json:"collaborators" yaml:"collaborators"`
}
