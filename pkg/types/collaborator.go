// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines the data structures shared across collab-engine stages.
// See docs/ARCHITECTURE § Data Structures.
package types

// Profile describes the researcher looking for collaborators. It is supplied
// once per search invocation and never mutated. Per prd004-orchestration R1.1.
type Profile struct {
	// Description is free text covering research interests, methods, and goals.
	Description string `json:"description" yaml:"description"`

	// FocusAreas optionally narrows the search to specific topics.
	FocusAreas []string `json:"focus_areas,omitempty" yaml:"focus_areas,omitempty"`

	// Institution optionally restricts the search to a single institution.
	Institution string `json:"institution,omitempty" yaml:"institution,omitempty"`

	// Region optionally constrains broad search to a geographic region.
	Region string `json:"region,omitempty" yaml:"region,omitempty"`
}

// Institution is a research institution discovered during the broad-search
// discovery phase. Name is the join key used to group collaborators in
// reports. Per prd004-orchestration R2.2.
type Institution struct {
	Name string `json:"name" yaml:"name" mapstructure:"name"`

	Department string `json:"department,omitempty" yaml:"department,omitempty" mapstructure:"department"`

	Country string `json:"country" yaml:"country" mapstructure:"country"`

	City string `json:"city,omitempty" yaml:"city,omitempty" mapstructure:"city"`

	// RelevanceScore rates fit with the profile on a 1-5 scale. Scores of
	// 4-5 are expected to be rare.
	RelevanceScore int `json:"relevance_score" yaml:"relevance_score" mapstructure:"relevance_score"`

	// Reason explains the score in one or two sentences.
	Reason string `json:"reason" yaml:"reason" mapstructure:"reason"`

	// KeyGroups names notable research groups or labs, if known.
	KeyGroups []string `json:"key_groups,omitempty" yaml:"key_groups,omitempty" mapstructure:"key_groups"`
}

// Collaborator is a potential research collaborator produced by the
// per-institution extraction phase. Per prd002-extraction R1.2.
type Collaborator struct {
	Name string `json:"name" yaml:"name" mapstructure:"name"`

	Position string `json:"position,omitempty" yaml:"position,omitempty" mapstructure:"position"`

	Institution string `json:"institution" yaml:"institution" mapstructure:"institution"`

	Email string `json:"email,omitempty" yaml:"email,omitempty" mapstructure:"email"`

	// ResearchFocus summarizes the candidate's current research direction.
	ResearchFocus string `json:"research_focus" yaml:"research_focus" mapstructure:"research_focus"`

	// AlignmentScore rates fit with the profile on a 1-5 scale.
	AlignmentScore int `json:"alignment_score" yaml:"alignment_score" mapstructure:"alignment_score"`

	// AlignmentReasons explains the score.
	AlignmentReasons string `json:"alignment_reasons" yaml:"alignment_reasons" mapstructure:"alignment_reasons"`

	KeyPublications []string `json:"key_publications,omitempty" yaml:"key_publications,omitempty" mapstructure:"key_publications"`

	// CollaborationAngle suggests a concrete joint-work direction.
	CollaborationAngle string `json:"collaboration_angle,omitempty" yaml:"collaboration_angle,omitempty" mapstructure:"collaboration_angle"`
}

// ClampScore forces a model-produced score into the valid [1,5] range.
// Out-of-range values come from models that ignore the scale instruction;
// they are clamped rather than rejected so a useful record is not lost.
func ClampScore(score int) int {
	if score < 1 {
		return 1
	}
	if score > 5 {
		return 5
	}
	return score
}
