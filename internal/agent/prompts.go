// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package agent

import (
	"fmt"
	"strings"

	"github.com/pdiddy/collab-engine/internal/provider"
	"github.com/pdiddy/collab-engine/pkg/types"
)

// saveCollaboratorTool is the name of the phase-2 structured-save function.
const saveCollaboratorTool = "save_collaborator"

// saveInstitutionTool is the name of the phase-0 structured-save function.
const saveInstitutionTool = "save_institution"

const researchSystem = `You are a research-collaboration scout. You search the web for
researchers whose current work aligns with a given research profile. Be
specific: find named people, their positions, groups, recent publications,
and contact details when public. When you have covered the topic
thoroughly and further searching would add nothing, end your response
with the exact phrase SEARCH COMPLETE.`

const researchContinue = `Continue researching. Find additional specific researchers, groups, and
recent work not already covered. If there is nothing substantial left to
find, say so and end with SEARCH COMPLETE.`

// buildResearchPrompt is the phase-1 opening message. The institution
// constraint narrows a focused search; broad-mode fan-out always sets it.
func buildResearchPrompt(profile types.Profile, institution string) string {
	var b strings.Builder
	b.WriteString("Find potential research collaborators for the following researcher.\n\n")
	b.WriteString("Research profile:\n")
	b.WriteString(profile.Description)
	b.WriteString("\n")
	if len(profile.FocusAreas) > 0 {
		fmt.Fprintf(&b, "\nFocus areas: %s\n", strings.Join(profile.FocusAreas, ", "))
	}
	if institution != "" {
		fmt.Fprintf(&b, "\nLimit the search to researchers at: %s\n", institution)
	}
	b.WriteString(`
Search for active researchers with clear overlap: shared methods,
complementary expertise, or adjacent problems. Report names, positions,
institutions, research focus, notable recent publications, and public
email addresses where available.`)
	return b.String()
}

const extractionSystem = `You convert research findings into structured records. For every
distinct researcher in the findings, call save_collaborator once with the
fields you can support from the text. Score alignment 1-5: most
candidates should score 2-3; reserve 4-5 for exceptional, specific
overlap. Do not invent details that are not in the findings. When every
researcher has been saved, call finish_extraction.`

// buildExtractionPrompt is the phase-2 opening message.
func buildExtractionPrompt(profile types.Profile, researchText string) string {
	return fmt.Sprintf(`Research profile:
%s

Research findings:
%s

Save each distinct potential collaborator from the findings.`, profile.Description, researchText)
}

const discoverySystem = `You are a research-landscape scout. You search the web for
institutions - universities, institutes, labs - with strong activity in a
given research area. Name specific departments and groups. When coverage
is thorough, end your response with the exact phrase SEARCH COMPLETE.`

// buildDiscoveryPrompt is the phase-0 opening message for broad search.
func buildDiscoveryPrompt(profile types.Profile, maxInstitutions int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Identify up to %d institutions with strong research activity matching this profile.\n\n", maxInstitutions)
	b.WriteString("Research profile:\n")
	b.WriteString(profile.Description)
	b.WriteString("\n")
	if len(profile.FocusAreas) > 0 {
		fmt.Fprintf(&b, "\nFocus areas: %s\n", strings.Join(profile.FocusAreas, ", "))
	}
	if profile.Region != "" {
		fmt.Fprintf(&b, "\nLimit to institutions in: %s\n", profile.Region)
	}
	b.WriteString("\nFor each institution, note the relevant department, country, city, and key research groups.")
	return b.String()
}

const discoveryContinue = `Continue. Cover additional relevant institutions or add department and
group detail for those already found. End with SEARCH COMPLETE when
coverage is thorough.`

const institutionExtractionSystem = `You convert research findings into structured institution records.
For every distinct institution in the findings, call save_institution
once. Score relevance 1-5: most institutions should score 2-3; reserve
4-5 for outstanding, specific strength in the profile's area. When every
institution has been saved, call finish_extraction.`

func buildInstitutionExtractionPrompt(profile types.Profile, researchText string) string {
	return fmt.Sprintf(`Research profile:
%s

Research findings:
%s

Save each distinct institution from the findings.`, profile.Description, researchText)
}

// collaboratorToolDef is the phase-2 save schema. Field names line up
// with the mapstructure tags on types.Collaborator.
func collaboratorToolDef() provider.ToolDef {
	return provider.ToolDef{
		Name:        saveCollaboratorTool,
		Description: "Save one potential research collaborator.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"name":              map[string]any{"type": "string", "description": "Full name"},
				"position":          map[string]any{"type": "string", "description": "Current position or title"},
				"institution":       map[string]any{"type": "string", "description": "Current institution"},
				"email":             map[string]any{"type": "string", "description": "Public email address, if found"},
				"research_focus":    map[string]any{"type": "string", "description": "Current research direction"},
				"alignment_score":   map[string]any{"type": "integer", "description": "Profile alignment, 1-5"},
				"alignment_reasons": map[string]any{"type": "string", "description": "Why this score"},
				"key_publications": map[string]any{
					"type":        "array",
					"items":       map[string]any{"type": "string"},
					"description": "Notable recent publications",
				},
				"collaboration_angle": map[string]any{"type": "string", "description": "Concrete joint-work suggestion"},
			},
			"required": []string{"name", "institution", "research_focus", "alignment_score", "alignment_reasons"},
		},
	}
}

// institutionToolDef is the phase-0 save schema, matching
// types.Institution.
func institutionToolDef() provider.ToolDef {
	return provider.ToolDef{
		Name:        saveInstitutionTool,
		Description: "Save one relevant research institution.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"name":            map[string]any{"type": "string", "description": "Institution name"},
				"department":      map[string]any{"type": "string", "description": "Most relevant department"},
				"country":         map[string]any{"type": "string"},
				"city":            map[string]any{"type": "string"},
				"relevance_score": map[string]any{"type": "integer", "description": "Profile relevance, 1-5"},
				"reason":          map[string]any{"type": "string", "description": "Why this score"},
				"key_groups": map[string]any{
					"type":        "array",
					"items":       map[string]any{"type": "string"},
					"description": "Key research groups or labs",
				},
			},
			"required": []string{"name", "country", "relevance_score", "reason"},
		},
	}
}
