// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package report renders a finished search run for humans and for
// machines: a markdown report, a terminal shortlist table, and a YAML
// export. Implements: prd007-presentation (R1-R3);
//
//	docs/ARCHITECTURE § Presentation.
package report

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/collab-engine/pkg/types"
)

// Report is one run's renderable output.
type Report struct {
	Profile       types.Profile
	ModelName     string
	Method        types.SearchMethod
	GeneratedAt   time.Time
	Institutions  []types.Institution
	Collaborators []types.Collaborator
}

// ranked returns the collaborators ordered by alignment, highest first.
// The sort is stable so equally-scored candidates keep extraction order.
func (r Report) ranked() []types.Collaborator {
	out := make([]types.Collaborator, len(r.Collaborators))
	copy(out, r.Collaborators)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].AlignmentScore > out[j].AlignmentScore
	})
	return out
}

// stars renders a 1-5 score as filled and hollow stars.
func stars(score int) string {
	score = types.ClampScore(score)
	return strings.Repeat("★", score) + strings.Repeat("☆", 5-score)
}

// WriteMarkdown renders the full report. Broad runs group candidates by
// institution under ranked institution headings; focused runs are one
// flat ranked list (R1.1-R1.4).
func WriteMarkdown(r Report, w io.Writer) error {
	fmt.Fprintln(w, "# Collaborator Search Report")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "- **Generated:** %s\n", r.GeneratedAt.Format("2006-01-02 15:04 MST"))
	fmt.Fprintf(w, "- **Model:** %s\n", r.ModelName)
	fmt.Fprintf(w, "- **Method:** %s\n", r.Method)
	if r.Profile.Institution != "" {
		fmt.Fprintf(w, "- **Institution:** %s\n", r.Profile.Institution)
	}
	if r.Profile.Region != "" {
		fmt.Fprintf(w, "- **Region:** %s\n", r.Profile.Region)
	}
	fmt.Fprintf(w, "- **Candidates:** %d\n", len(r.Collaborators))
	fmt.Fprintln(w)

	fmt.Fprintln(w, "## Research Profile")
	fmt.Fprintln(w)
	fmt.Fprintln(w, r.Profile.Description)
	if len(r.Profile.FocusAreas) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Focus areas: %s\n", strings.Join(r.Profile.FocusAreas, ", "))
	}
	fmt.Fprintln(w)

	ranked := r.ranked()
	if len(ranked) == 0 {
		fmt.Fprintln(w, "## Candidates")
		fmt.Fprintln(w)
		fmt.Fprintln(w, "No candidates found.")
		return nil
	}

	if r.Method == types.MethodBroad && len(r.Institutions) > 0 {
		writeGrouped(w, r, ranked)
	} else {
		fmt.Fprintln(w, "## Candidates")
		fmt.Fprintln(w)
		for i, c := range ranked {
			writeCandidate(w, i+1, c)
		}
	}
	return nil
}

// writeGrouped renders one section per institution, institutions in
// relevance order, each section's candidates in alignment order.
func writeGrouped(w io.Writer, r Report, ranked []types.Collaborator) {
	insts := make([]types.Institution, len(r.Institutions))
	copy(insts, r.Institutions)
	sort.SliceStable(insts, func(i, j int) bool {
		return insts[i].RelevanceScore > insts[j].RelevanceScore
	})

	byInst := make(map[string][]types.Collaborator)
	for _, c := range ranked {
		byInst[c.Institution] = append(byInst[c.Institution], c)
	}

	rank := 0
	seen := make(map[string]bool)
	for _, inst := range insts {
		group := byInst[inst.Name]
		seen[inst.Name] = true
		if len(group) == 0 {
			continue
		}
		fmt.Fprintf(w, "## %s %s\n", inst.Name, stars(inst.RelevanceScore))
		fmt.Fprintln(w)
		if inst.Department != "" {
			fmt.Fprintf(w, "*%s*", inst.Department)
			if inst.City != "" || inst.Country != "" {
				fmt.Fprintf(w, " — %s", location(inst))
			}
			fmt.Fprintln(w)
			fmt.Fprintln(w)
		}
		if inst.Reason != "" {
			fmt.Fprintln(w, inst.Reason)
			fmt.Fprintln(w)
		}
		for _, c := range group {
			rank++
			writeCandidate(w, rank, c)
		}
	}

	// Candidates whose institution was never in the discovery list still
	// belong in the report.
	var orphans []types.Collaborator
	for _, c := range ranked {
		if !seen[c.Institution] {
			orphans = append(orphans, c)
		}
	}
	if len(orphans) > 0 {
		fmt.Fprintln(w, "## Other Institutions")
		fmt.Fprintln(w)
		for _, c := range orphans {
			rank++
			writeCandidate(w, rank, c)
		}
	}
}

func writeCandidate(w io.Writer, rank int, c types.Collaborator) {
	fmt.Fprintf(w, "### %d. %s %s\n", rank, c.Name, stars(c.AlignmentScore))
	fmt.Fprintln(w)
	if c.Position != "" {
		fmt.Fprintf(w, "- **Position:** %s\n", c.Position)
	}
	fmt.Fprintf(w, "- **Institution:** %s\n", c.Institution)
	if c.Email != "" {
		fmt.Fprintf(w, "- **Email:** %s\n", c.Email)
	}
	fmt.Fprintf(w, "- **Research focus:** %s\n", c.ResearchFocus)
	fmt.Fprintf(w, "- **Alignment:** %s\n", c.AlignmentReasons)
	if c.CollaborationAngle != "" {
		fmt.Fprintf(w, "- **Collaboration angle:** %s\n", c.CollaborationAngle)
	}
	if len(c.KeyPublications) > 0 {
		fmt.Fprintln(w, "- **Key publications:**")
		for _, p := range c.KeyPublications {
			fmt.Fprintf(w, "  - %s\n", p)
		}
	}
	fmt.Fprintln(w)
}

// WriteShortlist writes the ranked candidates as a terminal table (R2.1).
func WriteShortlist(r Report, w io.Writer) {
	ranked := r.ranked()
	if len(ranked) == 0 {
		fmt.Fprintln(w, "No candidates found.")
		return
	}

	fmt.Fprintf(w, "%-4s  %-28s  %-32s  %-5s  %s\n",
		"Rank", "Name", "Institution", "Score", "Focus")
	fmt.Fprintln(w, strings.Repeat("-", 100))

	for i, c := range ranked {
		fmt.Fprintf(w, "%-4d  %-28s  %-32s  %-5s  %s\n",
			i+1, truncate(c.Name, 28), truncate(c.Institution, 32),
			fmt.Sprintf("%d/5", types.ClampScore(c.AlignmentScore)),
			truncate(c.ResearchFocus, 40))
	}

	fmt.Fprintf(w, "\n%d candidates\n", len(ranked))
}

// yamlExport is the stable machine-readable shape.
type yamlExport struct {
	Generated     time.Time            `yaml:"generated"`
	Model         string               `yaml:"model"`
	Method        types.SearchMethod   `yaml:"method"`
	Profile       types.Profile        `yaml:"profile"`
	Institutions  []types.Institution  `yaml:"institutions,omitempty"`
	Collaborators []types.Collaborator `yaml:"collaborators"`
}

// WriteYAML exports the run, collaborators in alignment order (R3.1).
func WriteYAML(r Report, w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(yamlExport{
		Generated:     r.GeneratedAt,
		Model:         r.ModelName,
		Method:        r.Method,
		Profile:       r.Profile,
		Institutions:  r.Institutions,
		Collaborators: r.ranked(),
	})
}

func location(inst types.Institution) string {
	switch {
	case inst.City != "" && inst.Country != "":
		return inst.City + ", " + inst.Country
	case inst.City != "":
		return inst.City
	default:
		return inst.Country
	}
}

// truncate shortens s to max runes. Slicing by rune keeps multibyte
// names intact instead of cutting mid-character.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}
