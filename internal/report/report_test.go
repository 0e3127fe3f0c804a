// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"bytes"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/collab-engine/pkg/types"
)

func sampleReport() Report {
	return Report{
		Profile:     types.Profile{Description: "photonic computing", FocusAreas: []string{"silicon photonics"}},
		ModelName:   "Gemini 2.5 Flash",
		Method:      types.MethodFocused,
		GeneratedAt: time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
		Collaborators: []types.Collaborator{
			{Name: "Low Fit", Institution: "A University", ResearchFocus: "adjacent optics", AlignmentScore: 2, AlignmentReasons: "loose overlap"},
			{Name: "High Fit", Institution: "B Institute", ResearchFocus: "photonic chips", AlignmentScore: 5, AlignmentReasons: "direct overlap", Email: "high@b.edu"},
			{Name: "Mid Fit", Institution: "A University", ResearchFocus: "optical interconnects", AlignmentScore: 3, AlignmentReasons: "shared methods"},
		},
	}
}

func TestWriteMarkdown_RanksByAlignment(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteMarkdown(sampleReport(), &buf))
	out := buf.String()

	high := strings.Index(out, "1. High Fit")
	mid := strings.Index(out, "2. Mid Fit")
	low := strings.Index(out, "3. Low Fit")
	require.GreaterOrEqual(t, high, 0)
	assert.Greater(t, mid, high)
	assert.Greater(t, low, mid)

	assert.Contains(t, out, "★★★★★")
	assert.Contains(t, out, "**Model:** Gemini 2.5 Flash")
	assert.Contains(t, out, "**Method:** focused")
	assert.Contains(t, out, "high@b.edu")
}

func TestWriteMarkdown_StableForEqualScores(t *testing.T) {
	r := sampleReport()
	for i := range r.Collaborators {
		r.Collaborators[i].AlignmentScore = 3
	}

	var buf bytes.Buffer
	require.NoError(t, WriteMarkdown(r, &buf))
	out := buf.String()

	// Equal scores keep extraction order.
	assert.Less(t, strings.Index(out, "Low Fit"), strings.Index(out, "High Fit"))
	assert.Less(t, strings.Index(out, "High Fit"), strings.Index(out, "Mid Fit"))
}

func TestWriteMarkdown_BroadGroupsByInstitution(t *testing.T) {
	r := sampleReport()
	r.Method = types.MethodBroad
	r.Institutions = []types.Institution{
		{Name: "A University", Country: "US", RelevanceScore: 3, Reason: "solid groups"},
		{Name: "B Institute", Department: "Photonics Lab", City: "Delft", Country: "NL", RelevanceScore: 5, Reason: "world leading"},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteMarkdown(r, &buf))
	out := buf.String()

	// Institution sections in relevance order, B before A.
	bSection := strings.Index(out, "## B Institute")
	aSection := strings.Index(out, "## A University")
	require.GreaterOrEqual(t, bSection, 0)
	require.GreaterOrEqual(t, aSection, 0)
	assert.Less(t, bSection, aSection)

	assert.Contains(t, out, "Photonics Lab")
	assert.Contains(t, out, "Delft, NL")

	// High Fit belongs to the B section.
	highIdx := strings.Index(out, "High Fit")
	assert.Greater(t, highIdx, bSection)
	assert.Less(t, highIdx, aSection)
}

func TestWriteMarkdown_BroadKeepsUnlistedInstitutions(t *testing.T) {
	r := sampleReport()
	r.Method = types.MethodBroad
	r.Institutions = []types.Institution{
		{Name: "B Institute", Country: "NL", RelevanceScore: 5},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteMarkdown(r, &buf))
	out := buf.String()

	assert.Contains(t, out, "## Other Institutions")
	assert.Contains(t, out, "Mid Fit")
	assert.Contains(t, out, "Low Fit")
}

func TestWriteMarkdown_Empty(t *testing.T) {
	r := sampleReport()
	r.Collaborators = nil

	var buf bytes.Buffer
	require.NoError(t, WriteMarkdown(r, &buf))
	assert.Contains(t, buf.String(), "No candidates found.")
}

func TestWriteShortlist(t *testing.T) {
	var buf bytes.Buffer
	WriteShortlist(sampleReport(), &buf)
	out := buf.String()

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.GreaterOrEqual(t, len(lines), 5)
	assert.Contains(t, lines[0], "Rank")
	assert.Contains(t, lines[2], "High Fit")
	assert.Contains(t, lines[2], "5/5")
	assert.Contains(t, out, "3 candidates")
}

func TestWriteYAML_RoundTrips(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteYAML(sampleReport(), &buf))

	var decoded struct {
		Model         string               `yaml:"model"`
		Method        string               `yaml:"method"`
		Collaborators []types.Collaborator `yaml:"collaborators"`
	}
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))

	assert.Equal(t, "Gemini 2.5 Flash", decoded.Model)
	assert.Equal(t, "focused", decoded.Method)
	require.Len(t, decoded.Collaborators, 3)
	assert.Equal(t, "High Fit", decoded.Collaborators[0].Name)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijk", 10))

	// Accented names are cut at rune boundaries, never mid-character.
	name := strings.Repeat("é", 20)
	got := truncate(name, 10)
	assert.True(t, utf8.ValidString(got), "got %q", got)
	assert.Equal(t, strings.Repeat("é", 7)+"...", got)
}

func TestStars(t *testing.T) {
	assert.Equal(t, "★★★☆☆", stars(3))
	assert.Equal(t, "★★★★★", stars(9))
	assert.Equal(t, "★☆☆☆☆", stars(-2))
}
