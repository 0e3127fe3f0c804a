// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/pdiddy/collab-engine/internal/agent"
	"github.com/pdiddy/collab-engine/internal/report"
	"github.com/pdiddy/collab-engine/pkg/types"
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Run a focused collaborator search",
	Long: `Search researches potential collaborators for one profile, optionally
constrained to a single institution, then extracts a structured ranked
candidate list. Results go to the terminal, a markdown report, a YAML
export, and the run history.`,
	RunE: runSearch,
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	con := newConsole(cmd)
	cfg := engineConfig()

	profile, err := loadProfile(cmd)
	if err != nil {
		return err
	}

	a, spec, err := buildAgent(ctx, cmd, con, cfg)
	if err != nil {
		return err
	}

	started := runTimestamp()
	maxTurns, _ := cmd.Flags().GetInt("max-turns")

	collabs, searchErr := a.Search(ctx, profile, maxTurns)
	if searchErr != nil && !errors.Is(searchErr, agent.ErrAborted) {
		return searchErr
	}

	rep := report.Report{
		Profile:       profile,
		ModelName:     spec.Name,
		Method:        types.MethodFocused,
		GeneratedAt:   started,
		Collaborators: collabs,
	}
	if err := finishRun(ctx, cmd, con, cfg, rep, spec.ID); err != nil {
		return err
	}

	// Partial results are rendered above, but an aborted run still exits
	// non-zero so callers can tell.
	return searchErr
}

func init() {
	searchFlags(searchCmd)
	searchCmd.Flags().String("institution", "", "restrict the search to one institution")

	rootCmd.AddCommand(searchCmd)
}
