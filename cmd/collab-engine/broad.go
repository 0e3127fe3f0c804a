// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/pdiddy/collab-engine/internal/agent"
	"github.com/pdiddy/collab-engine/internal/report"
	"github.com/pdiddy/collab-engine/pkg/types"
)

var broadCmd = &cobra.Command{
	Use:   "broad",
	Short: "Run a broad multi-institution search",
	Long: `Broad first discovers institutions relevant to the profile, ranks them by
relevance, then searches the top institutions in parallel. The report
groups candidates by institution. Use --region to constrain discovery
geographically.`,
	RunE: runBroad,
}

func runBroad(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	con := newConsole(cmd)
	cfg := engineConfig()

	if n, _ := cmd.Flags().GetInt("max-institutions"); n > 0 {
		cfg.MaxInstitutions = n
	}
	if n, _ := cmd.Flags().GetInt("pool-size"); n > 0 {
		cfg.PoolSize = n
	}

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

	collabs, searchErr := a.SearchBroad(ctx, profile, maxTurns)
	if searchErr != nil && !errors.Is(searchErr, agent.ErrAborted) {
		return searchErr
	}

	rep := report.Report{
		Profile:       profile,
		ModelName:     spec.Name,
		Method:        types.MethodBroad,
		GeneratedAt:   started,
		Institutions:  a.Institutions(),
		Collaborators: collabs,
	}
	if err := finishRun(ctx, cmd, con, cfg, rep, spec.ID); err != nil {
		return err
	}
	return searchErr
}

func init() {
	searchFlags(broadCmd)
	broadCmd.Flags().String("region", "", "constrain institution discovery to a region")
	broadCmd.Flags().Int("max-institutions", 0, "cap on institutions to search (0 = config default)")
	broadCmd.Flags().Int("pool-size", 0, "parallel institution searches (0 = config default)")

	rootCmd.AddCommand(broadCmd)
}
