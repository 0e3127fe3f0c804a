// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/collab-engine/internal/history"
	"github.com/pdiddy/collab-engine/internal/report"
	"github.com/pdiddy/collab-engine/pkg/types"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Browse the run history",
	Long: `Runs lists past searches recorded in the local history database and
re-renders their reports without re-running any search.`,
}

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded runs, newest first",
	RunE:  runRunsList,
}

func runRunsList(cmd *cobra.Command, args []string) error {
	cfg := engineConfig()
	store, err := history.NewStore(cfg.HistoryDir)
	if err != nil {
		return err
	}
	defer store.Close()

	limit, _ := cmd.Flags().GetInt("limit")
	runs, err := store.ListRuns(cmd.Context(), limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No runs recorded.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-5s  %-17s  %-14s  %-8s  %-10s  %s\n",
		"ID", "Started", "Model", "Method", "Candidates", "Profile")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 100))
	for _, r := range runs {
		profile := r.Profile
		if len(profile) > 40 {
			profile = profile[:37] + "..."
		}
		fmt.Fprintf(os.Stdout, "%-5d  %-17s  %-14s  %-8s  %-10d  %s\n",
			r.ID, r.StartedAt.Format("2006-01-02 15:04"), r.ModelID, r.Method, r.Collaborators, profile)
	}
	return nil
}

var runsShowCmd = &cobra.Command{
	Use:   "show [run-id]",
	Short: "Re-render one recorded run",
	Args:  cobra.ExactArgs(1),
	RunE:  runRunsShow,
}

func runRunsShow(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid run id %q", args[0])
	}

	cfg := engineConfig()
	store, err := history.NewStore(cfg.HistoryDir)
	if err != nil {
		return err
	}
	defer store.Close()

	rec, err := store.GetRun(cmd.Context(), id)
	if err != nil {
		return err
	}

	rep := report.Report{
		Profile:       types.Profile{Description: rec.Profile},
		ModelName:     rec.ModelID,
		Method:        rec.Method,
		GeneratedAt:   rec.StartedAt,
		Institutions:  rec.Institutions,
		Collaborators: rec.Collaborators,
	}

	if asYAML, _ := cmd.Flags().GetBool("yaml"); asYAML {
		return report.WriteYAML(rep, os.Stdout)
	}
	return report.WriteMarkdown(rep, os.Stdout)
}

func init() {
	runsListCmd.Flags().Int("limit", 20, "maximum runs to list (0 = all)")
	runsShowCmd.Flags().Bool("yaml", false, "output as YAML instead of markdown")

	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)
	rootCmd.AddCommand(runsCmd)
}
