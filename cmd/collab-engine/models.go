// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List the models in the registry",
	Long: `Models lists every model in the registry with its provider, search
capability, and whether its provider API key is set. Pass --available to
show only models that are ready to use.`,
	RunE: runModels,
}

func runModels(cmd *cobra.Command, args []string) error {
	reg, _, err := resolveModel(cmd)
	if err != nil {
		return err
	}

	onlyAvailable, _ := cmd.Flags().GetBool("available")

	fmt.Fprintf(os.Stdout, "%-16s  %-28s  %-12s  %-7s  %-9s  %s\n",
		"ID", "Name", "Provider", "Search", "Available", "")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 90))

	defaultID := reg.Default().ID
	for _, m := range reg.Models {
		available := reg.APIKey(m) != ""
		if onlyAvailable && !available {
			continue
		}
		search := "tool"
		if m.SupportsSearch {
			search = "native"
		}
		mark := ""
		if m.ID == defaultID {
			mark = "(default)"
		}
		fmt.Fprintf(os.Stdout, "%-16s  %-28s  %-12s  %-7s  %-9v  %s\n",
			m.ID, m.Name, m.Provider, search, available, mark)
	}
	return nil
}

func init() {
	modelsCmd.Flags().Bool("available", false, "show only models whose API key is set")

	rootCmd.AddCommand(modelsCmd)
}
