// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the collab-engine CLI.
// Implements: prd004-orchestration, prd007-presentation,
//             prd008-history (CLI surface).
// See docs/ARCHITECTURE § Pipeline Interface.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/collab-engine/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the collab-engine CLI.
var rootCmd = &cobra.Command{
	Use:   "collab-engine",
	Short: "LLM-driven search for research collaborators",
	Long: `collab-engine finds potential research collaborators by driving web-capable
LLMs through phased search and extraction. A focused search targets one
institution; a broad search discovers relevant institutions first and then
searches them in parallel.

Results are written as a ranked markdown report, a terminal shortlist, a YAML
export, and a local run history.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		secrets.ExportEnv(s)
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./collab-engine.yaml or ~/.config/collab-engine/config.yaml)")
	rootCmd.PersistentFlags().String("models", "", "model registry file (default: built-in registry, ./models.yaml if present)")
	rootCmd.PersistentFlags().Bool("quiet", false, "suppress progress output, keep warnings and errors")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("collab-engine")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "collab-engine"))
		}
	}

	viper.SetEnvPrefix("COLLAB_ENGINE")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
