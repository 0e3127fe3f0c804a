// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/collab-engine/internal/agent"
	"github.com/pdiddy/collab-engine/internal/config"
	"github.com/pdiddy/collab-engine/internal/console"
	"github.com/pdiddy/collab-engine/internal/history"
	"github.com/pdiddy/collab-engine/internal/provider"
	"github.com/pdiddy/collab-engine/internal/report"
	"github.com/pdiddy/collab-engine/internal/websearch"
	"github.com/pdiddy/collab-engine/pkg/types"
)

// searchToolEnvKeys maps search-tool names to their API-key variables.
var searchToolEnvKeys = map[string]string{
	"tavily": "TAVILY_API_KEY",
	"brave":  "BRAVE_API_KEY",
}

// engineConfig builds the engine settings: defaults, overridden by the
// "engine" section of the config file when present.
func engineConfig() types.EngineConfig {
	cfg := types.DefaultEngineConfig()
	if viper.IsSet("engine") {
		_ = viper.UnmarshalKey("engine", &cfg)
	}
	return cfg
}

func newConsole(cmd *cobra.Command) *console.Console {
	con := console.New(os.Stderr)
	quiet, _ := cmd.Flags().GetBool("quiet")
	con.SetQuiet(quiet)
	return con
}

// resolveModel loads the registry and picks the requested model, or the
// default when none was requested.
func resolveModel(cmd *cobra.Command) (*config.Registry, config.ModelSpec, error) {
	path, _ := cmd.Flags().GetString("models")
	if path == "" {
		if _, err := os.Stat("models.yaml"); err == nil {
			path = "models.yaml"
		}
	}
	reg, err := config.LoadRegistry(path)
	if err != nil {
		return nil, config.ModelSpec{}, err
	}

	modelID, _ := cmd.Flags().GetString("model")
	if modelID == "" {
		return reg, reg.Default(), nil
	}
	spec, err := reg.ByID(modelID)
	return reg, spec, err
}

// buildAgent assembles the provider client, the web-search tool for
// models without native grounding, and the agent itself.
func buildAgent(ctx context.Context, cmd *cobra.Command, con *console.Console, cfg types.EngineConfig) (*agent.Agent, config.ModelSpec, error) {
	reg, spec, err := resolveModel(cmd)
	if err != nil {
		return nil, config.ModelSpec{}, err
	}

	client, err := provider.New(ctx, reg, spec)
	if err != nil {
		return nil, spec, err
	}

	var search websearch.Tool
	if !spec.SupportsSearch {
		name := cfg.WebSearch.Tool
		if flag, _ := cmd.Flags().GetString("search-tool"); flag != "" {
			name = flag
		}
		apiKey := os.Getenv(searchToolEnvKeys[name])
		if apiKey == "" {
			return nil, spec, fmt.Errorf("model %s needs the %s search tool: set %s", spec.ID, name, searchToolEnvKeys[name])
		}
		search, err = websearch.New(name, apiKey, cfg.WebSearch)
		if err != nil {
			return nil, spec, err
		}
		con.Dim("using %s web search for %s", name, spec.ID)
	}

	return agent.New(client, spec, search, con, cfg), spec, nil
}

// loadProfile builds the search profile from flags. --profile-file takes
// a YAML file in the Profile shape; inline flags override its fields.
func loadProfile(cmd *cobra.Command) (types.Profile, error) {
	var profile types.Profile

	if path, _ := cmd.Flags().GetString("profile-file"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return profile, fmt.Errorf("reading profile file: %w", err)
		}
		if err := yaml.Unmarshal(data, &profile); err != nil {
			return profile, fmt.Errorf("parsing profile file %s: %w", path, err)
		}
	}

	if text, _ := cmd.Flags().GetString("profile"); text != "" {
		profile.Description = text
	}
	if focus, _ := cmd.Flags().GetString("focus"); focus != "" {
		profile.FocusAreas = splitTrim(focus)
	}
	if inst, _ := cmd.Flags().GetString("institution"); inst != "" {
		profile.Institution = inst
	}
	if region, _ := cmd.Flags().GetString("region"); region != "" {
		profile.Region = region
	}

	if strings.TrimSpace(profile.Description) == "" {
		return profile, fmt.Errorf("a research profile is required: use --profile or --profile-file")
	}
	return profile, nil
}

func splitTrim(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// finishRun renders and persists one completed search: shortlist to
// stdout, markdown and YAML reports to the output directory, and a run
// history record.
func finishRun(ctx context.Context, cmd *cobra.Command, con *console.Console, cfg types.EngineConfig, rep report.Report, modelID string) error {
	report.WriteShortlist(rep, os.Stdout)

	outDir, _ := cmd.Flags().GetString("output")
	if outDir != "" {
		if err := os.MkdirAll(outDir, 0o755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
		stamp := rep.GeneratedAt.Format("20060102-150405")

		mdPath := filepath.Join(outDir, fmt.Sprintf("report-%s.md", stamp))
		f, err := os.Create(mdPath)
		if err != nil {
			return fmt.Errorf("creating report: %w", err)
		}
		if err := report.WriteMarkdown(rep, f); err != nil {
			f.Close()
			return err
		}
		f.Close()
		con.Success("Report written to %s", mdPath)

		yamlPath := filepath.Join(outDir, fmt.Sprintf("report-%s.yaml", stamp))
		yf, err := os.Create(yamlPath)
		if err != nil {
			return fmt.Errorf("creating YAML export: %w", err)
		}
		if err := report.WriteYAML(rep, yf); err != nil {
			yf.Close()
			return err
		}
		yf.Close()
		con.Success("YAML export written to %s", yamlPath)
	}

	if skip, _ := cmd.Flags().GetBool("no-history"); !skip {
		saveHistory(ctx, con, cfg, rep, modelID)
	}
	return nil
}

// saveHistory records the run. History failures are warnings: the report
// on disk is the primary artifact.
func saveHistory(ctx context.Context, con *console.Console, cfg types.EngineConfig, rep report.Report, modelID string) {
	store, err := history.NewStore(cfg.HistoryDir)
	if err != nil {
		con.Warning("run history unavailable: %v", err)
		return
	}
	defer store.Close()

	rec := &types.RunRecord{
		StartedAt:     rep.GeneratedAt,
		Profile:       rep.Profile.Description,
		ModelID:       modelID,
		Method:        rep.Method,
		Institutions:  rep.Institutions,
		Collaborators: rep.Collaborators,
	}
	if err := store.SaveRun(ctx, rec); err != nil {
		con.Warning("saving run history: %v", err)
		return
	}
	con.Dim("run recorded as #%d", rec.ID)
}

// searchFlags registers the flag set shared by search and broad.
func searchFlags(cmd *cobra.Command) {
	cmd.Flags().String("profile", "", "research profile as inline text")
	cmd.Flags().String("profile-file", "", "research profile YAML file")
	cmd.Flags().String("focus", "", "focus areas (comma-separated)")
	cmd.Flags().String("model", "", "model ID from the registry (default: registry default)")
	cmd.Flags().Int("max-turns", 0, "text-turn budget for the run (0 = config default)")
	cmd.Flags().String("search-tool", "", "web-search backend for non-grounded models: tavily or brave")
	cmd.Flags().String("output", "output/reports", "directory for report files (empty = no files)")
	cmd.Flags().Bool("no-history", false, "skip recording the run in history")
}

func runTimestamp() time.Time {
	return time.Now().UTC()
}
