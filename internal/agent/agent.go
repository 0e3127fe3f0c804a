// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package agent

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/go-viper/mapstructure/v2"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/collab-engine/internal/config"
	"github.com/pdiddy/collab-engine/internal/console"
	"github.com/pdiddy/collab-engine/internal/provider"
	"github.com/pdiddy/collab-engine/internal/websearch"
	"github.com/pdiddy/collab-engine/pkg/types"
)

// ErrAborted reports that a phase was cut short by a fatal provider
// error. Records collected before the abort are still available from
// the agent's accessors.
var ErrAborted = errors.New("aborted by fatal provider error")

// Agent runs the full search pipeline against one model: research,
// extraction, and in broad mode the discovery phase and per-institution
// fan-out. Per prd004-orchestration; see docs/ARCHITECTURE § Orchestration.
type Agent struct {
	client  provider.Client
	spec    config.ModelSpec
	search  websearch.Tool
	console *console.Console
	cfg     types.EngineConfig

	mu            sync.Mutex
	collaborators []types.Collaborator
	institutions  []types.Institution
}

// New builds an agent. search may be nil when the client supports
// grounded search.
func New(client provider.Client, spec config.ModelSpec, search websearch.Tool, con *console.Console, cfg types.EngineConfig) *Agent {
	return &Agent{
		client:  client,
		spec:    spec,
		search:  search,
		console: con,
		cfg:     cfg,
	}
}

func (a *Agent) driver(log Logger) *Driver {
	return &Driver{
		Client:        a.client,
		Search:        a.search,
		SearchResults: a.cfg.WebSearch.MaxResults,
		Log:           log,
		Cfg:           a.cfg.Driver,
	}
}

// Search runs a focused search: one research phase on half the turn
// budget, then one extraction phase. It returns the full collaborator
// collection, including records appended before any abort (R1.1-R1.3).
func (a *Agent) Search(ctx context.Context, profile types.Profile, maxTurns int) ([]types.Collaborator, error) {
	if maxTurns <= 0 {
		maxTurns = a.cfg.Driver.MaxTurns
	}
	d := a.driver(a.console)

	a.console.Info("Researching collaborators with %s", a.spec.Name)
	text, fatal := d.RunResearch(ctx, ResearchParams{
		System:          researchSystem,
		UserMessage:     buildResearchPrompt(profile, profile.Institution),
		ContinueMessage: researchContinue,
		MaxTurns:        max(1, maxTurns/2),
		Phase:           "research",
	})
	if fatal {
		return a.Collaborators(), ErrAborted
	}
	if text == "" {
		a.console.Warning("Research produced no findings; nothing to extract")
		return a.Collaborators(), nil
	}

	if fatal := a.extractCollaborators(ctx, d, profile, profile.Institution, text); fatal {
		return a.Collaborators(), ErrAborted
	}
	return a.Collaborators(), nil
}

// SearchBroad runs the three-stage broad search: institution discovery,
// relevance ranking, then a bounded-concurrency per-institution search
// over the ranked list (R2.1-R2.5). Discovery completes fully before any
// per-institution work starts.
func (a *Agent) SearchBroad(ctx context.Context, profile types.Profile, maxTurns int) ([]types.Collaborator, error) {
	if maxTurns <= 0 {
		maxTurns = a.cfg.Driver.MaxTurns
	}
	d := a.driver(a.console)

	a.console.Info("Discovering institutions with %s", a.spec.Name)
	text, fatal := d.RunResearch(ctx, ResearchParams{
		System:          discoverySystem,
		UserMessage:     buildDiscoveryPrompt(profile, a.cfg.MaxInstitutions),
		ContinueMessage: discoveryContinue,
		MaxTurns:        max(3, maxTurns/4),
		Phase:           "discovery",
	})
	if fatal {
		return a.Collaborators(), ErrAborted
	}
	if text == "" {
		a.console.Warning("Discovery produced no findings")
		return a.Collaborators(), nil
	}

	if fatal := a.extractInstitutions(ctx, d, profile, text); fatal {
		return a.Collaborators(), ErrAborted
	}

	insts := a.rankedInstitutions()
	if len(insts) == 0 {
		a.console.Warning("No institutions extracted; nothing to search")
		return a.Collaborators(), nil
	}
	a.console.Success("Found %d institutions; searching top %d", len(a.Institutions()), len(insts))

	turnsPerInst := max(3, maxTurns/len(insts))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.cfg.PoolSize)
	for _, inst := range insts {
		g.Go(func() error {
			// A failed institution never takes its siblings down; errors
			// are logged on the institution's section and swallowed.
			a.searchInstitution(gctx, profile, inst, turnsPerInst)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return a.Collaborators(), err
	}
	return a.Collaborators(), nil
}

// searchInstitution runs one research-plus-extraction pass constrained
// to a single institution, logging through a named section.
func (a *Agent) searchInstitution(ctx context.Context, profile types.Profile, inst types.Institution, maxTurns int) {
	sec := a.console.WithSection(inst.Name)
	d := a.driver(sec)

	text, fatal := d.RunResearch(ctx, ResearchParams{
		System:          researchSystem,
		UserMessage:     buildResearchPrompt(profile, inst.Name),
		ContinueMessage: researchContinue,
		MaxTurns:        maxTurns,
		Phase:           fmt.Sprintf("research (%s)", inst.Name),
	})
	if fatal {
		return
	}
	if text == "" {
		sec.Warning("No findings")
		return
	}
	a.extractCollaborators(ctx, d, profile, inst.Name, text)
}

// extractCollaborators runs the extraction loop over research findings,
// decoding each save call into a Collaborator on the shared collection.
// institution fills in records the model saved without one.
func (a *Agent) extractCollaborators(ctx context.Context, d *Driver, profile types.Profile, institution, text string) (fatal bool) {
	_, fatal = d.RunExtraction(ctx, ExtractionParams{
		System:      extractionSystem,
		UserMessage: buildExtractionPrompt(profile, text),
		SaveTool:    collaboratorToolDef(),
		MaxTurns:    a.cfg.ExtractionTurns,
		Phase:       "extraction",
		Model:       a.spec.ProcessingModel,
		OnSave: func(args map[string]any) (SaveAck, error) {
			var c types.Collaborator
			if err := mapstructure.WeakDecode(args, &c); err != nil {
				return SaveAck{}, fmt.Errorf("decoding collaborator: %w", err)
			}
			if c.Name == "" {
				return SaveAck{}, fmt.Errorf("collaborator record has no name")
			}
			if c.Institution == "" {
				c.Institution = institution
			}
			c.AlignmentScore = types.ClampScore(c.AlignmentScore)
			a.appendCollaborator(c)
			return SaveAck{Display: c.Name, Score: c.AlignmentScore}, nil
		},
	})
	return fatal
}

// extractInstitutions runs the extraction loop over discovery findings.
func (a *Agent) extractInstitutions(ctx context.Context, d *Driver, profile types.Profile, text string) (fatal bool) {
	_, fatal = d.RunExtraction(ctx, ExtractionParams{
		System:      institutionExtractionSystem,
		UserMessage: buildInstitutionExtractionPrompt(profile, text),
		SaveTool:    institutionToolDef(),
		MaxTurns:    a.cfg.ExtractionTurns,
		Phase:       "institution extraction",
		Model:       a.spec.ProcessingModel,
		OnSave: func(args map[string]any) (SaveAck, error) {
			var inst types.Institution
			if err := mapstructure.WeakDecode(args, &inst); err != nil {
				return SaveAck{}, fmt.Errorf("decoding institution: %w", err)
			}
			if inst.Name == "" {
				return SaveAck{}, fmt.Errorf("institution record has no name")
			}
			inst.RelevanceScore = types.ClampScore(inst.RelevanceScore)
			a.appendInstitution(inst)
			return SaveAck{Display: inst.Name, Score: inst.RelevanceScore}, nil
		},
	})
	return fatal
}

// rankedInstitutions returns the extracted institutions ordered by
// relevance, highest first, truncated to the configured maximum (R2.2).
func (a *Agent) rankedInstitutions() []types.Institution {
	a.mu.Lock()
	insts := make([]types.Institution, len(a.institutions))
	copy(insts, a.institutions)
	a.mu.Unlock()

	sort.SliceStable(insts, func(i, j int) bool {
		return insts[i].RelevanceScore > insts[j].RelevanceScore
	})
	if n := a.cfg.MaxInstitutions; n > 0 && len(insts) > n {
		insts = insts[:n]
	}
	return insts
}

func (a *Agent) appendCollaborator(c types.Collaborator) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.collaborators = append(a.collaborators, c)
}

func (a *Agent) appendInstitution(inst types.Institution) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.institutions = append(a.institutions, inst)
}

// Collaborators returns a copy of the shared collaborator collection.
func (a *Agent) Collaborators() []types.Collaborator {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]types.Collaborator, len(a.collaborators))
	copy(out, a.collaborators)
	return out
}

// Institutions returns a copy of the extracted institutions.
func (a *Agent) Institutions() []types.Institution {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]types.Institution, len(a.institutions))
	copy(out, a.institutions)
	return out
}
