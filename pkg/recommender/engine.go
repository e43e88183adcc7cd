/*
Copyright © 2025 albedosehen
SPDX-License-Identifier: Apache-2.0
*/
package recommender

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/albedosehen/dotwin/pkg/aggregate"
	"github.com/albedosehen/dotwin/pkg/catalog"
	"github.com/albedosehen/dotwin/pkg/defaults"
	"github.com/albedosehen/dotwin/pkg/errors"
	"github.com/albedosehen/dotwin/pkg/profile"
	"github.com/albedosehen/dotwin/pkg/recommendation"
)

// Engine evaluates recommendation rules against a system profile and turns
// accepted recommendations into converged configuration items.
type Engine struct {
	rules   map[string]map[string]recommendation.Rule
	catalog *catalog.Catalog
}

// EngineOption is a functional option for configuring an Engine.
type EngineOption func(*Engine)

// WithRules merges additional rules into the engine, keyed by category then
// rule name. Plugin-contributed rule sets arrive this way.
func WithRules(rules map[string]map[string]recommendation.Rule) EngineOption {
	return func(e *Engine) {
		for category, byName := range rules {
			if e.rules[category] == nil {
				e.rules[category] = make(map[string]recommendation.Rule)
			}
			for name, rule := range byName {
				e.rules[category][name] = rule
			}
		}
	}
}

// WithoutBuiltinRules drops the built-in rule set, leaving only rules added
// via WithRules.
func WithoutBuiltinRules() EngineOption {
	return func(e *Engine) {
		e.rules = make(map[string]map[string]recommendation.Rule)
	}
}

// NewEngine creates an engine with the built-in rules and the given catalog
// for materializing recommended items.
func NewEngine(cat *catalog.Catalog, opts ...EngineOption) *Engine {
	e := &Engine{
		rules:   builtinRules(),
		catalog: cat,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Options controls a Generate run.
type Options struct {
	// Category limits the run to rules registered under one category.
	// Empty means all categories.
	Category string

	// MinPriority drops recommendations below the given priority. Zero
	// means no floor.
	MinPriority recommendation.Priority

	// MaxResults caps the result count after sorting. Zero means the
	// default cap.
	MaxResults int

	// IncludeConflicts keeps recommendations whose titles collide instead
	// of resolving each collision to a single winner.
	IncludeConflicts bool
}

// Result is one Generate run: a stable run identity plus the ordered,
// deduplicated recommendations.
type Result struct {
	RunID           string                           `json:"runId" yaml:"runId"`
	GeneratedAt     time.Time                        `json:"generatedAt" yaml:"generatedAt"`
	RulesEvaluated  int                              `json:"rulesEvaluated" yaml:"rulesEvaluated"`
	Recommendations []*recommendation.Recommendation `json:"recommendations" yaml:"recommendations"`
}

// Generate validates the options, evaluates the selected rules against the
// profile, and returns recommendations ordered by priority (highest first,
// title breaking ties). Option validation happens before any rule runs so a
// bad request never pays for rule evaluation. A failing rule is isolated:
// its error is logged and the run continues.
func (e *Engine) Generate(ctx context.Context, p *profile.Profile, opts Options) (*Result, error) {
	if err := p.Validate(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidRequest, "invalid profile", err)
	}
	if opts.Category != "" {
		if _, ok := e.rules[opts.Category]; !ok {
			return nil, errors.NewWithContext(errors.ErrCodeInvalidRequest,
				"unknown recommendation category",
				map[string]any{"category": opts.Category, "supported": e.categories()})
		}
	}
	if opts.MinPriority != 0 && !opts.MinPriority.IsValid() {
		return nil, errors.NewWithContext(errors.ErrCodeInvalidRequest,
			"invalid minimum priority",
			map[string]any{"priority": int(opts.MinPriority)})
	}
	if opts.MaxResults < 0 {
		return nil, errors.New(errors.ErrCodeInvalidRequest, "max results cannot be negative")
	}
	maxResults := opts.MaxResults
	if maxResults == 0 {
		maxResults = defaults.RecommendationMaxResults
	}

	result := &Result{
		RunID:       uuid.NewString(),
		GeneratedAt: time.Now().UTC(),
	}

	var collected []*recommendation.Recommendation
	for _, category := range e.categories() {
		if opts.Category != "" && category != opts.Category {
			continue
		}
		for _, name := range e.ruleNames(category) {
			result.RulesEvaluated++
			recs, err := e.rules[category][name](ctx, p)
			if err != nil {
				slog.Warn("recommendation rule failed, skipping",
					slog.String("rule", name),
					slog.String("category", category),
					slog.String("run", result.RunID),
					slog.String("error", err.Error()))
				continue
			}
			for _, rec := range recs {
				if err := rec.Validate(); err != nil {
					slog.Warn("rule produced invalid recommendation, dropping",
						slog.String("rule", name),
						slog.String("error", err.Error()))
					continue
				}
				if rec.Source == "" {
					rec.Source = name
				}
				collected = append(collected, rec)
			}
		}
	}

	if !opts.IncludeConflicts {
		collected = dedupe(collected)
	}

	if opts.MinPriority != 0 {
		filtered := collected[:0]
		for _, rec := range collected {
			if rec.Priority >= opts.MinPriority {
				filtered = append(filtered, rec)
			}
		}
		collected = filtered
	}

	sort.SliceStable(collected, func(i, j int) bool {
		if collected[i].Priority != collected[j].Priority {
			return collected[i].Priority > collected[j].Priority
		}
		return collected[i].Title < collected[j].Title
	})

	if len(collected) > maxResults {
		collected = collected[:maxResults]
	}
	result.Recommendations = collected

	for _, rec := range collected {
		recommendationsTotal.WithLabelValues(rec.Category.String(), rec.Priority.String()).Inc()
	}
	slog.Info("recommendations generated",
		slog.String("run", result.RunID),
		slog.Int("rules", result.RulesEvaluated),
		slog.Int("recommendations", len(collected)))
	return result, nil
}

// dedupe resolves title collisions to a single winner: the highest
// priority, or the earlier recommendation on a tie. Evaluation order is
// deterministic, so ties resolve the same way across runs.
func dedupe(recs []*recommendation.Recommendation) []*recommendation.Recommendation {
	index := make(map[string]int)
	var out []*recommendation.Recommendation
	for _, rec := range recs {
		key := strings.ToLower(rec.Title)
		if i, seen := index[key]; seen {
			if rec.Priority > out[i].Priority {
				out[i] = rec
			}
			continue
		}
		index[key] = len(out)
		out = append(out, rec)
	}
	return out
}

// ApplyOptions controls an Apply run.
type ApplyOptions struct {
	// DryRun computes the would-be outcome of each recommendation without
	// mutating the system.
	DryRun bool

	// Force converges every item without testing first.
	Force bool

	// AutoOnly restricts the run to recommendations marked AutoApply.
	AutoOnly bool
}

// Apply materializes the recommendations that carry item specs and
// converges them as one batch. Advisory-only recommendations are ignored.
// In dry-run mode each item's outcome is predicted from its compliance
// test and nothing is mutated.
func (e *Engine) Apply(ctx context.Context, recs []*recommendation.Recommendation, opts ApplyOptions) (*aggregate.ApplySummary, error) {
	if e.catalog == nil {
		return nil, errors.New(errors.ErrCodeInternal, "engine has no catalog to materialize items")
	}

	agg := aggregate.New("recommendations")
	for _, rec := range recs {
		if rec.Item == nil {
			continue
		}
		if opts.AutoOnly && !rec.AutoApply {
			continue
		}
		it, err := e.catalog.MaterializeSpec(rec.Item)
		if err != nil {
			return nil, errors.WrapWithContext(errors.ErrCodeInvalidRequest,
				"materializing recommended item", err,
				map[string]any{"recommendation": rec.Title})
		}
		if err := agg.Add(it); err != nil {
			return nil, err
		}
	}

	if opts.DryRun {
		return predictApply(ctx, agg, opts.Force), nil
	}
	return agg.ApplyAll(ctx, aggregate.ApplyOptions{Force: opts.Force}), nil
}

// predictApply derives the outcome an apply run would have from compliance
// tests alone.
func predictApply(ctx context.Context, agg *aggregate.Aggregate, force bool) *aggregate.ApplySummary {
	tests := agg.TestAll(ctx, aggregate.TestOptions{})
	summary := &aggregate.ApplySummary{Aggregate: agg.Name()}
	for _, r := range tests.Results {
		ar := aggregate.ApplyResult{Name: r.Name, Type: r.Type}
		switch {
		case r.Satisfied && !force:
			ar.Status = aggregate.StatusSkipped
			summary.Skipped++
		default:
			ar.Status = aggregate.StatusApplied
			summary.Applied++
		}
		summary.Results = append(summary.Results, ar)
	}
	return summary
}

func (e *Engine) categories() []string {
	out := make([]string, 0, len(e.rules))
	for category := range e.rules {
		out = append(out, category)
	}
	sort.Strings(out)
	return out
}

func (e *Engine) ruleNames(category string) []string {
	out := make([]string, 0, len(e.rules[category]))
	for name := range e.rules[category] {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
