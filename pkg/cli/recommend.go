/*
Copyright © 2025 albedosehen
SPDX-License-Identifier: Apache-2.0
*/
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"sort"

	"github.com/urfave/cli/v3"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/albedosehen/dotwin/pkg/profile"
	"github.com/albedosehen/dotwin/pkg/recommendation"
	"github.com/albedosehen/dotwin/pkg/recommender"
	"github.com/albedosehen/dotwin/pkg/serializer"
)

var titleCaser = cases.Title(language.English)

func recommendCmd() *cli.Command {
	return &cli.Command{
		Name:  "recommend",
		Usage: "Generate configuration recommendations from a system profile",
		Flags: []cli.Flag{
			outputFlag,
			formatFlag,
			&cli.StringFlag{
				Name:  "profile",
				Usage: "Path to a system profile file (default: minimal host probe)",
			},
			&cli.StringFlag{
				Name:  "category",
				Usage: "Limit the run to one rule category",
			},
			&cli.StringFlag{
				Name:  "min-priority",
				Usage: fmt.Sprintf("Drop recommendations below this priority (supported values: %v)",
					recommendation.SupportedPriorities()),
			},
			&cli.IntFlag{
				Name:  "max",
				Usage: "Cap the number of recommendations returned",
			},
			&cli.BoolFlag{
				Name:  "conflicts",
				Usage: "Keep recommendations with colliding titles instead of resolving each collision",
			},
			&cli.BoolFlag{
				Name:  "apply",
				Usage: "Converge the recommended items after generating them",
			},
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "With --apply, predict each outcome without changing the system",
			},
			&cli.BoolFlag{
				Name:  "auto-only",
				Usage: "With --apply, restrict to recommendations marked for automatic apply",
			},
			&cli.BoolFlag{
				Name:  "force",
				Usage: "With --apply, converge every recommended item even when already satisfied",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			p, err := loadProfile(cmd.String("profile"))
			if err != nil {
				return err
			}

			opts := recommender.Options{
				Category:         cmd.String("category"),
				MaxResults:       int(cmd.Int("max")),
				IncludeConflicts: cmd.Bool("conflicts"),
			}
			if raw := cmd.String("min-priority"); raw != "" {
				pr, err := recommendation.ParsePriority(raw)
				if err != nil {
					return err
				}
				opts.MinPriority = pr
			}

			rt, err := newRuntime(ctx, cmd)
			if err != nil {
				return err
			}
			defer rt.plugins.UnloadAll(ctx)

			result, err := rt.engine.Generate(ctx, p, opts)
			if err != nil {
				return err
			}
			logCategoryCounts(result.Recommendations)

			out, err := newOutput(cmd)
			if err != nil {
				return err
			}
			defer out.Close()

			if !cmd.Bool("apply") {
				return out.Serialize(ctx, result)
			}

			summary, err := rt.engine.Apply(ctx, result.Recommendations, recommender.ApplyOptions{
				DryRun:   cmd.Bool("dry-run"),
				Force:    cmd.Bool("force"),
				AutoOnly: cmd.Bool("auto-only"),
			})
			if err != nil {
				return err
			}
			if err := out.Serialize(ctx, summary); err != nil {
				return err
			}
			if summary.Failed > 0 {
				return cli.Exit(fmt.Sprintf("%d recommended items failed to apply", summary.Failed), 2)
			}
			return nil
		},
	}
}

// loadProfile reads a profile file, or probes the host for a minimal one
// when no file is given.
func loadProfile(path string) (*profile.Profile, error) {
	if path == "" {
		return hostProfile(), nil
	}
	p := &profile.Profile{}
	if err := serializer.FromFile(path, p); err != nil {
		return nil, fmt.Errorf("reading profile %s: %w", path, err)
	}
	return p, nil
}

// hostProfile builds the minimal profile obtainable without an external
// profiler: hardware identity only, so hardware-driven rules still fire.
func hostProfile() *profile.Profile {
	hostname, _ := os.Hostname()
	p := profile.New()
	hw := p.GetOrCreateSection(profile.SectionHardware)
	hw.Set(profile.KeyHostname, hostname)
	hw.Set(profile.KeyArch, runtime.GOARCH)
	hw.Set(profile.KeyCPUCores, runtime.NumCPU())
	return p
}

func logCategoryCounts(recs []*recommendation.Recommendation) {
	counts := make(map[string]int)
	for _, rec := range recs {
		counts[rec.Category.String()]++
	}
	categories := make([]string, 0, len(counts))
	for c := range counts {
		categories = append(categories, c)
	}
	sort.Strings(categories)
	for _, c := range categories {
		slog.Info("recommendations by category",
			slog.String("category", titleCaser.String(c)),
			slog.Int("count", counts[c]))
	}
}
