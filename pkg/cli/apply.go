/*
Copyright © 2025 albedosehen
SPDX-License-Identifier: Apache-2.0
*/
package cli

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/albedosehen/dotwin/pkg/aggregate"
	"github.com/albedosehen/dotwin/pkg/defaults"
	"github.com/albedosehen/dotwin/pkg/item"
)

func applyCmd() *cli.Command {
	return &cli.Command{
		Name:  "apply",
		Usage: "Converge catalog items to their desired state",
		Flags: []cli.Flag{
			outputFlag,
			formatFlag,
			&cli.BoolFlag{
				Name:  "force",
				Usage: "Apply every item even when its test already passes",
			},
			&cli.BoolFlag{
				Name:  "parallel",
				Usage: "Apply items concurrently with a bounded worker pool",
			},
			&cli.IntFlag{
				Name:  "workers",
				Value: defaults.ParallelWorkers,
				Usage: "Worker pool size for parallel runs",
			},
			&cli.StringSliceFlag{
				Name:  "include-type",
				Usage: "Only apply items of the given type (repeatable)",
			},
			&cli.StringSliceFlag{
				Name:  "exclude-type",
				Usage: "Skip items of the given type (repeatable; wins over include)",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			include, err := parseTypes(cmd.StringSlice("include-type"))
			if err != nil {
				return err
			}
			exclude, err := parseTypes(cmd.StringSlice("exclude-type"))
			if err != nil {
				return err
			}

			rt, err := newRuntime(ctx, cmd)
			if err != nil {
				return err
			}
			defer rt.plugins.UnloadAll(ctx)

			agg, err := rt.baseAggregate()
			if err != nil {
				return err
			}
			summary := agg.ApplyAll(ctx, aggregate.ApplyOptions{
				Force:        cmd.Bool("force"),
				Parallel:     cmd.Bool("parallel"),
				Workers:      int(cmd.Int("workers")),
				IncludeTypes: include,
				ExcludeTypes: exclude,
			})

			out, err := newOutput(cmd)
			if err != nil {
				return err
			}
			defer out.Close()
			if err := out.Serialize(ctx, summary); err != nil {
				return err
			}
			if summary.Aborted {
				return cli.Exit("critical item failed, run aborted", 3)
			}
			if summary.Failed > 0 {
				return cli.Exit(fmt.Sprintf("%d items failed to apply", summary.Failed), 2)
			}
			return nil
		},
	}
}

func parseTypes(values []string) ([]item.Type, error) {
	var out []item.Type
	for _, v := range values {
		t, ok := item.ParseType(v)
		if !ok {
			return nil, fmt.Errorf("unknown item type %q", v)
		}
		out = append(out, t)
	}
	return out, nil
}
