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
)

func testCmd() *cli.Command {
	return &cli.Command{
		Name:  "test",
		Usage: "Test catalog items against their desired state without changing anything",
		Flags: []cli.Flag{
			outputFlag,
			formatFlag,
			&cli.BoolFlag{
				Name:  "parallel",
				Usage: "Test items concurrently with a bounded worker pool",
			},
			&cli.IntFlag{
				Name:  "workers",
				Value: defaults.ParallelWorkers,
				Usage: "Worker pool size for parallel runs",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			rt, err := newRuntime(ctx, cmd)
			if err != nil {
				return err
			}
			defer rt.plugins.UnloadAll(ctx)

			agg, err := rt.baseAggregate()
			if err != nil {
				return err
			}
			summary := agg.TestAll(ctx, aggregate.TestOptions{
				Parallel: cmd.Bool("parallel"),
				Workers:  int(cmd.Int("workers")),
			})

			out, err := newOutput(cmd)
			if err != nil {
				return err
			}
			defer out.Close()
			if err := out.Serialize(ctx, summary); err != nil {
				return err
			}
			if !summary.Satisfied() {
				return cli.Exit(fmt.Sprintf("%d of %d items out of desired state",
					summary.Failed, summary.Tested), 2)
			}
			return nil
		},
	}
}
