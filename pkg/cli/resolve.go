/*
Copyright © 2025 albedosehen
SPDX-License-Identifier: Apache-2.0
*/
package cli

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/albedosehen/dotwin/pkg/bridge"
)

func resolveCmd() *cli.Command {
	return &cli.Command{
		Name:      "resolve",
		Usage:     "Resolve merged configuration for a topic, optionally overlaying a variant",
		ArgsUsage: "<topic> [variant]",
		Flags: []cli.Flag{
			outputFlag,
			formatFlag,
			&cli.BoolFlag{
				Name:  "no-cache",
				Usage: "Bypass the bridge cache for this resolve",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			args := cmd.Args()
			if args.Len() < 1 || args.Len() > 2 {
				return fmt.Errorf("expected <topic> [variant], supported topics: %v", bridge.Topics)
			}
			topic := bridge.Topic(args.Get(0))
			variant := args.Get(1)

			rt, err := newRuntime(ctx, cmd)
			if err != nil {
				return err
			}
			defer rt.plugins.UnloadAll(ctx)

			if cmd.Bool("no-cache") {
				rt.bridge.EnableCaching(false)
			}
			doc, err := rt.bridge.Resolve(ctx, topic, variant)
			if err != nil {
				return err
			}

			out, err := newOutput(cmd)
			if err != nil {
				return err
			}
			defer out.Close()
			return out.Serialize(ctx, doc)
		},
	}
}
