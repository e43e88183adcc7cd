/*
Copyright © 2025 albedosehen
SPDX-License-Identifier: Apache-2.0
*/
package cli

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
)

func pluginCmd() *cli.Command {
	return &cli.Command{
		Name:  "plugin",
		Usage: "Inspect and manage plugins",
		Commands: []*cli.Command{
			pluginListCmd(),
			pluginDiscoverCmd(),
			pluginEnableCmd(),
			pluginDisableCmd(),
		},
	}
}

// pluginRow is the list view of one registered plugin.
type pluginRow struct {
	Name     string `json:"name" yaml:"name"`
	Version  string `json:"version" yaml:"version"`
	Category string `json:"category,omitempty" yaml:"category,omitempty"`
	Enabled  bool   `json:"enabled" yaml:"enabled"`
	Loaded   bool   `json:"loaded" yaml:"loaded"`
}

func pluginListCmd() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List registered plugins",
		Flags: []cli.Flag{outputFlag, formatFlag},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			rt, err := newRuntime(ctx, cmd)
			if err != nil {
				return err
			}
			defer rt.plugins.UnloadAll(ctx)

			var rows []pluginRow
			for _, m := range rt.plugins.List() {
				rows = append(rows, pluginRow{
					Name:     m.Name,
					Version:  m.Version,
					Category: titleCaser.String(m.Category),
					Enabled:  m.Enabled,
					Loaded:   rt.plugins.IsLoaded(m.Name),
				})
			}

			out, err := newOutput(cmd)
			if err != nil {
				return err
			}
			defer out.Close()
			return out.Serialize(ctx, rows)
		},
	}
}

func pluginDiscoverCmd() *cli.Command {
	return &cli.Command{
		Name:  "discover",
		Usage: "Scan the plugin search paths and list discovered manifests",
		Flags: []cli.Flag{outputFlag, formatFlag},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			rt, err := newRuntime(ctx, cmd)
			if err != nil {
				return err
			}
			defer rt.plugins.UnloadAll(ctx)

			manifests, err := rt.plugins.Discover()
			if err != nil {
				return err
			}

			out, err := newOutput(cmd)
			if err != nil {
				return err
			}
			defer out.Close()
			return out.Serialize(ctx, manifests)
		},
	}
}

func pluginEnableCmd() *cli.Command {
	return &cli.Command{
		Name:      "enable",
		Usage:     "Enable a plugin and everything it depends on",
		ArgsUsage: "<name>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			name, err := pluginArg(cmd)
			if err != nil {
				return err
			}
			rt, err := newRuntime(ctx, cmd)
			if err != nil {
				return err
			}
			defer rt.plugins.UnloadAll(ctx)
			return rt.plugins.Enable(ctx, name)
		},
	}
}

func pluginDisableCmd() *cli.Command {
	return &cli.Command{
		Name:      "disable",
		Usage:     "Disable a plugin and everything that depends on it",
		ArgsUsage: "<name>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			name, err := pluginArg(cmd)
			if err != nil {
				return err
			}
			rt, err := newRuntime(ctx, cmd)
			if err != nil {
				return err
			}
			defer rt.plugins.UnloadAll(ctx)
			return rt.plugins.Disable(name)
		},
	}
}

func pluginArg(cmd *cli.Command) (string, error) {
	if cmd.Args().Len() != 1 {
		return "", fmt.Errorf("expected exactly one plugin name")
	}
	return cmd.Args().Get(0), nil
}
