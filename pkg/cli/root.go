/*
Copyright © 2025 albedosehen
SPDX-License-Identifier: Apache-2.0
*/
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/albedosehen/dotwin/pkg/logging"
	"github.com/albedosehen/dotwin/pkg/serializer"
)

const name = "dotwin"

// overridden during build with ldflags
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Execute runs the CLI with signal-aware cancellation. SIGINT/SIGTERM
// cancel the command context for graceful shutdown.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd().Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cli.Command {
	return &cli.Command{
		Name:    name,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		Usage:   "Declarative desktop configuration: test, converge, and tune your machine",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "log-level",
				Value: "info",
				Usage: "Log level (debug, info, warn, error)",
			},
			&cli.StringFlag{
				Name:  "config-root",
				Usage: "Directory holding configuration overrides and plugins (default: $HOME/.dotwin)",
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			logging.SetDefaultStructuredLoggerWithLevel(name, version, cmd.String("log-level"))
			return ctx, nil
		},
		Commands: []*cli.Command{
			testCmd(),
			applyCmd(),
			recommendCmd(),
			resolveCmd(),
			pluginCmd(),
		},
	}
}

// configRoot resolves the configuration directory: the flag when set, the
// user's home otherwise.
func configRoot(cmd *cli.Command) string {
	if root := cmd.String("config-root"); root != "" {
		return root
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "." + name
	}
	return filepath.Join(home, "."+name)
}

// newOutput builds the result serializer from the shared output/format
// flags. Callers must Close the returned writer.
func newOutput(cmd *cli.Command) (*serializer.Writer, error) {
	format := serializer.Format(cmd.String("format"))
	if format.IsUnknown() {
		return nil, fmt.Errorf("unknown output format %q (supported: %v)",
			cmd.String("format"), serializer.SupportedFormats())
	}
	return serializer.NewFileWriterOrStdout(format, cmd.String("output")), nil
}
