/*
Copyright © 2025 albedosehen
SPDX-License-Identifier: Apache-2.0
*/
package cli

import (
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/albedosehen/dotwin/pkg/serializer"
)

var outputFlag = &cli.StringFlag{
	Name:    "output",
	Aliases: []string{"o"},
	Usage:   "Output file path (default: stdout)",
}

var formatFlag = &cli.StringFlag{
	Name:  "format",
	Value: string(serializer.FormatYAML),
	Usage: fmt.Sprintf("Output format (supported values: %v)", serializer.SupportedFormats()),
}
