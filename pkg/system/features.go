/*
Copyright © 2025 albedosehen
SPDX-License-Identifier: Apache-2.0
*/
package system

import (
	"context"
	"strings"
)

// Dism drives dism.exe for optional OS features. It implements the
// feature applier contract.
type Dism struct {
	run Runner
}

// NewDism creates a dism.exe-backed feature toggler. A nil runner means
// real command execution.
func NewDism(run Runner) *Dism {
	if run == nil {
		run = ExecRunner
	}
	return &Dism{run: run}
}

// IsEnabled parses the feature's State line. An unknown feature reads as
// disabled, not as an error.
func (d *Dism) IsEnabled(ctx context.Context, name string) (bool, error) {
	out, err := d.run(ctx, "dism", "/online", "/get-featureinfo", "/featurename:"+name)
	if err != nil {
		if strings.Contains(out, "Unknown feature") || strings.Contains(out, "0x800f080c") {
			return false, nil
		}
		return false, err
	}
	return parseDismState(out), nil
}

// Enable enables the feature without forcing a restart.
func (d *Dism) Enable(ctx context.Context, name string) error {
	_, err := d.run(ctx, "dism", "/online", "/enable-feature", "/featurename:"+name, "/all", "/norestart")
	return err
}

// Disable disables the feature without forcing a restart.
func (d *Dism) Disable(ctx context.Context, name string) error {
	_, err := d.run(ctx, "dism", "/online", "/disable-feature", "/featurename:"+name, "/norestart")
	return err
}

// parseDismState finds the "State : Enabled" line in feature info output.
func parseDismState(out string) bool {
	for _, line := range strings.Split(out, "\n") {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, "State") {
			continue
		}
		_, value, found := strings.Cut(trimmed, ":")
		if found && strings.EqualFold(strings.TrimSpace(value), "Enabled") {
			return true
		}
	}
	return false
}
