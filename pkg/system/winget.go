/*
Copyright © 2025 albedosehen
SPDX-License-Identifier: Apache-2.0
*/
package system

import (
	"context"
	"strings"
)

// Winget drives the winget package manager. It implements the package
// applier contract.
type Winget struct {
	run Runner
}

// NewWinget creates a winget-backed package manager. A nil runner means
// real command execution.
func NewWinget(run Runner) *Winget {
	if run == nil {
		run = ExecRunner
	}
	return &Winget{run: run}
}

// IsInstalled reports whether the package identifier appears in the
// installed list. Winget exits nonzero when nothing matches, which reads
// as "not installed", not as an error.
func (w *Winget) IsInstalled(ctx context.Context, name string) (bool, error) {
	out, err := w.run(ctx, "winget", "list", "--id", name, "--exact", "--disable-interactivity")
	if err != nil {
		if strings.Contains(out, "No installed package") {
			return false, nil
		}
		return false, err
	}
	return strings.Contains(out, name), nil
}

// InstalledVersion parses the version column of the matching list row,
// returning empty when the package is absent.
func (w *Winget) InstalledVersion(ctx context.Context, name string) (string, error) {
	out, err := w.run(ctx, "winget", "list", "--id", name, "--exact", "--disable-interactivity")
	if err != nil {
		if strings.Contains(out, "No installed package") {
			return "", nil
		}
		return "", err
	}
	return parseWingetVersion(out, name), nil
}

// Install installs the package, silently accepting agreements. An empty
// version installs the latest.
func (w *Winget) Install(ctx context.Context, name, version string) error {
	args := []string{
		"install", "--id", name, "--exact", "--silent",
		"--accept-package-agreements", "--accept-source-agreements",
		"--disable-interactivity",
	}
	if version != "" {
		args = append(args, "--version", version)
	}
	_, err := w.run(ctx, "winget", args...)
	return err
}

// parseWingetVersion extracts the version column from winget list output:
// the row holding the package id, one column to its right.
func parseWingetVersion(out, id string) string {
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		for i, f := range fields {
			if strings.EqualFold(f, id) && i+1 < len(fields) {
				return fields[i+1]
			}
		}
	}
	return ""
}
