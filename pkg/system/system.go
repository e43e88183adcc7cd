/*
Copyright © 2025 albedosehen
SPDX-License-Identifier: Apache-2.0
*/
package system

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"
)

// Runner executes a system command and returns its combined output. The
// indirection keeps the appliers testable without a live system.
type Runner func(ctx context.Context, name string, args ...string) (string, error)

// ExecRunner runs commands through os/exec, logging each invocation at
// debug level.
func ExecRunner(ctx context.Context, name string, args ...string) (string, error) {
	start := time.Now()
	var buf bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &buf
	cmd.Stderr = &buf

	err := cmd.Run()
	out := buf.String()
	slog.Debug("system command finished",
		slog.String("command", name),
		slog.String("args", strings.Join(args, " ")),
		slog.Duration("took", time.Since(start)),
		slog.Bool("failed", err != nil))
	if err != nil {
		return out, fmt.Errorf("%s %s: %w: %s", name, strings.Join(args, " "), err, strings.TrimSpace(out))
	}
	return out, nil
}
