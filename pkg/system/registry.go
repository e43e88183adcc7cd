/*
Copyright © 2025 albedosehen
SPDX-License-Identifier: Apache-2.0
*/
package system

import (
	"context"
	"strconv"
	"strings"
)

// RegTool drives reg.exe for settings-store reads and writes. It
// implements the registry applier contract.
type RegTool struct {
	run Runner
}

// NewRegTool creates a reg.exe-backed registry editor. A nil runner means
// real command execution.
func NewRegTool(run Runner) *RegTool {
	if run == nil {
		run = ExecRunner
	}
	return &RegTool{run: run}
}

// Read queries path for valueName. A key or value that does not exist is
// reported as absent, not as an error.
func (r *RegTool) Read(ctx context.Context, path, valueName string) (string, bool, error) {
	out, err := r.run(ctx, "reg", "query", path, "/v", valueName)
	if err != nil {
		if strings.Contains(out, "unable to find") || strings.Contains(out, "ERROR:") {
			return "", false, nil
		}
		return "", false, err
	}
	value, found := parseRegQuery(out, valueName)
	return value, found, nil
}

// Write stores value at path/valueName, creating keys as needed.
func (r *RegTool) Write(ctx context.Context, path, valueName, value, valueType string) error {
	regType := "REG_SZ"
	switch strings.ToLower(valueType) {
	case "dword":
		regType = "REG_DWORD"
	case "qword":
		regType = "REG_QWORD"
	case "binary":
		regType = "REG_BINARY"
	case "expand":
		regType = "REG_EXPAND_SZ"
	}
	_, err := r.run(ctx, "reg", "add", path, "/v", valueName, "/t", regType, "/d", value, "/f")
	return err
}

// parseRegQuery extracts the data column from reg query output:
//
//	ValueName    REG_DWORD    0x0
func parseRegQuery(out, valueName string) (string, bool) {
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		if len(fields) >= 3 && fields[0] == valueName {
			value := fields[2]
			// Normalize hex DWORD output to a plain decimal string.
			if strings.HasPrefix(fields[1], "REG_DWORD") || strings.HasPrefix(fields[1], "REG_QWORD") {
				value = normalizeHex(value)
			}
			return value, true
		}
	}
	return "", false
}

func normalizeHex(v string) string {
	lower := strings.ToLower(v)
	if !strings.HasPrefix(lower, "0x") {
		return v
	}
	n, err := strconv.ParseUint(lower[2:], 16, 64)
	if err != nil {
		return v
	}
	return strconv.FormatUint(n, 10)
}
