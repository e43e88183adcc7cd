/*
Copyright © 2025 albedosehen
SPDX-License-Identifier: Apache-2.0
*/
package system

import (
	"context"
	"strings"

	"github.com/albedosehen/dotwin/pkg/item"
)

// ServiceControl drives sc.exe for service state and startup mode. It
// implements the service applier contract.
type ServiceControl struct {
	run Runner
}

// NewServiceControl creates an sc.exe-backed service controller. A nil
// runner means real command execution.
func NewServiceControl(run Runner) *ServiceControl {
	if run == nil {
		run = ExecRunner
	}
	return &ServiceControl{run: run}
}

// Status maps the sc query STATE line to a coarse status. A service that
// does not exist reports unknown without error.
func (s *ServiceControl) Status(ctx context.Context, name string) (item.ServiceStatus, error) {
	out, err := s.run(ctx, "sc", "query", name)
	if err != nil {
		if strings.Contains(out, "does not exist") || strings.Contains(out, "FAILED 1060") {
			return item.ServiceUnknown, nil
		}
		return item.ServiceUnknown, err
	}
	switch {
	case strings.Contains(out, "RUNNING"):
		return item.ServiceRunning, nil
	case strings.Contains(out, "STOPPED"):
		return item.ServiceStopped, nil
	default:
		return item.ServiceUnknown, nil
	}
}

// StartupMode maps the sc qc START_TYPE line to a mode name.
func (s *ServiceControl) StartupMode(ctx context.Context, name string) (string, error) {
	out, err := s.run(ctx, "sc", "qc", name)
	if err != nil {
		if strings.Contains(out, "does not exist") || strings.Contains(out, "FAILED 1060") {
			return "", nil
		}
		return "", err
	}
	switch {
	case strings.Contains(out, "AUTO_START"):
		return "automatic", nil
	case strings.Contains(out, "DEMAND_START"):
		return "manual", nil
	case strings.Contains(out, "DISABLED"):
		return "disabled", nil
	default:
		return "", nil
	}
}

// Start starts the service.
func (s *ServiceControl) Start(ctx context.Context, name string) error {
	_, err := s.run(ctx, "sc", "start", name)
	return err
}

// Stop stops the service.
func (s *ServiceControl) Stop(ctx context.Context, name string) error {
	_, err := s.run(ctx, "sc", "stop", name)
	return err
}

// SetStartupMode configures the service start type.
func (s *ServiceControl) SetStartupMode(ctx context.Context, name, mode string) error {
	scMode := "demand"
	switch strings.ToLower(mode) {
	case "automatic", "auto":
		scMode = "auto"
	case "disabled":
		scMode = "disabled"
	}
	// sc requires the space after "start=".
	_, err := s.run(ctx, "sc", "config", name, "start=", scMode)
	return err
}
