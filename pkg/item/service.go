/*
Copyright © 2025 albedosehen
SPDX-License-Identifier: Apache-2.0
*/
package item

import (
	"context"
	"fmt"
)

// ServiceItem declares that a system service should be in a given run state
// and, optionally, a given startup mode.
type ServiceItem struct {
	Base

	service     string
	desired     ServiceStatus
	startupMode string
	ctl         ServiceController
}

// NewServiceItem creates a service item. startupMode may be empty, in which
// case the item only manages the run state.
func NewServiceItem(name, service string, desired ServiceStatus, startupMode string, ctl ServiceController, opts ...BaseOption) *ServiceItem {
	return &ServiceItem{
		Base:        NewBase(name, TypeService, opts...),
		service:     service,
		desired:     desired,
		startupMode: startupMode,
		ctl:         ctl,
	}
}

// Service returns the managed service name.
func (s *ServiceItem) Service() string { return s.service }

// Test reports whether the service is in the desired run state and startup
// mode. An unknown service is a clean false, never an error.
func (s *ServiceItem) Test(ctx context.Context) (bool, error) {
	if s.ctl == nil {
		return false, fmt.Errorf("%w: service item %q has no controller", ErrNotImplemented, s.Name())
	}
	status, err := s.ctl.Status(ctx, s.service)
	if err != nil {
		return false, fmt.Errorf("querying service %s: %w", s.service, err)
	}
	if status != s.desired {
		return false, nil
	}
	if s.startupMode == "" {
		return true, nil
	}
	mode, err := s.ctl.StartupMode(ctx, s.service)
	if err != nil {
		return false, fmt.Errorf("querying startup mode of service %s: %w", s.service, err)
	}
	return mode == s.startupMode, nil
}

// Apply converges the service to the desired run state and startup mode.
func (s *ServiceItem) Apply(ctx context.Context) error {
	if s.ctl == nil {
		return fmt.Errorf("%w: service item %q has no controller", ErrNotImplemented, s.Name())
	}
	status, err := s.ctl.Status(ctx, s.service)
	if err != nil {
		return fmt.Errorf("querying service %s: %w", s.service, err)
	}
	if status != s.desired {
		switch s.desired {
		case ServiceRunning:
			err = s.ctl.Start(ctx, s.service)
		case ServiceStopped:
			err = s.ctl.Stop(ctx, s.service)
		default:
			err = fmt.Errorf("unsupported desired status %q", s.desired)
		}
		if err != nil {
			return fmt.Errorf("converging service %s to %s: %w", s.service, s.desired, err)
		}
	}
	if s.startupMode != "" {
		mode, err := s.ctl.StartupMode(ctx, s.service)
		if err != nil {
			return fmt.Errorf("querying startup mode of service %s: %w", s.service, err)
		}
		if mode != s.startupMode {
			if err := s.ctl.SetStartupMode(ctx, s.service, s.startupMode); err != nil {
				return fmt.Errorf("setting startup mode of service %s: %w", s.service, err)
			}
		}
	}
	return nil
}

// CurrentState snapshots the observed service state.
func (s *ServiceItem) CurrentState(ctx context.Context) map[string]any {
	state := map[string]any{
		"name":    s.Name(),
		"type":    s.Type().String(),
		"service": s.service,
		"desired": string(s.desired),
	}
	if s.ctl == nil {
		state[StateErrorKey] = "no service controller configured"
		return state
	}
	status, err := s.ctl.Status(ctx, s.service)
	if err != nil {
		state[StateErrorKey] = err.Error()
		return state
	}
	state["status"] = string(status)
	if mode, err := s.ctl.StartupMode(ctx, s.service); err == nil && mode != "" {
		state["startupMode"] = mode
	}
	return state
}
