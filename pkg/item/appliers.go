/*
Copyright © 2025 albedosehen
SPDX-License-Identifier: Apache-2.0
*/
package item

import "context"

// The applier interfaces below are the seams between declarative items and
// the underlying system technology. Item variants accept an applier and
// stay free of platform calls, which keeps them testable with fakes.

// PackageManager abstracts the host package installer (winget, chocolatey,
// scoop, brew).
type PackageManager interface {
	// IsInstalled reports whether the named package is present. Absence is
	// a false result, not an error.
	IsInstalled(ctx context.Context, name string) (bool, error)

	// InstalledVersion returns the installed version string, or empty when
	// the package is absent.
	InstalledVersion(ctx context.Context, name string) (string, error)

	// Install installs the named package at the given version, or the
	// latest when version is empty. Installing an already-present package
	// is a no-op.
	Install(ctx context.Context, name, version string) error
}

// RegistryEditor abstracts the system settings store (the Windows registry,
// defaults domains, dconf).
type RegistryEditor interface {
	// Read returns the value stored at path/valueName. The second result is
	// false when the key or value does not exist; that is not an error.
	Read(ctx context.Context, path, valueName string) (string, bool, error)

	// Write stores value at path/valueName, creating intermediate keys as
	// needed. valueType names the store's native type (e.g. "string",
	// "dword").
	Write(ctx context.Context, path, valueName, value, valueType string) error
}

// ServiceStatus is a coarse service run state.
type ServiceStatus string

const (
	ServiceRunning ServiceStatus = "running"
	ServiceStopped ServiceStatus = "stopped"
	ServiceUnknown ServiceStatus = "unknown"
)

// ServiceController abstracts the host service manager.
type ServiceController interface {
	// Status returns the current run state. A service that does not exist
	// reports ServiceUnknown without error.
	Status(ctx context.Context, name string) (ServiceStatus, error)

	// StartupMode returns the configured startup mode (e.g. "automatic",
	// "manual", "disabled"), or empty when unknown.
	StartupMode(ctx context.Context, name string) (string, error)

	Start(ctx context.Context, name string) error
	Stop(ctx context.Context, name string) error
	SetStartupMode(ctx context.Context, name, mode string) error
}

// FeatureToggler abstracts optional OS feature management (Windows optional
// features, systemd presets).
type FeatureToggler interface {
	// IsEnabled reports whether the named feature is active. An unknown
	// feature is a false result, not an error.
	IsEnabled(ctx context.Context, name string) (bool, error)

	Enable(ctx context.Context, name string) error
	Disable(ctx context.Context, name string) error
}
