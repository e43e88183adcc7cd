/*
Copyright © 2025 albedosehen
SPDX-License-Identifier: Apache-2.0
*/
package item

import (
	"context"
	"fmt"

	"github.com/albedosehen/dotwin/pkg/version"
)

// PackageItem declares that a package should be installed, optionally at a
// minimum version.
type PackageItem struct {
	Base

	pkg        string
	minVersion string
	mgr        PackageManager
}

// NewPackageItem creates a package item. minVersion may be empty, in which
// case any installed version satisfies the item.
func NewPackageItem(name, pkg, minVersion string, mgr PackageManager, opts ...BaseOption) *PackageItem {
	return &PackageItem{
		Base:       NewBase(name, TypePackage, opts...),
		pkg:        pkg,
		minVersion: minVersion,
		mgr:        mgr,
	}
}

// Package returns the managed package identifier.
func (p *PackageItem) Package() string { return p.pkg }

// Test reports whether the package is installed at a satisfying version.
// An absent package is a clean false, never an error.
func (p *PackageItem) Test(ctx context.Context) (bool, error) {
	if p.mgr == nil {
		return false, fmt.Errorf("%w: package item %q has no package manager", ErrNotImplemented, p.Name())
	}
	installed, err := p.mgr.IsInstalled(ctx, p.pkg)
	if err != nil {
		return false, fmt.Errorf("checking package %s: %w", p.pkg, err)
	}
	if !installed {
		return false, nil
	}
	if p.minVersion == "" {
		return true, nil
	}
	current, err := p.mgr.InstalledVersion(ctx, p.pkg)
	if err != nil {
		return false, fmt.Errorf("reading version of package %s: %w", p.pkg, err)
	}
	return versionSatisfies(current, p.minVersion), nil
}

// Apply installs or upgrades the package when the current state does not
// already satisfy the item. Re-applying a satisfied item is a no-op.
func (p *PackageItem) Apply(ctx context.Context) error {
	ok, err := p.Test(ctx)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	if err := p.mgr.Install(ctx, p.pkg, p.minVersion); err != nil {
		return fmt.Errorf("installing package %s: %w", p.pkg, err)
	}
	return nil
}

// CurrentState snapshots the observed install state.
func (p *PackageItem) CurrentState(ctx context.Context) map[string]any {
	state := map[string]any{
		"name":    p.Name(),
		"type":    p.Type().String(),
		"package": p.pkg,
	}
	if p.mgr == nil {
		state[StateErrorKey] = "no package manager configured"
		return state
	}
	installed, err := p.mgr.IsInstalled(ctx, p.pkg)
	if err != nil {
		state[StateErrorKey] = err.Error()
		return state
	}
	state["installed"] = installed
	if installed {
		if v, err := p.mgr.InstalledVersion(ctx, p.pkg); err == nil && v != "" {
			state["version"] = v
		}
	}
	return state
}

// versionSatisfies reports whether current >= want. Unparseable versions
// fall back to string equality so an exotic scheme still has a way to pass.
func versionSatisfies(current, want string) bool {
	cv, err := version.ParseVersion(current)
	if err != nil {
		return current == want
	}
	wv, err := version.ParseVersion(want)
	if err != nil {
		return current == want
	}
	return cv.EqualsOrNewer(wv)
}
