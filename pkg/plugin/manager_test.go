/*
Copyright © 2025 albedosehen
SPDX-License-Identifier: Apache-2.0
*/
package plugin

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albedosehen/dotwin/pkg/errors"
	"github.com/albedosehen/dotwin/pkg/item"
	"github.com/albedosehen/dotwin/pkg/profile"
	"github.com/albedosehen/dotwin/pkg/recommendation"
)

// testPlugin is a scriptable plugin for lifecycle tests.
type testPlugin struct {
	manifest   *Manifest
	initErr    error
	cleanupErr error
	cleanupFn  func()
	inits      int
	cleanups   int

	handlers map[item.Type]item.Handler
	rules    map[string]recommendation.Rule
}

func (p *testPlugin) Manifest() *Manifest { return p.manifest }

func (p *testPlugin) Initialize(_ context.Context) error {
	if p.initErr != nil {
		return p.initErr
	}
	p.inits++
	return nil
}

func (p *testPlugin) Cleanup(_ context.Context) error {
	p.cleanups++
	if p.cleanupFn != nil {
		p.cleanupFn()
	}
	return p.cleanupErr
}

func (p *testPlugin) Handlers() map[item.Type]item.Handler  { return p.handlers }
func (p *testPlugin) Rules() map[string]recommendation.Rule { return p.rules }

func newTestPlugin(name string, deps ...string) *testPlugin {
	return &testPlugin{
		manifest: &Manifest{
			Name:         name,
			Version:      "1.0.0",
			Enabled:      true,
			Dependencies: deps,
		},
	}
}

func TestManifestValidate(t *testing.T) {
	require.NoError(t, newTestPlugin("ok").manifest.Validate())

	bad := &Manifest{Name: "bad", Version: "not-a-version"}
	assert.Error(t, bad.Validate())

	unnamed := &Manifest{Version: "1.0.0"}
	assert.Error(t, unnamed.Validate())

	selfDep := &Manifest{Name: "loop", Version: "1.0.0", Dependencies: []string{"loop"}}
	assert.Error(t, selfDep.Validate())
}

func TestManifestSupportsPlatform(t *testing.T) {
	anyPlatform := &Manifest{Name: "p", Version: "1.0.0"}
	assert.True(t, anyPlatform.SupportsPlatform("windows"))

	winOnly := &Manifest{Name: "p", Version: "1.0.0", Platforms: []string{"Windows"}}
	assert.True(t, winOnly.SupportsPlatform("windows"))
	assert.False(t, winOnly.SupportsPlatform("linux"))
}

func TestRegisterRejectsDuplicatesAndBadManifests(t *testing.T) {
	m := NewManager()
	require.NoError(t, m.Register(newTestPlugin("one")))

	err := m.Register(newTestPlugin("one"))
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidRequest))

	bad := newTestPlugin("two")
	bad.manifest.Version = "abc"
	err = m.Register(bad)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidRequest))

	err = m.Register(nil)
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidRequest))
}

func TestRegisterDependencyChecking(t *testing.T) {
	m := NewManager()

	// Unsatisfied dependency fails without pass-thru.
	err := m.Register(newTestPlugin("child", "parent"))
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeDependencyUnsatisfied))

	// Pass-thru defers the check to load time.
	require.NoError(t, m.Register(newTestPlugin("child", "parent"), WithPassThru()))

	// In-order registration needs no pass-thru.
	require.NoError(t, m.Register(newTestPlugin("parent")))
	require.NoError(t, m.Register(newTestPlugin("leaf", "parent")))

	// A registered but disabled dependency is still unsatisfied.
	off := newTestPlugin("off")
	off.manifest.Enabled = false
	require.NoError(t, m.Register(off))
	err = m.Register(newTestPlugin("needs-off", "off"))
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeDependencyUnsatisfied))
}

func TestRegisterValidatesCategory(t *testing.T) {
	m := NewManager()

	galactic := newTestPlugin("galactic-tools")
	galactic.manifest.Category = "galactic"
	err := m.Register(galactic)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidRequest))

	// Built-in categories and the empty category pass.
	known := newTestPlugin("known")
	known.manifest.Category = "development"
	require.NoError(t, m.Register(known))
	require.NoError(t, m.Register(newTestPlugin("uncategorized")))

	// Pass-thru forces an unknown category through.
	require.NoError(t, m.Register(galactic, WithPassThru()))
	got, err := m.Get("galactic-tools")
	require.NoError(t, err)
	assert.Equal(t, "galactic", got.Manifest().Category)

	// A manager extended with the category accepts it normally,
	// case-insensitively.
	extended := NewManager(WithCategories("Galactic"))
	other := newTestPlugin("other")
	other.manifest.Category = "galactic"
	require.NoError(t, extended.Register(other))
}

func TestPassThruBypassesValidationNotUniqueness(t *testing.T) {
	m := NewManager()

	odd := newTestPlugin("odd")
	odd.manifest.Version = "not-semver"
	require.NoError(t, m.Register(odd, WithPassThru()))

	// The name uniqueness constraint survives pass-thru.
	err := m.Register(newTestPlugin("odd"), WithPassThru())
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidRequest))

	unnamed := newTestPlugin("")
	err = m.Register(unnamed, WithPassThru())
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidRequest))
}

func TestLoadInitializesInDependencyOrder(t *testing.T) {
	m := NewManager()
	parent := newTestPlugin("parent")
	child := newTestPlugin("child", "parent")
	require.NoError(t, m.Register(parent))
	require.NoError(t, m.Register(child))

	require.NoError(t, m.Load(t.Context(), "child"))

	assert.True(t, m.IsLoaded("parent"))
	assert.True(t, m.IsLoaded("child"))
	assert.Equal(t, 1, parent.inits)
	assert.False(t, child.manifest.LoadedAt.IsZero())

	// Loading again is a no-op.
	require.NoError(t, m.Load(t.Context(), "child"))
	assert.Equal(t, 1, child.inits)
}

func TestLoadFailures(t *testing.T) {
	m := NewManager()

	err := m.Load(t.Context(), "ghost")
	assert.True(t, errors.IsCode(err, errors.ErrCodeNotFound))

	disabled := newTestPlugin("disabled")
	disabled.manifest.Enabled = false
	require.NoError(t, m.Register(disabled))
	err = m.Load(t.Context(), "disabled")
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidRequest))

	broken := newTestPlugin("broken")
	broken.initErr = fmt.Errorf("no backend")
	require.NoError(t, m.Register(broken))
	err = m.Load(t.Context(), "broken")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeOperationFailure))
	assert.False(t, m.IsLoaded("broken"))

	// A dangling pass-thru dependency surfaces at load.
	orphan := newTestPlugin("orphan", "missing")
	require.NoError(t, m.Register(orphan, WithPassThru()))
	err = m.Load(t.Context(), "orphan")
	assert.True(t, errors.IsCode(err, errors.ErrCodeDependencyUnsatisfied))
}

func TestUnloadIsBestEffort(t *testing.T) {
	m := NewManager()
	p := newTestPlugin("flaky")
	p.cleanupErr = fmt.Errorf("resource busy")
	require.NoError(t, m.Register(p))
	require.NoError(t, m.Load(t.Context(), "flaky"))

	// Cleanup failure is a warning, not an error; the plugin unloads.
	require.NoError(t, m.Unload(t.Context(), "flaky"))
	assert.False(t, m.IsLoaded("flaky"))
	assert.Equal(t, 1, p.cleanups)
	assert.True(t, p.manifest.LoadedAt.IsZero())

	// Unloading an unloaded plugin is a no-op.
	require.NoError(t, m.Unload(t.Context(), "flaky"))
	assert.Equal(t, 1, p.cleanups)
}

func TestUnregisterGuardsDependents(t *testing.T) {
	m := NewManager()
	require.NoError(t, m.Register(newTestPlugin("base")))
	require.NoError(t, m.Register(newTestPlugin("ext", "base")))

	err := m.Unregister(t.Context(), "base", false)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeDependencyUnsatisfied))

	require.NoError(t, m.Unregister(t.Context(), "base", true))
	_, err = m.Get("base")
	assert.True(t, errors.IsCode(err, errors.ErrCodeNotFound))

	// The orphaned dependent can no longer be enabled and loaded.
	err = m.Enable(t.Context(), "ext")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeDependencyUnsatisfied))
}

func TestUnregisterUnloadsFirst(t *testing.T) {
	m := NewManager()
	p := newTestPlugin("solo")
	require.NoError(t, m.Register(p))
	require.NoError(t, m.Load(t.Context(), "solo"))

	require.NoError(t, m.Unregister(t.Context(), "solo", false))
	assert.Equal(t, 1, p.cleanups)
}

func TestUnregisterRechecksDependentsAfterUnload(t *testing.T) {
	m := NewManager()
	base := newTestPlugin("base")
	// A dependent slipping in while the lock is released for unload must
	// still block removal.
	base.cleanupFn = func() {
		_ = m.Register(newTestPlugin("latecomer", "base"))
	}
	require.NoError(t, m.Register(base))
	require.NoError(t, m.Load(t.Context(), "base"))

	err := m.Unregister(t.Context(), "base", false)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeDependencyUnsatisfied))

	_, err = m.Get("base")
	assert.NoError(t, err)
	_, err = m.Get("latecomer")
	assert.NoError(t, err)
}

func TestEnablePropagatesToDependencies(t *testing.T) {
	m := NewManager()
	base := newTestPlugin("base")
	base.manifest.Enabled = false
	mid := newTestPlugin("mid", "base")
	mid.manifest.Enabled = false
	top := newTestPlugin("top", "mid")
	top.manifest.Enabled = false
	require.NoError(t, m.Register(base))
	require.NoError(t, m.Register(mid, WithPassThru()))
	require.NoError(t, m.Register(top, WithPassThru()))

	require.NoError(t, m.Enable(t.Context(), "top"))
	assert.True(t, base.manifest.Enabled)
	assert.True(t, mid.manifest.Enabled)
	assert.True(t, top.manifest.Enabled)

	// Enabling also loads the closure, dependencies first.
	assert.True(t, m.IsLoaded("base"))
	assert.True(t, m.IsLoaded("top"))
	assert.Equal(t, 1, base.inits)
}

func TestDisablePropagatesToDependents(t *testing.T) {
	m := NewManager()
	base := newTestPlugin("base")
	mid := newTestPlugin("mid", "base")
	top := newTestPlugin("top", "mid")
	bystander := newTestPlugin("bystander")
	require.NoError(t, m.Register(base))
	require.NoError(t, m.Register(mid))
	require.NoError(t, m.Register(top))
	require.NoError(t, m.Register(bystander))

	require.NoError(t, m.Disable("base"))
	assert.False(t, base.manifest.Enabled)
	assert.False(t, mid.manifest.Enabled)
	assert.False(t, top.manifest.Enabled)
	assert.True(t, bystander.manifest.Enabled)
}

func TestEnableDetectsCycles(t *testing.T) {
	m := NewManager()
	require.NoError(t, m.Register(newTestPlugin("a", "b"), WithPassThru()))
	require.NoError(t, m.Register(newTestPlugin("b", "a"), WithPassThru()))

	err := m.Enable(t.Context(), "a")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeDependencyUnsatisfied))
}

func TestByCategoryReturnsLoadedOnly(t *testing.T) {
	m := NewManager()
	loaded := newTestPlugin("loaded")
	loaded.manifest.Category = "development"
	registered := newTestPlugin("registered")
	registered.manifest.Category = "development"
	require.NoError(t, m.Register(loaded))
	require.NoError(t, m.Register(registered))
	require.NoError(t, m.Load(t.Context(), "loaded"))

	got := m.ByCategory("Development")
	require.Len(t, got, 1)
	assert.Equal(t, "loaded", got[0].Manifest().Name)

	// Disabling removes a still-loaded plugin from capability dispatch.
	require.NoError(t, m.Disable("loaded"))
	assert.True(t, m.IsLoaded("loaded"))
	assert.Empty(t, m.ByCategory("Development"))
}

func TestItemHandlerConflictRejected(t *testing.T) {
	m := NewManager()
	handler := func(_ context.Context, _ item.Operation, _ item.Item) (any, error) { return true, nil }

	first := newTestPlugin("first")
	first.handlers = map[item.Type]item.Handler{"font": handler}
	require.NoError(t, m.Register(first))

	second := newTestPlugin("second")
	second.handlers = map[item.Type]item.Handler{"font": handler}
	err := m.Register(second)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidRequest))
}

func TestItemHandlersAggregatesLoadedPlugins(t *testing.T) {
	m := NewManager()
	handler := func(_ context.Context, _ item.Operation, _ item.Item) (any, error) { return true, nil }

	fonts := newTestPlugin("fonts")
	fonts.handlers = map[item.Type]item.Handler{"font": handler}
	require.NoError(t, m.Register(fonts))

	assert.Empty(t, m.ItemHandlers())

	require.NoError(t, m.Load(t.Context(), "fonts"))
	got := m.ItemHandlers()
	require.Len(t, got, 1)
	assert.Contains(t, got, item.Type("font"))
}

func TestRulesAggregation(t *testing.T) {
	m := NewManager()

	rec := newTestPlugin("dev-tools")
	rec.manifest.Category = "development"
	rec.rules = map[string]recommendation.Rule{
		"powershell": func(_ context.Context, _ *profile.Profile) ([]*recommendation.Recommendation, error) {
			return nil, nil
		},
	}
	require.NoError(t, m.Register(rec))
	require.NoError(t, m.Load(t.Context(), "dev-tools"))

	rules := m.Rules()
	require.Contains(t, rules, "development")
	assert.Contains(t, rules["development"], "dev-tools/powershell")
}

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	pluginDir := filepath.Join(dir, "fonts")
	require.NoError(t, os.MkdirAll(pluginDir, 0o755))
	manifest := []byte("name: fonts\nversion: 1.2.0\nauthor: someone\ncategory: appearance\nenabled: true\n")
	require.NoError(t, os.WriteFile(filepath.Join(pluginDir, "plugin.yaml"), manifest, 0o644))

	// A directory without a manifest is ignored; a missing search path is skipped.
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "empty"), 0o755))
	m := NewManager(WithSearchPaths(dir, filepath.Join(dir, "does-not-exist")))

	found, err := m.Discover()
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "fonts", found[0].Name)
	assert.Equal(t, "1.2.0", found[0].Version)

	// A malformed manifest fails the scan.
	require.NoError(t, os.WriteFile(filepath.Join(pluginDir, "plugin.yaml"), []byte("name: [broken"), 0o644))
	_, err = m.Discover()
	assert.Error(t, err)
}
