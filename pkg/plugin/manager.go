/*
Copyright © 2025 albedosehen
SPDX-License-Identifier: Apache-2.0
*/
package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/albedosehen/dotwin/pkg/defaults"
	"github.com/albedosehen/dotwin/pkg/errors"
	"github.com/albedosehen/dotwin/pkg/item"
	"github.com/albedosehen/dotwin/pkg/recommendation"
)

// Manager is the plugin registry and lifecycle coordinator. Registration
// validates identity and dependencies; loading runs Initialize under a
// deadline; enable/disable propagate through the dependency graph.
// All operations are safe for concurrent use.
type Manager struct {
	mu         sync.RWMutex
	registry   map[string]Plugin
	loaded     map[string]bool
	handlers   map[item.Type]string // type tag -> owning plugin name
	categories map[string]bool      // lowercase allowed category names
	paths      []string
	autoLoad   bool
}

// ManagerOption is a functional option for configuring a Manager.
type ManagerOption func(*Manager)

// WithSearchPaths sets the directories scanned by Discover. Missing
// directories are skipped, not errors.
func WithSearchPaths(paths ...string) ManagerOption {
	return func(m *Manager) {
		m.paths = append(m.paths, paths...)
	}
}

// WithAutoLoad makes Register immediately load the plugin as well.
// Auto-load failures surface from Register.
func WithAutoLoad() ManagerOption {
	return func(m *Manager) {
		m.autoLoad = true
	}
}

// WithCategories extends the set of categories accepted at registration
// beyond the built-in recommendation categories. Matching is
// case-insensitive.
func WithCategories(names ...string) ManagerOption {
	return func(m *Manager) {
		for _, name := range names {
			m.categories[strings.ToLower(name)] = true
		}
	}
}

// NewManager creates an empty plugin manager accepting the built-in
// recommendation categories.
func NewManager(opts ...ManagerOption) *Manager {
	m := &Manager{
		registry:   make(map[string]Plugin),
		loaded:     make(map[string]bool),
		handlers:   make(map[item.Type]string),
		categories: make(map[string]bool),
	}
	for _, c := range recommendation.Categories {
		m.categories[c.String()] = true
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// RegisterOption is a functional option for a single Register call.
type RegisterOption func(*registerConfig)

type registerConfig struct {
	passThru bool
}

// WithPassThru forces registration past manifest validation failures and
// dependency satisfaction checks, allowing plugins to register in any
// order. The name uniqueness constraint still holds, and dependencies are
// still enforced at load time.
func WithPassThru() RegisterOption {
	return func(c *registerConfig) {
		c.passThru = true
	}
}

// Register validates and records a plugin. The manifest name must be
// unique, the version must parse, the category (when set) must be known to
// the manager, every declared dependency must already be registered and
// enabled (unless WithPassThru), and a ConfigPlugin's item types must not
// collide with types claimed by other plugins.
func (m *Manager) Register(p Plugin, opts ...RegisterOption) error {
	if p == nil {
		return errors.New(errors.ErrCodeInvalidRequest, "cannot register nil plugin")
	}
	var cfg registerConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	manifest := p.Manifest()
	if !cfg.passThru {
		if err := manifest.Validate(); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidRequest, "invalid plugin manifest", err)
		}
		if manifest.Category != "" && !m.categories[strings.ToLower(manifest.Category)] {
			return errors.NewWithContext(errors.ErrCodeInvalidRequest,
				"unknown plugin category",
				map[string]any{"plugin": manifest.Name, "category": manifest.Category,
					"supported": m.categoryNames()})
		}
	}
	if strings.TrimSpace(manifest.Name) == "" {
		return errors.New(errors.ErrCodeInvalidRequest, "plugin name cannot be empty")
	}

	m.mu.Lock()
	if _, exists := m.registry[manifest.Name]; exists {
		m.mu.Unlock()
		return errors.NewWithContext(errors.ErrCodeInvalidRequest,
			"plugin already registered",
			map[string]any{"plugin": manifest.Name})
	}

	if !cfg.passThru {
		for _, dep := range manifest.Dependencies {
			registered, ok := m.registry[dep]
			if !ok {
				m.mu.Unlock()
				return errors.NewWithContext(errors.ErrCodeDependencyUnsatisfied,
					"plugin dependency not registered",
					map[string]any{"plugin": manifest.Name, "dependency": dep})
			}
			if !registered.Manifest().Enabled {
				m.mu.Unlock()
				return errors.NewWithContext(errors.ErrCodeDependencyUnsatisfied,
					"plugin dependency is disabled",
					map[string]any{"plugin": manifest.Name, "dependency": dep})
			}
		}
	}

	if cp, ok := p.(ConfigPlugin); ok {
		for t := range cp.Handlers() {
			if owner, taken := m.handlers[t]; taken {
				m.mu.Unlock()
				return errors.NewWithContext(errors.ErrCodeInvalidRequest,
					"item type already claimed by another plugin",
					map[string]any{"plugin": manifest.Name, "type": t.String(), "owner": owner})
			}
		}
		for t := range cp.Handlers() {
			m.handlers[t] = manifest.Name
		}
	}

	m.registry[manifest.Name] = p
	m.mu.Unlock()

	slog.Info("plugin registered",
		slog.String("plugin", manifest.Name),
		slog.String("version", manifest.Version),
		slog.String("category", manifest.Category))

	if m.autoLoad {
		return m.Load(context.Background(), manifest.Name)
	}
	return nil
}

// Unregister removes a plugin from the registry, unloading it first if
// needed. Unless force is set, removal fails while other registered
// plugins depend on it.
func (m *Manager) Unregister(ctx context.Context, name string, force bool) error {
	m.mu.Lock()
	p, exists := m.registry[name]
	if !exists {
		m.mu.Unlock()
		return errors.NewWithContext(errors.ErrCodeNotFound, "plugin not registered",
			map[string]any{"plugin": name})
	}
	if !force {
		if dep := m.dependentOf(name); dep != "" {
			m.mu.Unlock()
			return errors.NewWithContext(errors.ErrCodeDependencyUnsatisfied,
				"plugin has registered dependents",
				map[string]any{"plugin": name, "dependent": dep})
		}
	}
	wasLoaded := m.loaded[name]
	m.mu.Unlock()

	if wasLoaded {
		if err := m.Unload(ctx, name); err != nil {
			return err
		}
	}

	m.mu.Lock()
	// The lock was released for unload; a dependent registered in that
	// window still blocks removal.
	if !force {
		if dep := m.dependentOf(name); dep != "" {
			m.mu.Unlock()
			return errors.NewWithContext(errors.ErrCodeDependencyUnsatisfied,
				"plugin has registered dependents",
				map[string]any{"plugin": name, "dependent": dep})
		}
	}
	delete(m.registry, name)
	delete(m.loaded, name)
	if cp, ok := p.(ConfigPlugin); ok {
		for t := range cp.Handlers() {
			if m.handlers[t] == name {
				delete(m.handlers, t)
			}
		}
	}
	m.mu.Unlock()

	slog.Info("plugin unregistered", slog.String("plugin", name))
	return nil
}

// dependentOf returns a registered plugin that declares name as a
// dependency, or "". Callers hold m.mu.
func (m *Manager) dependentOf(name string) string {
	for depName, dep := range m.registry {
		if depName == name {
			continue
		}
		for _, d := range dep.Manifest().Dependencies {
			if d == name {
				return depName
			}
		}
	}
	return ""
}

// Load initializes a registered plugin under the initialize deadline,
// loading its dependencies first. Loading a loaded plugin is a no-op.
func (m *Manager) Load(ctx context.Context, name string) error {
	return m.load(ctx, name, make(map[string]bool))
}

func (m *Manager) load(ctx context.Context, name string, visiting map[string]bool) error {
	m.mu.RLock()
	p, exists := m.registry[name]
	alreadyLoaded := m.loaded[name]
	m.mu.RUnlock()

	if !exists {
		return errors.NewWithContext(errors.ErrCodeNotFound, "plugin not registered",
			map[string]any{"plugin": name})
	}
	if alreadyLoaded {
		return nil
	}
	if visiting[name] {
		return errors.NewWithContext(errors.ErrCodeDependencyUnsatisfied,
			"plugin dependency cycle detected",
			map[string]any{"plugin": name})
	}
	visiting[name] = true
	defer delete(visiting, name)

	manifest := p.Manifest()
	if !manifest.Enabled {
		return errors.NewWithContext(errors.ErrCodeInvalidRequest, "plugin is disabled",
			map[string]any{"plugin": name})
	}

	for _, dep := range manifest.Dependencies {
		if err := m.load(ctx, dep, visiting); err != nil {
			return errors.WrapWithContext(errors.ErrCodeDependencyUnsatisfied,
				"loading plugin dependency", err,
				map[string]any{"plugin": name, "dependency": dep})
		}
	}

	ictx, cancel := context.WithTimeout(ctx, defaults.PluginInitializeTimeout)
	defer cancel()

	start := time.Now()
	if err := p.Initialize(ictx); err != nil {
		code := errors.ErrCodeOperationFailure
		if ictx.Err() != nil {
			code = errors.ErrCodeTimeout
		}
		return errors.WrapWithContext(code, "plugin initialization failed", err,
			map[string]any{"plugin": name})
	}

	m.mu.Lock()
	m.loaded[name] = true
	manifest.LoadedAt = time.Now().UTC()
	m.mu.Unlock()

	slog.Info("plugin loaded",
		slog.String("plugin", name),
		slog.Duration("took", time.Since(start)))
	return nil
}

// LoadAll loads every enabled registered plugin in dependency order.
// The first failure stops the pass.
func (m *Manager) LoadAll(ctx context.Context) error {
	for _, name := range m.names() {
		m.mu.RLock()
		enabled := m.registry[name].Manifest().Enabled
		m.mu.RUnlock()
		if !enabled {
			continue
		}
		if err := m.Load(ctx, name); err != nil {
			return err
		}
	}
	return nil
}

// Unload runs the plugin's Cleanup under the cleanup deadline and marks it
// unloaded. Cleanup failures are logged as warnings, not returned: the
// plugin is considered unloaded regardless.
func (m *Manager) Unload(ctx context.Context, name string) error {
	m.mu.RLock()
	p, exists := m.registry[name]
	isLoaded := m.loaded[name]
	m.mu.RUnlock()

	if !exists {
		return errors.NewWithContext(errors.ErrCodeNotFound, "plugin not registered",
			map[string]any{"plugin": name})
	}
	if !isLoaded {
		return nil
	}

	cctx, cancel := context.WithTimeout(ctx, defaults.PluginCleanupTimeout)
	defer cancel()

	if err := p.Cleanup(cctx); err != nil {
		slog.Warn("plugin cleanup failed",
			slog.String("plugin", name),
			slog.String("error", err.Error()))
	}

	m.mu.Lock()
	m.loaded[name] = false
	p.Manifest().LoadedAt = time.Time{}
	m.mu.Unlock()

	slog.Info("plugin unloaded", slog.String("plugin", name))
	return nil
}

// UnloadAll unloads every loaded plugin. Cleanup warnings do not stop the
// pass.
func (m *Manager) UnloadAll(ctx context.Context) {
	for _, name := range m.names() {
		m.mu.RLock()
		isLoaded := m.loaded[name]
		m.mu.RUnlock()
		if isLoaded {
			_ = m.Unload(ctx, name)
		}
	}
}

// Enable enables the named plugin together with its transitive
// dependencies, then loads the closure in dependency order: a plugin
// cannot run while anything it depends on is off.
func (m *Manager) Enable(ctx context.Context, name string) error {
	m.mu.Lock()
	closure, err := m.dependencyClosure(name, func(manifest *Manifest) []string {
		return manifest.Dependencies
	})
	if err != nil {
		m.mu.Unlock()
		return err
	}
	for _, n := range closure {
		if manifest := m.registry[n].Manifest(); !manifest.Enabled {
			manifest.Enabled = true
			slog.Info("plugin enabled", slog.String("plugin", n))
		}
	}
	m.mu.Unlock()

	for _, n := range closure {
		if err := m.Load(ctx, n); err != nil {
			return err
		}
	}
	return nil
}

// Disable disables the named plugin together with its transitive
// dependents: nothing that depends on it may stay on.
func (m *Manager) Disable(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	closure, err := m.dependencyClosure(name, func(manifest *Manifest) []string {
		var dependents []string
		for depName, dep := range m.registry {
			for _, d := range dep.Manifest().Dependencies {
				if d == manifest.Name {
					dependents = append(dependents, depName)
				}
			}
		}
		sort.Strings(dependents)
		return dependents
	})
	if err != nil {
		return err
	}
	for _, n := range closure {
		if manifest := m.registry[n].Manifest(); manifest.Enabled {
			manifest.Enabled = false
			slog.Info("plugin disabled", slog.String("plugin", n))
		}
	}
	return nil
}

// dependencyClosure walks the graph from name following next, returning
// every reachable plugin. A node revisited while still on the walk stack
// is a cycle. Callers hold m.mu.
func (m *Manager) dependencyClosure(name string, next func(*Manifest) []string) ([]string, error) {
	if _, exists := m.registry[name]; !exists {
		return nil, errors.NewWithContext(errors.ErrCodeNotFound, "plugin not registered",
			map[string]any{"plugin": name})
	}

	var order []string
	done := make(map[string]bool)
	onStack := make(map[string]bool)

	var walk func(n string) error
	walk = func(n string) error {
		if done[n] {
			return nil
		}
		if onStack[n] {
			return errors.NewWithContext(errors.ErrCodeDependencyUnsatisfied,
				"plugin dependency cycle detected",
				map[string]any{"plugin": n})
		}
		onStack[n] = true
		defer delete(onStack, n)

		p, exists := m.registry[n]
		if !exists {
			// Pass-thru registration allows dangling references; skip them
			// here so enable/disable still works on the present subgraph.
			return nil
		}
		for _, nn := range next(p.Manifest()) {
			if err := walk(nn); err != nil {
				return err
			}
		}
		done[n] = true
		order = append(order, n)
		return nil
	}

	if err := walk(name); err != nil {
		return nil, err
	}
	return order, nil
}

// Get returns a registered plugin by name.
func (m *Manager) Get(name string) (Plugin, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, exists := m.registry[name]
	if !exists {
		return nil, errors.NewWithContext(errors.ErrCodeNotFound, "plugin not registered",
			map[string]any{"plugin": name})
	}
	return p, nil
}

// IsLoaded reports whether the named plugin is currently loaded.
func (m *Manager) IsLoaded(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loaded[name]
}

// List returns every registered manifest sorted by name.
func (m *Manager) List() []*Manifest {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Manifest, 0, len(m.registry))
	for _, p := range m.registry {
		out = append(out, p.Manifest())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// ByCategory returns the loaded, enabled plugins registered under the
// given category, sorted by name. Capability dispatch only makes sense for
// plugins that are initialized and still enabled.
func (m *Manager) ByCategory(category string) []Plugin {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Plugin
	for name, p := range m.registry {
		if !m.loaded[name] || !p.Manifest().Enabled {
			continue
		}
		if strings.EqualFold(p.Manifest().Category, category) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Manifest().Name < out[j].Manifest().Name
	})
	return out
}

// ItemHandlers aggregates the item type handlers of every loaded, enabled
// config plugin.
func (m *Manager) ItemHandlers() map[item.Type]item.Handler {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[item.Type]item.Handler)
	for name, p := range m.registry {
		cp, ok := p.(ConfigPlugin)
		if !ok || !m.loaded[name] || !p.Manifest().Enabled {
			continue
		}
		for t, h := range cp.Handlers() {
			out[t] = h
		}
	}
	return out
}

// Rules aggregates the recommendation rules of every loaded, enabled
// recommendation plugin, keyed by the plugin's category then rule name.
func (m *Manager) Rules() map[string]map[string]recommendation.Rule {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]map[string]recommendation.Rule)
	for name, p := range m.registry {
		rp, ok := p.(RecommendationPlugin)
		if !ok || !m.loaded[name] || !p.Manifest().Enabled {
			continue
		}
		category := p.Manifest().Category
		if out[category] == nil {
			out[category] = make(map[string]recommendation.Rule)
		}
		for ruleName, rule := range rp.Rules() {
			out[category][fmt.Sprintf("%s/%s", name, ruleName)] = rule
		}
	}
	return out
}

// categoryNames lists the accepted registration categories, sorted. The
// set is fixed at construction, so no lock is needed.
func (m *Manager) categoryNames() []string {
	out := make([]string, 0, len(m.categories))
	for name := range m.categories {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func (m *Manager) names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.registry))
	for name := range m.registry {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
