/*
Copyright © 2025 albedosehen
SPDX-License-Identifier: Apache-2.0
*/
package cli

import (
	"context"
	"path/filepath"

	"github.com/urfave/cli/v3"

	"github.com/albedosehen/dotwin/pkg/aggregate"
	"github.com/albedosehen/dotwin/pkg/bridge"
	"github.com/albedosehen/dotwin/pkg/catalog"
	"github.com/albedosehen/dotwin/pkg/plugin"
	"github.com/albedosehen/dotwin/pkg/recommender"
	"github.com/albedosehen/dotwin/pkg/system"
)

// runtimeEnv wires the catalog, appliers, plugin manager, bridge, and
// engine for one command invocation.
type runtimeEnv struct {
	plugins *plugin.Manager
	catalog *catalog.Catalog
	bridge  *bridge.Bridge
	engine  *recommender.Engine
}

// newRuntime builds the full wiring: system appliers behind the catalog,
// compiled-in plugins registered and loaded, plugin handlers and rules
// flowing into the catalog and engine.
func newRuntime(ctx context.Context, cmd *cli.Command) (*runtimeEnv, error) {
	root := configRoot(cmd)

	plugins := plugin.NewManager(
		plugin.WithSearchPaths(filepath.Join(root, "plugins")),
	)
	for _, p := range builtinPlugins() {
		if err := plugins.Register(p); err != nil {
			return nil, err
		}
	}
	if err := plugins.LoadAll(ctx); err != nil {
		return nil, err
	}

	cat, err := catalog.New(catalog.Appliers{
		Packages: system.NewWinget(nil),
		Registry: system.NewRegTool(nil),
		Services: system.NewServiceControl(nil),
		Features: system.NewDism(nil),
	}, catalog.WithHandlers(plugins.ItemHandlers()))
	if err != nil {
		return nil, err
	}

	return &runtimeEnv{
		plugins: plugins,
		catalog: cat,
		bridge:  bridge.New(bridge.WithConfigRoot(root)),
		engine:  recommender.NewEngine(cat, recommender.WithRules(plugins.Rules())),
	}, nil
}

// baseAggregate materializes every catalog definition into one aggregate.
func (r *runtimeEnv) baseAggregate() (*aggregate.Aggregate, error) {
	agg := aggregate.New("catalog", aggregate.WithVersion(version))
	for _, def := range r.catalog.List() {
		it, err := r.catalog.Materialize(def.Name)
		if err != nil {
			return nil, err
		}
		if err := agg.Add(it); err != nil {
			return nil, err
		}
	}
	return agg, nil
}
