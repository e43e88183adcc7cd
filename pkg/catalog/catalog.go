/*
Copyright © 2025 albedosehen
SPDX-License-Identifier: Apache-2.0
*/
package catalog

import (
	"embed"
	"fmt"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/albedosehen/dotwin/pkg/errors"
	"github.com/albedosehen/dotwin/pkg/item"
	"github.com/albedosehen/dotwin/pkg/recommendation"
)

//go:embed data/items.yaml
var dataFS embed.FS

// Definition is a declarative item description: a type tag plus the
// properties that type needs to construct a working item.
type Definition struct {
	Name        string         `json:"name" yaml:"name"`
	Type        string         `json:"type" yaml:"type"`
	Description string         `json:"description,omitempty" yaml:"description,omitempty"`
	Critical    bool           `json:"critical,omitempty" yaml:"critical,omitempty"`
	Disabled    bool           `json:"disabled,omitempty" yaml:"disabled,omitempty"`
	Properties  map[string]any `json:"properties,omitempty" yaml:"properties,omitempty"`
}

// Appliers bundles the system backends item variants are wired to.
type Appliers struct {
	Packages item.PackageManager
	Registry item.RegistryEditor
	Services item.ServiceController
	Features item.FeatureToggler
}

// Catalog holds named item definitions and materializes them into runnable
// items, wiring built-in types to appliers and plugin types to their
// registered handlers.
type Catalog struct {
	appliers Appliers

	mu       sync.RWMutex
	defs     map[string]*Definition
	handlers map[item.Type]item.Handler
}

// Option is a functional option for configuring a Catalog.
type Option func(*Catalog)

// WithHandlers registers plugin-supplied item type handlers.
func WithHandlers(handlers map[item.Type]item.Handler) Option {
	return func(c *Catalog) {
		for t, h := range handlers {
			c.handlers[t] = h
		}
	}
}

// New creates a catalog over the built-in definitions, wired to the given
// appliers.
func New(appliers Appliers, opts ...Option) (*Catalog, error) {
	c := &Catalog{
		appliers: appliers,
		defs:     make(map[string]*Definition),
		handlers: make(map[item.Type]item.Handler),
	}
	for _, opt := range opts {
		opt(c)
	}

	data, err := dataFS.ReadFile("data/items.yaml")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, "reading built-in item definitions", err)
	}
	var doc struct {
		Items []*Definition `yaml:"items"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, "parsing built-in item definitions", err)
	}
	for _, def := range doc.Items {
		if err := c.addLocked(def); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Add registers a definition, rejecting duplicates and incomplete entries.
func (c *Catalog) Add(def *Definition) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.addLocked(def)
}

func (c *Catalog) addLocked(def *Definition) error {
	if def == nil || strings.TrimSpace(def.Name) == "" || strings.TrimSpace(def.Type) == "" {
		return errors.New(errors.ErrCodeInvalidRequest, "item definition needs a name and a type")
	}
	if _, exists := c.defs[def.Name]; exists {
		return errors.NewWithContext(errors.ErrCodeInvalidRequest,
			"item definition already exists",
			map[string]any{"item": def.Name})
	}
	c.defs[def.Name] = def
	return nil
}

// RegisterHandler wires a plugin-supplied type after construction.
func (c *Catalog) RegisterHandler(t item.Type, h item.Handler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[t] = h
}

// Get returns the named definition.
func (c *Catalog) Get(name string) (*Definition, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	def, exists := c.defs[name]
	if !exists {
		return nil, errors.NewWithContext(errors.ErrCodeNotFound,
			"item definition not found",
			map[string]any{"item": name})
	}
	return def, nil
}

// List returns every definition sorted by name.
func (c *Catalog) List() []*Definition {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*Definition, 0, len(c.defs))
	for _, def := range c.defs {
		out = append(out, def)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Materialize builds a runnable item from the named definition.
func (c *Catalog) Materialize(name string) (item.Item, error) {
	def, err := c.Get(name)
	if err != nil {
		return nil, err
	}
	return c.materialize(def)
}

// MaterializeSpec builds a runnable item from a recommendation's item spec.
func (c *Catalog) MaterializeSpec(spec *recommendation.ItemSpec) (item.Item, error) {
	if spec == nil {
		return nil, errors.New(errors.ErrCodeInvalidRequest, "item spec cannot be nil")
	}
	return c.materialize(&Definition{
		Name:       spec.Name,
		Type:       spec.Type,
		Properties: spec.Properties,
	})
}

func (c *Catalog) materialize(def *Definition) (item.Item, error) {
	var opts []item.BaseOption
	if def.Description != "" {
		opts = append(opts, item.WithDescription(def.Description))
	}
	if def.Critical {
		opts = append(opts, item.WithCritical())
	}
	if def.Disabled {
		opts = append(opts, item.WithDisabled())
	}
	if len(def.Properties) > 0 {
		opts = append(opts, item.WithProperties(def.Properties))
	}

	switch item.Type(def.Type) {
	case item.TypePackage:
		return item.NewPackageItem(
			def.Name,
			propString(def.Properties, "package", def.Name),
			propString(def.Properties, "minVersion", ""),
			c.appliers.Packages,
			opts...,
		), nil
	case item.TypeRegistry:
		path := propString(def.Properties, "path", "")
		valueName := propString(def.Properties, "valueName", "")
		if path == "" || valueName == "" {
			return nil, errors.NewWithContext(errors.ErrCodeInvalidRequest,
				"registry item needs path and valueName properties",
				map[string]any{"item": def.Name})
		}
		return item.NewRegistryItem(
			def.Name,
			path,
			valueName,
			propString(def.Properties, "value", ""),
			propString(def.Properties, "valueType", ""),
			c.appliers.Registry,
			opts...,
		), nil
	case item.TypeService:
		desired := item.ServiceStatus(propString(def.Properties, "status", string(item.ServiceRunning)))
		return item.NewServiceItem(
			def.Name,
			propString(def.Properties, "service", def.Name),
			desired,
			propString(def.Properties, "startupMode", ""),
			c.appliers.Services,
			opts...,
		), nil
	case item.TypeFeature:
		return item.NewFeatureItem(
			def.Name,
			propString(def.Properties, "feature", def.Name),
			propBool(def.Properties, "enabled", true),
			c.appliers.Features,
			opts...,
		), nil
	}

	c.mu.RLock()
	handler, ok := c.handlers[item.Type(def.Type)]
	c.mu.RUnlock()
	if ok {
		return item.NewHandlerItem(def.Name, item.Type(def.Type), handler, opts...), nil
	}

	return nil, errors.NewWithContext(errors.ErrCodeInvalidRequest,
		"no implementation for item type",
		map[string]any{"item": def.Name, "type": def.Type})
}

func propString(props map[string]any, key, fallback string) string {
	if v, ok := props[key]; ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
		if v != nil {
			if s := fmt.Sprintf("%v", v); s != "" {
				return s
			}
		}
	}
	return fallback
}

func propBool(props map[string]any, key string, fallback bool) bool {
	if v, ok := props[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return fallback
}
