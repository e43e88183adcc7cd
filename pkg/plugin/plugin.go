/*
Copyright © 2025 albedosehen
SPDX-License-Identifier: Apache-2.0
*/
package plugin

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/albedosehen/dotwin/pkg/item"
	"github.com/albedosehen/dotwin/pkg/recommendation"
	"github.com/albedosehen/dotwin/pkg/version"
)

// Manifest carries a plugin's identity and registration metadata. Name is
// the unique registry key; Version must be a parseable semantic version.
type Manifest struct {
	Name         string            `json:"name" yaml:"name"`
	Version      string            `json:"version" yaml:"version"`
	Author       string            `json:"author,omitempty" yaml:"author,omitempty"`
	Description  string            `json:"description,omitempty" yaml:"description,omitempty"`
	Category     string            `json:"category,omitempty" yaml:"category,omitempty"`
	Dependencies []string          `json:"dependencies,omitempty" yaml:"dependencies,omitempty"`
	Platforms    []string          `json:"platforms,omitempty" yaml:"platforms,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`

	// Enabled gates loading and participation in item handling and
	// recommendation generation.
	Enabled bool `json:"enabled" yaml:"enabled"`

	// LoadedAt is set when the plugin is loaded, zero when unloaded.
	LoadedAt time.Time `json:"loadedAt,omitempty" yaml:"loadedAt,omitempty"`
}

// Validate checks manifest identity fields.
func (m *Manifest) Validate() error {
	if m == nil {
		return fmt.Errorf("manifest cannot be nil")
	}
	if strings.TrimSpace(m.Name) == "" {
		return fmt.Errorf("plugin name cannot be empty")
	}
	if _, err := version.ParseVersion(m.Version); err != nil {
		return fmt.Errorf("plugin %s has invalid version %q: %w", m.Name, m.Version, err)
	}
	for _, dep := range m.Dependencies {
		if strings.TrimSpace(dep) == "" {
			return fmt.Errorf("plugin %s declares an empty dependency", m.Name)
		}
		if dep == m.Name {
			return fmt.Errorf("plugin %s depends on itself", m.Name)
		}
	}
	return nil
}

// SupportsPlatform reports whether the manifest allows the given platform.
// An empty platform list means all platforms.
func (m *Manifest) SupportsPlatform(platform string) bool {
	if len(m.Platforms) == 0 {
		return true
	}
	for _, p := range m.Platforms {
		if strings.EqualFold(p, platform) {
			return true
		}
	}
	return false
}

// Plugin is the minimal lifecycle contract every plugin implements.
// Initialize is called on load and Cleanup on unload; both receive a
// deadline-bound context.
type Plugin interface {
	Manifest() *Manifest
	Initialize(ctx context.Context) error
	Cleanup(ctx context.Context) error
}

// ConfigPlugin contributes item type handlers: each registered type becomes
// constructible through the plugin's Handler.
type ConfigPlugin interface {
	Plugin

	// Handlers returns the item types this plugin implements, keyed by
	// type tag. The map must be stable across calls.
	Handlers() map[item.Type]item.Handler
}

// RecommendationPlugin contributes named recommendation rules evaluated
// against the system profile.
type RecommendationPlugin interface {
	Plugin

	// Rules returns the plugin's rules keyed by rule name. The map must
	// be stable across calls.
	Rules() map[string]recommendation.Rule
}
