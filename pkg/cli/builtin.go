/*
Copyright © 2025 albedosehen
SPDX-License-Identifier: Apache-2.0
*/
package cli

import (
	"context"
	"strings"

	"github.com/albedosehen/dotwin/pkg/item"
	"github.com/albedosehen/dotwin/pkg/plugin"
	"github.com/albedosehen/dotwin/pkg/profile"
	"github.com/albedosehen/dotwin/pkg/recommendation"
)

// builtinPlugins returns the plugins compiled into the binary. They go
// through the same registry and lifecycle as external ones.
func builtinPlugins() []plugin.Plugin {
	return []plugin.Plugin{newProductivityPlugin()}
}

// productivityPlugin contributes shell and explorer quality-of-life rules
// beyond the engine's built-in set.
type productivityPlugin struct {
	manifest plugin.Manifest
}

func newProductivityPlugin() *productivityPlugin {
	return &productivityPlugin{
		manifest: plugin.Manifest{
			Name:        "productivity-extras",
			Version:     "1.0.0",
			Author:      "dotwin",
			Description: "Terminal and file explorer quality-of-life recommendations",
			Category:    string(recommendation.CategoryProductivity),
			Platforms:   []string{"windows"},
			Enabled:     true,
		},
	}
}

func (p *productivityPlugin) Manifest() *plugin.Manifest         { return &p.manifest }
func (p *productivityPlugin) Initialize(_ context.Context) error { return nil }
func (p *productivityPlugin) Cleanup(_ context.Context) error    { return nil }

func (p *productivityPlugin) Rules() map[string]recommendation.Rule {
	return map[string]recommendation.Rule{
		"terminal-upgrade": recommendTerminalUpgrade,
		"file-extensions":  recommendFileExtensions,
	}
}

func recommendTerminalUpgrade(_ context.Context, p *profile.Profile) ([]*recommendation.Recommendation, error) {
	terminal, _ := p.Get(profile.SectionShell, profile.KeyTerminal).(string)
	if strings.Contains(strings.ToLower(terminal), "windows-terminal") {
		return nil, nil
	}
	return []*recommendation.Recommendation{{
		Title:       "Switch to Windows Terminal",
		Description: "Windows Terminal supports tabs, panes, and per-profile appearance settings.",
		Category:    recommendation.CategoryProductivity,
		Priority:    recommendation.PriorityMedium,
		AutoApply:   true,
		Item: &recommendation.ItemSpec{
			Type: item.TypePackage.String(),
			Name: "windows-terminal",
			Properties: map[string]any{
				"package": "Microsoft.WindowsTerminal",
			},
		},
	}}, nil
}

func recommendFileExtensions(_ context.Context, p *profile.Profile) ([]*recommendation.Recommendation, error) {
	section := p.Section(profile.SectionSettings)
	if section != nil {
		if hidden, err := section.GetBool("hide-file-extensions"); err == nil && !hidden {
			return nil, nil
		}
	}
	return []*recommendation.Recommendation{{
		Title:       "Show file extensions in Explorer",
		Description: "Hidden extensions make it easy to mistake executables for documents.",
		Category:    recommendation.CategoryProductivity,
		Priority:    recommendation.PriorityLow,
		AutoApply:   true,
		Item: &recommendation.ItemSpec{
			Type: item.TypeRegistry.String(),
			Name: "show-file-extensions",
			Properties: map[string]any{
				"path":      `HKCU\Software\Microsoft\Windows\CurrentVersion\Explorer\Advanced`,
				"valueName": "HideFileExt",
				"value":     "0",
				"valueType": "dword",
			},
		},
	}}, nil
}
