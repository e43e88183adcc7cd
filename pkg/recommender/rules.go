/*
Copyright © 2025 albedosehen
SPDX-License-Identifier: Apache-2.0
*/
package recommender

import (
	"context"
	"strings"

	"github.com/albedosehen/dotwin/pkg/profile"
	"github.com/albedosehen/dotwin/pkg/recommendation"
)

// builtinRules returns the engine's built-in rule set, keyed by category
// then rule name.
func builtinRules() map[string]map[string]recommendation.Rule {
	return map[string]map[string]recommendation.Rule{
		recommendation.CategoryDevelopment.String(): {
			"powershell-7":      rulePowerShell,
			"git":               ruleGit,
			"container-tooling": ruleContainerTooling,
		},
		recommendation.CategoryAppearance.String(): {
			"dark-mode": ruleDarkMode,
		},
		recommendation.CategoryMaintenance.String(): {
			"disk-space": ruleDiskSpace,
		},
	}
}

// hasPackage reports whether the software section lists the named package,
// matching case-insensitively on any segment of the package identifier.
func hasPackage(p *profile.Profile, name string) bool {
	sw := p.Section(profile.SectionSoftware)
	if sw == nil {
		return false
	}
	pkgs, err := sw.GetStrings(profile.KeyPackages)
	if err != nil {
		return false
	}
	needle := strings.ToLower(name)
	for _, pkg := range pkgs {
		if strings.Contains(strings.ToLower(pkg), needle) {
			return true
		}
	}
	return false
}

func rulePowerShell(_ context.Context, p *profile.Profile) ([]*recommendation.Recommendation, error) {
	if hasPackage(p, "powershell") || hasPackage(p, "pwsh") {
		return nil, nil
	}
	return []*recommendation.Recommendation{{
		Title:       "Install PowerShell 7",
		Description: "The modern cross-platform shell; the built-in Windows PowerShell 5.1 is in maintenance mode.",
		Category:    recommendation.CategoryDevelopment,
		Priority:    recommendation.PriorityHigh,
		AutoApply:   true,
		Item: &recommendation.ItemSpec{
			Type: "package",
			Name: "pwsh",
			Properties: map[string]any{
				"package":    "Microsoft.PowerShell",
				"minVersion": "7.4",
			},
		},
	}}, nil
}

func ruleGit(_ context.Context, p *profile.Profile) ([]*recommendation.Recommendation, error) {
	if hasPackage(p, "git") {
		return nil, nil
	}
	return []*recommendation.Recommendation{{
		Title:       "Install Git",
		Description: "Version control is a baseline for any development setup.",
		Category:    recommendation.CategoryDevelopment,
		Priority:    recommendation.PriorityHigh,
		AutoApply:   true,
		Item: &recommendation.ItemSpec{
			Type:       "package",
			Name:       "git",
			Properties: map[string]any{"package": "Git.Git"},
		},
	}}, nil
}

func ruleContainerTooling(_ context.Context, p *profile.Profile) ([]*recommendation.Recommendation, error) {
	hw := p.Section(profile.SectionHardware)
	if hw == nil {
		return nil, nil
	}
	mem, err := hw.GetInt(profile.KeyMemoryGB)
	if err != nil || mem < 16 {
		// Container tooling on low-memory machines causes more pain than
		// it saves.
		return nil, nil
	}
	if hasPackage(p, "docker") || hasPackage(p, "podman") {
		return nil, nil
	}
	return []*recommendation.Recommendation{{
		Title:       "Install Docker Desktop",
		Description: "The machine has enough memory for local container workloads.",
		Category:    recommendation.CategoryDevelopment,
		Priority:    recommendation.PriorityMedium,
		Item: &recommendation.ItemSpec{
			Type:       "package",
			Name:       "docker",
			Properties: map[string]any{"package": "Docker.DockerDesktop"},
		},
	}}, nil
}

func ruleDarkMode(_ context.Context, p *profile.Profile) ([]*recommendation.Recommendation, error) {
	st := p.Section(profile.SectionSettings)
	if st == nil {
		return nil, nil
	}
	dark, err := st.GetBool(profile.KeyDarkMode)
	if err != nil || dark {
		return nil, nil
	}
	return []*recommendation.Recommendation{{
		Title:       "Enable dark mode",
		Description: "Switch apps and system chrome to the dark theme.",
		Category:    recommendation.CategoryAppearance,
		Priority:    recommendation.PriorityLow,
		AutoApply:   true,
		Item: &recommendation.ItemSpec{
			Type: "registry",
			Name: "dark-mode",
			Properties: map[string]any{
				"path":      `HKCU\Software\Microsoft\Windows\CurrentVersion\Themes\Personalize`,
				"valueName": "AppsUseLightTheme",
				"value":     "0",
				"valueType": "dword",
			},
		},
	}}, nil
}

func ruleDiskSpace(_ context.Context, p *profile.Profile) ([]*recommendation.Recommendation, error) {
	hw := p.Section(profile.SectionHardware)
	if hw == nil {
		return nil, nil
	}
	free, err := hw.GetInt(profile.KeyDiskFreeGB)
	if err != nil || free >= 20 {
		return nil, nil
	}
	priority := recommendation.PriorityMedium
	if free < 5 {
		priority = recommendation.PriorityCritical
	}
	return []*recommendation.Recommendation{{
		Title:       "Free up disk space",
		Description: "Low free space degrades updates and package installs.",
		Category:    recommendation.CategoryMaintenance,
		Priority:    priority,
	}}, nil
}
