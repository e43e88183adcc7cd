/*
Copyright © 2025 albedosehen
SPDX-License-Identifier: Apache-2.0
*/
package recommendation

import (
	"context"
	"fmt"
	"strings"

	"github.com/albedosehen/dotwin/pkg/profile"
)

// Priority orders recommendations from informational to must-act.
type Priority int

const (
	PriorityLow Priority = iota + 1
	PriorityMedium
	PriorityHigh
	PriorityCritical
)

var priorityNames = map[Priority]string{
	PriorityLow:      "low",
	PriorityMedium:   "medium",
	PriorityHigh:     "high",
	PriorityCritical: "critical",
}

// String returns the lowercase priority name.
func (p Priority) String() string {
	if name, ok := priorityNames[p]; ok {
		return name
	}
	return fmt.Sprintf("priority(%d)", int(p))
}

// IsValid reports whether the priority is one of the defined levels.
func (p Priority) IsValid() bool {
	_, ok := priorityNames[p]
	return ok
}

// ParsePriority parses a case-insensitive priority name.
func ParsePriority(s string) (Priority, error) {
	needle := strings.ToLower(strings.TrimSpace(s))
	for p, name := range priorityNames {
		if name == needle {
			return p, nil
		}
	}
	return 0, fmt.Errorf("unknown priority %q (supported: %s)", s, strings.Join(SupportedPriorities(), ", "))
}

// SupportedPriorities lists the priority names from low to critical.
func SupportedPriorities() []string {
	return []string{
		PriorityLow.String(),
		PriorityMedium.String(),
		PriorityHigh.String(),
		PriorityCritical.String(),
	}
}

// Category groups recommendations by the concern they address.
type Category string

const (
	CategoryProductivity Category = "productivity"
	CategoryDevelopment  Category = "development"
	CategorySecurity     Category = "security"
	CategoryPerformance  Category = "performance"
	CategoryAppearance   Category = "appearance"
	CategoryMaintenance  Category = "maintenance"
)

// Categories is the list of built-in categories. Plugins may register
// recommendations under additional categories.
var Categories = []Category{
	CategoryProductivity,
	CategoryDevelopment,
	CategorySecurity,
	CategoryPerformance,
	CategoryAppearance,
	CategoryMaintenance,
}

// String returns the string representation of the Category.
func (c Category) String() string {
	return string(c)
}

// ItemSpec declaratively describes the configuration item a recommendation
// would create when applied. Type is an item type tag; Properties feed the
// item's construction.
type ItemSpec struct {
	Type       string         `json:"type" yaml:"type"`
	Name       string         `json:"name" yaml:"name"`
	Properties map[string]any `json:"properties,omitempty" yaml:"properties,omitempty"`
}

// Recommendation is a single suggested configuration change produced by a
// rule evaluating a system profile. Title doubles as the deduplication key
// across rules and plugins.
type Recommendation struct {
	Title       string   `json:"title" yaml:"title"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Category    Category `json:"category" yaml:"category"`
	Priority    Priority `json:"priority" yaml:"priority"`
	Source      string   `json:"source,omitempty" yaml:"source,omitempty"`

	// AutoApply marks the recommendation safe to converge without user
	// confirmation.
	AutoApply bool `json:"autoApply,omitempty" yaml:"autoApply,omitempty"`

	// Item is the configuration item to materialize on apply. Nil for
	// advisory-only recommendations.
	Item *ItemSpec `json:"item,omitempty" yaml:"item,omitempty"`
}

// Validate checks that the recommendation is well formed.
func (r *Recommendation) Validate() error {
	if r == nil {
		return fmt.Errorf("recommendation cannot be nil")
	}
	if strings.TrimSpace(r.Title) == "" {
		return fmt.Errorf("recommendation title cannot be empty")
	}
	if r.Category == "" {
		return fmt.Errorf("recommendation %q has no category", r.Title)
	}
	if !r.Priority.IsValid() {
		return fmt.Errorf("recommendation %q has invalid priority %d", r.Title, int(r.Priority))
	}
	if r.Item != nil {
		if r.Item.Type == "" || r.Item.Name == "" {
			return fmt.Errorf("recommendation %q has incomplete item spec", r.Title)
		}
	}
	return nil
}

// Rule evaluates a system profile and yields zero or more recommendations.
// Rules must treat the profile as read-only.
type Rule func(ctx context.Context, p *profile.Profile) ([]*Recommendation, error)
