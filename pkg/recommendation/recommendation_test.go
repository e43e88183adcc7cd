/*
Copyright © 2025 albedosehen
SPDX-License-Identifier: Apache-2.0
*/
package recommendation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPriorityOrdering(t *testing.T) {
	assert.True(t, PriorityCritical > PriorityHigh)
	assert.True(t, PriorityHigh > PriorityMedium)
	assert.True(t, PriorityMedium > PriorityLow)
}

func TestPriorityString(t *testing.T) {
	assert.Equal(t, "low", PriorityLow.String())
	assert.Equal(t, "critical", PriorityCritical.String())
	assert.Equal(t, "priority(9)", Priority(9).String())
}

func TestParsePriority(t *testing.T) {
	for _, name := range SupportedPriorities() {
		p, err := ParsePriority(name)
		require.NoError(t, err)
		assert.True(t, p.IsValid())
		assert.Equal(t, name, p.String())
	}

	p, err := ParsePriority(" HIGH ")
	require.NoError(t, err)
	assert.Equal(t, PriorityHigh, p)

	_, err = ParsePriority("urgent")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	good := &Recommendation{
		Title:    "Install PowerShell 7",
		Category: CategoryDevelopment,
		Priority: PriorityHigh,
		Item:     &ItemSpec{Type: "package", Name: "pwsh"},
	}
	require.NoError(t, good.Validate())

	var nilRec *Recommendation
	assert.Error(t, nilRec.Validate())

	cases := map[string]Recommendation{
		"empty title":      {Category: CategoryDevelopment, Priority: PriorityLow},
		"missing category": {Title: "t", Priority: PriorityLow},
		"invalid priority": {Title: "t", Category: CategorySecurity, Priority: Priority(42)},
		"incomplete item":  {Title: "t", Category: CategorySecurity, Priority: PriorityLow, Item: &ItemSpec{Type: "package"}},
	}
	for name, rec := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Error(t, rec.Validate())
		})
	}

	// Advisory-only recommendations need no item spec.
	advisory := &Recommendation{Title: "Free up disk space", Category: CategoryMaintenance, Priority: PriorityMedium}
	require.NoError(t, advisory.Validate())
}
