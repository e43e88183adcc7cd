/*
Copyright © 2025 albedosehen
SPDX-License-Identifier: Apache-2.0
*/
package profile

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gopkg.in/yaml.v3"
)

func testProfile() *Profile {
	p := New()
	hw := p.GetOrCreateSection(SectionHardware)
	hw.Set(KeyMemoryGB, 32)
	hw.Set(KeyCPUCores, 16)
	hw.Set(KeyGPUModel, "RTX 4080")

	sw := p.GetOrCreateSection(SectionSoftware)
	sw.Set(KeyPackages, []string{"git", "pwsh"})
	sw.Set(KeyOSVersion, "11")

	st := p.GetOrCreateSection(SectionSettings)
	st.Set(KeyDarkMode, true)
	return p
}

func TestValidate(t *testing.T) {
	p := testProfile()
	require.NoError(t, p.Validate())

	var nilProfile *Profile
	assert.Error(t, nilProfile.Validate())

	empty := New()
	assert.Error(t, empty.Validate())

	unnamed := New()
	unnamed.Sections = append(unnamed.Sections, &Section{Data: map[string]any{"x": 1}})
	assert.Error(t, unnamed.Validate())

	noData := New()
	noData.Sections = append(noData.Sections, &Section{Name: "empty"})
	assert.Error(t, noData.Validate())
}

func TestSectionLookup(t *testing.T) {
	p := testProfile()

	assert.NotNil(t, p.Section(SectionHardware))
	assert.Nil(t, p.Section("nope"))
	assert.True(t, p.Has(SectionSettings, KeyDarkMode))
	assert.False(t, p.Has(SectionSettings, "missing"))
	assert.Equal(t, "RTX 4080", p.Get(SectionHardware, KeyGPUModel))
	assert.Nil(t, p.Get("nope", "key"))
	assert.Equal(t, []string{SectionHardware, SectionSoftware, SectionSettings}, p.SectionNames())
}

func TestGetOrCreateSection(t *testing.T) {
	p := New()
	s := p.GetOrCreateSection("custom")
	s.Set("k", "v")

	again := p.GetOrCreateSection("custom")
	assert.Same(t, s, again)
	assert.Len(t, p.Sections, 1)
}

func TestTypedAccessors(t *testing.T) {
	p := testProfile()
	hw := p.Section(SectionHardware)
	sw := p.Section(SectionSoftware)
	st := p.Section(SectionSettings)

	mem, err := hw.GetInt(KeyMemoryGB)
	require.NoError(t, err)
	assert.Equal(t, int64(32), mem)

	gpu, err := hw.GetString(KeyGPUModel)
	require.NoError(t, err)
	assert.Equal(t, "RTX 4080", gpu)

	dark, err := st.GetBool(KeyDarkMode)
	require.NoError(t, err)
	assert.True(t, dark)

	pkgs, err := sw.GetStrings(KeyPackages)
	require.NoError(t, err)
	assert.Equal(t, []string{"git", "pwsh"}, pkgs)

	_, err = hw.GetString("missing")
	assert.Error(t, err)
	_, err = hw.GetString(KeyMemoryGB)
	assert.Error(t, err)
	_, err = hw.GetBool(KeyMemoryGB)
	assert.Error(t, err)
	_, err = hw.GetInt(KeyGPUModel)
	assert.Error(t, err)
	_, err = hw.GetStrings(KeyGPUModel)
	assert.Error(t, err)
}

func TestJSONRoundTrip(t *testing.T) {
	p := testProfile()

	data, err := json.Marshal(p)
	require.NoError(t, err)

	var decoded Profile
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.NoError(t, decoded.Validate())

	// JSON decodes integers as float64; typed accessors must tolerate that.
	mem, err := decoded.Section(SectionHardware).GetInt(KeyMemoryGB)
	require.NoError(t, err)
	assert.Equal(t, int64(32), mem)

	pkgs, err := decoded.Section(SectionSoftware).GetStrings(KeyPackages)
	require.NoError(t, err)
	assert.Equal(t, []string{"git", "pwsh"}, pkgs)
}

func TestYAMLRoundTrip(t *testing.T) {
	p := testProfile()

	data, err := yaml.Marshal(p)
	require.NoError(t, err)

	var decoded Profile
	require.NoError(t, yaml.Unmarshal(data, &decoded))
	require.NoError(t, decoded.Validate())

	dark, err := decoded.Section(SectionSettings).GetBool(KeyDarkMode)
	require.NoError(t, err)
	assert.True(t, dark)
}
