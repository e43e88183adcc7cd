/*
Copyright © 2025 albedosehen
SPDX-License-Identifier: Apache-2.0
*/
package profile

import (
	"errors"
	"fmt"
	"time"
)

// Well-known section names produced by the system profiler.
const (
	SectionHardware = "hardware"
	SectionSoftware = "software"
	SectionSettings = "settings"
	SectionShell    = "shell"
)

// Common reading keys exported for consistency across rules.
const (
	KeyOSVersion    = "os-version"
	KeyOSBuild      = "os-build"
	KeyArch         = "architecture"
	KeyHostname     = "hostname"
	KeyMemoryGB     = "memory-gb"
	KeyCPUCores     = "cpu-cores"
	KeyGPUModel     = "gpu-model"
	KeyDiskFreeGB   = "disk-free-gb"
	KeyPackages     = "installed-packages"
	KeyShell        = "default-shell"
	KeyShellVersion = "shell-version"
	KeyTerminal     = "terminal"
	KeyDarkMode     = "dark-mode"
)

// Profile is a point-in-time measurement of the host system, produced by an
// external profiler and consumed by the recommendation engine. Readings are
// grouped into named sections with free-form key/value data.
type Profile struct {
	Kind        string            `json:"kind,omitempty" yaml:"kind,omitempty"`
	CollectedAt time.Time         `json:"collectedAt,omitempty" yaml:"collectedAt,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
	Sections    []*Section        `json:"sections" yaml:"sections"`
}

// Section groups related readings under a name (e.g. hardware, software).
type Section struct {
	Name string         `json:"section" yaml:"section"`
	Data map[string]any `json:"data" yaml:"data"`
}

// New creates an empty profile stamped with the current time.
func New() *Profile {
	return &Profile{
		Kind:        "profile",
		CollectedAt: time.Now().UTC(),
		Metadata:    make(map[string]string),
	}
}

// Validate checks that the profile is properly formed.
func (p *Profile) Validate() error {
	if p == nil {
		return errors.New("profile cannot be nil")
	}
	if len(p.Sections) == 0 {
		return errors.New("profile must have at least one section")
	}
	for i, s := range p.Sections {
		if s == nil {
			return fmt.Errorf("section[%d] is nil", i)
		}
		if s.Name == "" {
			return fmt.Errorf("section[%d] has empty name", i)
		}
		if len(s.Data) == 0 {
			return fmt.Errorf("section %q has no data", s.Name)
		}
	}
	return nil
}

// Section retrieves a section by name, returning nil if not found.
func (p *Profile) Section(name string) *Section {
	for _, s := range p.Sections {
		if s != nil && s.Name == name {
			return s
		}
	}
	return nil
}

// GetOrCreateSection retrieves a section by name, creating it if absent.
func (p *Profile) GetOrCreateSection(name string) *Section {
	if s := p.Section(name); s != nil {
		return s
	}
	s := &Section{
		Name: name,
		Data: make(map[string]any),
	}
	p.Sections = append(p.Sections, s)
	return s
}

// SectionNames returns the names of all sections in order.
func (p *Profile) SectionNames() []string {
	names := make([]string, len(p.Sections))
	for i, s := range p.Sections {
		names[i] = s.Name
	}
	return names
}

// Has checks whether a key exists in the named section.
func (p *Profile) Has(section, key string) bool {
	s := p.Section(section)
	if s == nil {
		return false
	}
	_, exists := s.Data[key]
	return exists
}

// Get retrieves a reading from the named section, returning nil if the
// section or key is missing.
func (p *Profile) Get(section, key string) any {
	s := p.Section(section)
	if s == nil {
		return nil
	}
	return s.Data[key]
}

// GetString retrieves a string reading, returning an error if missing or
// of the wrong type.
func (s *Section) GetString(key string) (string, error) {
	v, exists := s.Data[key]
	if !exists {
		return "", fmt.Errorf("key %q not found in section %q", key, s.Name)
	}
	str, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("key %q in section %q is not a string", key, s.Name)
	}
	return str, nil
}

// GetBool retrieves a bool reading, returning an error if missing or
// of the wrong type.
func (s *Section) GetBool(key string) (bool, error) {
	v, exists := s.Data[key]
	if !exists {
		return false, fmt.Errorf("key %q not found in section %q", key, s.Name)
	}
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("key %q in section %q is not a bool", key, s.Name)
	}
	return b, nil
}

// GetInt retrieves an integer reading, tolerating the int/int64/float64
// variants produced by JSON and YAML decoding.
func (s *Section) GetInt(key string) (int64, error) {
	v, exists := s.Data[key]
	if !exists {
		return 0, fmt.Errorf("key %q not found in section %q", key, s.Name)
	}
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int64:
		return n, nil
	case float64:
		return int64(n), nil
	default:
		return 0, fmt.Errorf("key %q in section %q is not an integer", key, s.Name)
	}
}

// GetStrings retrieves a string-list reading, tolerating []any produced by
// JSON and YAML decoding.
func (s *Section) GetStrings(key string) ([]string, error) {
	v, exists := s.Data[key]
	if !exists {
		return nil, fmt.Errorf("key %q not found in section %q", key, s.Name)
	}
	switch list := v.(type) {
	case []string:
		return list, nil
	case []any:
		out := make([]string, 0, len(list))
		for _, e := range list {
			str, ok := e.(string)
			if !ok {
				return nil, fmt.Errorf("key %q in section %q contains a non-string element", key, s.Name)
			}
			out = append(out, str)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("key %q in section %q is not a string list", key, s.Name)
	}
}

// Set stores a reading under key, initializing the data map if needed.
func (s *Section) Set(key string, value any) {
	if s.Data == nil {
		s.Data = make(map[string]any)
	}
	s.Data[key] = value
}
