/*
Copyright © 2025 albedosehen
SPDX-License-Identifier: Apache-2.0
*/
package bridge

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albedosehen/dotwin/pkg/errors"
)

// countingSource wraps another source and counts loads.
type countingSource struct {
	inner Source
	loads int
}

func (c *countingSource) Name() string { return "counting" }

func (c *countingSource) Load(ctx context.Context, topic Topic) (map[string]any, error) {
	c.loads++
	return c.inner.Load(ctx, topic)
}

func TestCacheKey(t *testing.T) {
	assert.Equal(t, "packages", CacheKey(TopicPackages, ""))
	assert.Equal(t, "packages_Development", CacheKey(TopicPackages, "Development"))
	assert.Equal(t, "terminal_Minimal", CacheKey(TopicTerminal, "Minimal"))
}

func TestResolveBase(t *testing.T) {
	b := New()

	got, err := b.Resolve(t.Context(), TopicPackages, "")
	require.NoError(t, err)

	assert.Equal(t, "winget", got["manager"])
	pkgs, ok := got["packages"].([]any)
	require.True(t, ok)
	assert.Len(t, pkgs, 3)
}

func TestResolveVariantOverlaysBase(t *testing.T) {
	b := New()

	got, err := b.Resolve(t.Context(), TopicTerminal, "Development")
	require.NoError(t, err)

	// Nested map merge: size overridden, face retained.
	font, ok := got["font"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 12, font["size"])
	assert.Equal(t, "Cascadia Code", font["face"])

	// Identity-keyed list merge on profiles.
	profiles, ok := got["profiles"].([]any)
	require.True(t, ok)
	require.Len(t, profiles, 3)

	byName := map[string]map[string]any{}
	for _, p := range profiles {
		m := p.(map[string]any)
		byName[m["name"].(string)] = m
	}
	// The variant's PowerShell element replaces the base element whole.
	assert.Equal(t, "One Half Dark", byName["PowerShell"]["colorScheme"])
	assert.Equal(t, true, byName["PowerShell"]["useAcrylic"])
	// Base-only and variant-only elements both survive.
	assert.Contains(t, byName, "Command Prompt")
	assert.Contains(t, byName, "Git Bash")
}

func TestResolveUnknownTopicAndVariant(t *testing.T) {
	b := New()

	_, err := b.Resolve(t.Context(), Topic("bogus"), "")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeNotFound))

	_, err = b.Resolve(t.Context(), TopicPackages, "Gaming")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeNotFound))
}

func TestResolveUserOverride(t *testing.T) {
	root := t.TempDir()
	override := []byte("base:\n  manager: scoop\n  packages:\n    - id: Git.Git\n      version: 2.44.0\n")
	require.NoError(t, os.WriteFile(filepath.Join(root, "packages.yaml"), override, 0o644))

	b := New(WithConfigRoot(root))

	got, err := b.Resolve(t.Context(), TopicPackages, "")
	require.NoError(t, err)

	assert.Equal(t, "scoop", got["manager"])
	// The Git.Git element is replaced, the others are retained.
	pkgs := got["packages"].([]any)
	assert.Len(t, pkgs, 3)
	for _, p := range pkgs {
		m := p.(map[string]any)
		if m["id"] == "Git.Git" {
			assert.Equal(t, "2.44.0", m["version"])
		}
	}
}

func TestResolveToleratesBrokenSource(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "packages.yaml"), []byte("manager: [broken"), 0o644))

	b := New(WithConfigRoot(root))

	// The broken override contributes nothing; embedded data still serves.
	got, err := b.Resolve(t.Context(), TopicPackages, "")
	require.NoError(t, err)
	assert.Equal(t, "winget", got["manager"])
}

func TestCachingServesWithinTTL(t *testing.T) {
	counting := &countingSource{inner: NewEmbeddedSource()}
	b := New()
	b.sources = []Source{counting}

	first, err := b.Resolve(t.Context(), TopicPackages, "Development")
	require.NoError(t, err)
	second, err := b.Resolve(t.Context(), TopicPackages, "Development")
	require.NoError(t, err)

	assert.Equal(t, 1, counting.loads)
	assert.Equal(t, first, second)

	// The cached copy is isolated from caller mutation.
	first["manager"] = "tampered"
	third, err := b.Resolve(t.Context(), TopicPackages, "Development")
	require.NoError(t, err)
	assert.Equal(t, "winget", third["manager"])

	stats := b.Stats()
	assert.Equal(t, uint64(2), stats.Hits)
	assert.Equal(t, uint64(1), stats.Misses)
	assert.Equal(t, 1, stats.Entries)
	assert.Equal(t, []string{"packages_Development"}, stats.Keys)
	assert.False(t, stats.LastUpdated.IsZero())
	assert.True(t, stats.Enabled)
}

func TestCacheExpiry(t *testing.T) {
	counting := &countingSource{inner: NewEmbeddedSource()}
	b := New(WithTTL(time.Minute))
	b.sources = []Source{counting}

	current := time.Now()
	b.now = func() time.Time { return current }

	_, err := b.Resolve(t.Context(), TopicPackages, "")
	require.NoError(t, err)
	_, err = b.Resolve(t.Context(), TopicPackages, "")
	require.NoError(t, err)
	assert.Equal(t, 1, counting.loads)

	current = current.Add(2 * time.Minute)
	_, err = b.Resolve(t.Context(), TopicPackages, "")
	require.NoError(t, err)
	assert.Equal(t, 2, counting.loads)
}

func TestClearCacheForcesReload(t *testing.T) {
	counting := &countingSource{inner: NewEmbeddedSource()}
	b := New()
	b.sources = []Source{counting}

	_, err := b.Resolve(t.Context(), TopicProfile, "")
	require.NoError(t, err)
	b.ClearCache()
	_, err = b.Resolve(t.Context(), TopicProfile, "")
	require.NoError(t, err)

	assert.Equal(t, 2, counting.loads)
}

func TestDisablingCacheClearsIt(t *testing.T) {
	counting := &countingSource{inner: NewEmbeddedSource()}
	b := New()
	b.sources = []Source{counting}

	_, err := b.Resolve(t.Context(), TopicProfile, "")
	require.NoError(t, err)
	assert.Equal(t, 1, b.Stats().Entries)

	b.EnableCaching(false)
	assert.Equal(t, 0, b.Stats().Entries)

	for i := 0; i < 2; i++ {
		_, err = b.Resolve(t.Context(), TopicProfile, "")
		require.NoError(t, err)
	}
	assert.Equal(t, 3, counting.loads)
	assert.Equal(t, 0, b.Stats().Entries)
}

func TestWithoutCacheOption(t *testing.T) {
	b := New(WithoutCache())
	assert.False(t, b.Stats().Enabled)
}

func TestAllTopicsResolve(t *testing.T) {
	b := New()
	for _, topic := range Topics {
		t.Run(topic.String(), func(t *testing.T) {
			got, err := b.Resolve(t.Context(), topic, "")
			require.NoError(t, err)
			assert.NotEmpty(t, got, fmt.Sprintf("topic %s base should not be empty", topic))
		})
	}
}
