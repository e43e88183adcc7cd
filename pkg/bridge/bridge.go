/*
Copyright © 2025 albedosehen
SPDX-License-Identifier: Apache-2.0
*/
package bridge

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/albedosehen/dotwin/pkg/bridge/merge"
	"github.com/albedosehen/dotwin/pkg/defaults"
	"github.com/albedosehen/dotwin/pkg/errors"
)

// baseVariant is the document section merged under every variant.
const baseVariant = "base"

// Bridge resolves layered configuration: built-in data, user overrides, and
// any additional sources are deep-merged per topic, then a named variant is
// overlaid on the topic's base section. Resolved documents are cached with
// a TTL. All methods are safe for concurrent use.
type Bridge struct {
	mu         sync.Mutex
	sources    []Source
	cache      map[string]cacheEntry
	caching    bool
	ttl        time.Duration
	hits       uint64
	misses     uint64
	lastStored time.Time

	// warnLimiter throttles tolerated-source-failure warnings so a broken
	// override file does not flood the log on every resolve.
	warnLimiter *rate.Limiter

	now func() time.Time
}

type cacheEntry struct {
	data      map[string]any
	expiresAt time.Time
}

// Option is a functional option for configuring a Bridge.
type Option func(*Bridge)

// WithSources appends sources after the built-in embedded data. Later
// sources override earlier ones during the merge.
func WithSources(sources ...Source) Option {
	return func(b *Bridge) {
		b.sources = append(b.sources, sources...)
	}
}

// WithConfigRoot layers a user override directory over the built-in data.
func WithConfigRoot(root string) Option {
	return WithSources(NewFileSource(root))
}

// WithTTL overrides the cache entry lifetime.
func WithTTL(ttl time.Duration) Option {
	return func(b *Bridge) {
		b.ttl = ttl
	}
}

// WithoutCache starts the bridge with caching disabled.
func WithoutCache() Option {
	return func(b *Bridge) {
		b.caching = false
	}
}

// New creates a bridge over the embedded data plus any configured sources.
// Caching is on by default.
func New(opts ...Option) *Bridge {
	b := &Bridge{
		sources:     []Source{NewEmbeddedSource()},
		cache:       make(map[string]cacheEntry),
		caching:     true,
		ttl:         defaults.BridgeCacheTTL,
		warnLimiter: rate.NewLimiter(rate.Every(defaults.BridgeWarnInterval), 1),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// CacheKey returns the deterministic cache key for a topic and variant.
func CacheKey(topic Topic, variant string) string {
	if variant == "" {
		return topic.String()
	}
	return fmt.Sprintf("%s_%s", topic, variant)
}

// Resolve merges every source's document for the topic, overlays the named
// variant on the topic's base section, and returns the result. The empty
// variant resolves the base section alone. A source failure is tolerated:
// it contributes nothing and emits a throttled warning. The returned map is
// the caller's to mutate.
func (b *Bridge) Resolve(ctx context.Context, topic Topic, variant string) (map[string]any, error) {
	key := CacheKey(topic, variant)

	b.mu.Lock()
	if b.caching {
		if entry, ok := b.cache[key]; ok && b.now().Before(entry.expiresAt) {
			b.hits++
			b.mu.Unlock()
			cacheLookupsTotal.WithLabelValues("hit").Inc()
			return merge.CloneMap(entry.data), nil
		}
		b.misses++
	}
	b.mu.Unlock()
	cacheLookupsTotal.WithLabelValues("miss").Inc()

	start := b.now()
	doc, err := b.loadMerged(ctx, topic)
	if err != nil {
		return nil, err
	}
	resolveDuration.Observe(time.Since(start).Seconds())

	result, err := overlayVariant(topic, variant, doc)
	if err != nil {
		return nil, err
	}

	b.mu.Lock()
	if b.caching {
		b.cache[key] = cacheEntry{
			data:      merge.CloneMap(result),
			expiresAt: b.now().Add(b.ttl),
		}
		b.lastStored = b.now()
	}
	b.mu.Unlock()

	return result, nil
}

// loadMerged merges every source's document for the topic in layer order.
// All sources failing (or contributing nothing) is a not-found error.
func (b *Bridge) loadMerged(ctx context.Context, topic Topic) (map[string]any, error) {
	merged := map[string]any{}
	contributed := 0
	for _, src := range b.sources {
		data, err := src.Load(ctx, topic)
		if err != nil {
			if b.warnLimiter.Allow() {
				slog.Warn("configuration source failed, continuing without it",
					slog.String("source", src.Name()),
					slog.String("topic", topic.String()),
					slog.String("error", err.Error()))
			}
			sourceFailuresTotal.WithLabelValues(src.Name()).Inc()
			continue
		}
		if data == nil {
			continue
		}
		merged = merge.Maps(merged, data)
		contributed++
	}
	if contributed == 0 {
		return nil, errors.NewWithContext(errors.ErrCodeNotFound,
			"no configuration source could serve topic",
			map[string]any{"topic": topic.String()})
	}
	return merged, nil
}

// overlayVariant merges the named variant section over the base section.
func overlayVariant(topic Topic, variant string, doc map[string]any) (map[string]any, error) {
	base, _ := doc[baseVariant].(map[string]any)
	if variant == "" {
		return merge.CloneMap(base), nil
	}
	raw, ok := doc[variant]
	if !ok {
		return nil, errors.NewWithContext(errors.ErrCodeNotFound,
			"unknown configuration variant",
			map[string]any{"topic": topic.String(), "variant": variant})
	}
	overlay, ok := raw.(map[string]any)
	if !ok {
		return nil, errors.NewWithContext(errors.ErrCodeInvalidRequest,
			"configuration variant is not a mapping",
			map[string]any{"topic": topic.String(), "variant": variant})
	}
	return merge.Maps(base, overlay), nil
}

// EnableCaching toggles the cache. Disabling clears it so a later re-enable
// starts cold.
func (b *Bridge) EnableCaching(enabled bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.caching = enabled
	if !enabled {
		b.cache = make(map[string]cacheEntry)
	}
}

// ClearCache drops every cached entry.
func (b *Bridge) ClearCache() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cache = make(map[string]cacheEntry)
	slog.Debug("bridge cache cleared")
}

// Stats reports cache occupancy and hit counters since creation.
type Stats struct {
	Entries     int       `json:"entries" yaml:"entries"`
	Keys        []string  `json:"keys,omitempty" yaml:"keys,omitempty"`
	Hits        uint64    `json:"hits" yaml:"hits"`
	Misses      uint64    `json:"misses" yaml:"misses"`
	Enabled     bool      `json:"enabled" yaml:"enabled"`
	LastUpdated time.Time `json:"lastUpdated,omitempty" yaml:"lastUpdated,omitempty"`
}

// Stats returns a snapshot of the cache counters and the cached keys.
func (b *Bridge) Stats() Stats {
	b.mu.Lock()
	defer b.mu.Unlock()
	keys := make([]string, 0, len(b.cache))
	for key := range b.cache {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return Stats{
		Entries:     len(b.cache),
		Keys:        keys,
		Hits:        b.hits,
		Misses:      b.misses,
		Enabled:     b.caching,
		LastUpdated: b.lastStored,
	}
}
