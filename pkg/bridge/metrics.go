/*
Copyright © 2025 albedosehen
SPDX-License-Identifier: Apache-2.0
*/
package bridge

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	cacheLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dotwin_bridge_cache_lookups_total",
			Help: "Total number of bridge cache lookups by result",
		},
		[]string{"result"}, // hit or miss
	)

	sourceFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dotwin_bridge_source_failures_total",
			Help: "Total number of tolerated configuration source failures",
		},
		[]string{"source"},
	)

	resolveDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "dotwin_bridge_resolve_duration_seconds",
			Help:    "Time taken to load and merge a topic from all sources",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
	)
)
