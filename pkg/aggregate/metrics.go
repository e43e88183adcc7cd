/*
Copyright © 2025 albedosehen
SPDX-License-Identifier: Apache-2.0
*/
package aggregate

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	testDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "dotwin_aggregate_test_duration_seconds",
			Help:    "Time taken to test all items in an aggregate",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60},
		},
	)

	testItemsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dotwin_aggregate_test_items_total",
			Help: "Total number of item compliance tests by outcome",
		},
		[]string{"outcome"}, // passed or failed
	)

	applyDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "dotwin_aggregate_apply_duration_seconds",
			Help:    "Time taken to apply all items in an aggregate",
			Buckets: []float64{0.5, 1, 5, 10, 30, 60, 300, 600},
		},
	)

	applyItemsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dotwin_aggregate_apply_items_total",
			Help: "Total number of item apply attempts by status",
		},
		[]string{"status"}, // applied, skipped, failed, aborted
	)
)
