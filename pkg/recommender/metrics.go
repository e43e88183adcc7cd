/*
Copyright © 2025 albedosehen
SPDX-License-Identifier: Apache-2.0
*/
package recommender

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var recommendationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "dotwin_recommendations_total",
		Help: "Total number of recommendations generated by category and priority",
	},
	[]string{"category", "priority"},
)
