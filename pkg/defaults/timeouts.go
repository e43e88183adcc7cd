/*
Copyright © 2025 albedosehen
SPDX-License-Identifier: Apache-2.0
*/
package defaults

import "time"

// Configuration bridge cache settings.
const (
	// BridgeCacheTTL is how long a resolved topic stays fresh in the bridge cache.
	BridgeCacheTTL = 10 * time.Minute

	// BridgeWarnInterval bounds how often tolerated source failures are logged
	// per topic, so a missing user override does not flood the log on every resolve.
	BridgeWarnInterval = 1 * time.Minute
)

// Aggregate execution settings.
const (
	// ItemTestTimeout is the default timeout for a single item test operation.
	ItemTestTimeout = 30 * time.Second

	// ItemApplyTimeout is the default timeout for a single item apply operation.
	// Package installs dominate this bound.
	ItemApplyTimeout = 10 * time.Minute

	// ParallelWorkers is the default bounded worker pool size for parallel
	// test/apply runs.
	ParallelWorkers = 4
)

// Plugin manager settings.
const (
	// PluginInitializeTimeout is the timeout for a plugin's Initialize hook.
	PluginInitializeTimeout = 15 * time.Second

	// PluginCleanupTimeout is the timeout for a plugin's Cleanup hook.
	// Cleanup is best-effort; overruns are recorded as warnings.
	PluginCleanupTimeout = 10 * time.Second
)

// Recommendation engine settings.
const (
	// RecommendationMaxResults is the upper bound accepted for the result cap.
	RecommendationMaxResults = 100
)
