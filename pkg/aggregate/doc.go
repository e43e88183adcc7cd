// Package aggregate orchestrates ordered collections of configuration
// items: batch compliance testing with per-item error isolation, batch
// convergence with force, type filtering, critical-abort semantics, and an
// optional bounded-parallel mode.
package aggregate
