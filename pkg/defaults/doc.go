// Package defaults centralizes timeout, TTL, and concurrency constants used
// across dotwin components. Keeping them in one place makes the operational
// envelope of the engine reviewable at a glance.
package defaults
