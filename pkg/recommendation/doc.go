// Package recommendation defines the shared recommendation vocabulary:
// prioritized, categorized suggestions with optional item specs, and the
// Rule function type that produces them from a system profile. It sits
// below both the plugin registry and the recommendation engine so each can
// depend on it without depending on the other.
package recommendation
