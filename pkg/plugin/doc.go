// Package plugin implements the extension registry and lifecycle manager.
// Plugins declare a manifest with a unique name, a semantic version, and
// dependencies; config plugins contribute item type handlers and
// recommendation plugins contribute profile rules. The manager enforces
// dependency-ordered loading, recursive enable/disable propagation with
// cycle detection, and manifest discovery from search paths.
package plugin
