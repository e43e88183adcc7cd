// Package profile defines the measured system profile consumed by the
// recommendation engine. A profile is produced by an external system
// profiler and carries sectioned, loosely-typed readings about hardware,
// installed software, and user settings.
package profile
