// Package cli implements the dotwin command line: test and apply runs over
// the item catalog, recommendation generation, configuration resolution,
// and plugin management.
package cli
