// Package logging provides structured logging utilities for dotwin components.
//
// It wraps the standard library slog package with project defaults so all
// components log consistently: JSON records to stderr, module/version context
// on every record, LOG_LEVEL environment configuration, and source location
// tracking for debug logs.
//
// Setting the default logger (recommended):
//
//	func main() {
//	    logging.SetDefaultStructuredLogger("dotwin", "v1.0.0")
//
//	    slog.Info("resolving topic", "topic", "Packages")
//	    slog.Error("apply failed", "error", err)
//	}
//
// Setting an explicit log level (e.g. from a CLI flag):
//
//	logging.SetDefaultStructuredLoggerWithLevel("dotwin", "v1.0.0", "debug")
//
// The LOG_LEVEL environment variable controls verbosity when no explicit
// level is given (DEBUG, INFO, WARN, ERROR — case-insensitive, default INFO):
//
//	LOG_LEVEL=debug dotwin test
package logging
