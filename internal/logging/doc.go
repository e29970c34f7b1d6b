// Package logging assembles structured slog loggers and formatting helpers used
// across goggles.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so job code automatically tags
// log lines with import-queue row IDs, job names and run IDs. The package also
// provides a no-op logger for tests and wiring code that cannot fail.
package logging
