// Package config loads, normalizes, and validates goggles configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// GOGGLES_DB_PASSWORD. The Config type centralizes every knob the worker and
// CLI need: where the queue database lives, how to reach the primary
// datastore, and how often the background lanes poll.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
