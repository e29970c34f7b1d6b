// Package daemon coordinates the long-running goggles worker process.
//
// It wires configuration, queue storage and the workflow manager into a
// single lifecycle with flock-based locking so only one worker drains a
// given queue database. Concurrent macro batches are therefore excluded by
// deployment rather than by the maintenance flag itself. Startup runs the
// preflight checks and logs every failure without refusing to start.
package daemon
