// Package jobs holds the background units of work pulled by the workflow
// runtime: the import-queue job in its micro (per-row solver) and macro
// (batch SQL under maintenance) modes, and the issue cleanup job.
//
// Jobs run to completion or fail at row or script granularity. Rows mutated
// before a failure stay persisted; the next run picks up from there.
package jobs
