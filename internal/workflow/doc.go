// Package workflow runs the background job lanes.
//
// The Manager owns one lane per named job queue (import_queue and
// issue_cleanup). Each lane polls on its configured interval or wakes early
// on Trigger, and runs its job under the retry policy: a fresh run id per
// attempt, a wall-clock ceiling of jobs.max_run_time, and up to
// jobs.max_attempts attempts spaced by jobs.retry_backoff. Errors that are
// not retryable (validation, configuration) fail the run immediately.
// Exhausted runs are logged with an alert attribute and recorded in the lane
// status; the lane keeps polling.
//
// Lanes run independently, so a long macro batch never delays issue cleanup.
// A lane never overlaps with itself.
package workflow
