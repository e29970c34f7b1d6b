// Package services defines shared utilities consumed by the background jobs
// and the components they drive.
//
// Key responsibilities:
//   - Context helpers that stamp import-queue row IDs, job and queue names,
//     and run identifiers for logging.
//   - Structured error markers plus the Wrap helper, so the job runtime can
//     tell retryable failures from permanent ones.
//
// Use these helpers when wiring new job logic so error handling and
// observability stay uniform across lanes.
package services
