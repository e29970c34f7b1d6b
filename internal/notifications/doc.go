// Package notifications delivers job alerts via pluggable notifiers.
//
// The default implementation publishes to ntfy using the topic configured in
// config.toml and degrades to a no-op when no topic is set. Events cover
// permanent job failures, failed batch SQL scripts and finished macro batches,
// so operators hear about a stuck maintenance window without tailing logs.
//
// Workflow and job code depend only on the Service interface.
package notifications
