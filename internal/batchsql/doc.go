// Package batchsql executes the raw SQL scripts attached to macro-transaction
// rows against the primary datastore.
//
// Execute first marks the row done and persists it, so a broken or oversized
// script is consumed exactly once. The script is then written to a private
// temp file, handed to an Executor and removed again whatever the outcome.
// Anything the executor reports on stderr, or a failed exit, comes back as an
// *ExecutionError for the job runtime to log and alert on.
//
// Two executors exist: ClientExecutor runs the configured mysql client as a
// subprocess reading the script on stdin, and DriverExecutor runs it through
// go-sql-driver/mysql with multi-statement support enabled.
package batchsql
