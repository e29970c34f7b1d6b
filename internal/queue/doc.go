// Package queue persists import-queue rows in SQLite and exposes the queries
// the background jobs are built on.
//
// A row carries an entity request, the bindings solved so far, a done flag,
// a run counter, an optional parent reference and, for macro-transaction rows,
// an attached SQL script. Siblings of a row are the rows naming it as parent,
// ordered by creation. The same database also holds issue reports and the
// settings table behind the maintenance flag, so every worker process sees
// one shared state.
//
// Schema changes bump the version in schema.go; operators delete the database
// to adopt the new schema.
package queue
