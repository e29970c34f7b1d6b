// Package solver maps entity tags to the strategies that bind an import
// request to persisted records.
//
// The set of entities is closed and resolved at startup: Registry.SolverFor
// looks a tag up in the entity table and returns a Solver over the request.
// Every entity shares one find-only strategy. It resolves declared
// associations first (binding <assoc>_id), then finds its own record by an
// explicit positive id or by its natural-key columns. A solver reports itself
// solved only when its own id and every association it was given resolved.
//
// Lookups go through a Finder, so the same solvers run against the primary
// datastore (SQLFinder) or an in-memory fixture (MemoryFinder).
package solver
