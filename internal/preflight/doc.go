// Package preflight provides readiness checks for the filesystem paths,
// binaries and databases goggles depends on.
//
// These checks run in two contexts:
//   - The daemon runs RunAll at startup and logs every failed check as a
//     warning; it still starts so the solver lane keeps working.
//   - The CLI "goggles doctor" command prints every check, optionally
//     including a live connection to the primary datastore.
package preflight
