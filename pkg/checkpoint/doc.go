// Package checkpoint persists per-operation resume state so an
// interrupted or crashed run can pick up where it left off.
//
// All state lives in one JSON file shaped as
//
//	{ "exports"|"imports"|"deletes": { fingerprint: { counter, data } } }
//
// keyed by a fingerprint of (account, workspace, file path, and
// optionally file content). Saves rewrite the file atomically and
// synchronously; loads fail soft to an empty state. There is no
// locking: a single process owns the file for the run's duration.
package checkpoint
