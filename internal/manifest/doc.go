// Package manifest persists the durable record of each render run: a SQLite
// ledger shared across episodes for the status view, and a manifest.json in
// every episode directory describing what that run produced. Records are
// written once per run and never mutated after completion; a retry creates a
// fresh record.
package manifest
