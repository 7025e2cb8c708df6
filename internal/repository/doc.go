// Package repository defines the fact store used to keep a history of
// collector runs.
//
// A run row is written once per collector invocation and links to the
// neighbor or identity facts it produced. Backup runs carry no facts; the
// archived files are their output. The sqlite subpackage holds the only
// implementation, which migrates its schema on open and works against
// ":memory:" for tests.
package repository
