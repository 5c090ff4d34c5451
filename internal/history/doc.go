// Package history records every foreground task (bootstrap, transcription,
// fetch) in a SQLite database in the state directory so past runs can be
// listed with their outcome.
package history
