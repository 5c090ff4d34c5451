// Package settings holds the user's transcription preferences.
//
// Settings is a plain struct owned by whoever drives a task. Mutations go
// through Set, which validates the value the way the original option widgets
// constrained it and returns a Change. A Manager publishes every Change on a
// Bus; a Syncer subscribed to the bus batches bursts of changes and persists
// the latest snapshot through a Store, which writes atomically and reads
// permissively.
package settings
