// Package process supervises one external child process at a time: it
// starts the command, forwards raw stdout and stderr chunks as events,
// performs a graceful-then-forced stop on request, and classifies the
// final outcome.
//
// Output is read in raw chunks rather than lines so carriage returns used by
// progress displays reach the console renderer intact. The session also
// watches both streams for success markers printed by the transcription
// binary; a marker seen anywhere overrides a crash exit, because the binary
// is known to crash during interpreter teardown after writing its results.
package process
