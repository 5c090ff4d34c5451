// Package coordinator runs scribe's foreground tasks: provisioning the
// transcriber, transcribing a local file, and fetching media from a URL
// before transcribing it.
//
// Only one task runs at a time, inside this process (ErrBusy) and across
// processes (a lock file in the state directory). Every task ends by
// rendering a final console line that states the outcome, and is recorded
// in the run history.
package coordinator
