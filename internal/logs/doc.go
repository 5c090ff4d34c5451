// Package logs reads scribe's log file for `scribe logs`: the last N lines,
// and optionally new lines as they are appended.
package logs
