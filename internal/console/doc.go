// Package console turns raw child-process output into discrete line edits.
//
// A Renderer consumes byte chunks and emits Append and Replace operations
// that reproduce how a terminal draws carriage-return progress bars. Sinks
// apply those operations: Transcript keeps them as an in-memory line list,
// TerminalSink redraws them on a real terminal. Console ties a Renderer to
// its sinks for the coordinator.
package console
