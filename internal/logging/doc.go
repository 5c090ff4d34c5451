// Package logging assembles structured slog loggers and formatting helpers used
// across scribe.
//
// Records go to the log file in text or JSON form, and a compact copy of
// warnings and errors goes to stderr. Text lines put the component and
// shortened task and session IDs in a bracketed header. Context-aware
// helpers tag log lines with task IDs, process session IDs, and stages. The
// package also provides a no-op logger for tests and wiring code that cannot
// fail.
package logging
