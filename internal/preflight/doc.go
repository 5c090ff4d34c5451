// Package preflight provides readiness checks for the directories, disk space,
// and external tools scribe depends on.
//
// The bootstrap orchestrator consults FreeBytes before downloading the release
// archive, and the CLI "scribe status" command renders RunAll and
// CheckSystemDeps results.
package preflight
