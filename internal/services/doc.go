// Package services defines shared utilities consumed by the bootstrap
// pipeline, the process session, and the external tool wrappers.
//
// Key responsibilities:
//   - Context helpers that stamp task IDs, session IDs, and stage names for
//     logging.
//   - Structured error markers plus the Wrap helper so the coordinator can
//     classify failures (start failure, transport, extraction, verification,
//     crash) and tell them apart from a user cancellation.
//   - Remediation hints the coordinator prints with a failure.
//
// Subpackages wrap the external command-line tools (the transcription binary
// and yt-dlp) so invocation and progress parsing stay testable.
package services
