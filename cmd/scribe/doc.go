// Package main hosts the scribe CLI.
//
// The Cobra command tree provisions faster-whisper-xxl, runs transcriptions
// of local files or downloaded media in the foreground, and manages the
// persistent transcription settings, configuration, and run history.
// Foreground tasks go through internal/coordinator, which owns
// cancellation and console rendering; this package only wires
// configuration, logging, and signal handling around it.
package main
