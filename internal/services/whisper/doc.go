// Package whisper builds faster-whisper-xxl invocations from user settings.
//
// This package handles:
//   - Command-line construction with default-gated flags
//   - Display quoting of the command for the console
//   - The output markers that prove a run completed
//   - Predicting the subtitle files a run writes
package whisper
