// Package extract unpacks the faster-whisper-xxl release archive with an
// external 7-Zip executable, places its contents in the install directory,
// and verifies the expected files.
//
// Extraction runs into a private temp directory first. The install directory
// is only touched once the tool has exited successfully and the archive
// layout has been recognized, so a failed or cancelled run never leaves a
// half-populated install behind.
package extract
