package whisper

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"scribe/internal/settings"
)

// Transcriber defaults. A flag is only passed when its value differs.
const (
	DefaultTask        = "transcribe"
	DefaultComputeType = "default"
	DefaultDevice      = "cuda"
	DefaultBeamSize    = 5
	DefaultBestOf      = 5
	DefaultPatience    = 1.0
	// DefaultOutputDirName is created under the working directory when no
	// output directory is configured.
	DefaultOutputDirName = "output"
)

// SuccessMarkers appear in transcriber output only after results were
// written. The binary may still crash while shutting down.
var SuccessMarkers = []string{
	"Operation finished in:",
	"Subtitles are written to",
	"Transcription speed:",
	"audio seconds/s",
}

// BuildCommand returns the argv for transcribing input into outputDir.
// Value flags come first, then bare flags, then --output_format.
func BuildCommand(executable, input, outputDir string, s settings.Settings) []string {
	args := make([]string, 0, 32)
	args = append(args, executable, input, "-m", s.Model)

	if s.Task != "" && s.Task != DefaultTask {
		args = append(args, "--task", s.Task)
	}
	if s.Language != "" && s.Language != settings.LanguageAuto {
		args = append(args, "-l", s.Language)
	}
	if s.ComputeType != "" && s.ComputeType != DefaultComputeType {
		args = append(args, "--compute_type", s.ComputeType)
	}
	if s.Device != "" && s.Device != DefaultDevice {
		args = append(args, "--device", s.Device)
	}
	if s.Temperature > 0 {
		args = append(args, "--temperature", settings.FormatFloat(s.Temperature))
	}
	if s.BeamSize != DefaultBeamSize {
		args = append(args, "--beam_size", strconv.Itoa(s.BeamSize))
	}
	if s.BestOf != DefaultBestOf {
		args = append(args, "--best_of", strconv.Itoa(s.BestOf))
	}
	if s.Patience != DefaultPatience {
		args = append(args, "--patience", settings.FormatFloat(s.Patience))
	}
	if s.InitialPrompt != "" {
		args = append(args, "--initial_prompt", s.InitialPrompt)
	}
	args = append(args, "--output_dir", outputDir)
	if s.VADFilter {
		args = append(args,
			"--vad_method", s.VADMethod,
			"--vad_threshold", settings.FormatFloat(s.VADThreshold),
			"--vad_min_speech_duration_ms", strconv.Itoa(s.VADMinSpeechMS),
		)
	}
	if s.TempoEnabled {
		args = append(args, "--ff_tempo", settings.FormatFloat(s.FFTempo))
	}

	bare := []struct {
		flag string
		on   bool
	}{
		{"--word_timestamps", s.WordTimestamps},
		{"--without_timestamps", s.WithoutTimestamps},
		{"--verbose", s.Verbose},
		{"--print_progress", s.PrintProgress},
		{"--highlight_words", s.HighlightWords},
		{"--vad_filter", s.VADFilter},
		{"--ff_mp3", s.FFMP3},
		{"--ff_loudnorm", s.FFLoudnorm},
		{"--ff_speechnorm", s.FFSpeechnorm},
	}
	for _, b := range bare {
		if b.on {
			args = append(args, b.flag)
		}
	}

	args = append(args, "--output_format")
	args = append(args, s.SelectedFormats()...)
	return args
}

// DisplayCommand joins argv for display, double-quoting any argument that
// contains a space or a quote character.
func DisplayCommand(argv []string) string {
	parts := make([]string, 0, len(argv))
	for _, arg := range argv {
		if strings.ContainsAny(arg, " \"'") {
			parts = append(parts, `"`+strings.ReplaceAll(arg, `"`, `\"`)+`"`)
			continue
		}
		parts = append(parts, arg)
	}
	return strings.Join(parts, " ")
}

// OutputDir resolves the configured output directory, falling back to
// ./output, and creates it.
func OutputDir(s settings.Settings) (string, error) {
	dir := strings.TrimSpace(s.OutputDir)
	if dir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", err
		}
		dir = filepath.Join(cwd, DefaultOutputDirName)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}

// ExpectedOutputs predicts the subtitle files written for input. With the
// "all" format it returns nil because the set depends on the transcriber.
func ExpectedOutputs(input, outputDir string, s settings.Settings) []string {
	formats := s.SelectedFormats()
	if len(formats) == 1 && formats[0] == settings.FormatAll {
		return nil
	}
	base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	out := make([]string, 0, len(formats))
	for _, f := range formats {
		out = append(out, filepath.Join(outputDir, base+"."+f))
	}
	return out
}

// ExistingOutputs filters ExpectedOutputs to files present on disk.
func ExistingOutputs(input, outputDir string, s settings.Settings) []string {
	var found []string
	for _, path := range ExpectedOutputs(input, outputDir, s) {
		if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() {
			found = append(found, path)
		}
	}
	return found
}
