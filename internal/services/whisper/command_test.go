package whisper

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"scribe/internal/settings"
)

func TestBuildCommandDefaults(t *testing.T) {
	s := settings.Default()
	got := BuildCommand("/opt/fw/faster-whisper-xxl", "/media/in.mp3", "/out", s)
	want := []string{
		"/opt/fw/faster-whisper-xxl", "/media/in.mp3",
		"-m", "large-v3",
		"--compute_type", "float16",
		"--output_dir", "/out",
		"--output_format", "srt",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("argv = %q\nwant %q", got, want)
	}
}

func TestBuildCommandNonDefaults(t *testing.T) {
	s := settings.Default()
	s.Task = "translate"
	s.Language = "de"
	s.ComputeType = "default"
	s.Device = "cpu"
	s.Temperature = 0.2
	s.BeamSize = 10
	s.BestOf = 3
	s.Patience = 1.5
	s.InitialPrompt = "Hello there"
	s.VADFilter = true
	s.VADMethod = "silero_v5_fw"
	s.VADThreshold = 0.45
	s.VADMinSpeechMS = 300
	s.TempoEnabled = true
	s.FFTempo = 1.0
	s.WordTimestamps = true
	s.FFLoudnorm = true
	s.OutputFormats = []string{"vtt", "txt"}

	got := BuildCommand("fw", "in.wav", "out", s)
	want := []string{
		"fw", "in.wav",
		"-m", "large-v3",
		"--task", "translate",
		"-l", "de",
		"--device", "cpu",
		"--temperature", "0.2",
		"--beam_size", "10",
		"--best_of", "3",
		"--patience", "1.5",
		"--initial_prompt", "Hello there",
		"--output_dir", "out",
		"--vad_method", "silero_v5_fw",
		"--vad_threshold", "0.45",
		"--vad_min_speech_duration_ms", "300",
		"--ff_tempo", "1.0",
		"--word_timestamps",
		"--vad_filter",
		"--ff_loudnorm",
		"--output_format", "vtt", "txt",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("argv = %q\nwant %q", got, want)
	}
}

func TestBuildCommandVADSettingsIgnoredWhenFilterOff(t *testing.T) {
	s := settings.Default()
	s.VADMethod = "webrtc"
	s.FFTempo = 1.7
	got := BuildCommand("fw", "in", "out", s)
	for _, arg := range got {
		if arg == "--vad_method" || arg == "--ff_tempo" || arg == "webrtc" {
			t.Fatalf("unexpected %q in %q", arg, got)
		}
	}
}

func TestBuildCommandAllFormatWins(t *testing.T) {
	s := settings.Default()
	s.OutputFormats = []string{"srt", "all"}
	got := BuildCommand("fw", "in", "out", s)
	tail := got[len(got)-2:]
	if !reflect.DeepEqual(tail, []string{"--output_format", "all"}) {
		t.Fatalf("tail = %q", tail)
	}
}

func TestDisplayCommand(t *testing.T) {
	got := DisplayCommand([]string{"/bin/fw", "/tmp/my file.mp3", "--initial_prompt", `say "hi"`, "it's", "plain"})
	want := `/bin/fw "/tmp/my file.mp3" --initial_prompt "say \"hi\"" "it's" plain`
	if got != want {
		t.Fatalf("display = %s\nwant      %s", got, want)
	}
}

func TestOutputDirFallsBackToWorkingDirectory(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	got, err := OutputDir(settings.Default())
	if err != nil {
		t.Fatalf("OutputDir: %v", err)
	}
	wd, _ := os.Getwd()
	if got != filepath.Join(wd, DefaultOutputDirName) {
		t.Fatalf("output dir = %s", got)
	}
	if info, err := os.Stat(got); err != nil || !info.IsDir() {
		t.Fatalf("output dir not created: %v", err)
	}

	s := settings.Default()
	s.OutputDir = filepath.Join(dir, "custom", "nested")
	got, err = OutputDir(s)
	if err != nil || got != s.OutputDir {
		t.Fatalf("OutputDir = %s, %v", got, err)
	}
}

func TestExistingOutputs(t *testing.T) {
	dir := t.TempDir()
	s := settings.Default()
	s.OutputFormats = []string{"srt", "vtt"}
	if err := os.WriteFile(filepath.Join(dir, "talk.srt"), []byte("1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	got := ExistingOutputs("/media/talk.mp3", dir, s)
	if !reflect.DeepEqual(got, []string{filepath.Join(dir, "talk.srt")}) {
		t.Fatalf("outputs = %q", got)
	}
	s.OutputFormats = []string{"all"}
	if ExpectedOutputs("/media/talk.mp3", dir, s) != nil {
		t.Fatal("all format should not predict outputs")
	}
}
