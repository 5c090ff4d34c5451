package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"scribe/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.InstallDir = filepath.Join(base, "bin-install")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Paths.SettingsPath = filepath.Join(base, "settings.toml")
	cfgVal.Bootstrap.LinuxURL = "http://127.0.0.1:1/scribe_linux.7z"
	cfgVal.Bootstrap.WindowsURL = "http://127.0.0.1:1/scribe_windows.7z"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithArchiveURL points both platform release URLs at url.
func WithArchiveURL(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Bootstrap.LinuxURL = url
		b.cfg.Bootstrap.WindowsURL = url
	}
}

// WithInstalledTranscriber writes stub transcriber and ffmpeg executables
// into the install dir. body is the shell script body run by the transcriber.
func WithInstalledTranscriber(body string) ConfigOption {
	return func(b *configBuilder) {
		dir := b.cfg.Paths.InstallDir
		if err := os.MkdirAll(dir, 0o755); err != nil {
			b.t.Fatalf("mkdir install dir: %v", err)
		}
		WriteScript(b.t, filepath.Join(dir, b.cfg.Tools.Transcriber), body)
		WriteScript(b.t, filepath.Join(dir, b.cfg.Tools.FFmpeg), "exit 0")
	}
}

// WithStubbedBinaries writes stub executables for the provided names and
// prepends them to PATH. If names is empty, yt-dlp and 7z are stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"yt-dlp", "7z"}
		}
		binDir := filepath.Join(b.baseDir, "path-bin")
		for _, name := range names {
			WriteScript(b.t, filepath.Join(binDir, name), "exit 0")
		}
		b.t.Setenv("PATH", binDir+string(os.PathListSeparator)+os.Getenv("PATH"))
	}
}

// BaseDir returns the temp root used by NewConfig for cfg.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}
