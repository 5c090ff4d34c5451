package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	InstallDir   string `toml:"install_dir"`
	LogDir       string `toml:"log_dir"`
	StateDir     string `toml:"state_dir"`
	SettingsPath string `toml:"settings_path"`
}

// Bootstrap controls how the transcription binary is provisioned.
type Bootstrap struct {
	LinuxURL              string `toml:"linux_url"`
	WindowsURL            string `toml:"windows_url"`
	ConnectTimeoutSeconds int    `toml:"connect_timeout_seconds"`
	// ExtractorPath overrides 7-Zip discovery when set.
	ExtractorPath string `toml:"extractor_path"`
}

// Tools names the external executables scribe drives.
type Tools struct {
	Transcriber string `toml:"transcriber"`
	FFmpeg      string `toml:"ffmpeg"`
	YtDlp       string `toml:"ytdlp"`
}

// Process contains child-process supervision settings.
type Process struct {
	StopGraceSeconds int `toml:"stop_grace_seconds"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for scribe.
type Config struct {
	Paths     Paths     `toml:"paths"`
	Bootstrap Bootstrap `toml:"bootstrap"`
	Tools     Tools     `toml:"tools"`
	Process   Process   `toml:"process"`
	Logging   Logging   `toml:"logging"`
}

// DefaultConfigPath is ~/.config/scribe/config.toml, made absolute.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/scribe/config.toml")
}

// Load reads the configuration at path, or the first of the default path
// and ./scribe.toml when path is empty, over the built-in defaults. Unknown
// keys are rejected. It returns the config, the file it came from (or would
// have come from), and whether that file existed.
func Load(path string) (*Config, string, bool, error) {
	source, exists, err := locate(path)
	if err != nil {
		return nil, "", false, err
	}
	cfg := Default()
	if exists {
		if err := decodeFile(source, &cfg); err != nil {
			return nil, "", false, err
		}
	}
	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}
	return &cfg, source, exists, nil
}

func decodeFile(path string, cfg *Config) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	dec := toml.NewDecoder(f)
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return fmt.Errorf("parse config %s: unknown keys:\n%s", path, strict.String())
		}
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func locate(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		found, err := isFile(expanded)
		return expanded, found, err
	}

	fallback, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	local, err := filepath.Abs("scribe.toml")
	if err != nil {
		return "", false, err
	}
	for _, candidate := range []string{fallback, local} {
		if found, _ := isFile(candidate); found {
			return candidate, true, nil
		}
	}
	return fallback, false, nil
}

func isFile(path string) (bool, error) {
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("stat config: %w", err)
	}
	return !info.IsDir(), nil
}

// EnsureDirectories creates the install, log, and state directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.InstallDir, c.Paths.LogDir, c.Paths.StateDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// ConnectTimeout returns the archive download connect timeout.
func (c *Config) ConnectTimeout() time.Duration {
	return time.Duration(c.Bootstrap.ConnectTimeoutSeconds) * time.Second
}

// StopGrace returns how long a stopping child process is given before it is killed.
func (c *Config) StopGrace() time.Duration {
	return time.Duration(c.Process.StopGraceSeconds) * time.Second
}

// LockPath returns the single-task lock file location.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.StateDir, "scribe.lock")
}

// HistoryPath returns the run history database location.
func (c *Config) HistoryPath() string {
	return filepath.Join(c.Paths.StateDir, "history.db")
}

// DownloadDir returns where fetched archives and media are staged.
func (c *Config) DownloadDir() string {
	return filepath.Join(c.Paths.StateDir, "downloads")
}

// ArchiveURL returns the release archive URL for the given GOOS value.
func (c *Config) ArchiveURL(goos string) (string, error) {
	switch goos {
	case "linux":
		return c.Bootstrap.LinuxURL, nil
	case "windows":
		return c.Bootstrap.WindowsURL, nil
	default:
		return "", fmt.Errorf("no faster-whisper-xxl release for %s", goos)
	}
}

// expandPath resolves a leading ~ to the home directory and returns an
// absolute, cleaned path. The empty string is returned unchanged.
func expandPath(p string) (string, error) {
	if p == "" {
		return "", nil
	}
	if p == "~" || strings.HasPrefix(p, "~/") || strings.HasPrefix(p, `~\`) {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		p = home + p[1:]
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", fmt.Errorf("resolve %q: %w", p, err)
	}
	return abs, nil
}

// ExpandPath applies the config path rules (~ expansion, absolute, clean).
func ExpandPath(p string) (string, error) {
	return expandPath(p)
}

// CreateSample writes the commented sample configuration to path, creating
// parent directories.
func CreateSample(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	return os.WriteFile(path, []byte(sampleConfig), 0o644)
}
