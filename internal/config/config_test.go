package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"scribe/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantInstall := filepath.Join(tempHome, ".local", "share", "scribe", "bin")
	if cfg.Paths.InstallDir != wantInstall {
		t.Fatalf("unexpected install dir: got %q want %q", cfg.Paths.InstallDir, wantInstall)
	}
	if cfg.Paths.SettingsPath != filepath.Join(tempHome, ".config", "scribe", "settings.toml") {
		t.Fatalf("unexpected settings path: %q", cfg.Paths.SettingsPath)
	}
	if cfg.ConnectTimeout() != 15*time.Second {
		t.Fatalf("unexpected connect timeout: %s", cfg.ConnectTimeout())
	}
	if cfg.StopGrace() != 2*time.Second {
		t.Fatalf("unexpected stop grace: %s", cfg.StopGrace())
	}
	if cfg.Tools.Transcriber != "faster-whisper-xxl" {
		t.Fatalf("unexpected transcriber: %q", cfg.Tools.Transcriber)
	}
	if !strings.HasSuffix(cfg.Bootstrap.LinuxURL, "_linux.7z") {
		t.Fatalf("unexpected linux url: %q", cfg.Bootstrap.LinuxURL)
	}
	if cfg.Logging.Format != "console" || cfg.Logging.Level != "info" {
		t.Fatalf("unexpected logging defaults: %+v", cfg.Logging)
	}
}

func TestLoadCustomConfigOverridesDefaults(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	configPath := filepath.Join(t.TempDir(), "config.toml")
	payload := map[string]any{
		"paths": map[string]any{
			"install_dir": "~/tools/whisper",
			"state_dir":   "~/state",
		},
		"bootstrap": map[string]any{
			"linux_url":               "https://mirror.example/fw_linux.7z",
			"connect_timeout_seconds": 30,
			"extractor_path":          "~/bin/7zz",
		},
		"tools": map[string]any{
			"ytdlp": " /opt/yt-dlp ",
		},
		"logging": map[string]any{
			"format": "JSON",
			"level":  "Debug",
		},
	}
	data, err := toml.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != configPath {
		t.Fatalf("expected custom config to be used, got %q (exists=%v)", resolved, exists)
	}
	if cfg.Paths.InstallDir != filepath.Join(tempHome, "tools", "whisper") {
		t.Fatalf("unexpected install dir: %q", cfg.Paths.InstallDir)
	}
	if cfg.HistoryPath() != filepath.Join(tempHome, "state", "history.db") {
		t.Fatalf("unexpected history path: %q", cfg.HistoryPath())
	}
	if cfg.LockPath() != filepath.Join(tempHome, "state", "scribe.lock") {
		t.Fatalf("unexpected lock path: %q", cfg.LockPath())
	}
	if cfg.Bootstrap.ExtractorPath != filepath.Join(tempHome, "bin", "7zz") {
		t.Fatalf("unexpected extractor path: %q", cfg.Bootstrap.ExtractorPath)
	}
	if cfg.ConnectTimeout() != 30*time.Second {
		t.Fatalf("unexpected connect timeout: %s", cfg.ConnectTimeout())
	}
	if cfg.Tools.YtDlp != "/opt/yt-dlp" {
		t.Fatalf("expected trimmed yt-dlp path, got %q", cfg.Tools.YtDlp)
	}
	if cfg.Tools.Transcriber != "faster-whisper-xxl" {
		t.Fatalf("expected default transcriber, got %q", cfg.Tools.Transcriber)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("unexpected logging: %+v", cfg.Logging)
	}
	if url, err := cfg.ArchiveURL("linux"); err != nil || url != "https://mirror.example/fw_linux.7z" {
		t.Fatalf("unexpected linux archive url %q (err=%v)", url, err)
	}
}

func TestArchiveURLRejectsUnsupportedOS(t *testing.T) {
	cfg := config.Default()
	if _, err := cfg.ArchiveURL("darwin"); err == nil {
		t.Fatal("expected error for unsupported OS")
	}
	if url, err := cfg.ArchiveURL("windows"); err != nil || !strings.HasSuffix(url, "_windows.7z") {
		t.Fatalf("unexpected windows url %q (err=%v)", url, err)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"non-http url", func(c *config.Config) { c.Bootstrap.LinuxURL = "ftp://example/x.7z" }, "bootstrap.linux_url"},
		{"empty windows url", func(c *config.Config) { c.Bootstrap.WindowsURL = "" }, "bootstrap.windows_url"},
		{"zero timeout", func(c *config.Config) { c.Bootstrap.ConnectTimeoutSeconds = 0 }, "bootstrap.connect_timeout_seconds"},
		{"negative grace", func(c *config.Config) { c.Process.StopGraceSeconds = -1 }, "process.stop_grace_seconds"},
		{"bad level", func(c *config.Config) { c.Logging.Level = "verbose" }, "logging.level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestCreateSampleProducesLoadableConfig(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load sample: %v", err)
	}
	if !exists {
		t.Fatal("expected sample config to exist")
	}
	if cfg.Process.StopGraceSeconds != 2 {
		t.Fatalf("unexpected stop grace in sample: %d", cfg.Process.StopGraceSeconds)
	}
}

func TestEnsureDirectoriesCreatesPaths(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.InstallDir = filepath.Join(base, "bin")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.StateDir = filepath.Join(base, "state")
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	for _, dir := range []string{cfg.Paths.InstallDir, cfg.Paths.LogDir, cfg.Paths.StateDir} {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			t.Fatalf("expected directory %s", dir)
		}
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[paths]\ninstal_dir = \"/opt/whisper\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, _, _, err := config.Load(path)
	if err == nil || !strings.Contains(err.Error(), "instal_dir") {
		t.Fatalf("expected unknown key error naming instal_dir, got %v", err)
	}
}
