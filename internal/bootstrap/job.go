package bootstrap

import (
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"sync"

	"scribe/internal/config"
	"scribe/internal/deps"
)

// Phase is the lifecycle position of a Job.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseDownloading
	PhaseExtracting
	PhaseVerifying
	PhaseInstalled
	PhaseFailed
	PhaseCancelled
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseDownloading:
		return "downloading"
	case PhaseExtracting:
		return "extracting"
	case PhaseVerifying:
		return "verifying"
	case PhaseInstalled:
		return "installed"
	case PhaseFailed:
		return "failed"
	case PhaseCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Terminal reports whether no further transitions are possible.
func (p Phase) Terminal() bool {
	return p == PhaseInstalled || p == PhaseFailed || p == PhaseCancelled
}

// Job describes one provisioning run.
type Job struct {
	SourceURL      string
	ExpectedFiles  []string
	DestinationDir string
	ArchivePath    string

	mu    sync.Mutex
	phase Phase
}

// Phase returns the current phase.
func (j *Job) Phase() Phase {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.phase
}

// advance moves the job forward. Backward moves and moves out of a terminal
// phase are ignored.
func (j *Job) advance(next Phase) bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.phase.Terminal() {
		return false
	}
	if !next.Terminal() && next <= j.phase {
		return false
	}
	j.phase = next
	return true
}

// RequiredFiles returns the executable names that must be present in the
// install directory for the given config and GOOS.
func RequiredFiles(cfg *config.Config) []string {
	return []string{deps.ExecutableName(cfg.Tools.Transcriber), deps.ExecutableName(cfg.Tools.FFmpeg)}
}

// NewJob builds the provisioning job for goos from the configured release URLs.
func NewJob(cfg *config.Config, goos string) (*Job, error) {
	source, err := cfg.ArchiveURL(goos)
	if err != nil {
		return nil, err
	}
	name := "faster-whisper-xxl.7z"
	if parsed, err := url.Parse(source); err == nil {
		if base := path.Base(parsed.Path); base != "" && base != "/" && base != "." {
			name = base
		}
	}
	return &Job{
		SourceURL:      source,
		ExpectedFiles:  RequiredFiles(cfg),
		DestinationDir: cfg.Paths.InstallDir,
		ArchivePath:    filepath.Join(cfg.DownloadDir(), name),
	}, nil
}

// Locate reports where the transcription executable currently lives. A
// missing result means a bootstrap is required.
func Locate(cfg *config.Config) deps.Location {
	return deps.Locate(cfg.Paths.InstallDir, cfg.Tools.Transcriber, []string{cfg.Tools.Transcriber, cfg.Tools.FFmpeg})
}
