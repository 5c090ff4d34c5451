// Package bootstrap provisions the transcription binary: it downloads the
// release archive, extracts it into the install directory, and verifies the
// result, reporting each phase to a ProgressSink.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/dustin/go-humanize"

	"scribe/internal/deps"
	"scribe/internal/extract"
	"scribe/internal/fetch"
	"scribe/internal/logging"
	"scribe/internal/preflight"
	"scribe/internal/services"
)

// Fetcher downloads the release archive.
type Fetcher interface {
	Fetch(ctx context.Context, url, destPath string, onProgress fetch.ProgressFunc) error
}

// Extractor unpacks and verifies the release archive.
type Extractor interface {
	Extract(ctx context.Context, archivePath string, expected []string, destDir string) error
}

// ProgressSink receives phase transitions, byte progress, and status lines.
type ProgressSink interface {
	Phase(Phase)
	Progress(done, total int64)
	Message(string)
}

// PhaseError reports which phase failed.
type PhaseError struct {
	Phase Phase
	Err   error
}

func (e *PhaseError) Error() string {
	return fmt.Sprintf("bootstrap %s: %v", e.Phase, e.Err)
}

func (e *PhaseError) Unwrap() error { return e.Err }

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

// WithFreeSpaceCheck overrides how free space is measured (tests).
func WithFreeSpaceCheck(fn func(string) (uint64, error)) Option {
	return func(o *Orchestrator) {
		if fn != nil {
			o.freeBytes = fn
		}
	}
}

// Orchestrator drives a Job through download, extraction, and verification.
// One Orchestrator must not run two jobs at once.
type Orchestrator struct {
	fetcher   Fetcher
	extractor Extractor
	logger    *slog.Logger
	freeBytes func(string) (uint64, error)
}

// New constructs an Orchestrator.
func New(fetcher Fetcher, extractor Extractor, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		fetcher:   fetcher,
		extractor: extractor,
		freeBytes: preflight.FreeBytes,
	}
	for _, opt := range opts {
		opt(o)
	}
	o.logger = logging.NewComponentLogger(o.logger, "bootstrap")
	return o
}

type nopSink struct{}

func (nopSink) Phase(Phase)           {}
func (nopSink) Progress(int64, int64) {}
func (nopSink) Message(string)        {}

// Run executes job. It returns nil once the job is Installed, an error
// matching services.ErrCancelled when the job ends Cancelled, and a
// *PhaseError otherwise. The archive file is removed in every case.
func (o *Orchestrator) Run(ctx context.Context, job *Job, sink ProgressSink) error {
	if sink == nil {
		sink = nopSink{}
	}
	ctx = services.WithStage(ctx, "bootstrap")
	logger := logging.WithContext(ctx, o.logger)
	defer func() {
		if err := os.Remove(job.ArchivePath); err != nil && !os.IsNotExist(err) {
			logging.WarnWithContext(logger, "archive cleanup failed", "archive_cleanup_failed",
				logging.String("path", job.ArchivePath), logging.Error(err))
		}
	}()

	enter := func(p Phase) {
		if job.advance(p) {
			logger.Info("bootstrap phase", logging.String("phase", p.String()))
			sink.Phase(p)
		}
	}
	fail := func(p Phase, err error) error {
		enter(PhaseFailed)
		logging.ErrorWithContext(logger, "bootstrap failed", "bootstrap_failed",
			logging.String("phase", p.String()),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, services.Hint(err)),
		)
		return &PhaseError{Phase: p, Err: err}
	}
	cancelled := func(p Phase) error {
		enter(PhaseCancelled)
		logger.Info("bootstrap cancelled", logging.String("phase", p.String()))
		return fmt.Errorf("bootstrap %s: %w", p, services.ErrCancelled)
	}

	if ctx.Err() != nil {
		return cancelled(PhaseIdle)
	}

	var spaceChecked sync.Once
	progress := func(done, total int64) {
		if total > 0 {
			spaceChecked.Do(func() { o.warnLowSpace(job, uint64(total), sink, logger) })
		}
		sink.Progress(done, total)
	}

	enter(PhaseDownloading)
	sink.Message(fmt.Sprintf("Downloading %s", job.SourceURL))
	err := o.fetcher.Fetch(ctx, job.SourceURL, job.ArchivePath, progress)
	if err != nil {
		if services.IsCancelled(err) || ctx.Err() != nil {
			return cancelled(PhaseDownloading)
		}
		return fail(PhaseDownloading, err)
	}
	if ctx.Err() != nil {
		return cancelled(PhaseDownloading)
	}

	enter(PhaseExtracting)
	sink.Message("Extracting archive (this cannot be interrupted)...")
	if err := o.extractor.Extract(ctx, job.ArchivePath, job.ExpectedFiles, job.DestinationDir); err != nil {
		var verr *extract.VerificationError
		switch {
		case services.IsCancelled(err):
			return cancelled(PhaseExtracting)
		case errors.As(err, &verr):
			enter(PhaseVerifying)
			return fail(PhaseVerifying, err)
		default:
			return fail(PhaseExtracting, err)
		}
	}

	// Files are in place from here on; a late cancel no longer applies.
	enter(PhaseVerifying)
	sink.Message("Verifying installation...")
	if len(job.ExpectedFiles) > 0 {
		loc := deps.Locate(job.DestinationDir, job.ExpectedFiles[0], job.ExpectedFiles)
		if loc.Source != deps.SourceInstallDir {
			return fail(PhaseVerifying, &extract.VerificationError{Name: firstOr(loc.Missing, job.ExpectedFiles[0]), Reason: "is not executable"})
		}
	}

	enter(PhaseInstalled)
	sink.Message(fmt.Sprintf("Installed to %s", job.DestinationDir))
	return nil
}

// spaceFactor scales the archive size to the room needed for the archive
// plus its extracted contents.
const spaceFactor = 3

// warnLowSpace warns when the install directory cannot hold an archive of
// size bytes once extracted. It never fails the job.
func (o *Orchestrator) warnLowSpace(job *Job, size uint64, sink ProgressSink, logger *slog.Logger) {
	need := size * spaceFactor
	free, err := o.freeBytes(job.DestinationDir)
	if err != nil || free >= need {
		return
	}
	msg := fmt.Sprintf("Warning: only %s free at %s; about %s is needed", humanize.IBytes(free), job.DestinationDir, humanize.IBytes(need))
	sink.Message(msg)
	logging.WarnWithContext(logger, "low free space for bootstrap", "low_disk_space",
		logging.String("dest", job.DestinationDir),
		logging.String("free", humanize.IBytes(free)),
		logging.String("need", humanize.IBytes(need)),
		logging.String(logging.FieldErrorHint, "free disk space or change paths.install_dir"),
	)
}

func firstOr(values []string, fallback string) string {
	if len(values) > 0 {
		return values[0]
	}
	return fallback
}
