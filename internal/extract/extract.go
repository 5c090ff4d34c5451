package extract

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"scribe/internal/fileutil"
	"scribe/internal/logging"
	"scribe/internal/services"
)

// VerificationError names an expected file that is missing or empty after
// extraction.
type VerificationError struct {
	Name   string
	Reason string
}

func (e *VerificationError) Error() string {
	return fmt.Sprintf("verification failed: %s %s", e.Name, e.Reason)
}

func (e *VerificationError) Unwrap() error { return services.ErrVerificationFailed }

// Option configures an Extractor.
type Option func(*Extractor)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(e *Extractor) {
		if exec != nil {
			e.exec = exec
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Extractor) {
		e.logger = logger
	}
}

// WithTempRoot sets the parent directory for extraction temp dirs.
func WithTempRoot(dir string) Option {
	return func(e *Extractor) {
		e.tempRoot = dir
	}
}

// Extractor unpacks archives with 7-Zip.
type Extractor struct {
	toolOverride string
	exec         Executor
	logger       *slog.Logger
	tempRoot     string
}

// New constructs an Extractor. toolOverride may be empty to search for 7-Zip.
func New(toolOverride string, opts ...Option) *Extractor {
	e := &Extractor{
		toolOverride: strings.TrimSpace(toolOverride),
		exec:         commandExecutor{},
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = logging.NewComponentLogger(e.logger, "extract")
	return e
}

// Extract unpacks archivePath into destDir and verifies that every name in
// expected exists there with a non-zero size. The archive and the temp
// directory are always removed.
//
// The extraction tool is never interrupted. ctx is consulted once, after the
// tool has finished and before destDir is modified; a cancellation seen there
// returns an error matching services.ErrCancelled and leaves destDir intact.
func (e *Extractor) Extract(ctx context.Context, archivePath string, expected []string, destDir string) error {
	logger := logging.WithContext(ctx, e.logger)
	defer func() {
		if err := os.Remove(archivePath); err != nil && !os.IsNotExist(err) {
			logging.WarnWithContext(logger, "archive cleanup failed", "archive_cleanup_failed",
				logging.String("path", archivePath), logging.Error(err))
		}
	}()

	tool, err := ResolveTool(e.toolOverride)
	if err != nil {
		return err
	}

	tmp, err := os.MkdirTemp(e.tempRoot, "scribe-extract-*")
	if err != nil {
		return services.Wrap(services.ErrExtractionFailed, "extract", "create temp dir", "", err)
	}
	defer os.RemoveAll(tmp)

	args := []string{"x", archivePath, "-o" + tmp, "-y"}
	logger.Info("extracting archive", logging.String("tool", tool), logging.String("archive", archivePath))
	out, err := e.exec.Run(context.WithoutCancel(ctx), tool, args)
	if err != nil {
		return services.Wrap(services.ErrExtractionFailed, "extract", "run "+filepath.Base(tool), "", err)
	}
	if out.ExitCode != 0 {
		detail := strings.TrimSpace(out.Stderr)
		if detail == "" {
			detail = strings.TrimSpace(out.Stdout)
		}
		return services.Wrap(services.ErrExtractionFailed, "extract", "run "+filepath.Base(tool),
			fmt.Sprintf("exit code %d: %s", out.ExitCode, lastLines(detail, 5)), nil)
	}

	root, err := sourceRoot(tmp, expected)
	if err != nil {
		return err
	}

	if ctx.Err() != nil {
		logger.Info("extraction cancelled before install")
		return fmt.Errorf("extract %s: %w", archivePath, services.ErrCancelled)
	}

	if err := place(root, destDir); err != nil {
		return services.Wrap(services.ErrExtractionFailed, "extract", "install", destDir, err)
	}
	if err := verify(destDir, expected); err != nil {
		return err
	}
	if runtime.GOOS != "windows" {
		for _, name := range expected {
			if err := os.Chmod(filepath.Join(destDir, name), 0o755); err != nil {
				return services.Wrap(services.ErrExtractionFailed, "extract", "chmod", name, err)
			}
		}
	}
	logger.Info("archive installed", logging.String("dest", destDir), logging.Int("files", len(expected)))
	return nil
}

// sourceRoot picks the directory whose entries become the install contents:
// the first top-level directory of the extraction, or the extraction dir
// itself when the expected files were packed without a wrapper directory.
func sourceRoot(tmp string, expected []string) (string, error) {
	entries, err := os.ReadDir(tmp)
	if err != nil {
		return "", services.Wrap(services.ErrExtractionFailed, "extract", "read temp dir", tmp, err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			return filepath.Join(tmp, entry.Name()), nil
		}
	}
	for _, name := range expected {
		if _, err := os.Stat(filepath.Join(tmp, name)); err == nil {
			return tmp, nil
		}
	}
	return "", services.Wrap(services.ErrStructureUnrecognized, "extract", "locate contents",
		fmt.Sprintf("archive has no top-level directory and none of %s", strings.Join(expected, ", ")), nil)
}

func place(root, destDir string) error {
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return err
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if err := fileutil.ReplacePath(filepath.Join(root, entry.Name()), filepath.Join(destDir, entry.Name())); err != nil {
			return err
		}
	}
	return nil
}

func verify(destDir string, expected []string) error {
	for _, name := range expected {
		info, err := os.Stat(filepath.Join(destDir, name))
		switch {
		case err != nil:
			return &VerificationError{Name: name, Reason: "is missing"}
		case info.IsDir():
			return &VerificationError{Name: name, Reason: "is a directory"}
		case info.Size() == 0:
			return &VerificationError{Name: name, Reason: "is empty"}
		}
	}
	return nil
}

func lastLines(text string, n int) string {
	lines := strings.Split(text, "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, " | ")
}
