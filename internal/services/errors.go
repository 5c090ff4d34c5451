package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrStartFailure          = errors.New("start failure")
	ErrTransport             = errors.New("transport error")
	ErrToolNotFound          = errors.New("tool not found")
	ErrExtractionFailed      = errors.New("extraction failed")
	ErrStructureUnrecognized = errors.New("archive structure unrecognized")
	ErrVerificationFailed    = errors.New("verification failed")
	ErrProcessCrashed        = errors.New("process crashed")
	ErrConfiguration         = errors.New("configuration error")
	ErrValidation            = errors.New("validation error")

	// ErrCancelled marks a user-requested stop. It is a terminal outcome,
	// not a failure, and callers must not surface it as an error.
	ErrCancelled = errors.New("cancelled")
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrConfiguration
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsCancelled reports whether err represents a cancellation rather than a failure.
func IsCancelled(err error) bool {
	return errors.Is(err, ErrCancelled) || errors.Is(err, context.Canceled)
}

// Hint returns a short remediation hint for the error class, or "" when none applies.
func Hint(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrToolNotFound):
		return "install 7-Zip (Windows: 7-zip.org, Debian/Ubuntu: apt install p7zip-full, macOS: brew install sevenzip) or set bootstrap.extractor_path"
	case errors.Is(err, ErrTransport):
		return "check network access and retry; the release URL can be overridden in the [bootstrap] config section"
	case errors.Is(err, ErrExtractionFailed), errors.Is(err, ErrStructureUnrecognized):
		return "the downloaded archive may be corrupt or in an unexpected layout; retry setup"
	case errors.Is(err, ErrVerificationFailed):
		return "extracted files are missing or empty; check free disk space and retry setup"
	case errors.Is(err, ErrStartFailure):
		return "check that the executable exists, has execute permission, and its libraries are available; run 'scribe setup' to reinstall"
	case errors.Is(err, ErrProcessCrashed):
		return "the process crashed after starting; check the console output above"
	case errors.Is(err, ErrConfiguration), errors.Is(err, ErrValidation):
		return "check the configuration and settings files"
	default:
		return ""
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
