// Package fetch streams a remote archive to local disk with progress
// reporting and cooperative cancellation.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"

	"scribe/internal/logging"
	"scribe/internal/services"
)

const (
	// ChunkSize bounds how much is written between cancellation checks.
	ChunkSize = 8 * 1024
	// DefaultConnectTimeout applies to dialing, TLS, and waiting for response headers.
	DefaultConnectTimeout = 15 * time.Second
)

// ProgressFunc receives the bytes written so far and the expected total.
// A total of 0 means the server did not report a length.
type ProgressFunc func(done, total int64)

// Fetcher downloads a single URL to a file.
type Fetcher struct {
	client *http.Client
	logger *slog.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient overrides the HTTP client (tests).
func WithHTTPClient(client *http.Client) Option {
	return func(f *Fetcher) {
		if client != nil {
			f.client = client
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Fetcher) {
		f.logger = logger
	}
}

// New constructs a Fetcher whose connection setup is bounded by
// connectTimeout. The body transfer itself has no deadline since the release
// archive is well over a gigabyte.
func New(connectTimeout time.Duration, opts ...Option) *Fetcher {
	if connectTimeout <= 0 {
		connectTimeout = DefaultConnectTimeout
	}
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: connectTimeout, KeepAlive: 30 * time.Second}).DialContext,
		TLSHandshakeTimeout:   connectTimeout,
		ResponseHeaderTimeout: connectTimeout,
		ForceAttemptHTTP2:     true,
	}
	f := &Fetcher{client: &http.Client{Transport: transport}}
	for _, opt := range opts {
		opt(f)
	}
	f.logger = logging.NewComponentLogger(f.logger, "fetch")
	return f
}

// Fetch downloads url into destPath. Cancelling ctx stops the transfer within
// one chunk, deletes the partial file, and returns an error matching
// services.ErrCancelled. Network and status failures match
// services.ErrTransport and leave any partial file in place.
func (f *Fetcher) Fetch(ctx context.Context, url, destPath string, onProgress ProgressFunc) error {
	logger := logging.WithContext(ctx, f.logger)
	if ctx.Err() != nil {
		return fmt.Errorf("download %s: %w", url, services.ErrCancelled)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return services.Wrap(services.ErrTransport, "fetch", "build request", url, err)
	}
	req.Header.Set("User-Agent", "scribe")

	logger.Info("download started", logging.String("url", url), logging.String("dest", destPath))
	resp, err := f.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("download %s: %w", url, services.ErrCancelled)
		}
		return services.Wrap(services.ErrTransport, "fetch", "request", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return services.Wrap(services.ErrTransport, "fetch", "request", fmt.Sprintf("%s: unexpected status %s", url, resp.Status), nil)
	}

	total := resp.ContentLength
	if total < 0 {
		total = 0
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return services.Wrap(services.ErrTransport, "fetch", "create directory", filepath.Dir(destPath), err)
	}
	out, err := os.Create(destPath)
	if err != nil {
		return services.Wrap(services.ErrTransport, "fetch", "create file", destPath, err)
	}

	cancelled := func() error {
		_ = out.Close()
		_ = os.Remove(destPath)
		logger.Info("download cancelled", logging.String("dest", destPath))
		return fmt.Errorf("download %s: %w", url, services.ErrCancelled)
	}

	sampler := logging.NewProgressSampler(5)
	buf := make([]byte, ChunkSize)
	var done int64
	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			if _, err := out.Write(buf[:n]); err != nil {
				_ = out.Close()
				return services.Wrap(services.ErrTransport, "fetch", "write", destPath, err)
			}
			done += int64(n)
			if onProgress != nil {
				onProgress(done, total)
			}
			f.logProgress(logger, sampler, done, total)
		}
		if ctx.Err() != nil {
			return cancelled()
		}
		if errors.Is(readErr, io.EOF) {
			break
		}
		if readErr != nil {
			_ = out.Close()
			return services.Wrap(services.ErrTransport, "fetch", "read body", url, readErr)
		}
	}

	if err := out.Close(); err != nil {
		return services.Wrap(services.ErrTransport, "fetch", "close file", destPath, err)
	}
	if total > 0 && done != total {
		return services.Wrap(services.ErrTransport, "fetch", "read body",
			fmt.Sprintf("short download: got %d of %d bytes", done, total), io.ErrUnexpectedEOF)
	}
	logger.Info("download finished", logging.String("dest", destPath), logging.String("size", humanize.IBytes(uint64(done))))
	return nil
}

func (f *Fetcher) logProgress(logger *slog.Logger, sampler *logging.ProgressSampler, done, total int64) {
	if !sampler.ShouldLog(done, total) {
		return
	}
	percent := -1.0
	if total > 0 {
		percent = float64(done) * 100 / float64(total)
	}
	logger.Debug("download progress",
		logging.String("done", humanize.IBytes(uint64(done))),
		logging.String("total", humanize.IBytes(uint64(total))),
		logging.Float64("percent", percent),
	)
}

// DescribeProgress renders a human-readable progress line such as
// "Downloading: 42% (600 MiB of 1.4 GiB)".
func DescribeProgress(done, total int64) string {
	if total <= 0 {
		return fmt.Sprintf("Downloading: %s", humanize.IBytes(uint64(done)))
	}
	percent := float64(done) * 100 / float64(total)
	return fmt.Sprintf("Downloading: %.0f%% (%s of %s)", percent, humanize.IBytes(uint64(done)), humanize.IBytes(uint64(total)))
}
