package ytdlp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"scribe/internal/logging"
	"scribe/internal/services"
)

const (
	audioFormat  = "bestaudio/best"
	videoFormat  = "bestvideo[ext=mp4]+bestaudio[ext=m4a]/best[ext=mp4]/best"
	outputLayout = "%(title)s.%(ext)s"
)

// Option configures the client.
type Option func(*Client)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(c *Client) {
		if exec != nil {
			c.exec = exec
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithFFmpegLocation points yt-dlp at a specific ffmpeg binary or directory.
func WithFFmpegLocation(path string) Option {
	return func(c *Client) {
		c.ffmpeg = strings.TrimSpace(path)
	}
}

// Client wraps yt-dlp CLI interactions.
type Client struct {
	binary string
	ffmpeg string
	exec   Executor
	logger *slog.Logger
}

// New constructs a yt-dlp client.
func New(binary string, opts ...Option) (*Client, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("yt-dlp binary required")
	}
	client := &Client{
		binary: binary,
		exec:   commandExecutor{},
	}
	for _, opt := range opts {
		opt(client)
	}
	client.logger = logging.NewComponentLogger(client.logger, "ytdlp")
	return client, nil
}

// Args returns the yt-dlp arguments for one download.
func (c *Client) Args(url, destDir string, audioOnly bool) []string {
	args := []string{"--no-playlist", "--newline", "--progress"}
	if audioOnly {
		args = append(args, "-f", audioFormat, "-x", "--audio-format", "mp3", "--audio-quality", "192K")
	} else {
		args = append(args, "-f", videoFormat)
	}
	if c.ffmpeg != "" {
		args = append(args, "--ffmpeg-location", c.ffmpeg)
	}
	args = append(args,
		"-o", filepath.Join(destDir, outputLayout),
		"--print", "after_move:filepath",
		url,
	)
	return args
}

// Fetch downloads url into destDir and returns the final file path. Every
// output line is a cancellation checkpoint; a cancelled ctx stops the
// download and yields services.ErrCancelled.
func (c *Client) Fetch(ctx context.Context, url, destDir string, audioOnly bool, progress func(string)) (string, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return "", services.Wrap(services.ErrValidation, "fetch", "url", "media URL required", nil)
	}
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", fmt.Errorf("create download directory: %w", err)
	}
	if progress == nil {
		progress = func(string) {}
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		candidates []string
		lastError  string
		processing bool
	)
	c.logger.Info("media download starting",
		logging.String("url", url),
		logging.Bool("audio_only", audioOnly),
	)
	err := c.exec.Run(runCtx, c.binary, c.Args(url, destDir, audioOnly), func(line string) {
		if ctx.Err() != nil {
			cancel()
			return
		}
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "":
		case strings.HasPrefix(trimmed, "ERROR:"):
			lastError = strings.TrimSpace(strings.TrimPrefix(trimmed, "ERROR:"))
			progress(trimmed)
		case strings.HasPrefix(trimmed, "WARNING:"):
			c.logger.Debug("yt-dlp warning", logging.String("line", trimmed))
		case isPostProcessing(trimmed) || isCompleteDownload(trimmed):
			if text, ok := translateProgress(trimmed); ok {
				progress(text)
			}
			if !processing {
				processing = true
				progress(ProcessingMessage)
			}
		case strings.HasPrefix(trimmed, "["):
			if text, ok := translateProgress(trimmed); ok {
				progress(text)
			}
		default:
			candidates = append(candidates, trimmed)
		}
	})

	if ctx.Err() != nil {
		c.logger.Info("media download cancelled", logging.String("url", url))
		return "", fmt.Errorf("download %s: %w", url, services.ErrCancelled)
	}
	if err != nil {
		msg := lastError
		if msg == "" {
			msg = "yt-dlp exited with an error"
		}
		return "", services.Wrap(services.ErrTransport, "fetch", "yt-dlp", msg, err)
	}

	path := finalPath(candidates)
	if path == "" {
		return "", services.Wrap(services.ErrTransport, "fetch", "post-processing", "post-processing failed: downloaded file not found", nil)
	}
	c.logger.Info("media download finished", logging.String("path", path))
	return path, nil
}

// finalPath returns the last printed line naming an existing regular file.
func finalPath(candidates []string) string {
	for i := len(candidates) - 1; i >= 0; i-- {
		info, err := os.Stat(candidates[i])
		if err == nil && info.Mode().IsRegular() {
			return candidates[i]
		}
	}
	return ""
}
