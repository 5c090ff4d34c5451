package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"scribe/internal/config"
)

// LogFileName is the file created inside the configured log directory.
const LogFileName = "scribe.log"

// Options describes logger construction parameters.
type Options struct {
	Level  string
	Format string
	// FilePath receives every record at or above Level. Empty disables file output.
	FilePath string
	// Stderr receives records at or above StderrLevel. Nil disables it.
	Stderr      io.Writer
	StderrLevel slog.Level
	Development bool
}

// New constructs a slog logger using the provided options. The returned
// closer releases the log file and is never nil.
func New(opts Options) (*slog.Logger, io.Closer, error) {
	level := parseLevel(opts.Level)
	levelVar := new(slog.LevelVar)
	levelVar.Set(level)
	addSource := opts.Development || level <= slog.LevelDebug

	format := strings.ToLower(strings.TrimSpace(opts.Format))
	if format == "" {
		format = "console"
	}
	if format != "console" && format != "json" {
		return nil, nopCloser{}, fmt.Errorf("log format: unsupported value %q", opts.Format)
	}

	var closer io.Closer = nopCloser{}
	var routes []route
	if path := strings.TrimSpace(opts.FilePath); path != "" {
		file, err := openLogFile(path)
		if err != nil {
			return nil, closer, err
		}
		closer = file
		routes = append(routes, route{handler: newFileHandler(format, file, levelVar, addSource)})
	}
	if opts.Stderr != nil {
		routes = append(routes, route{
			handler: newTextHandler(opts.Stderr, levelVar, true, false),
			min:     opts.StderrLevel,
		})
	}
	return slog.New(newRouter(routes...)), closer, nil
}

// NewFromConfig creates a logger that writes to scribe.log in the configured
// log directory and mirrors warnings and errors to stderr.
func NewFromConfig(cfg *config.Config) (*slog.Logger, io.Closer, error) {
	opts := Options{
		Level:       "info",
		Format:      "console",
		Stderr:      os.Stderr,
		StderrLevel: slog.LevelWarn,
	}
	if cfg != nil {
		opts.Level = cfg.Logging.Level
		opts.Format = cfg.Logging.Format
		if cfg.Paths.LogDir != "" {
			opts.FilePath = filepath.Join(cfg.Paths.LogDir, LogFileName)
		}
	}
	return New(opts)
}

func newFileHandler(format string, w io.Writer, lvl slog.Leveler, addSource bool) slog.Handler {
	if format == "json" {
		return slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level:       lvl,
			AddSource:   addSource,
			ReplaceAttr: jsonAttr,
		})
	}
	return newTextHandler(w, lvl, false, addSource)
}

// jsonAttr renames the built-in keys and normalizes times to UTC.
func jsonAttr(groups []string, a slog.Attr) slog.Attr {
	if len(groups) > 0 {
		return a
	}
	switch a.Key {
	case slog.TimeKey:
		if a.Value.Kind() == slog.KindTime {
			return slog.String("ts", a.Value.Time().UTC().Format(time.RFC3339Nano))
		}
	case slog.LevelKey:
		return slog.String("level", strings.ToLower(a.Value.String()))
	case slog.MessageKey:
		a.Key = "msg"
	}
	return a
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func openLogFile(path string) (*os.File, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("ensure log directory: %w", err)
		}
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o664)
	if err != nil {
		return nil, fmt.Errorf("open log file %s: %w", path, err)
	}
	return file, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
