package coordinator

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"scribe/internal/bootstrap"
	"scribe/internal/config"
	"scribe/internal/console"
	"scribe/internal/deps"
	"scribe/internal/extract"
	"scribe/internal/fetch"
	"scribe/internal/history"
	"scribe/internal/logging"
	"scribe/internal/process"
	"scribe/internal/services"
	"scribe/internal/services/ytdlp"
	"scribe/internal/settings"
)

// Bootstrapper provisions the transcriber.
type Bootstrapper interface {
	Run(ctx context.Context, job *bootstrap.Job, sink bootstrap.ProgressSink) error
}

// MediaFetcher downloads media from a URL.
type MediaFetcher interface {
	Fetch(ctx context.Context, url, destDir string, audioOnly bool, progress func(string)) (string, error)
}

// SessionStarter launches a supervised process.
type SessionStarter func(ctx context.Context, command []string, opts ...process.Option) (*process.Session, error)

// Recorder stores run history.
type Recorder interface {
	Begin(ctx context.Context, kind history.Kind, input string) (*history.Run, error)
	Finish(ctx context.Context, run *history.Run) error
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Coordinator) { c.logger = logger }
}

// WithBootstrapper replaces the default orchestrator.
func WithBootstrapper(b Bootstrapper) Option {
	return func(c *Coordinator) { c.bootstrapper = b }
}

// WithMediaFetcher replaces the default yt-dlp client.
func WithMediaFetcher(m MediaFetcher) Option {
	return func(c *Coordinator) { c.media = m }
}

// WithSessionStarter replaces process.Start.
func WithSessionStarter(s SessionStarter) Option {
	return func(c *Coordinator) { c.start = s }
}

// WithRecorder records runs in r.
func WithRecorder(r Recorder) Option {
	return func(c *Coordinator) { c.recorder = r }
}

// WithGOOS overrides the platform used to pick the release archive.
func WithGOOS(goos string) Option {
	return func(c *Coordinator) { c.goos = goos }
}

// tailLines is how many console lines a finished run keeps in its detail.
const tailLines = 20

// Coordinator serializes foreground tasks and renders their outcome.
type Coordinator struct {
	cfg          *config.Config
	settings     *settings.Manager
	console      *console.Console
	tail         *console.Transcript
	bootstrapper Bootstrapper
	media        MediaFetcher
	start        SessionStarter
	recorder     Recorder
	logger       *slog.Logger
	goos         string
	lock         *flock.Flock

	mu            sync.Mutex
	state         State
	stopRequested bool
	cancel        context.CancelFunc
	session       *process.Session
}

// New builds a coordinator. Collaborators not supplied through options are
// constructed from cfg.
func New(cfg *config.Config, mgr *settings.Manager, out *console.Console, opts ...Option) (*Coordinator, error) {
	if cfg == nil || mgr == nil || out == nil {
		return nil, fmt.Errorf("coordinator: config, settings, and console are required")
	}
	c := &Coordinator{
		cfg:      cfg,
		settings: mgr,
		console:  out,
		tail:     console.NewTranscript(tailLines),
		start:    process.Start,
		goos:     runtime.GOOS,
		lock:     flock.New(cfg.LockPath()),
	}
	for _, opt := range opts {
		opt(c)
	}
	out.Attach(c.tail)
	c.logger = logging.NewComponentLogger(c.logger, "coordinator")
	if c.bootstrapper == nil {
		fetcher := fetch.New(cfg.ConnectTimeout(), fetch.WithLogger(c.logger))
		extractor := extract.New(cfg.Bootstrap.ExtractorPath, extract.WithLogger(c.logger))
		c.bootstrapper = bootstrap.New(fetcher, extractor, bootstrap.WithLogger(c.logger))
	}
	if c.media == nil {
		ytOpts := []ytdlp.Option{ytdlp.WithLogger(c.logger)}
		if ff := installedFFmpeg(cfg); ff != "" {
			ytOpts = append(ytOpts, ytdlp.WithFFmpegLocation(ff))
		}
		client, err := ytdlp.New(cfg.Tools.YtDlp, ytOpts...)
		if err != nil {
			return nil, fmt.Errorf("coordinator: %w", err)
		}
		c.media = client
	}
	return c, nil
}

// State returns a snapshot of the current activity.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// NeedsBootstrap reports whether the transcriber is missing from both the
// install directory and PATH.
func (c *Coordinator) NeedsBootstrap() bool {
	return !bootstrap.Locate(c.cfg).Found()
}

// Stop requests cancellation of the running task. It returns false when
// nothing is running or a stop is already in progress. It never blocks on
// the task itself.
func (c *Coordinator) Stop() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateIdle || c.state == StateCancelling {
		return false
	}
	prev := c.state
	c.state = StateCancelling
	c.stopRequested = true
	c.logger.Info("stop requested", logging.String("state", prev.String()))

	c.console.Flush()
	switch prev {
	case StateBootstrapping, StateFetching:
		c.console.Line("Requesting download cancellation...")
	case StateTranscribing:
		c.console.Line("Terminating process...")
	}
	if c.session != nil {
		c.session.RequestStop()
	}
	if c.cancel != nil {
		c.cancel()
	}
	return true
}

// begin claims the coordinator for a task. The returned context is
// cancelled by Stop; release must be called when the task ends.
func (c *Coordinator) begin(ctx context.Context, state State) (context.Context, func(), error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateIdle {
		return nil, nil, ErrBusy
	}
	if err := os.MkdirAll(filepath.Dir(c.lock.Path()), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create state directory: %w", err)
	}
	locked, err := c.lock.TryLock()
	if err != nil {
		return nil, nil, fmt.Errorf("acquire task lock: %w", err)
	}
	if !locked {
		return nil, nil, fmt.Errorf("%w (lock held by another scribe process: %s)", ErrBusy, c.lock.Path())
	}

	c.markAbandoned(ctx)

	taskCtx, cancel := context.WithCancel(services.WithTaskID(ctx, uuid.NewString()))
	c.state = state
	c.stopRequested = false
	c.cancel = cancel
	release := func() {
		cancel()
		c.mu.Lock()
		c.state = StateIdle
		c.cancel = nil
		c.session = nil
		c.stopRequested = false
		c.mu.Unlock()
		if err := c.lock.Unlock(); err != nil {
			c.logger.Warn("task lock release failed", logging.Error(err))
		}
	}
	return taskCtx, release, nil
}

func (c *Coordinator) stopped() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stopRequested
}

// advance moves a running task to next unless a stop is pending.
func (c *Coordinator) advance(next State) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopRequested {
		return false
	}
	c.state = next
	return true
}

// markAbandoned closes out runs left running by a process that died while
// holding the task lock. The caller holds the lock.
func (c *Coordinator) markAbandoned(ctx context.Context) {
	sweeper, ok := c.recorder.(interface {
		MarkAbandoned(ctx context.Context) (int64, error)
	})
	if !ok {
		return
	}
	n, err := sweeper.MarkAbandoned(ctx)
	if err != nil {
		logging.WarnWithContext(c.logger, "abandoned run sweep failed", "history_write_failed", logging.Error(err))
		return
	}
	if n > 0 {
		c.logger.Info("marked abandoned runs", logging.Int64("count", n))
	}
}

func (c *Coordinator) beginRun(ctx context.Context, kind history.Kind, input string) *history.Run {
	c.tail.Clear()
	if c.recorder == nil {
		return nil
	}
	run, err := c.recorder.Begin(ctx, kind, input)
	if err != nil {
		logging.WarnWithContext(c.logger, "history record failed", "history_write_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "run history will be incomplete"),
		)
		return nil
	}
	return run
}

func (c *Coordinator) finishRun(run *history.Run, out Outcome) {
	if c.recorder == nil || run == nil {
		return
	}
	run.Status = out.Status
	run.ExitCode = out.ExitCode
	run.Detail = out.Message
	if out.Err != nil {
		run.Detail = out.Message + ": " + out.Err.Error()
	}
	if tail := c.tail.Tail(tailLines); tail != "" {
		run.Detail += "\n\n" + tail
	}
	run.Output = strings.Join(out.Outputs, "\n")
	if err := c.recorder.Finish(context.Background(), run); err != nil {
		logging.WarnWithContext(c.logger, "history update failed", "history_write_failed",
			logging.String("run_id", run.ID),
			logging.Error(err),
		)
	}
}

// finish renders the closing separator and outcome line.
func (c *Coordinator) finish(out Outcome) Outcome {
	c.console.Flush()
	c.console.Line(console.Separator)
	c.console.Line(out.Message)
	if out.Status == history.StatusFailed {
		if hint := services.Hint(out.Err); hint != "" {
			c.console.Line("Hint: " + hint)
		}
	}
	for _, path := range out.Outputs {
		c.console.Line("Output: " + path)
	}
	c.console.Flush()

	attrs := []logging.Attr{
		logging.String("status", string(out.Status)),
		logging.String("message", out.Message),
	}
	if out.Err != nil {
		attrs = append(attrs, logging.Error(out.Err), logging.String(logging.FieldErrorHint, services.Hint(out.Err)))
		logging.ErrorWithContext(c.logger, "task failed", "task_failed", attrs...)
	} else {
		c.logger.Info("task finished", logging.Args(attrs...)...)
	}
	return out
}

// settle reports a failure that raced a user stop as a cancellation.
func (c *Coordinator) settle(out Outcome, stoppedMsg string) Outcome {
	if out.Status == history.StatusFailed && c.stopped() {
		c.logger.Info("suppressing failure after stop", logging.Error(out.Err))
		stopped := cancelledOutcome(stoppedMsg)
		stopped.Outputs = out.Outputs
		return stopped
	}
	return out
}

func cancelledOutcome(msg string) Outcome {
	return Outcome{Status: history.StatusCancelled, Message: msg}
}

func failedOutcome(msg string, err error) Outcome {
	return Outcome{Status: history.StatusFailed, Message: msg, Err: err}
}

func installedFFmpeg(cfg *config.Config) string {
	path := filepath.Join(cfg.Paths.InstallDir, deps.ExecutableName(cfg.Tools.FFmpeg))
	if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() {
		return path
	}
	return ""
}
