package process

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"scribe/internal/logging"
	"scribe/internal/services"
)

const (
	// DefaultStopGrace is how long a stopping process has before it is killed.
	DefaultStopGrace = 2 * time.Second
	readChunkSize    = 4096
	eventBuffer      = 256
	// drainDelay bounds how long output is read after the process exits.
	// Helpers it spawned may still hold the streams open.
	drainDelay = 2 * time.Second
)

// Option configures a Session.
type Option func(*Session)

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}

// WithStopGrace overrides the graceful stop window.
func WithStopGrace(d time.Duration) Option {
	return func(s *Session) {
		if d > 0 {
			s.grace = d
		}
	}
}

// WithSuccessMarkers sets the output substrings that mark a successful run.
func WithSuccessMarkers(markers ...string) Option {
	return func(s *Session) {
		s.markers = append([]string(nil), markers...)
	}
}

// Session is one supervised child process.
type Session struct {
	id      string
	command []string
	logger  *slog.Logger
	grace   time.Duration
	markers []string

	cmd    *exec.Cmd
	events chan Event
	done   chan struct{}

	mu            sync.Mutex
	state         State
	requestedStop bool
	killTimer     *time.Timer
	result        Result

	markerSeen  atomic.Bool
	stopWatcher func() bool
}

// Start validates and launches command[0] with the remaining arguments.
// Any failure to launch matches services.ErrStartFailure. Cancelling ctx
// requests a stop, exactly like RequestStop.
//
// The caller must drain Events until it is closed; the session blocks its
// output readers when the channel is full.
func Start(ctx context.Context, command []string, opts ...Option) (*Session, error) {
	s := &Session{
		id:      uuid.NewString(),
		command: append([]string(nil), command...),
		grace:   DefaultStopGrace,
		events:  make(chan Event, eventBuffer),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = logging.WithContext(services.WithSessionID(ctx, s.id), logging.NewComponentLogger(s.logger, "process"))

	if len(command) == 0 || strings.TrimSpace(command[0]) == "" {
		return nil, services.Wrap(services.ErrStartFailure, "process", "start", "empty command", nil)
	}
	executable, err := resolveExecutable(command[0])
	if err != nil {
		return nil, services.Wrap(services.ErrStartFailure, "process", "start", command[0], err)
	}

	cmd := exec.Command(executable, command[1:]...) //nolint:gosec
	configureProcAttr(cmd)
	outR, outW, err := os.Pipe()
	if err != nil {
		return nil, services.Wrap(services.ErrStartFailure, "process", "stdout pipe", "", err)
	}
	errR, errW, err := os.Pipe()
	if err != nil {
		closeAll(outR, outW)
		return nil, services.Wrap(services.ErrStartFailure, "process", "stderr pipe", "", err)
	}
	// The child gets the write ends directly, so cmd.Wait returns as soon
	// as it exits rather than when every holder of the pipes has closed them.
	cmd.Stdout = outW
	cmd.Stderr = errW
	if err := cmd.Start(); err != nil {
		closeAll(outR, outW, errR, errW)
		return nil, services.Wrap(services.ErrStartFailure, "process", "start", executable, err)
	}
	closeAll(outW, errW)
	s.cmd = cmd
	s.state = StateRunning
	s.logger.Info("process started",
		logging.Int("pid", cmd.Process.Pid),
		logging.String("executable", executable),
		logging.Int("args", len(command)-1),
	)

	s.stopWatcher = context.AfterFunc(ctx, s.RequestStop)

	var readers sync.WaitGroup
	readers.Add(2)
	go s.pump(&readers, outR, EventStdout)
	go s.pump(&readers, errR, EventStderr)
	go s.wait(&readers, outR, errR)
	return s, nil
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// PID returns the child process ID.
func (s *Session) PID() int { return s.cmd.Process.Pid }

// Command returns a copy of the launched command line.
func (s *Session) Command() []string { return append([]string(nil), s.command...) }

// Events returns the output and termination event stream. It is closed
// right after the EventTerminated event.
func (s *Session) Events() <-chan Event { return s.events }

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Done is closed once the process has exited and both streams are drained.
func (s *Session) Done() <-chan struct{} { return s.done }

// Wait blocks until the session has finished and returns its result.
func (s *Session) Wait() Result {
	<-s.done
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}

// RequestStop asks the process to terminate. The process gets the grace
// period to exit after the terminate signal and is then killed. Calling it
// again, or once the process has exited (even while its remaining output is
// still being read), has no effect.
func (s *Session) RequestStop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateRunning {
		return
	}
	s.state = StateStopping
	s.requestedStop = true
	s.logger.Info("stop requested", logging.Duration("grace", s.grace))
	if err := terminate(s.cmd.Process); err != nil && !errors.Is(err, os.ErrProcessDone) {
		s.logger.Debug("terminate signal failed", logging.Error(err))
	}
	s.killTimer = time.AfterFunc(s.grace, s.forceKill)
}

func (s *Session) forceKill() {
	select {
	case <-s.done:
		return
	default:
	}
	s.logger.Warn("process did not exit within grace period; killing",
		logging.String(logging.FieldEventType, "process_force_kill"),
		logging.String(logging.FieldErrorHint, "the process ignored the terminate signal"),
	)
	if err := kill(s.cmd.Process); err != nil && !errors.Is(err, os.ErrProcessDone) {
		s.logger.Debug("kill failed", logging.Error(err))
	}
}

func (s *Session) pump(wg *sync.WaitGroup, r io.Reader, kind EventKind) {
	defer wg.Done()
	scanner := newMarkerScanner(s.markers, &s.markerSeen)
	buf := make([]byte, readChunkSize)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			chunk := append([]byte(nil), buf[:n]...)
			scanner.scan(chunk)
			s.events <- Event{Kind: kind, Data: chunk}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, os.ErrClosed) {
				s.logger.Debug("stream read ended", logging.Error(err))
			}
			return
		}
	}
}

func (s *Session) wait(readers *sync.WaitGroup, streams ...*os.File) {
	waitErr := s.cmd.Wait()

	exitCode := 0
	signaled := false
	signal := ""
	if ps := s.cmd.ProcessState; ps != nil {
		exitCode = ps.ExitCode()
		signaled, signal = signalInfo(ps)
	} else if waitErr != nil {
		exitCode = -1
		signaled = true
	}

	// Record the exit before draining so a stop arriving from here on is
	// ignored.
	s.stopWatcher()
	s.mu.Lock()
	if s.killTimer != nil {
		s.killTimer.Stop()
	}
	requestedStop := s.requestedStop
	if signaled {
		s.state = StateCrashed
	} else {
		s.state = StateExited
	}
	s.mu.Unlock()

	s.drain(readers, streams)

	result := Result{
		ExitCode:          exitCode,
		Crashed:           signaled,
		Signal:            signal,
		SuccessMarkerSeen: s.markerSeen.Load(),
		RequestedStop:     requestedStop,
	}
	result.Outcome = classify(result.RequestedStop, result.SuccessMarkerSeen, signaled, exitCode)
	s.mu.Lock()
	s.result = result
	s.mu.Unlock()

	s.logger.Info("process finished",
		logging.String("outcome", result.Outcome.String()),
		logging.Int("exit_code", exitCode),
		logging.Bool("success_marker", result.SuccessMarkerSeen),
		logging.String("signal", signal),
	)

	close(s.done)
	s.events <- Event{Kind: EventTerminated, Result: &result}
	close(s.events)
}

// drain waits for both readers to reach EOF. If a leftover helper still
// holds the streams after drainDelay, the read ends are closed to release
// the readers.
func (s *Session) drain(readers *sync.WaitGroup, streams []*os.File) {
	drained := make(chan struct{})
	go func() {
		readers.Wait()
		close(drained)
	}()
	timer := time.NewTimer(drainDelay)
	defer timer.Stop()
	select {
	case <-drained:
	case <-timer.C:
		logging.WarnWithContext(s.logger, "output still open after exit; closing", "process_output_held",
			logging.Duration("delay", drainDelay),
			logging.String(logging.FieldErrorHint, "a helper started by the process kept its output open"),
		)
		closeAll(streams...)
		<-drained
	}
	closeAll(streams...)
}

func closeAll(files ...*os.File) {
	for _, f := range files {
		_ = f.Close()
	}
}

// resolveExecutable checks that name refers to an existing, executable
// regular file.
func resolveExecutable(name string) (string, error) {
	path := name
	if !strings.ContainsRune(name, os.PathSeparator) && !strings.ContainsRune(name, '/') {
		resolved, err := exec.LookPath(name)
		if err != nil {
			return "", err
		}
		path = resolved
	}
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("%s is not a regular file", path)
	}
	if err := checkExecutable(path); err != nil {
		return "", fmt.Errorf("%s is not executable: %w", filepath.Base(path), err)
	}
	return path, nil
}
