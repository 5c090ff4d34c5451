package coordinator

import (
	"context"
	"errors"
	"fmt"

	"scribe/internal/bootstrap"
	"scribe/internal/console"
	"scribe/internal/fetch"
	"scribe/internal/history"
	"scribe/internal/services"
)

// Bootstrap downloads and installs the transcriber. It blocks until the
// job is installed, cancelled, or failed.
func (c *Coordinator) Bootstrap(ctx context.Context) (Outcome, error) {
	taskCtx, release, err := c.begin(ctx, StateBootstrapping)
	if err != nil {
		return Outcome{}, err
	}
	defer release()

	run := c.beginRun(taskCtx, history.KindBootstrap, "")
	out := c.finish(c.settle(c.bootstrap(taskCtx), MsgSetupCancelled))
	c.finishRun(run, out)
	return out, nil
}

func (c *Coordinator) bootstrap(ctx context.Context) Outcome {
	job, err := bootstrap.NewJob(c.cfg, c.goos)
	if err != nil {
		return failedOutcome("Setup failed: "+err.Error(), err)
	}
	c.console.Reset()
	c.console.Line(fmt.Sprintf("Setting up faster-whisper-xxl from %s", job.SourceURL))
	c.console.Line(console.Separator)

	err = c.bootstrapper.Run(ctx, job, &consoleSink{console: c.console})
	switch {
	case err == nil:
		return Outcome{Status: history.StatusSucceeded, Message: MsgSetupCompleted}
	case services.IsCancelled(err) || c.stopped():
		return cancelledOutcome(MsgSetupCancelled)
	default:
		phase := job.Phase().String()
		var perr *bootstrap.PhaseError
		if errors.As(err, &perr) {
			phase = perr.Phase.String()
			err = perr.Err
		}
		return failedOutcome(fmt.Sprintf("Setup failed during %s: %v", phase, err), err)
	}
}

// consoleSink renders bootstrap progress. Byte progress is only written
// when its text changes.
type consoleSink struct {
	console *console.Console
	last    string
}

func (s *consoleSink) Phase(bootstrap.Phase) {}

func (s *consoleSink) Progress(done, total int64) {
	text := fetch.DescribeProgress(done, total)
	if text == s.last {
		return
	}
	s.last = text
	s.console.Progress(text)
}

// Message keeps the last progress line on screen and appends msg below it.
func (s *consoleSink) Message(msg string) {
	if s.last != "" {
		s.console.Flush()
		s.last = ""
	}
	s.console.Line(msg)
}
