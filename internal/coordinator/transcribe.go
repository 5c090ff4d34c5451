package coordinator

import (
	"context"
	"fmt"
	"os"

	"scribe/internal/bootstrap"
	"scribe/internal/console"
	"scribe/internal/history"
	"scribe/internal/logging"
	"scribe/internal/process"
	"scribe/internal/services"
	"scribe/internal/services/whisper"
)

// Transcribe runs the transcriber on a local file with the current
// settings and blocks until the process ends.
func (c *Coordinator) Transcribe(ctx context.Context, input string) (Outcome, error) {
	taskCtx, release, err := c.begin(ctx, StateTranscribing)
	if err != nil {
		return Outcome{}, err
	}
	defer release()

	run := c.beginRun(taskCtx, history.KindTranscribe, input)
	out := c.finish(c.settle(c.transcribe(taskCtx, input), MsgStopped))
	c.finishRun(run, out)
	return out, nil
}

func (c *Coordinator) transcribe(ctx context.Context, input string) Outcome {
	logger := logging.WithContext(ctx, c.logger)
	info, err := os.Stat(input)
	if err != nil || !info.Mode().IsRegular() {
		err = services.Wrap(services.ErrValidation, "transcribe", "input", fmt.Sprintf("input file not found: %s", input), err)
		return failedOutcome("Input file not found: "+input, err)
	}

	loc := bootstrap.Locate(c.cfg)
	if !loc.Found() {
		err := services.Wrap(services.ErrStartFailure, "transcribe", "locate", "faster-whisper-xxl is not installed; run 'scribe setup'", nil)
		return failedOutcome("faster-whisper-xxl not found.", err)
	}

	snapshot := c.settings.Current()
	outDir, err := whisper.OutputDir(snapshot)
	if err != nil {
		err = services.Wrap(services.ErrConfiguration, "transcribe", "output dir", "create output directory", err)
		return failedOutcome("Cannot create output directory.", err)
	}
	argv := whisper.BuildCommand(loc.Executable, input, outDir, snapshot)

	c.console.Reset()
	c.console.Line("Running command:")
	c.console.Line(whisper.DisplayCommand(argv))
	c.console.Line(console.Separator)

	session, err := c.start(ctx, argv,
		process.WithLogger(logger),
		process.WithStopGrace(c.cfg.StopGrace()),
		process.WithSuccessMarkers(whisper.SuccessMarkers...),
	)
	if err != nil {
		c.processError(err.Error())
		return failedOutcome("Process failed to start.", err)
	}

	c.mu.Lock()
	c.session = session
	pending := c.stopRequested
	c.mu.Unlock()
	if pending {
		session.RequestStop()
	}

	var result *process.Result
	for ev := range session.Events() {
		switch ev.Kind {
		case process.EventStdout, process.EventStderr:
			_, _ = c.console.Write(ev.Data)
		case process.EventTerminated:
			result = ev.Result
		}
	}
	if result == nil {
		r := session.Wait()
		result = &r
	}

	code := result.ExitCode
	out := Outcome{ExitCode: &code, Input: input}
	switch result.Outcome {
	case process.OutcomeStopped:
		out.Status = history.StatusCancelled
		out.Message = MsgStopped
	case process.OutcomeSuccess:
		out.Status = history.StatusSucceeded
		out.Message = MsgCompleted
		out.Outputs = whisper.ExistingOutputs(input, outDir, snapshot)
	case process.OutcomeCrashed:
		c.console.Flush()
		c.processError("Crashed: The process crashed some time after starting.")
		out.Status = history.StatusFailed
		out.Message = fmt.Sprintf("Process Crashed with exit code %d.", code)
		out.Err = services.Wrap(services.ErrProcessCrashed, "transcribe", "process", "terminated by "+signalName(result.Signal), nil)
	default:
		out.Status = history.StatusFailed
		out.Message = fmt.Sprintf("Process Failed with exit code %d.", code)
		out.Err = fmt.Errorf("transcriber exited with code %d", code)
	}
	return out
}

// processError renders the framed error block shown when the transcriber
// cannot start or dies abnormally.
func (c *Coordinator) processError(detail string) {
	c.console.Line(console.Separator)
	c.console.Line("PROCESS ERROR:")
	c.console.Line(detail)
	c.console.Line(console.Separator)
}

func signalName(sig string) string {
	if sig == "" {
		return "signal"
	}
	return sig
}
