package coordinator

import (
	"context"
	"errors"
	"strings"

	"scribe/internal/console"
	"scribe/internal/history"
	"scribe/internal/services"
	"scribe/internal/services/whisper"
	"scribe/internal/services/ytdlp"
)

// FetchAndTranscribe downloads url into the output directory and, unless
// stopped in the meantime, transcribes the downloaded file.
func (c *Coordinator) FetchAndTranscribe(ctx context.Context, url string) (Outcome, error) {
	taskCtx, release, err := c.begin(ctx, StateFetching)
	if err != nil {
		return Outcome{}, err
	}
	defer release()

	run := c.beginRun(taskCtx, history.KindFetch, url)
	out := c.finish(c.settle(c.fetchAndTranscribe(taskCtx, url), MsgStopped))
	c.finishRun(run, out)
	return out, nil
}

func (c *Coordinator) fetchAndTranscribe(ctx context.Context, url string) Outcome {
	snapshot := c.settings.Current()
	destDir, err := whisper.OutputDir(snapshot)
	if err != nil {
		err = services.Wrap(services.ErrConfiguration, "fetch", "output dir", "create output directory", err)
		return failedOutcome("Cannot create output directory.", err)
	}

	c.console.Reset()
	c.console.Line("Starting download from: " + url)
	c.console.Line(console.Separator)

	path, err := c.media.Fetch(ctx, url, destDir, snapshot.AudioOnly, func(line string) {
		if strings.HasPrefix(line, ytdlp.ProgressPrefix) {
			c.console.Progress(line)
			return
		}
		c.console.Line(line)
	})
	switch {
	case err == nil:
	case services.IsCancelled(err) || c.stopped():
		return cancelledOutcome(MsgStopped)
	case errors.Is(err, services.ErrValidation):
		return failedOutcome("Download Error: "+err.Error(), err)
	default:
		return failedOutcome("YouTube Download Error:\n"+downloadDetail(err), err)
	}

	c.console.Flush()
	c.console.Line("Download finished, output file:")
	c.console.Line(path)
	c.console.Line(console.Separator)

	if !c.advance(StateTranscribing) {
		out := cancelledOutcome(MsgStopped)
		out.Outputs = []string{path}
		return out
	}
	out := c.transcribe(ctx, path)
	out.Outputs = append([]string{path}, out.Outputs...)
	return out
}

// downloadDetail strips the classification prefix from a fetch error so
// the console shows yt-dlp's own message.
func downloadDetail(err error) string {
	msg := err.Error()
	if i := strings.Index(msg, "yt-dlp: "); i >= 0 {
		msg = msg[i+len("yt-dlp: "):]
	}
	return msg
}
