package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"scribe/internal/console"
	"scribe/internal/coordinator"
	"scribe/internal/logging"
	"scribe/internal/settings"
)

// taskOptions are the flags shared by commands that run the transcriber.
type taskOptions struct {
	yes       bool
	overrides []string
}

func (o *taskOptions) register(cmd *cobra.Command) {
	cmd.Flags().BoolVarP(&o.yes, "yes", "y", false, "Install faster-whisper-xxl without prompting when it is missing")
	cmd.Flags().StringArrayVar(&o.overrides, "set", nil, "Override a setting for this run only (key=value, repeatable)")
}

func newSetupCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "setup",
		Short: "Download and install faster-whisper-xxl",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			defer ctx.close()
			rt, err := ctx.newTaskRuntime(cmd.OutOrStdout(), nil)
			if err != nil {
				return err
			}
			return rt.run(cmd.Context(), func(ctx context.Context) (coordinator.Outcome, error) {
				return rt.coord.Bootstrap(ctx)
			})
		},
	}
}

func newTranscribeCommand(ctx *commandContext) *cobra.Command {
	var opts taskOptions
	cmd := &cobra.Command{
		Use:   "transcribe <file>",
		Short: "Transcribe a local audio or video file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			defer ctx.close()
			rt, err := ctx.newTaskRuntime(cmd.OutOrStdout(), opts.overrides)
			if err != nil {
				return err
			}
			if err := rt.ensureInstalled(cmd, opts.yes); err != nil {
				return err
			}
			return rt.run(cmd.Context(), func(ctx context.Context) (coordinator.Outcome, error) {
				return rt.coord.Transcribe(ctx, args[0])
			})
		},
	}
	opts.register(cmd)
	return cmd
}

func newFetchCommand(ctx *commandContext) *cobra.Command {
	var (
		opts  taskOptions
		video bool
	)
	cmd := &cobra.Command{
		Use:   "fetch <url>",
		Short: "Download media with yt-dlp and transcribe it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			defer ctx.close()
			overrides := opts.overrides
			if video {
				overrides = append(overrides, "audio_only=false")
			}
			rt, err := ctx.newTaskRuntime(cmd.OutOrStdout(), overrides)
			if err != nil {
				return err
			}
			if err := rt.ensureInstalled(cmd, opts.yes); err != nil {
				return err
			}
			return rt.run(cmd.Context(), func(ctx context.Context) (coordinator.Outcome, error) {
				return rt.coord.FetchAndTranscribe(ctx, args[0])
			})
		},
	}
	opts.register(cmd)
	cmd.Flags().BoolVar(&video, "video", false, "Download the full video instead of audio only")
	return cmd
}

// taskRuntime is the wiring for one foreground task.
type taskRuntime struct {
	coord *coordinator.Coordinator
	out   io.Writer
}

func (c *commandContext) newTaskRuntime(out io.Writer, overrides []string) (*taskRuntime, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger := c.ensureLogger()

	mgr := settings.NewManager(c.settingsStore().Load())
	for _, kv := range overrides {
		key, value, ok := strings.Cut(kv, "=")
		if !ok {
			return nil, fmt.Errorf("invalid --set %q: expected key=value", kv)
		}
		if _, err := mgr.Set(strings.TrimSpace(key), strings.TrimSpace(value)); err != nil {
			return nil, err
		}
	}

	opts := []coordinator.Option{coordinator.WithLogger(logger)}
	if store, err := c.ensureHistory(); err != nil {
		logging.WarnWithContext(logger, "run history unavailable", "history_open_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check paths.state_dir is writable"),
		)
	} else {
		opts = append(opts, coordinator.WithRecorder(store))
	}

	coord, err := coordinator.New(cfg, mgr, console.New(console.NewTerminalSink(out)), opts...)
	if err != nil {
		return nil, err
	}
	return &taskRuntime{coord: coord, out: out}, nil
}

// ensureInstalled runs the bootstrap first when the transcriber is missing.
// Without --yes it asks on an interactive stdin and refuses otherwise.
func (rt *taskRuntime) ensureInstalled(cmd *cobra.Command, yes bool) error {
	if !rt.coord.NeedsBootstrap() {
		return nil
	}
	if !yes {
		in := cmd.InOrStdin()
		if !isInteractive(in) {
			return errors.New("faster-whisper-xxl is not installed; run 'scribe setup' or pass --yes")
		}
		fmt.Fprint(rt.out, "faster-whisper-xxl is not installed. Download it now? [y/N] ")
		if !confirm(in) {
			return errors.New("faster-whisper-xxl is required; run 'scribe setup' to install it")
		}
	}
	return rt.run(cmd.Context(), func(ctx context.Context) (coordinator.Outcome, error) {
		return rt.coord.Bootstrap(ctx)
	})
}

// run executes task with SIGINT/SIGTERM wired to Coordinator.Stop. A second
// signal exits immediately.
func (rt *taskRuntime) run(parent context.Context, task func(context.Context) (coordinator.Outcome, error)) error {
	if parent == nil {
		parent = context.Background()
	}
	signals := make(chan os.Signal, 2)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(signals)

	finished := make(chan struct{})
	defer close(finished)
	go func() {
		stopping := false
		for {
			select {
			case <-finished:
				return
			case <-signals:
				if stopping {
					fmt.Fprintln(os.Stderr, "Forced exit.")
					os.Exit(exitCancelled)
				}
				stopping = true
				rt.coord.Stop()
			}
		}
	}()

	out, err := task(parent)
	if err != nil {
		return err
	}
	switch {
	case out.Succeeded():
		return nil
	case out.Cancelled():
		return &exitError{code: exitCancelled}
	default:
		return &exitError{code: exitFailed}
	}
}

func isInteractive(r io.Reader) bool {
	f, ok := r.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func confirm(r io.Reader) bool {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}
