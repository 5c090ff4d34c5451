package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"scribe/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var (
		limit     int
		clearRuns bool
	)
	cmd := &cobra.Command{
		Use:   "history [ID]",
		Short: "List past setup, transcription, and fetch runs",
		Long:  "List past runs. With an ID or ID prefix, show that run's detail and the last lines of its output.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			defer ctx.close()
			store, err := ctx.ensureHistory()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if clearRuns {
				n, err := store.Clear(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Removed %d run(s)\n", n)
				return nil
			}
			if len(args) == 1 {
				run, err := store.Lookup(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Fprint(out, runDetail(run, time.Now()))
				return nil
			}
			runs, err := store.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs recorded")
				return nil
			}
			fmt.Fprintln(out, historyTable(runs, time.Now()))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to show (0 for all)")
	cmd.Flags().BoolVar(&clearRuns, "clear", false, "Delete all recorded runs")
	return cmd
}

func historyTable(runs []*history.Run, now time.Time) string {
	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		id := run.ID
		if len(id) > 8 {
			id = id[:8]
		}
		exit := "-"
		if run.ExitCode != nil {
			exit = strconv.Itoa(*run.ExitCode)
		}
		duration := "-"
		if d := run.Duration(); d > 0 {
			duration = d.Round(time.Second).String()
		}
		input := run.Input
		if input == "" {
			input = "-"
		}
		rows = append(rows, []string{
			id,
			string(run.Kind),
			string(run.Status),
			exit,
			humanize.RelTime(run.StartedAt, now, "ago", "from now"),
			duration,
			input,
		})
	}
	return renderTable(
		[]string{"ID", "Kind", "Status", "Exit", "Started", "Took", "Input"},
		rows,
		map[int]text.Align{3: text.AlignRight, 5: text.AlignRight},
		60,
	)
}

func runDetail(run *history.Run, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "ID:      %s\n", run.ID)
	fmt.Fprintf(&b, "Kind:    %s\n", run.Kind)
	fmt.Fprintf(&b, "Status:  %s\n", run.Status)
	if run.Input != "" {
		fmt.Fprintf(&b, "Input:   %s\n", run.Input)
	}
	if run.ExitCode != nil {
		fmt.Fprintf(&b, "Exit:    %d\n", *run.ExitCode)
	}
	fmt.Fprintf(&b, "Started: %s\n", humanize.RelTime(run.StartedAt, now, "ago", "from now"))
	if d := run.Duration(); d > 0 {
		fmt.Fprintf(&b, "Took:    %s\n", d.Round(time.Second))
	}
	for _, path := range strings.Split(run.Output, "\n") {
		if path != "" {
			fmt.Fprintf(&b, "Output:  %s\n", path)
		}
	}
	if run.Detail != "" {
		b.WriteString("\n" + run.Detail + "\n")
	}
	return b.String()
}
