package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"scribe/internal/bootstrap"
	"scribe/internal/config"
	"scribe/internal/deps"
	"scribe/internal/preflight"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var checkRelease bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show installed tools and directory health",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			var lines []string

			lines = append(lines, renderSectionHeader("Transcriber", colorize)...)
			lines = append(lines, transcriberStatusLine(cfg, colorize))
			if ctx.configPath != "" {
				lines = append(lines, renderStatusLine("Config", statusInfo, ctx.configPath, colorize))
			}
			lines = append(lines, "")

			lines = append(lines, renderSectionHeader("Dependencies", colorize)...)
			lines = append(lines, dependencyTable(preflight.CheckSystemDeps(cfg)), "")

			lines = append(lines, renderSectionHeader("Directories", colorize)...)
			for _, result := range preflight.RunAll(cmd.Context(), cfg, checkRelease) {
				kind := statusOK
				if !result.Passed {
					kind = statusError
					if result.Name == "Free space" || result.Name == "Release archive" {
						kind = statusWarn
					}
				}
				lines = append(lines, renderStatusLine(result.Name, kind, result.Detail, colorize))
			}

			_, err = fmt.Fprintln(out, strings.Join(lines, "\n"))
			return err
		},
	}
	cmd.Flags().BoolVar(&checkRelease, "check-release", false, "Check the release archive URL over the network")
	return cmd
}

func transcriberStatusLine(cfg *config.Config, colorize bool) string {
	loc := bootstrap.Locate(cfg)
	switch loc.Source {
	case deps.SourceInstallDir:
		return renderStatusLine("faster-whisper-xxl", statusOK, loc.Executable, colorize)
	case deps.SourcePath:
		msg := loc.Executable + " (from PATH)"
		if len(loc.Missing) > 0 {
			msg += "; install dir incomplete: missing " + strings.Join(loc.Missing, ", ")
		}
		return renderStatusLine("faster-whisper-xxl", statusWarn, msg, colorize)
	default:
		return renderStatusLine("faster-whisper-xxl", statusError, "not installed (run 'scribe setup')", colorize)
	}
}

func dependencyTable(statuses []deps.Status) string {
	rows := make([][]string, 0, len(statuses))
	for _, s := range statuses {
		state := "available"
		if !s.Found {
			state = "missing"
		}
		detail := s.Path
		if s.Detail != "" {
			detail = s.Detail
		}
		rows = append(rows, []string{s.Name, yesNo(!s.Optional), state, detail, s.Purpose})
	}
	return renderTable([]string{"Tool", "Required", "State", "Command", "Purpose"}, rows, nil, 60)
}
