package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var configFlag string
	ctx := newCommandContext(&configFlag)

	root := &cobra.Command{
		Use:           "scribe",
		Short:         "Transcribe audio and video with faster-whisper-xxl",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	root.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")

	root.AddGroup(
		&cobra.Group{ID: "tasks", Title: "Tasks:"},
		&cobra.Group{ID: "manage", Title: "Inspection and settings:"},
	)
	groups := map[string][]*cobra.Command{
		"tasks": {newSetupCommand(ctx), newTranscribeCommand(ctx), newFetchCommand(ctx)},
		"manage": {
			newStatusCommand(ctx), newHistoryCommand(ctx), newLogsCommand(ctx),
			newSettingsCommand(ctx), newConfigCommand(ctx),
		},
	}
	for id, cmds := range groups {
		for _, c := range cmds {
			c.GroupID = id
			root.AddCommand(c)
		}
	}
	return root
}
