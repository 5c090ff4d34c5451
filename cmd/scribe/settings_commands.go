package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"scribe/internal/settings"
)

func newSettingsCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show and change transcription settings",
	}
	cmd.AddCommand(newSettingsShowCommand(ctx))
	cmd.AddCommand(newSettingsSetCommand(ctx))
	cmd.AddCommand(newSettingsResetCommand(ctx))
	cmd.AddCommand(newSettingsPathCommand(ctx))
	return cmd
}

func newSettingsShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the current settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			defer ctx.close()
			if _, err := ctx.ensureConfig(); err != nil {
				return err
			}
			s := ctx.settingsStore().Load()
			rows := make([][]string, 0, len(settings.Keys()))
			for _, key := range settings.Keys() {
				value, err := s.Get(key)
				if err != nil {
					return err
				}
				if key == "language" {
					value = fmt.Sprintf("%s (%s)", value, s.LanguageName())
				}
				rows = append(rows, []string{key, value})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Setting", "Value"}, rows, nil, 0))
			return nil
		},
	}
}

func newSettingsSetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Change one setting and save it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			defer ctx.close()
			if _, err := ctx.ensureConfig(); err != nil {
				return err
			}
			return ctx.editSettings(func(m *settings.Manager) error {
				change, err := m.Set(args[0], args[1])
				if err != nil {
					return err
				}
				if change.Old == change.New {
					fmt.Fprintf(cmd.OutOrStdout(), "%s unchanged (%s)\n", change.Key, change.New)
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s -> %s\n", change.Key, change.Old, change.New)
				return nil
			})
		},
	}
}

func newSettingsResetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Restore default settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			defer ctx.close()
			if _, err := ctx.ensureConfig(); err != nil {
				return err
			}
			return ctx.editSettings(func(m *settings.Manager) error {
				m.Reset()
				fmt.Fprintln(cmd.OutOrStdout(), "Settings restored to defaults")
				return nil
			})
		},
	}
}

func newSettingsPathCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the settings file location",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cfg.Paths.SettingsPath)
			return nil
		},
	}
}

// editSettings applies fn to the stored settings through a Syncer, so the
// result is written exactly as a live edit would be.
func (c *commandContext) editSettings(fn func(*settings.Manager) error) error {
	store := c.settingsStore()
	mgr := settings.NewManager(store.Load())
	syncer := settings.NewSyncer(mgr, store, settings.DefaultSyncDelay, c.ensureLogger())
	fnErr := fn(mgr)
	if err := syncer.Close(); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return fnErr
}
