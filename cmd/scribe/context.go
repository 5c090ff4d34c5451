package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"scribe/internal/config"
	"scribe/internal/history"
	"scribe/internal/logging"
	"scribe/internal/settings"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configPath string
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	logCloser  io.Closer

	historyOnce sync.Once
	history     *history.Store
	historyErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = resolved
	})
	return c.config, c.configErr
}

// ensureLogger returns the file logger for cfg, falling back to a logger
// that only mirrors warnings to stderr when the log file cannot be opened.
func (c *commandContext) ensureLogger() *slog.Logger {
	c.loggerOnce.Do(func() {
		logger, closer, err := logging.NewFromConfig(c.config)
		if err != nil {
			fallback, fallbackCloser, _ := logging.NewFromConfig(nil)
			logging.WarnWithContext(fallback, "log file unavailable", "log_open_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check paths.log_dir and logging settings"),
			)
			logger, closer = fallback, fallbackCloser
		}
		c.logger = logger
		c.logCloser = closer
	})
	return c.logger
}

func (c *commandContext) settingsStore() *settings.Store {
	return settings.NewStore(c.config.Paths.SettingsPath, c.ensureLogger())
}

func (c *commandContext) ensureHistory() (*history.Store, error) {
	c.historyOnce.Do(func() {
		store, err := history.Open(c.config)
		if err != nil {
			c.historyErr = fmt.Errorf("open run history: %w", err)
			return
		}
		c.history = store
	})
	return c.history, c.historyErr
}

func (c *commandContext) close() {
	if c.history != nil {
		_ = c.history.Close()
		c.history = nil
	}
	if c.logCloser != nil {
		_ = c.logCloser.Close()
		c.logCloser = nil
	}
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
