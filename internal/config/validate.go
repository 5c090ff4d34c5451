package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateBootstrap(); err != nil {
		return err
	}
	if err := ensurePositiveMap(map[string]int{
		"bootstrap.connect_timeout_seconds": c.Bootstrap.ConnectTimeoutSeconds,
		"process.stop_grace_seconds":        c.Process.StopGraceSeconds,
	}); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateBootstrap() error {
	for key, value := range map[string]string{
		"bootstrap.linux_url":   c.Bootstrap.LinuxURL,
		"bootstrap.windows_url": c.Bootstrap.WindowsURL,
	} {
		if value == "" {
			return fmt.Errorf("%s must be set", key)
		}
		parsed, err := url.Parse(value)
		if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
			return fmt.Errorf("%s must be an http(s) URL, got %q", key, value)
		}
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return errors.New("logging.level must be one of debug, info, warn, error")
	}
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
