package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateTiming(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateServer() error {
	if strings.TrimSpace(c.Server.BaseURL) == "" {
		return errors.New("server.base_url must be set")
	}
	parsed, err := url.Parse(c.Server.BaseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("server.base_url %q is not a valid URL", c.Server.BaseURL)
	}
	return nil
}

func (c *Config) validateTiming() error {
	if c.Publish.Concurrency > 10 {
		return errors.New("publish.concurrency must be between 1 and 10")
	}
	if c.Poll.JobMaxInterval < c.Poll.JobInterval {
		return errors.New("poll.job_max_interval must be >= poll.job_interval")
	}
	if c.Poll.StatusIdle < c.Poll.StatusActive {
		return errors.New("poll.status_idle_interval must be >= poll.status_active_interval")
	}
	if c.Autosave.MaxWait < c.Autosave.Debounce {
		return errors.New("autosave.max_wait must be >= autosave.debounce")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}
