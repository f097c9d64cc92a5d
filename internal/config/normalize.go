package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeServer()
	c.normalizeTiming()
	c.normalizeLogging()
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNtfyRequestTimeout
	}
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeServer() {
	c.Server.BaseURL = strings.TrimRight(strings.TrimSpace(c.Server.BaseURL), "/")
	if c.Server.ReadTimeout <= 0 {
		c.Server.ReadTimeout = defaultReadTimeout
	}
}

func (c *Config) normalizeTiming() {
	if c.Publish.Concurrency <= 0 {
		c.Publish.Concurrency = defaultStartConcurrency
	}
	if c.Publish.DirectConcurrency <= 0 {
		c.Publish.DirectConcurrency = defaultDirectConcurrency
	}
	if c.Poll.JobInterval <= 0 {
		c.Poll.JobInterval = defaultJobPollInterval
	}
	if c.Poll.JobMaxInterval < c.Poll.JobInterval {
		c.Poll.JobMaxInterval = defaultJobPollMaxInterval
	}
	if c.Poll.StatusActive <= 0 {
		c.Poll.StatusActive = defaultStatusActive
	}
	if c.Poll.StatusIdle <= 0 {
		c.Poll.StatusIdle = defaultStatusIdle
	}
	if c.Poll.StatusMaxInterval < c.Poll.StatusIdle {
		c.Poll.StatusMaxInterval = defaultStatusMaxInterval
	}
	if c.Poll.ResumeWindowHours <= 0 {
		c.Poll.ResumeWindowHours = defaultResumeWindowHours
	}
	if c.Poll.ResumeGrace <= 0 {
		c.Poll.ResumeGrace = defaultResumeGraceSeconds
	}
	if c.Autosave.Debounce <= 0 {
		c.Autosave.Debounce = defaultAutosaveDebounce
	}
	if c.Autosave.MaxWait <= 0 {
		c.Autosave.MaxWait = defaultAutosaveMaxWait
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
