package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateDatabase(); err != nil {
		return err
	}
	if err := c.validateJobs(); err != nil {
		return err
	}
	if err := c.validateIssues(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateDatabase() error {
	if c.Database.Host == "" {
		return errors.New("database.host must be set")
	}
	if c.Database.Port <= 0 || c.Database.Port > 65535 {
		return fmt.Errorf("database.port must be between 1 and 65535, got %d", c.Database.Port)
	}
	if c.Database.Name == "" {
		return errors.New("database.name must be set")
	}
	switch c.Database.Executor {
	case ExecutorClient, ExecutorDriver:
	default:
		return fmt.Errorf("database.executor: unsupported value %q (want %q or %q)", c.Database.Executor, ExecutorClient, ExecutorDriver)
	}
	return nil
}

func (c *Config) validateJobs() error {
	if c.Jobs.ImportQueueInterval <= 0 {
		return errors.New("jobs.import_queue_interval must be positive")
	}
	if c.Jobs.IssueCleanupInterval <= 0 {
		return errors.New("jobs.issue_cleanup_interval must be positive")
	}
	if c.Jobs.MaxAttempts <= 0 {
		return errors.New("jobs.max_attempts must be positive")
	}
	if c.Jobs.MaxRunTime <= 0 {
		return errors.New("jobs.max_run_time must be positive")
	}
	if c.Jobs.RetryBackoff < 0 {
		return errors.New("jobs.retry_backoff must not be negative")
	}
	return nil
}

func (c *Config) validateIssues() error {
	if c.Issues.ObsoleteAfterDays <= 0 {
		return errors.New("issues.obsolete_after_days must be positive")
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if c.Notifications.RequestTimeout < 0 {
		return errors.New("notifications.request_timeout must be >= 0")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
