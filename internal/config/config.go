package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	DataDir string `toml:"data_dir"`
	LogDir  string `toml:"log_dir"`
	TempDir string `toml:"temp_dir"`
}

// Database describes the primary datastore that solvers read from and
// macro-transaction scripts run against.
type Database struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	User     string `toml:"user"`
	Password string `toml:"password"`
	Name     string `toml:"name"`
	// ClientBinary is the SQL command-line client used by the "client" executor.
	ClientBinary string `toml:"client_binary"`
	// Executor selects how batch SQL scripts run: "client" (subprocess) or
	// "driver" (in-process with multi-statement support).
	Executor string `toml:"executor"`
}

// Jobs contains background job scheduling and retry policy.
type Jobs struct {
	ImportQueueInterval  int `toml:"import_queue_interval"`
	IssueCleanupInterval int `toml:"issue_cleanup_interval"`
	MaxAttempts          int `toml:"max_attempts"`
	MaxRunTime           int `toml:"max_run_time"`
	RetryBackoff         int `toml:"retry_backoff"`
}

// Issues contains configuration for the issue-report garbage collector.
type Issues struct {
	ObsoleteAfterDays int `toml:"obsolete_after_days"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	// NtfyTopic is the full topic URL; empty disables notifications.
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for goggles.
//
// Configuration sections by subsystem:
//   - Paths: data (queue database, lock file), logs and temp script directory
//   - Database: primary datastore connection and batch SQL executor
//   - Jobs: queue polling intervals, attempts and run-time ceiling
//   - Issues: obsolescence window for the issue cleanup job
//   - Notifications: ntfy alerts for failed jobs and batch SQL
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	Database      Database      `toml:"database"`
	Jobs          Jobs          `toml:"jobs"`
	Issues        Issues        `toml:"issues"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/goggles/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("goggles.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for job operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir, c.Paths.TempDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// QueueDBPath returns the location of the SQLite queue database.
func (c *Config) QueueDBPath() string {
	return filepath.Join(c.Paths.DataDir, "queue.db")
}

// LockPath returns the location of the worker single-instance lock.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.DataDir, "goggles.lock")
}

// ImportQueueInterval returns the polling period of the import queue lane.
func (c *Config) ImportQueueInterval() time.Duration {
	return time.Duration(c.Jobs.ImportQueueInterval) * time.Second
}

// IssueCleanupInterval returns the polling period of the issue cleanup lane.
func (c *Config) IssueCleanupInterval() time.Duration {
	return time.Duration(c.Jobs.IssueCleanupInterval) * time.Second
}

// MaxRunTime returns the wall-clock ceiling of a single job attempt.
func (c *Config) MaxRunTime() time.Duration {
	return time.Duration(c.Jobs.MaxRunTime) * time.Second
}

// RetryBackoff returns the pause between failed job attempts.
func (c *Config) RetryBackoff() time.Duration {
	return time.Duration(c.Jobs.RetryBackoff) * time.Second
}

// IssueObsolescence returns how long a closed issue report is retained.
func (c *Config) IssueObsolescence() time.Duration {
	return time.Duration(c.Issues.ObsoleteAfterDays) * 24 * time.Hour
}

// NotificationTimeout returns the HTTP timeout for a single notification.
func (c *Config) NotificationTimeout() time.Duration {
	return time.Duration(c.Notifications.RequestTimeout) * time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
