package batchsql

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"

	"goggles/internal/config"
	"goggles/internal/primarydb"
)

// Executor runs a materialized script and returns what it wrote to stderr.
type Executor interface {
	Execute(ctx context.Context, scriptPath string) (stderr string, err error)
}

// NewExecutor selects the executor named by cfg.Database.Executor.
func NewExecutor(cfg *config.Config) (Executor, error) {
	switch cfg.Database.Executor {
	case config.ExecutorClient:
		return NewClientExecutor(cfg), nil
	case config.ExecutorDriver:
		return NewDriverExecutor(cfg), nil
	default:
		return nil, fmt.Errorf("unsupported batch executor %q", cfg.Database.Executor)
	}
}

// ClientExecutor pipes the script into the SQL command-line client.
type ClientExecutor struct {
	binary   string
	database config.Database
}

// NewClientExecutor builds a ClientExecutor from cfg.
func NewClientExecutor(cfg *config.Config) *ClientExecutor {
	return &ClientExecutor{binary: cfg.Database.ClientBinary, database: cfg.Database}
}

// Args returns the client arguments; the password travels in MYSQL_PWD.
func (c *ClientExecutor) Args() []string {
	args := []string{
		"--host=" + c.database.Host,
		"--port=" + strconv.Itoa(c.database.Port),
		"--batch",
	}
	if c.database.User != "" {
		args = append(args, "--user="+c.database.User)
	}
	return append(args, c.database.Name)
}

func (c *ClientExecutor) Execute(ctx context.Context, scriptPath string) (string, error) {
	script, err := os.Open(scriptPath)
	if err != nil {
		return "", fmt.Errorf("open script: %w", err)
	}
	defer script.Close()

	cmd := exec.CommandContext(ctx, c.binary, c.Args()...) //nolint:gosec
	cmd.Stdin = script
	cmd.Env = append(os.Environ(), "MYSQL_PWD="+c.database.Password)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return stderr.String(), fmt.Errorf("%s: %w", c.binary, err)
	}
	return stderr.String(), nil
}

// DriverExecutor runs the whole script in one multi-statement Exec.
type DriverExecutor struct {
	cfg *config.Config
}

// NewDriverExecutor builds a DriverExecutor from cfg.
func NewDriverExecutor(cfg *config.Config) *DriverExecutor {
	return &DriverExecutor{cfg: cfg}
}

func (d *DriverExecutor) Execute(ctx context.Context, scriptPath string) (string, error) {
	script, err := os.ReadFile(scriptPath)
	if err != nil {
		return "", fmt.Errorf("read script: %w", err)
	}
	db, err := primarydb.Open(ctx, d.cfg, primarydb.Options{MultiStatements: true})
	if err != nil {
		return "", err
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, string(script)); err != nil {
		return err.Error(), fmt.Errorf("exec script: %w", err)
	}
	return "", nil
}
