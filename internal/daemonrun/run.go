package daemonrun

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"goggles/internal/config"
	"goggles/internal/daemon"
	"goggles/internal/logging"
	"goggles/internal/queue"
	"goggles/internal/workflow"
)

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel string
}

// Run starts the goggles worker and blocks until SIGINT or SIGTERM.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}
	logCfg := *cfg
	if opts.LogLevel != "" {
		logCfg.Logging.Level = opts.LogLevel
	}
	logger, err := logging.NewFromConfig(&logCfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	pidPath := filepath.Join(cfg.Paths.DataDir, "goggles.pid")
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	store, err := queue.Open(cfg)
	if err != nil {
		logger.Error("open queue store", logging.Error(err))
		return err
	}

	runtime, err := Assemble(cfg, store, logger)
	if err != nil {
		_ = store.Close()
		return err
	}
	defer runtime.Close()

	manager := workflow.NewManagerWithNotifier(cfg, store, logger, runtime.Notifier)
	manager.ConfigureJobs(runtime.JobSet())

	d, err := daemon.New(cfg, store, logger, manager)
	if err != nil {
		_ = store.Close()
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	if err := d.Start(signalCtx); err != nil {
		return err
	}
	logStartup(logger, cfg)

	<-signalCtx.Done()
	logger.Info("goggles daemon shutting down", logging.String(logging.FieldEventType, "daemon_shutdown"))
	return nil
}

func logStartup(logger *slog.Logger, cfg *config.Config) {
	logger.Info("job schedule",
		logging.String(logging.FieldEventType, "job_schedule"),
		logging.Duration("import_queue_interval", cfg.ImportQueueInterval()),
		logging.Duration("issue_cleanup_interval", cfg.IssueCleanupInterval()),
		logging.Int("max_attempts", cfg.Jobs.MaxAttempts),
		logging.Duration("max_run_time", cfg.MaxRunTime()),
		logging.String("executor", cfg.Database.Executor),
		logging.String("client_binary", cfg.Database.ClientBinary),
	)
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}
