package daemonrun

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"goggles/internal/batchsql"
	"goggles/internal/config"
	"goggles/internal/jobs"
	"goggles/internal/maintenance"
	"goggles/internal/notifications"
	"goggles/internal/primarydb"
	"goggles/internal/queue"
	"goggles/internal/resolver"
	"goggles/internal/solver"
	"goggles/internal/workflow"
)

// Runtime holds the wired job graph shared by the daemon and one-shot CLI runs.
type Runtime struct {
	Store        *queue.Store
	Maintenance  *maintenance.Flag
	Notifier     notifications.Service
	ImportQueue  *jobs.ImportQueueJob
	IssueCleanup *jobs.IssueCleanupJob

	primary *sql.DB
}

// Assemble wires solvers, resolver, batch runner and jobs on top of store.
// The primary datastore handle is lazy: nothing dials until a solver or the
// driver executor needs it.
func Assemble(cfg *config.Config, store *queue.Store, logger *slog.Logger) (*Runtime, error) {
	primary, err := primarydb.Connect(cfg, primarydb.Options{})
	if err != nil {
		return nil, err
	}
	executor, err := batchsql.NewExecutor(cfg)
	if err != nil {
		_ = primary.Close()
		return nil, fmt.Errorf("batch executor: %w", err)
	}

	registry := solver.NewRegistry(solver.NewSQLFinder(primary))
	flag := maintenance.New(store, logger)
	rowResolver := resolver.New(store, registry, logger)
	runner := batchsql.NewRunner(store, executor, cfg.Paths.TempDir, logger)
	notifier := notifications.NewService(cfg)

	return &Runtime{
		Store:        store,
		Maintenance:  flag,
		Notifier:     notifier,
		ImportQueue:  jobs.NewImportQueueJob(store, rowResolver, runner, flag, logger).WithNotifier(notifier),
		IssueCleanup: jobs.NewIssueCleanupJob(store, cfg.IssueObsolescence(), logger),
		primary:      primary,
	}, nil
}

// JobSet adapts the runtime to workflow lanes. The import-queue lane runs in
// auto mode.
func (r *Runtime) JobSet() workflow.JobSet {
	return workflow.JobSet{
		ImportQueue: func(ctx context.Context) error {
			return r.ImportQueue.Run(ctx, jobs.ModeAuto)
		},
		IssueCleanup: func(ctx context.Context) error {
			_, err := r.IssueCleanup.Run(ctx)
			return err
		},
	}
}

// Close releases the primary datastore pool. The queue store stays open.
func (r *Runtime) Close() error {
	if r.primary == nil {
		return nil
	}
	return r.primary.Close()
}
