package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"goggles/internal/logging"
	"goggles/internal/notifications"
	"goggles/internal/queue"
	"goggles/internal/resolver"
	"goggles/internal/services"
)

// Job names used for queues, logs and CLI triggers.
const (
	ImportQueueJobName  = "import_queue"
	IssueCleanupJobName = "issue_cleanup"
)

// Mode selects the import-queue processing path.
type Mode string

const (
	ModeAuto  Mode = "auto"
	ModeMicro Mode = "iq"
	ModeMacro Mode = "sql"
)

// ParseMode accepts "auto", "iq" or "sql"; blank means auto.
func ParseMode(value string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(value))) {
	case "", ModeAuto:
		return ModeAuto, nil
	case ModeMicro:
		return ModeMicro, nil
	case ModeMacro:
		return ModeMacro, nil
	default:
		return "", fmt.Errorf("unknown import queue mode %q (want auto, iq or sql)", value)
	}
}

// QueueStore is the slice of the queue store the import-queue job needs.
type QueueStore interface {
	GetByID(ctx context.Context, id int64) (*queue.Row, error)
	Exists(ctx context.Context, id int64) (bool, error)
	DeleteDone(ctx context.Context) (int64, error)
	SolvableRows(ctx context.Context) ([]*queue.Row, error)
	BatchSQLRows(ctx context.Context) ([]*queue.Row, error)
	HasBatchSQL(ctx context.Context) (bool, error)
	LastSibling(ctx context.Context, id int64) (*queue.Row, error)
	IncrementRuns(ctx context.Context, id int64) error
}

// RowResolver resolves a single row.
type RowResolver interface {
	Resolve(ctx context.Context, row *queue.Row) (resolver.Result, error)
}

// SQLRunner consumes one batch-SQL row.
type SQLRunner interface {
	Execute(ctx context.Context, row *queue.Row) error
}

// MaintenanceHolder turns maintenance on for the duration of a macro batch.
type MaintenanceHolder interface {
	Hold(ctx context.Context) (func(context.Context) error, error)
}

// MicroReport summarizes a micro batch.
type MicroReport struct {
	Deleted     int64
	Resolved    int
	Solved      int
	Idle        int
	Skipped     int
	TailsSolved int
}

// MacroReport summarizes a macro batch.
type MacroReport struct {
	Purged   int64
	Executed int
}

// ImportQueueJob processes the import queue.
type ImportQueueJob struct {
	store       QueueStore
	resolver    RowResolver
	runner      SQLRunner
	maintenance MaintenanceHolder
	notifier    notifications.Service
	logger      *slog.Logger
}

// NewImportQueueJob wires the import-queue job.
func NewImportQueueJob(store QueueStore, rowResolver RowResolver, runner SQLRunner, maintenance MaintenanceHolder, logger *slog.Logger) *ImportQueueJob {
	return &ImportQueueJob{
		store:       store,
		resolver:    rowResolver,
		runner:      runner,
		maintenance: maintenance,
		notifier:    notifications.Noop(),
		logger:      logging.NewComponentLogger(logger, ImportQueueJobName),
	}
}

// WithNotifier routes batch SQL failures and finished macro batches to notifier.
func (j *ImportQueueJob) WithNotifier(notifier notifications.Service) *ImportQueueJob {
	if notifier != nil {
		j.notifier = notifier
	}
	return j
}

// Run executes one pass in the requested mode. Auto picks macro whenever an
// unconsumed batch-SQL row is queued, micro otherwise.
func (j *ImportQueueJob) Run(ctx context.Context, mode Mode) error {
	ctx = services.WithJob(ctx, ImportQueueJobName)
	if mode == ModeAuto || mode == "" {
		hasBatch, err := j.store.HasBatchSQL(ctx)
		if err != nil {
			return err
		}
		mode = ModeMicro
		if hasBatch {
			mode = ModeMacro
		}
	}
	switch mode {
	case ModeMacro:
		_, err := j.RunMacroBatch(ctx)
		return err
	case ModeMicro:
		_, err := j.RunMicroBatch(ctx)
		return err
	default:
		return fmt.Errorf("unknown import queue mode %q", mode)
	}
}

// RunMicroBatch deletes done rows, then walks the remaining solver rows in
// store order. A row with siblings is held idle while its newest sibling is
// resolved; a row whose parent still exists is held idle; anything else is
// resolved directly. The first error aborts the batch.
func (j *ImportQueueJob) RunMicroBatch(ctx context.Context) (MicroReport, error) {
	var report MicroReport
	logger := logging.WithContext(ctx, j.logger)

	deleted, err := j.store.DeleteDone(ctx)
	if err != nil {
		return report, err
	}
	report.Deleted = deleted

	rows, err := j.store.SolvableRows(ctx)
	if err != nil {
		return report, err
	}

	for _, listed := range rows {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		// Earlier iterations may have resolved or idled this row.
		row, err := j.store.GetByID(ctx, listed.ID)
		if err != nil {
			return report, err
		}
		if row == nil {
			continue
		}

		tail, err := j.store.LastSibling(ctx, row.ID)
		if err != nil {
			return report, err
		}
		switch {
		case tail != nil:
			if err := j.store.IncrementRuns(ctx, row.ID); err != nil {
				return report, err
			}
			report.Idle++
			if err := j.resolve(ctx, tail, &report); err != nil {
				return report, err
			}
			report.TailsSolved++
		case row.HasParent():
			parentExists, err := j.store.Exists(ctx, *row.ParentRowID)
			if err != nil {
				return report, err
			}
			if parentExists {
				if err := j.store.IncrementRuns(ctx, row.ID); err != nil {
					return report, err
				}
				report.Idle++
				continue
			}
			if err := j.resolve(ctx, row, &report); err != nil {
				return report, err
			}
		default:
			if err := j.resolve(ctx, row, &report); err != nil {
				return report, err
			}
		}
	}

	logger.Info("micro batch complete",
		logging.Int64("deleted", report.Deleted),
		logging.Int("resolved", report.Resolved),
		logging.Int("solved", report.Solved),
		logging.Int("idle", report.Idle),
		logging.Int("skipped", report.Skipped),
		logging.String(logging.FieldEventType, "micro_batch_complete"),
	)
	return report, nil
}

func (j *ImportQueueJob) resolve(ctx context.Context, row *queue.Row, report *MicroReport) error {
	result, err := j.resolver.Resolve(ctx, row)
	if err != nil {
		return err
	}
	if result.Skipped {
		report.Skipped++
		return nil
	}
	report.Resolved++
	if result.Solved {
		report.Solved++
	}
	return nil
}

// RunMacroBatch holds maintenance, purges done rows with their attachments
// and executes every queued batch-SQL row. Maintenance is released on every
// exit path, but only when this run turned it on. The first script failure
// aborts the remaining scripts.
func (j *ImportQueueJob) RunMacroBatch(ctx context.Context) (report MacroReport, err error) {
	logger := logging.WithContext(ctx, j.logger)

	release, err := j.maintenance.Hold(ctx)
	if err != nil {
		return report, err
	}
	defer func() {
		if releaseErr := release(context.WithoutCancel(ctx)); releaseErr != nil {
			if err == nil {
				err = releaseErr
				return
			}
			logging.ErrorWithContext(logger, "maintenance release failed", "maintenance_release_failed",
				logging.Error(releaseErr),
				logging.String(logging.FieldErrorHint, "run 'goggles maintenance off' once the batch is investigated"),
				logging.Alert("maintenance_stuck"),
			)
		}
	}()

	purged, err := j.store.DeleteDone(ctx)
	if err != nil {
		return report, err
	}
	report.Purged = purged

	rows, err := j.store.BatchSQLRows(ctx)
	if err != nil {
		return report, err
	}
	for _, row := range rows {
		if err := j.runner.Execute(ctx, row); err != nil {
			logging.ErrorWithContext(logger, "batch sql failed", "batch_sql_failed",
				logging.Int64(logging.FieldRowID, row.ID),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, services.Hint(err)),
				logging.Alert("batch_sql_failed"),
			)
			j.publish(ctx, notifications.EventBatchSQLFailed, notifications.Payload{
				"row_id": row.ID,
				"error":  err,
			})
			return report, err
		}
		report.Executed++
	}

	logger.Info("macro batch complete",
		logging.Int64("purged", report.Purged),
		logging.Int("executed", report.Executed),
		logging.String(logging.FieldEventType, "macro_batch_complete"),
	)
	if report.Executed > 0 {
		j.publish(ctx, notifications.EventMacroBatchCompleted, notifications.Payload{
			"executed": report.Executed,
			"purged":   report.Purged,
		})
	}
	return report, nil
}

func (j *ImportQueueJob) publish(ctx context.Context, event notifications.Event, payload notifications.Payload) {
	if err := j.notifier.Publish(ctx, event, payload); err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, j.logger), "notification failed", "notification_failed",
			logging.String("event", string(event)),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check notifications.ntfy_topic and network access"),
		)
	}
}
