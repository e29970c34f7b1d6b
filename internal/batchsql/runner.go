package batchsql

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"goggles/internal/logging"
	"goggles/internal/queue"
	"goggles/internal/services"
)

// RowStore is the slice of the queue store the runner needs.
type RowStore interface {
	MarkDone(ctx context.Context, id int64) error
	Attachment(ctx context.Context, rowID int64) (*queue.Attachment, error)
}

// Runner executes batch-SQL rows.
type Runner struct {
	store    RowStore
	executor Executor
	tempDir  string
	logger   *slog.Logger
}

// NewRunner constructs a Runner writing temp scripts under tempDir.
func NewRunner(store RowStore, executor Executor, tempDir string, logger *slog.Logger) *Runner {
	return &Runner{
		store:    store,
		executor: executor,
		tempDir:  tempDir,
		logger:   logging.NewComponentLogger(logger, "batchsql"),
	}
}

// Execute consumes a batch-SQL row: mark done, run its script, clean up.
func (r *Runner) Execute(ctx context.Context, row *queue.Row) error {
	if row == nil || !row.IsPersisted() {
		return services.Wrap(services.ErrValidation, "batchsql", "execute", "row not persisted", nil)
	}
	ctx = services.WithRowID(ctx, row.ID)
	logger := logging.WithContext(ctx, r.logger)

	if err := r.store.MarkDone(ctx, row.ID); err != nil {
		return fmt.Errorf("mark batch row %d done: %w", row.ID, err)
	}
	row.Done = true

	attachment, err := r.store.Attachment(ctx, row.ID)
	if err != nil {
		return err
	}
	if attachment == nil || strings.TrimSpace(string(attachment.Content)) == "" {
		logger.Info("batch sql row has no script; consumed", logging.String(logging.FieldEventType, "batch_sql_empty"))
		return nil
	}

	scriptPath, err := r.materialize(row.ID, attachment.Content)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "batchsql", "materialize", r.tempDir, err)
	}
	defer func() {
		if removeErr := os.Remove(scriptPath); removeErr != nil && !os.IsNotExist(removeErr) {
			logging.WarnWithContext(logger, "temp script not removed", "batch_sql_cleanup_failed",
				logging.String("path", scriptPath),
				logging.Error(removeErr),
				logging.String(logging.FieldErrorHint, "check temp_dir permissions"),
				logging.String(logging.FieldImpact, "script copy remains on disk"),
			)
		}
	}()

	started := time.Now()
	stderr, execErr := r.executor.Execute(ctx, scriptPath)
	elapsed := time.Since(started)

	if strings.TrimSpace(stderr) != "" || execErr != nil {
		return &ExecutionError{RowID: row.ID, Stderr: stderr, Err: execErr}
	}

	logger.Info("batch sql executed",
		logging.String("file", attachment.Filename),
		logging.Int64("bytes", attachment.SizeBytes),
		logging.Duration("elapsed", elapsed),
		logging.String(logging.FieldEventType, "batch_sql_executed"),
	)
	return nil
}

func (r *Runner) materialize(rowID int64, content []byte) (string, error) {
	if err := os.MkdirAll(r.tempDir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(r.tempDir, fmt.Sprintf("row-%d-%s.sql", rowID, uuid.NewString()))
	file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return "", err
	}
	if _, err := file.Write(content); err != nil {
		file.Close()
		_ = os.Remove(path)
		return "", err
	}
	if err := file.Close(); err != nil {
		_ = os.Remove(path)
		return "", err
	}
	return path, nil
}
