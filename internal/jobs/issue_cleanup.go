package jobs

import (
	"context"
	"log/slog"
	"time"

	"goggles/internal/logging"
	"goggles/internal/queue"
	"goggles/internal/services"
)

// IssueStore deletes obsolete issue reports.
type IssueStore interface {
	DeleteObsoleteIssues(ctx context.Context, maxStatus queue.IssueStatus, cutoff time.Time) (int64, error)
}

// IssueCleanupJob garbage-collects closed issue reports.
type IssueCleanupJob struct {
	store  IssueStore
	window time.Duration
	now    func() time.Time
	logger *slog.Logger
}

// NewIssueCleanupJob deletes issues closed for longer than window.
func NewIssueCleanupJob(store IssueStore, window time.Duration, logger *slog.Logger) *IssueCleanupJob {
	return &IssueCleanupJob{
		store:  store,
		window: window,
		now:    time.Now,
		logger: logging.NewComponentLogger(logger, IssueCleanupJobName),
	}
}

// WithClock overrides the time source.
func (j *IssueCleanupJob) WithClock(now func() time.Time) *IssueCleanupJob {
	j.now = now
	return j
}

// Run deletes issues past the processable statuses whose last update is
// older than the window.
func (j *IssueCleanupJob) Run(ctx context.Context) (int64, error) {
	ctx = services.WithJob(ctx, IssueCleanupJobName)
	cutoff := j.now().Add(-j.window)
	deleted, err := j.store.DeleteObsoleteIssues(ctx, queue.MaxProcessableIssueStatus, cutoff)
	if err != nil {
		return 0, err
	}
	logging.WithContext(ctx, j.logger).Info("obsolete issues deleted",
		logging.Int64("deleted", deleted),
		logging.String("cutoff", cutoff.UTC().Format(time.RFC3339)),
		logging.String(logging.FieldEventType, "issues_cleaned"),
	)
	return deleted, nil
}
