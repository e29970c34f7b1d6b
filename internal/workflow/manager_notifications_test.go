package workflow_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"goggles/internal/jobs"
	"goggles/internal/logging"
	"goggles/internal/notifications"
	"goggles/internal/testsupport"
	"goggles/internal/workflow"
)

func TestPermanentFailurePublishesJobFailed(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Jobs.MaxAttempts = 2
	notifier := &stubNotifier{}
	mgr := workflow.NewManagerWithNotifier(cfg, nil, logging.NewNop(), notifier)
	job := newCountingJob(transient("db busy"), transient("db still busy"))
	mgr.ConfigureJobs(workflow.JobSet{ImportQueue: job.Run})

	require.Error(t, mgr.RunNow(context.Background(), jobs.ImportQueueJobName))

	events := notifier.Events()
	require.Len(t, events, 1, "retried attempts must not notify individually")
	assert.Equal(t, notifications.EventJobFailed, events[0].event)
	assert.Equal(t, jobs.ImportQueueJobName, events[0].payload["job"])
	assert.Equal(t, 2, events[0].payload["attempts"])
	assert.ErrorContains(t, events[0].payload["error"].(error), "db still busy")
}

func TestRecoveredJobDoesNotNotify(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	notifier := &stubNotifier{}
	mgr := workflow.NewManagerWithNotifier(cfg, nil, logging.NewNop(), notifier)
	job := newCountingJob(transient("db busy"))
	mgr.ConfigureJobs(workflow.JobSet{IssueCleanup: job.Run})

	require.NoError(t, mgr.RunNow(context.Background(), jobs.IssueCleanupJobName))
	assert.Empty(t, notifier.Events())
}

func TestNotifierErrorDoesNotMaskJobError(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Jobs.MaxAttempts = 1
	notifier := &stubNotifier{err: errors.New("ntfy down")}
	mgr := workflow.NewManagerWithNotifier(cfg, nil, logging.NewNop(), notifier)
	mgr.ConfigureJobs(workflow.JobSet{ImportQueue: newCountingJob(transient("boom")).Run})

	err := mgr.RunNow(context.Background(), jobs.ImportQueueJobName)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
	assert.Len(t, notifier.Events(), 1)
}
