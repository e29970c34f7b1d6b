package workflow

import (
	"context"
	"log/slog"
	"time"
)

// JobFunc performs one attempt of a job.
type JobFunc func(ctx context.Context) error

// JobSet bundles the jobs the manager schedules. Nil jobs are not scheduled.
type JobSet struct {
	ImportQueue  JobFunc
	IssueCleanup JobFunc
}

type laneState struct {
	name     string
	queue    string
	interval time.Duration
	job      JobFunc
	trigger  chan struct{}
	logger   *slog.Logger

	// guarded by Manager.mu
	status LaneStatus
}

// LaneStatus is a snapshot of one lane's bookkeeping.
type LaneStatus struct {
	Name         string
	Queue        string
	Interval     time.Duration
	Active       bool
	Runs         int
	Failures     int
	LastRunID    string
	LastStarted  time.Time
	LastFinished time.Time
	LastDuration time.Duration
	LastAttempts int
	LastError    string
}
