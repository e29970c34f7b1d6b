package daemon_test

import (
	"context"
	"errors"
	"testing"

	"goggles/internal/daemon"
	"goggles/internal/jobs"
	"goggles/internal/logging"
	"goggles/internal/queue"
	"goggles/internal/testsupport"
	"goggles/internal/workflow"
)

func newDaemon(t *testing.T) (*daemon.Daemon, *queue.Store, chan struct{}) {
	t.Helper()
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	store, err := queue.Open(cfg)
	if err != nil {
		t.Fatalf("queue.Open: %v", err)
	}
	ran := make(chan struct{}, 8)
	mgr := workflow.NewManager(cfg, store, logging.NewNop())
	mgr.ConfigureJobs(workflow.JobSet{ImportQueue: func(context.Context) error {
		ran <- struct{}{}
		return nil
	}})
	d, err := daemon.New(cfg, store, logging.NewNop(), mgr)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	return d, store, ran
}

func TestDaemonStartStop(t *testing.T) {
	d, _, ran := newDaemon(t)
	t.Cleanup(func() {
		d.Close()
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	<-ran

	status := d.Status(ctx)
	if !status.Running {
		t.Fatal("expected daemon to report running")
	}
	if status.LockFilePath == "" || status.QueueDBPath == "" {
		t.Fatalf("expected paths in status, got %#v", status)
	}

	// Second start should fail
	if err := d.Start(ctx); err == nil {
		t.Fatal("expected second start to fail")
	}

	if err := d.Trigger(jobs.ImportQueueJobName); err != nil {
		t.Fatalf("Trigger: %v", err)
	}
	<-ran

	d.Stop()
	if d.Status(ctx).Running {
		t.Fatal("expected daemon to be stopped")
	}
	if err := d.Trigger(jobs.ImportQueueJobName); err == nil {
		t.Fatal("expected trigger on stopped daemon to fail")
	}
}

func TestDaemonLockExcludesSecondInstance(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	first, err := queue.Open(cfg)
	if err != nil {
		t.Fatalf("queue.Open: %v", err)
	}
	second, err := queue.Open(cfg)
	if err != nil {
		t.Fatalf("queue.Open: %v", err)
	}

	build := func(store *queue.Store) *daemon.Daemon {
		mgr := workflow.NewManager(cfg, store, logging.NewNop())
		mgr.ConfigureJobs(workflow.JobSet{IssueCleanup: func(context.Context) error { return nil }})
		d, err := daemon.New(cfg, store, logging.NewNop(), mgr)
		if err != nil {
			t.Fatalf("daemon.New: %v", err)
		}
		return d
	}
	a := build(first)
	b := build(second)
	t.Cleanup(func() {
		a.Close()
		b.Close()
	})

	ctx := context.Background()
	if err := a.Start(ctx); err != nil {
		t.Fatalf("first Start: %v", err)
	}
	if err := b.Start(ctx); !errors.Is(err, daemon.ErrAlreadyRunning) {
		t.Fatalf("expected ErrAlreadyRunning, got %v", err)
	}
	a.Stop()
	if err := b.Start(ctx); err != nil {
		t.Fatalf("start after release: %v", err)
	}
}
