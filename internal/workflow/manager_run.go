package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"goggles/internal/logging"
	"goggles/internal/services"
)

// ErrUnknownJob reports a trigger or run for a job that is not configured.
var ErrUnknownJob = errors.New("unknown job")

// Start begins background processing.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return errors.New("workflow already running")
	}
	lanes := make([]*laneState, 0, len(m.laneOrder))
	for _, name := range m.laneOrder {
		if lane := m.lanes[name]; lane != nil {
			lanes = append(lanes, lane)
		}
	}
	if len(lanes) == 0 {
		m.mu.Unlock()
		return errors.New("workflow jobs not configured")
	}

	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.running = true
	for _, lane := range lanes {
		lane.logger = m.laneLogger(lane)
	}
	m.wg.Add(len(lanes))
	m.mu.Unlock()

	for _, lane := range lanes {
		go m.runLane(runCtx, lane)
	}
	return nil
}

// Stop terminates background processing and waits for in-flight runs.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	cancel := m.cancel
	m.running = false
	m.cancel = nil
	m.mu.Unlock()

	cancel()
	m.wg.Wait()
}

// Trigger wakes a lane ahead of its next poll. Triggers coalesce while a run
// is pending.
func (m *Manager) Trigger(name string) error {
	lane, err := m.lane(name)
	if err != nil {
		return err
	}
	select {
	case lane.trigger <- struct{}{}:
	default:
	}
	return nil
}

// RunNow runs a job synchronously under the retry policy. It must not be
// used for a lane that a started manager is also polling.
func (m *Manager) RunNow(ctx context.Context, name string) error {
	lane, err := m.lane(name)
	if err != nil {
		return err
	}
	if lane.logger == nil {
		lane.logger = m.laneLogger(lane)
	}
	return m.execute(ctx, lane)
}

func (m *Manager) lane(name string) (*laneState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	lane := m.lanes[name]
	if lane == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownJob, name)
	}
	return lane, nil
}

func (m *Manager) runLane(ctx context.Context, lane *laneState) {
	defer m.wg.Done()

	interval := lane.interval
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		_ = m.execute(ctx, lane)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		case <-lane.trigger:
		}
	}
}

// execute runs the lane's job until it succeeds, fails permanently or runs
// out of attempts.
func (m *Manager) execute(ctx context.Context, lane *laneState) error {
	maxAttempts := max(m.maxAttempts, 1)
	started := time.Now()
	m.markActive(lane, started)

	var (
		err     error
		runID   string
		attempt int
	)
	for attempt = 1; attempt <= maxAttempts; attempt++ {
		runID = uuid.NewString()
		err = m.attempt(ctx, lane, runID, attempt)
		if err == nil {
			break
		}
		if ctx.Err() != nil {
			break
		}
		if !services.Retryable(err) || attempt == maxAttempts {
			break
		}
		logging.WithContext(withRunContext(ctx, lane, runID), lane.logger).Warn("job attempt failed; retrying",
			logging.Int("attempt", attempt),
			logging.Int("max_attempts", maxAttempts),
			logging.Duration("backoff", m.backoff),
			logging.Error(err),
			logging.String(logging.FieldEventType, "job_retry"),
			logging.String(logging.FieldErrorHint, services.Hint(err)),
			logging.String(logging.FieldImpact, "job will be retried"),
		)
		if !sleepCtx(ctx, m.backoff) {
			err = ctx.Err()
			break
		}
	}
	attempts := min(attempt, maxAttempts)

	m.markFinished(lane, runID, started, attempts, err)
	if err != nil && ctx.Err() == nil {
		m.handleJobFailure(withRunContext(ctx, lane, runID), lane, attempts, err)
	}
	return err
}

func (m *Manager) attempt(ctx context.Context, lane *laneState, runID string, attempt int) error {
	runCtx := withRunContext(ctx, lane, runID)
	if m.maxRunTime > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(runCtx, m.maxRunTime)
		defer cancel()
	}
	logger := logging.WithContext(runCtx, lane.logger)
	start := time.Now()
	logger.Debug("job started",
		logging.Int("attempt", attempt),
		logging.String(logging.FieldEventType, "job_start"),
	)

	err := lane.job(runCtx)
	if err != nil && errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
		err = services.Wrap(services.ErrTimeout, lane.name, "run", fmt.Sprintf("exceeded max run time of %s", m.maxRunTime), err)
	}
	if err != nil {
		return err
	}
	logger.Info("job completed",
		logging.Int("attempt", attempt),
		logging.Duration("job_duration", time.Since(start)),
		logging.String(logging.FieldEventType, "job_complete"),
	)
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
