package workflow

import (
	"context"
	"time"

	"goggles/internal/logging"
	"goggles/internal/queue"
)

// StatusSummary represents lightweight workflow diagnostics.
type StatusSummary struct {
	Running    bool
	LastError  string
	Lanes      []LaneStatus
	QueueStats *queue.Stats
}

// Status returns the latest workflow information.
func (m *Manager) Status(ctx context.Context) StatusSummary {
	m.mu.RLock()
	summary := StatusSummary{Running: m.running}
	if m.lastErr != nil {
		summary.LastError = m.lastErr.Error()
	}
	for _, name := range m.laneOrder {
		if lane := m.lanes[name]; lane != nil {
			summary.Lanes = append(summary.Lanes, lane.status)
		}
	}
	m.mu.RUnlock()

	if m.stats != nil {
		stats, err := m.stats.Stats(ctx)
		if err != nil {
			m.logger.Warn("failed to read queue stats", logging.Error(err))
		} else {
			summary.QueueStats = &stats
		}
	}
	return summary
}

func (m *Manager) setLastError(err error) {
	m.mu.Lock()
	m.lastErr = err
	m.mu.Unlock()
}

func (m *Manager) markActive(lane *laneState, started time.Time) {
	m.mu.Lock()
	lane.status.Active = true
	lane.status.LastStarted = started
	m.mu.Unlock()
}

func (m *Manager) markFinished(lane *laneState, runID string, started time.Time, attempts int, err error) {
	finished := time.Now()
	m.mu.Lock()
	defer m.mu.Unlock()
	lane.status.Active = false
	lane.status.Runs++
	lane.status.LastRunID = runID
	lane.status.LastFinished = finished
	lane.status.LastDuration = finished.Sub(started)
	lane.status.LastAttempts = attempts
	lane.status.LastError = ""
	if err != nil {
		lane.status.Failures++
		lane.status.LastError = err.Error()
	}
}
