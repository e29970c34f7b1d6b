package workflow

import (
	"time"

	"goggles/internal/jobs"
)

// ConfigureJobs registers the jobs the manager will schedule. It replaces any
// previous configuration and must be called before Start.
func (m *Manager) ConfigureJobs(set JobSet) {
	lanes := make(map[string]*laneState)
	order := make([]string, 0, 2)

	add := func(name string, job JobFunc, interval time.Duration) {
		if job == nil {
			return
		}
		lanes[name] = &laneState{
			name:     name,
			queue:    name,
			interval: interval,
			job:      job,
			trigger:  make(chan struct{}, 1),
			status:   LaneStatus{Name: name, Queue: name, Interval: interval},
		}
		order = append(order, name)
	}
	add(jobs.ImportQueueJobName, set.ImportQueue, m.importInterval)
	add(jobs.IssueCleanupJobName, set.IssueCleanup, m.cleanupInterval)

	m.mu.Lock()
	m.lanes = lanes
	m.laneOrder = order
	m.mu.Unlock()
}
